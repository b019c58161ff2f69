package bridge

import (
	"strings"
	"unicode/utf8"
)

// SoftWrap folds text into at most two lines around max characters per
// line. Words fill the first line while they fit, the rest joins the second
// line, which is never split further. An overlong first word stays on line
// one, and word order is always preserved.
func SoftWrap(text string, max int) string {
	if text == "" || max <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	line1 := words[0]
	i := 1
	for ; i < len(words); i++ {
		cand := line1 + " " + words[i]
		if utf8.RuneCountInString(cand) > max {
			break
		}
		line1 = cand
	}
	if i == len(words) {
		return line1
	}
	return line1 + "\n" + strings.Join(words[i:], " ")
}
