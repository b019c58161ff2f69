package bridge

import "testing"

func TestSoftWrap(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{
			name: "empty input",
			text: "",
			max:  36,
			want: "",
		},
		{
			name: "whitespace only",
			text: "   \t  ",
			max:  36,
			want: "",
		},
		{
			name: "non-positive max returns input unchanged",
			text: "leave me alone",
			max:  0,
			want: "leave me alone",
		},
		{
			name: "fits on one line",
			text: "AMAZING GRACE",
			max:  36,
			want: "AMAZING GRACE",
		},
		{
			name: "exact fit stays on one line",
			text: "ABCDE FGHIJ",
			max:  11,
			want: "ABCDE FGHIJ",
		},
		{
			name: "splits at the first overflow",
			text: "HOW SWEET THE SOUND",
			max:  10,
			want: "HOW SWEET\nTHE SOUND",
		},
		{
			name: "overlong first word stays on line one",
			text: "SUPERCALIFRAGILISTIC WORD",
			max:  10,
			want: "SUPERCALIFRAGILISTIC\nWORD",
		},
		{
			name: "second line may exceed max",
			text: "ONE TWO THREE FOUR FIVE SIX SEVEN",
			max:  7,
			want: "ONE TWO\nTHREE FOUR FIVE SIX SEVEN",
		},
		{
			name: "word order preserved after the break",
			text: "AAA BBBBBB CC",
			max:  7,
			want: "AAA\nBBBBBB CC",
		},
		{
			name: "internal whitespace collapses",
			text: "  SPACED   OUT  WORDS  ",
			max:  36,
			want: "SPACED OUT WORDS",
		},
		{
			name: "counts runes not bytes",
			text: "ÀÉÎÕÜ ÄÖß",
			max:  9,
			want: "ÀÉÎÕÜ ÄÖß",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SoftWrap(tt.text, tt.max); got != tt.want {
				t.Errorf("SoftWrap(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}
