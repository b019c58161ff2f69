package openlp

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// DefaultPort is the OpenLP remote-sync WebSocket port.
const DefaultPort = 4317

const (
	initialBackoff   = 2 * time.Second
	maxBackoff       = 15 * time.Second
	handshakeTimeout = 10 * time.Second
	pingPeriod       = 20 * time.Second
	pongWait         = 40 * time.Second
	writeWait        = 5 * time.Second
)

// Slide is one lyrics update pushed by OpenLP. Blank marks slides that
// should clear the output: empty text, blank screens, or service clears.
type Slide struct {
	Text  string
	Blank bool
}

// Listener maintains a WebSocket connection to one OpenLP instance,
// reconnecting with backoff, and reports every slide it receives.
type Listener struct {
	URL string

	// Callbacks are optional and invoked from the listener goroutine.
	OnConnect    func()
	OnDisconnect func()
	OnSlide      func(Slide)

	Log *logrus.Entry

	mu        sync.Mutex
	connected bool
}

// NewListener returns a Listener for a ws://host:port endpoint.
func NewListener(wsURL string, log *logrus.Entry) *Listener {
	return &Listener{URL: wsURL, Log: log}
}

// Connected reports whether the listener currently holds an open socket.
func (l *Listener) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Run connects and listens until ctx is canceled. Lost connections are
// retried with doubling backoff, reset after each successful connect.
func (l *Listener) Run(ctx context.Context) {
	backoff := initialBackoff
	for {
		if l.listen(ctx) {
			backoff = initialBackoff
		}
		if l.OnDisconnect != nil {
			l.OnDisconnect()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// listen runs one connection and reports whether the dial succeeded.
func (l *Listener) listen(ctx context.Context) bool {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, l.URL, nil)
	if err != nil {
		if ctx.Err() == nil {
			l.log().WithError(err).Debug("openlp dial failed")
		}
		return false
	}
	defer conn.Close()

	l.setConnected(true)
	defer l.setConnected(false)
	l.log().Info("connected to openlp")
	if l.OnConnect != nil {
		l.OnConnect()
	}

	// Ping loop. Also closes the socket on ctx cancel so the read below
	// unblocks.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-stop:
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				l.log().WithError(err).Debug("openlp connection lost")
			}
			return true
		}
		if l.OnSlide != nil {
			l.OnSlide(ParseSlide(msg))
		}
	}
}

// ParseSlide decodes one OpenLP frame. Anything that is not the expected
// JSON object becomes a blank slide; a bad frame must never kill the
// connection or leave stale lyrics on screen.
func ParseSlide(raw []byte) Slide {
	var payload struct {
		Text   string `json:"text"`
		Type   string `json:"type"`
		Action string `json:"action"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Slide{Blank: true}
	}

	slide := Slide{Text: payload.Text}
	if strings.TrimSpace(payload.Text) == "" {
		slide.Blank = true
	}
	if isBlankMarker(payload.Type) || isBlankMarker(payload.Action) {
		slide.Blank = true
	}
	return slide
}

func isBlankMarker(s string) bool {
	switch strings.ToLower(s) {
	case "blank", "clear":
		return true
	}
	return false
}

func (l *Listener) setConnected(v bool) {
	l.mu.Lock()
	l.connected = v
	l.mu.Unlock()
}

func (l *Listener) log() *logrus.Entry {
	if l.Log != nil {
		return l.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
