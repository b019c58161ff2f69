package bridge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lyrisync/lyrisync/pkg/config"
	"github.com/lyrisync/lyrisync/pkg/openlp"
	"github.com/lyrisync/lyrisync/pkg/vmix"
)

// Actions understood by Dispatch, shared by the control API and deck roles.
const (
	ActionShowLyrics     = "show_lyrics"
	ActionClearLyrics    = "clear_lyrics"
	ActionToggleOverlay  = "toggle_overlay"
	ActionStartRecording = "start_recording"
	ActionStopRecording  = "stop_recording"
)

// KnownAction reports whether Dispatch understands the action name.
func KnownAction(action string) bool {
	switch action {
	case ActionShowLyrics, ActionClearLyrics, ActionToggleOverlay,
		ActionStartRecording, ActionStopRecording:
		return true
	}
	return false
}

// State is the shared bridge state reported by the control API.
type State struct {
	Lyrics        string `json:"lyrics"`
	OverlayOn     bool   `json:"overlay_on"`
	Recording     bool   `json:"recording"`
	ConnectionsOK int    `json:"connections_ok"`
}

// vmixClient is the slice of the vMix API the bridge drives.
type vmixClient interface {
	SetTitleText(ctx context.Context, input, field, text string) error
	TriggerOverlay(ctx context.Context, channel int, action string) error
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	Status(ctx context.Context) (*vmix.Status, error)
	Close()
}

// Bundle is one configured connection at runtime: the OpenLP listener and
// the vMix instance its slides feed.
type Bundle struct {
	Conn     config.Connection
	VMix     vmixClient
	Listener *openlp.Listener
}

// Bridge owns the sync state and fans lyrics out to every configured vMix.
type Bridge struct {
	cfg     *config.Config
	bundles []*Bundle
	log     *logrus.Logger

	mu           sync.Mutex
	state        State
	lastLyricsAt time.Time
}

// New builds a Bridge with live vMix clients and OpenLP listeners for every
// configured connection.
func New(cfg *config.Config, log *logrus.Logger) *Bridge {
	if log == nil {
		log = logrus.StandardLogger()
	}
	b := &Bridge{cfg: cfg, log: log}
	for _, conn := range cfg.Bundles() {
		wsURL := fmt.Sprintf("ws://%s:%d", conn.OpenLPIP, conn.WSPort)
		b.bundles = append(b.bundles, &Bundle{
			Conn:     conn,
			VMix:     vmix.NewClient(conn.VMixAPIURL),
			Listener: openlp.NewListener(wsURL, log.WithField("conn", conn.Name)),
		})
	}
	return b
}

// State returns a copy of the current bridge state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Roles exposes the configured deck roles to the control API.
func (b *Bridge) Roles() []config.Role {
	return b.cfg.Roles
}

// ActionForKey resolves a deck button press through the configured roles.
func (b *Bridge) ActionForKey(deck int, key string) (string, bool) {
	return b.cfg.ActionForKey(deck, key)
}

// SetLyrics stores raw lyrics text and restarts the idle clock.
func (b *Bridge) SetLyrics(text string) {
	b.mu.Lock()
	b.state.Lyrics = text
	b.lastLyricsAt = time.Now()
	b.mu.Unlock()
}

// ShowLyrics pushes the stored lyrics, uppercased and wrapped, to every
// mapped title field, then runs the overlay automation.
func (b *Bridge) ShowLyrics(ctx context.Context) error {
	b.mu.Lock()
	text := b.state.Lyrics
	b.mu.Unlock()

	payload := SoftWrap(strings.ToUpper(text), b.cfg.Settings.MaxCharsPerLine)
	b.broadcast(ctx, payload)

	s := b.cfg.Settings
	if s.OverlayAlwaysOn {
		return b.overlay(ctx, vmix.OverlayOn)
	}
	if s.AutoOverlayOnSend {
		return b.overlay(ctx, vmix.OverlayIn)
	}
	return nil
}

// ClearLyrics blanks every mapped title field. With overlay_always_on the
// overlay stays up over blank text, otherwise the automation takes it out.
func (b *Bridge) ClearLyrics(ctx context.Context) error {
	b.broadcast(ctx, "")

	s := b.cfg.Settings
	if s.OverlayAlwaysOn {
		return nil
	}
	if s.AutoOverlayOutOnClear {
		return b.overlay(ctx, vmix.OverlayOut)
	}
	return nil
}

// ToggleOverlay fires In on the configured channel of the first vMix, which
// treats repeated In calls as a toggle.
func (b *Bridge) ToggleOverlay(ctx context.Context) error {
	return b.overlay(ctx, vmix.OverlayIn)
}

// StartRecording starts recording on the first vMix.
func (b *Bridge) StartRecording(ctx context.Context) error {
	if len(b.bundles) > 0 {
		if err := b.bundles[0].VMix.StartRecording(ctx); err != nil {
			return err
		}
	}
	b.mu.Lock()
	b.state.Recording = true
	b.mu.Unlock()
	return nil
}

// StopRecording stops recording on the first vMix.
func (b *Bridge) StopRecording(ctx context.Context) error {
	if len(b.bundles) > 0 {
		if err := b.bundles[0].VMix.StopRecording(ctx); err != nil {
			return err
		}
	}
	b.mu.Lock()
	b.state.Recording = false
	b.mu.Unlock()
	return nil
}

// HandleSlide reacts to one OpenLP slide: blanks clear the output when
// clear_on_blank is set, everything else is shown.
func (b *Bridge) HandleSlide(ctx context.Context, slide openlp.Slide) {
	b.SetLyrics(slide.Text)

	var err error
	if slide.Blank && b.cfg.Settings.ClearOnBlank {
		err = b.ClearLyrics(ctx)
	} else {
		err = b.ShowLyrics(ctx)
	}
	if err != nil {
		b.log.WithError(err).Warn("slide handling failed")
	}
}

// Dispatch routes an action name to its operation.
func (b *Bridge) Dispatch(ctx context.Context, action string) error {
	switch action {
	case ActionShowLyrics:
		return b.ShowLyrics(ctx)
	case ActionClearLyrics:
		return b.ClearLyrics(ctx)
	case ActionToggleOverlay:
		return b.ToggleOverlay(ctx)
	case ActionStartRecording:
		return b.StartRecording(ctx)
	case ActionStopRecording:
		return b.StopRecording(ctx)
	default:
		return errors.Errorf("unknown action: %s", action)
	}
}

// broadcast fans text out to every mapping of every bundle concurrently.
// Failures are logged per target; one dead vMix must not stop the rest.
func (b *Bridge) broadcast(ctx context.Context, text string) {
	var wg sync.WaitGroup
	for _, bundle := range b.bundles {
		for _, m := range bundle.Conn.Mappings {
			wg.Add(1)
			go func(bundle *Bundle, m config.Mapping) {
				defer wg.Done()
				if err := bundle.VMix.SetTitleText(ctx, m.Input, m.Field, text); err != nil {
					b.log.WithError(err).WithFields(logrus.Fields{
						"conn":  bundle.Conn.Name,
						"input": m.Input,
						"field": m.Field,
					}).Warn("failed to set title text")
				}
			}(bundle, m)
		}
	}
	wg.Wait()
}

// overlay triggers an overlay action on the first bundle's vMix. The
// overlay is global, so only the first connection drives it.
func (b *Bridge) overlay(ctx context.Context, action string) error {
	if len(b.bundles) == 0 {
		return nil
	}
	return b.bundles[0].VMix.TriggerOverlay(ctx, b.cfg.Settings.OverlayChannel, action)
}
