package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lyrisync/lyrisync/pkg/bridge"
	"github.com/lyrisync/lyrisync/pkg/config"
)

const shutdownTimeout = 5 * time.Second

// Controller is the bridge surface the control API exposes.
type Controller interface {
	State() bridge.State
	SetLyrics(text string)
	Dispatch(ctx context.Context, action string) error
	Roles() []config.Role
	ActionForKey(deck int, key string) (string, bool)
}

// Server is the local control API. It serves the same endpoints the
// desktop build exposed, so existing deck and companion setups keep
// working against it.
type Server struct {
	Addr       string
	Controller Controller
	Log        *logrus.Logger
}

// New returns a Server listening on all interfaces at the given port.
func New(port int, ctrl Controller, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		Addr:       fmt.Sprintf("0.0.0.0:%d", port),
		Controller: ctrl,
		Log:        log,
	}
}

// Run serves until ctx is canceled, then drains connections for up to five
// seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.Log.WithField("addr", s.Addr).Info("control api listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "failed to shut down control api")
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "control api failed on %s", s.Addr)
	}
}

// Handler builds the route table. Split out so tests can serve it through
// httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/show_lyrics", s.handleShowLyrics)
	mux.HandleFunc("POST /api/clear_lyrics", s.handleAction(bridge.ActionClearLyrics))
	mux.HandleFunc("POST /api/toggle_overlay", s.handleAction(bridge.ActionToggleOverlay))
	mux.HandleFunc("POST /api/start_recording", s.handleAction(bridge.ActionStartRecording))
	mux.HandleFunc("POST /api/stop_recording", s.handleAction(bridge.ActionStopRecording))
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/roles", s.handleRoles)
	mux.HandleFunc("POST /api/action", s.handleDispatch)
	mux.HandleFunc("POST /api/deck", s.handleDeck)
	return mux
}

func (s *Server) handleShowLyrics(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text *string `json:"text"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Text != nil {
		s.Controller.SetLyrics(*payload.Text)
	}
	s.dispatch(w, r, bridge.ActionShowLyrics)
}

// handleAction returns a handler that dispatches one fixed action.
func (s *Server) handleAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.dispatch(w, r, action)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Controller.State())
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	roles := s.Controller.Roles()
	if roles == nil {
		roles = []config.Role{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Action string `json:"action"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Action == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing action"))
		return
	}
	s.dispatch(w, r, payload.Action)
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Deck int    `json:"deck"`
		Key  string `json:"key"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	action, ok := s.Controller.ActionForKey(payload.Deck, payload.Key)
	if !ok {
		writeError(w, http.StatusNotFound,
			errors.Errorf("no action mapped for deck %d key %q", payload.Deck, payload.Key))
		return
	}
	s.dispatch(w, r, action)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, action string) {
	if err := s.Controller.Dispatch(r.Context(), action); err != nil {
		s.Log.WithError(err).WithField("action", action).Warn("action failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// decodeBody parses an optional JSON request body. An empty body is fine,
// everything else has to be valid JSON.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errors.Wrap(err, "invalid request body")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
}
