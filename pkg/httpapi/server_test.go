package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lyrisync/lyrisync/pkg/bridge"
	"github.com/lyrisync/lyrisync/pkg/config"
)

type fakeController struct {
	mu      sync.Mutex
	state   bridge.State
	actions []string
	lyrics  []string
	err     error
	roles   []config.Role
	keys    map[string]string
}

func (f *fakeController) State() bridge.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeController) SetLyrics(text string) {
	f.mu.Lock()
	f.lyrics = append(f.lyrics, text)
	f.mu.Unlock()
}

func (f *fakeController) Dispatch(ctx context.Context, action string) error {
	f.mu.Lock()
	f.actions = append(f.actions, action)
	f.mu.Unlock()
	return f.err
}

func (f *fakeController) Roles() []config.Role { return f.roles }

func (f *fakeController) ActionForKey(deck int, key string) (string, bool) {
	action, ok := f.keys[fmt.Sprintf("%d/%s", deck, key)]
	return action, ok
}

func newTestServer(t *testing.T, ctrl *fakeController) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := &Server{Addr: "test", Controller: ctrl, Log: logger}
	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	resp, err := http.Post(url, "application/json", reader)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestStatusEndpoint(t *testing.T) {
	ctrl := &fakeController{state: bridge.State{
		Lyrics:        "HELLO",
		OverlayOn:     true,
		Recording:     false,
		ConnectionsOK: 2,
	}}
	server := newTestServer(t, ctrl)

	resp, err := http.Get(server.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var state bridge.State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ctrl.state, state); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestShowLyrics(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantLyrics []string
	}{
		{name: "with text", body: `{"text": "new lyrics"}`, wantLyrics: []string{"new lyrics"}},
		{name: "empty text still updates", body: `{"text": ""}`, wantLyrics: []string{""}},
		{name: "no body shows stored lyrics", body: "", wantLyrics: nil},
		{name: "body without text key", body: `{}`, wantLyrics: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			server := newTestServer(t, ctrl)

			resp := postJSON(t, server.URL+"/api/show_lyrics", tt.body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if out := decodeResponse(t, resp); out["success"] != true {
				t.Errorf("response = %v, want success", out)
			}
			if diff := cmp.Diff(tt.wantLyrics, ctrl.lyrics); diff != "" {
				t.Errorf("SetLyrics calls mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{bridge.ActionShowLyrics}, ctrl.actions); diff != "" {
				t.Errorf("dispatched actions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFixedActionEndpoints(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/api/clear_lyrics", want: bridge.ActionClearLyrics},
		{path: "/api/toggle_overlay", want: bridge.ActionToggleOverlay},
		{path: "/api/start_recording", want: bridge.ActionStartRecording},
		{path: "/api/stop_recording", want: bridge.ActionStopRecording},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ctrl := &fakeController{}
			server := newTestServer(t, ctrl)

			resp := postJSON(t, server.URL+tt.path, "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if diff := cmp.Diff([]string{tt.want}, ctrl.actions); diff != "" {
				t.Errorf("dispatched actions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer(t, &fakeController{})

	resp, err := http.Get(server.URL + "/api/clear_lyrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET on POST endpoint = %d, want 405", resp.StatusCode)
	}

	resp = postJSON(t, server.URL+"/api/status", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST on GET endpoint = %d, want 405", resp.StatusCode)
	}
}

func TestMalformedBody(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(t, ctrl)

	resp := postJSON(t, server.URL+"/api/show_lyrics", `{"text": broken`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	out := decodeResponse(t, resp)
	if out["success"] != false || out["error"] == "" {
		t.Errorf("response = %v, want success false with error", out)
	}
	if len(ctrl.actions) != 0 {
		t.Errorf("actions = %v, want none for rejected request", ctrl.actions)
	}
}

func TestDispatchErrorReturns500(t *testing.T) {
	ctrl := &fakeController{err: errors.New("vmix exploded")}
	server := newTestServer(t, ctrl)

	resp := postJSON(t, server.URL+"/api/clear_lyrics", "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	out := decodeResponse(t, resp)
	if out["error"] != "vmix exploded" {
		t.Errorf("error = %v, want the dispatch error", out["error"])
	}
}

func TestActionEndpoint(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(t, ctrl)

	resp := postJSON(t, server.URL+"/api/action", `{"action": "toggle_overlay"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if diff := cmp.Diff([]string{"toggle_overlay"}, ctrl.actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}

	resp = postJSON(t, server.URL+"/api/action", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing action = %d, want 400", resp.StatusCode)
	}
}

func TestDeckEndpoint(t *testing.T) {
	ctrl := &fakeController{keys: map[string]string{"1/0": "show_lyrics"}}
	server := newTestServer(t, ctrl)

	resp := postJSON(t, server.URL+"/api/deck", `{"deck": 1, "key": "0"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mapped key status = %d, want 200", resp.StatusCode)
	}
	if diff := cmp.Diff([]string{"show_lyrics"}, ctrl.actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}

	resp = postJSON(t, server.URL+"/api/deck", `{"deck": 1, "key": "9"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unmapped key status = %d, want 404", resp.StatusCode)
	}
}

func TestRolesEndpoint(t *testing.T) {
	ctrl := &fakeController{roles: []config.Role{
		{Name: "Lyrics", Decks: []int{1}, Buttons: map[string]string{"0": "show_lyrics"}},
	}}
	server := newTestServer(t, ctrl)

	resp, err := http.Get(server.URL + "/api/roles")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var payload struct {
		Roles []config.Role `json:"roles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ctrl.roles, payload.Roles); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
}

func TestClientRoundTrip(t *testing.T) {
	ctrl := &fakeController{
		state: bridge.State{Lyrics: "UP", ConnectionsOK: 1},
		keys:  map[string]string{"1/0": "clear_lyrics"},
	}
	server := newTestServer(t, ctrl)
	client := NewClientURL(server.URL)
	ctx := context.Background()

	state, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if state.Lyrics != "UP" || state.ConnectionsOK != 1 {
		t.Errorf("Status() = %+v, want the controller state", state)
	}

	if err := client.Send(ctx, "line"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := client.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := client.ToggleOverlay(ctx); err != nil {
		t.Fatalf("ToggleOverlay() error = %v", err)
	}
	if err := client.StartRecording(ctx); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if err := client.StopRecording(ctx); err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}
	if err := client.Do(ctx, "show_lyrics"); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if err := client.Deck(ctx, 1, "0"); err != nil {
		t.Fatalf("Deck() error = %v", err)
	}

	want := []string{
		bridge.ActionShowLyrics,
		bridge.ActionClearLyrics,
		bridge.ActionToggleOverlay,
		bridge.ActionStartRecording,
		bridge.ActionStopRecording,
		"show_lyrics",
		"clear_lyrics",
	}
	if diff := cmp.Diff(want, ctrl.actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"line"}, ctrl.lyrics); diff != "" {
		t.Errorf("lyrics mismatch (-want +got):\n%s", diff)
	}
}

func TestClientSurfacesServerErrors(t *testing.T) {
	ctrl := &fakeController{err: errors.New("vmix exploded")}
	server := newTestServer(t, ctrl)
	client := NewClientURL(server.URL)

	err := client.Clear(context.Background())
	if err == nil {
		t.Fatal("Clear() error = nil, want dispatch error")
	}
	if !strings.Contains(err.Error(), "vmix exploded") {
		t.Errorf("error = %v, want the server error text", err)
	}
}

func TestClientUnreachable(t *testing.T) {
	client := NewClientURL("http://127.0.0.1:1")
	if _, err := client.Status(context.Background()); err == nil {
		t.Fatal("Status() error = nil, want connection error")
	}
}
