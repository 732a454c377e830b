package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/scoreturner/internal/gesture"
	"github.com/ayusman/scoreturner/internal/pager"
	"github.com/ayusman/scoreturner/internal/plugin"
	"github.com/ayusman/scoreturner/internal/session"
	"github.com/ayusman/scoreturner/internal/store"
)

// fakeController keeps settings in memory.
type fakeController struct {
	settings     store.Settings
	saveErr      error
	recalibrated int
}

func (f *fakeController) Settings() store.Settings { return f.settings }

func (f *fakeController) UpdateSettings(s store.Settings) (store.Settings, error) {
	if f.saveErr != nil {
		return store.Settings{}, f.saveErr
	}
	f.settings = s.Clamp()
	return f.settings, nil
}

func (f *fakeController) Status() session.Status {
	return session.Status{Enabled: f.settings.UseFaceGestures}
}

func (f *fakeController) SetGesturesEnabled(enabled bool) (store.Settings, error) {
	s := f.settings
	s.UseFaceGestures = enabled
	return f.UpdateSettings(s)
}

func (f *fakeController) Recalibrate() { f.recalibrated++ }

func TestSettingsHandler(t *testing.T) {
	ctrl := &fakeController{settings: store.DefaultSettings()}
	handler := NewSettingsHandler(ctrl)

	t.Run("get returns current settings", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/settings", nil)
		var got store.Settings
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if got != store.DefaultSettings() {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("partial put keeps other fields and clamps", func(t *testing.T) {
		rec := serve(handler, http.MethodPut, "/api/settings", `{"smile_enabled": true, "cooldown_ms": 99999}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var got store.Settings
		json.NewDecoder(rec.Body).Decode(&got)
		if !got.SmileEnabled || got.CooldownMs != store.MaxCooldownMs {
			t.Errorf("unexpected settings %+v", got)
		}
		if got.WinkClosedThreshold != store.DefaultSettings().WinkClosedThreshold {
			t.Error("omitted fields should be kept")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := serve(handler, http.MethodPut, "/api/settings", "{")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("save failure", func(t *testing.T) {
		failing := NewSettingsHandler(&fakeController{saveErr: errors.New("disk full")})
		rec := serve(failing, http.MethodPut, "/api/settings", `{}`)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := serve(handler, http.MethodDelete, "/api/settings", nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestSessionHandler(t *testing.T) {
	ctrl := &fakeController{settings: store.DefaultSettings()}
	handler := NewSessionHandler(ctrl)

	status := func(rec *httptest.ResponseRecorder) session.Status {
		t.Helper()
		var st session.Status
		if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
			t.Fatalf("failed to decode status: %v", err)
		}
		return st
	}

	if st := status(serve(handler, http.MethodGet, "/api/session", nil)); st.Enabled {
		t.Error("session should start disabled")
	}
	if st := status(serve(handler, http.MethodPost, "/api/session/enable", nil)); !st.Enabled {
		t.Error("enable did not enable")
	}
	if !ctrl.settings.UseFaceGestures {
		t.Error("enable should persist through settings")
	}

	serve(handler, http.MethodPost, "/api/session/recalibrate", nil)
	if ctrl.recalibrated != 1 {
		t.Errorf("recalibrated %d times, want 1", ctrl.recalibrated)
	}

	if st := status(serve(handler, http.MethodPost, "/api/session/disable", nil)); st.Enabled {
		t.Error("disable did not disable")
	}

	if rec := serve(handler, http.MethodPost, "/api/session/pause", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown action: expected %d, got %d", http.StatusNotFound, rec.Code)
	}
	if rec := serve(handler, http.MethodGet, "/api/session/enable", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET action: expected %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestPageHandler(t *testing.T) {
	pg := pager.New(0)
	handler := NewPageHandler(pg)

	decode := func(t *testing.T, body []byte) pageResponse {
		t.Helper()
		var got pageResponse
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return got
	}

	rec := serve(handler, http.MethodPut, "/api/page", `{"count": 12, "page": 20}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := decode(t, rec.Body.Bytes()); got.Page != 11 || got.Count != 12 {
		t.Errorf("page should clamp to the new count, got %+v", got)
	}

	pg.Previous()
	if got := decode(t, serve(handler, http.MethodGet, "/api/page", nil).Body.Bytes()); got.Page != 10 {
		t.Errorf("GET page = %d, want 10", got.Page)
	}

	if rec := serve(handler, http.MethodPut, "/api/page", `{"count": -1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("negative count: expected %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if rec := serve(handler, http.MethodPost, "/api/page", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: expected %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestEventHandler(t *testing.T) {
	s := newTestStore(t)
	for i, k := range []gesture.Kind{gesture.WinkRight, gesture.WinkRight, gesture.NodUp} {
		err := s.Events().Record(&store.GestureEvent{Gesture: k, Command: store.CommandNext, Page: i + 1, FiredAtMs: int64(i * 1000)})
		if err != nil {
			t.Fatal(err)
		}
	}
	handler := NewEventHandler(s)

	rec := serve(handler, http.MethodGet, "/api/events?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listEventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(response.Events))
	}
	if response.Events[0].Gesture != gesture.NodUp {
		t.Errorf("newest event first, got %v", response.Events[0].Gesture)
	}
	if response.Counts[gesture.WinkRight] != 2 || response.Counts[gesture.NodUp] != 1 {
		t.Errorf("unexpected counts %v", response.Counts)
	}

	for _, bad := range []string{"abc", "-3"} {
		if rec := serve(handler, http.MethodGet, "/api/events?limit="+bad, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected %d, got %d", bad, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestPluginHandler(t *testing.T) {
	dir := t.TempDir()
	h := NewPluginHandler(plugin.NewManager(dir))

	var body listPluginsResponse
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plugins", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if len(body.Plugins) != 0 {
		t.Fatalf("expected no plugins before a scan, got %+v", body.Plugins)
	}

	pluginDir := filepath.Join(dir, "keyboard")
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"keyboard","version":"1.0.0","executable":"keyboard","actions":["next_page","previous_page"]}`
	if err := os.WriteFile(filepath.Join(pluginDir, plugin.ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plugins", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d", rec.Code)
	}
	body = listPluginsResponse{}
	json.NewDecoder(rec.Body).Decode(&body)
	if len(body.Plugins) != 1 || body.Plugins[0].Name != "keyboard" || len(body.Plugins[0].Actions) != 2 {
		t.Errorf("unexpected plugins %+v", body.Plugins)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/plugins", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d", rec.Code)
	}
}
