package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/scoreturner/internal/store"
)

// SettingsController reads and applies gesture settings.
type SettingsController interface {
	Settings() store.Settings
	UpdateSettings(store.Settings) (store.Settings, error)
}

// SettingsHandler serves /api/settings.
type SettingsHandler struct {
	ctrl SettingsController
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(ctrl SettingsController) *SettingsHandler {
	return &SettingsHandler{ctrl: ctrl}
}

// ServeHTTP handles GET and PUT. A PUT body only needs the fields being
// changed; out-of-range numbers are clamped, not rejected.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.ctrl.Settings())
	case http.MethodPut:
		s := h.ctrl.Settings()
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		saved, err := h.ctrl.UpdateSettings(s)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
