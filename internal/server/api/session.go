package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/scoreturner/internal/session"
	"github.com/ayusman/scoreturner/internal/store"
)

// SessionController switches gesture input on and off.
type SessionController interface {
	Status() session.Status
	SetGesturesEnabled(bool) (store.Settings, error)
	Recalibrate()
}

// SessionHandler serves /api/session and its enable, disable and
// recalibrate actions.
type SessionHandler struct {
	ctrl SessionController
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(ctrl SessionController) *SessionHandler {
	return &SessionHandler{ctrl: ctrl}
}

// ServeHTTP answers every request with the resulting session status.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(r.URL.Path, "/api/session")
	action = strings.Trim(action, "/")

	if action == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.ctrl.Status())
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "enable", "disable":
		if _, err := h.ctrl.SetGesturesEnabled(action == "enable"); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	case "recalibrate":
		h.ctrl.Recalibrate()
	default:
		writeError(w, http.StatusNotFound, "Unknown session action")
		return
	}

	writeJSON(w, http.StatusOK, h.ctrl.Status())
}
