package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/scoreturner/internal/gesture"
	"github.com/ayusman/scoreturner/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventHandler serves the fired gesture history at /api/events.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(s *store.Store) *EventHandler {
	return &EventHandler{store: s}
}

type listEventsResponse struct {
	Events []store.GestureEvent `json:"events"`
	Counts map[gesture.Kind]int `json:"counts"`
}

// ServeHTTP handles GET /api/events?limit=N, newest first.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.store.Events().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	counts, err := h.store.Events().CountByGesture()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	if events == nil {
		events = []store.GestureEvent{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events, Counts: counts})
}
