package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/scoreturner/internal/pager"
)

// PageHandler exposes the reader's page position at /api/page.
type PageHandler struct {
	pager *pager.Pager
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(p *pager.Pager) *PageHandler {
	return &PageHandler{pager: p}
}

type pageResponse struct {
	Page  int `json:"page"`
	Count int `json:"count"`
}

type updatePageRequest struct {
	Page  *int `json:"page"`
	Count *int `json:"count"`
}

// ServeHTTP handles GET and PUT. A PUT may set the page count of a newly
// opened document, jump to a page, or both; the count is applied first.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req updatePageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Count != nil {
			if *req.Count < 0 {
				writeError(w, http.StatusBadRequest, "count must be >= 0")
				return
			}
			h.pager.SetPageCount(*req.Count)
		}
		if req.Page != nil {
			h.pager.Go(*req.Page)
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page, count := h.pager.Snapshot()
	writeJSON(w, http.StatusOK, pageResponse{Page: page, Count: count})
}
