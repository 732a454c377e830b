package server

import (
	"fmt"
	"net/http"

	"github.com/ayusman/scoreturner/internal/app"
)

// StreamHandler serves the camera preview as MJPEG.
type StreamHandler struct {
	preview *app.Preview
}

// NewStreamHandler creates a new StreamHandler over the app's preview buffer.
func NewStreamHandler(preview *app.Preview) *StreamHandler {
	return &StreamHandler{preview: preview}
}

// ServeHTTP streams each new frame until the client goes away. Frames arrive
// at the pipeline's rate.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stop := h.preview.Watch()
	defer stop()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var seq uint64
	for {
		jpeg, next, ok := h.preview.Next(seq, r.Context().Done())
		if !ok {
			return
		}
		seq = next

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
