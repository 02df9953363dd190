package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/carnival/internal/mode"
	"github.com/ayusman/carnival/internal/render"
)

// streamInterval paces the preview at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// FrameSource provides the newest camera frame.
type FrameSource interface {
	// Latest copies the newest frame into dst and reports whether one was
	// available.
	Latest(dst *gocv.Mat) bool
}

// StreamHandler serves MJPEG frames with the game drawn on top.
type StreamHandler struct {
	source FrameSource
	ctrl   Controller
	canvas mode.Size
}

// NewStreamHandler creates a StreamHandler. ctrl may be nil, in which
// case frames are only mirrored.
func NewStreamHandler(source FrameSource, ctrl Controller, canvas mode.Size) *StreamHandler {
	if canvas.W <= 0 || canvas.H <= 0 {
		canvas = mode.Size{W: 640, H: 480}
	}
	return &StreamHandler{source: source, ctrl: ctrl, canvas: canvas}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	frame := gocv.NewMat()
	defer frame.Close()
	renderer := render.New(h.canvas)
	defer renderer.Close()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		if !h.source.Latest(&frame) {
			continue
		}
		if err := renderer.Draw(&frame, h.snapshot()); err != nil {
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		_, werr := w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()
		if werr != nil {
			return
		}

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func (h *StreamHandler) snapshot() *mode.Snapshot {
	if h.ctrl == nil {
		return nil
	}
	st := h.ctrl.State()
	if st == nil {
		return nil
	}
	return st.Game
}
