package app

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/scoreturner/internal/capture"
	"github.com/ayusman/scoreturner/internal/log"
)

// runPipeline is the main detection loop that processes frames from the camera.
//
// Pipeline logic:
//  1. Start in idle mode (IdleFPS)
//  2. While the motion detector reports the scene active, run at ActiveFPS
//  3. Every frame goes to the face detector and the gesture session while
//     input is enabled; a still face can still wink
//  4. Fired gestures are dispatched before the next frame is read
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	activeMode := false
	ticker := time.NewTicker(time.Second / time.Duration(IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				if errors.Is(err, capture.ErrNoMoreFrames) {
					log.Info("camera has no more frames")
					return
				}
				log.Warn("error reading frame", "error", err)
				continue
			}

			motion, res, err := a.HandleFrame(ctx, frame)
			frame.Close()

			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("frame processing failed", "error", err)
			}
			if res != nil {
				log.Debug("page command applied", "gesture", res.Event.Kind, "page", res.Page)
			}

			if motion.Active != activeMode {
				activeMode = motion.Active
				fps := IdleFPS
				if activeMode {
					fps = ActiveFPS
				}
				a.camera.SetFPS(fps)
				ticker.Reset(time.Second / time.Duration(fps))
				log.Debug("switched frame rate", "active", activeMode, "fps", fps)
			}
		}
	}
}
