// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/scoreturner/internal/clock"
	"github.com/ayusman/scoreturner/internal/log"
)

// Default camera settings. Faces need a little more resolution than the
// motion check, but not much.
const (
	DefaultFPS    = 5
	ActiveFPS     = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrNoMoreFrames is returned by a non-looping MockCamera once playback ends.
	ErrNoMoreFrames = errors.New("no more frames")

	// ErrReadFailed is returned when the device delivers no usable image.
	ErrReadFailed = errors.New("camera read failed")
)

// MaxReadFailures is how many reads in a row may fail before the device is
// reopened. USB cameras that were unplugged and replugged come back this way.
const MaxReadFailures = 10

// Frame is a captured image stamped with the monotonic time it was read.
type Frame struct {
	Mat        *gocv.Mat
	CapturedMs int64
}

// Close releases the underlying Mat.
func (f *Frame) Close() error {
	if f == nil || f.Mat == nil {
		return nil
	}
	return f.Mat.Close()
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes it.
	ReadFrame() (*Frame, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// deviceCamera captures from a local video device.
type deviceCamera struct {
	deviceID int
	clock    clock.Clock
	mu       sync.Mutex
	vc       *gocv.VideoCapture
	fps      int
	failures int
}

// NewCamera creates a Camera for the given device. Frames are stamped from
// clk, or from a fresh monotonic clock when clk is nil.
func NewCamera(deviceID int, clk clock.Clock) Camera {
	if clk == nil {
		clk = clock.NewMonotonic()
	}
	return &deviceCamera{
		deviceID: deviceID,
		clock:    clk,
		fps:      DefaultFPS,
	}
}

func (c *deviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc != nil {
		return nil
	}
	return c.openLocked()
}

func (c *deviceCamera) openLocked() error {
	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	vc.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	vc.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.vc = vc
	c.failures = 0
	return nil
}

func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *deviceCamera) closeLocked() error {
	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	return err
}

// ReadFrame grabs one image. Failed reads return ErrReadFailed; after
// MaxReadFailures of them in a row the device is reopened.
func (c *deviceCamera) ReadFrame() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.vc.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		if c.recordFailure() {
			c.reopenLocked()
		}
		return nil, fmt.Errorf("%w: device %d", ErrReadFailed, c.deviceID)
	}

	c.failures = 0
	return &Frame{Mat: &mat, CapturedMs: c.clock.NowMs()}, nil
}

// recordFailure counts a failed read and reports whether the limit was hit.
func (c *deviceCamera) recordFailure() bool {
	c.failures++
	return c.failures >= MaxReadFailures
}

func (c *deviceCamera) reopenLocked() {
	log.Warn("camera stopped delivering frames, reopening", "device", c.deviceID, "failures", c.failures)
	c.closeLocked()
	if err := c.openLocked(); err != nil {
		log.Warn("camera reopen failed", "device", c.deviceID, "error", err)
		// Stay closed; reads report ErrCameraNotOpen until Open succeeds.
		c.failures = 0
	}
}

// SetFPS changes the requested capture rate. Non-positive values are ignored.
func (c *deviceCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.vc != nil {
		c.vc.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *deviceCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc != nil
}
