package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
	// DefaultActiveHoldMs keeps the pipeline active this long after the
	// last frame with motion. A wink barely moves any pixels, so the face
	// that produced the motion has to stay sampled for a while.
	DefaultActiveHoldMs = 3000
)

// Motion is the outcome of one motion check.
type Motion struct {
	// Moving reports whether this frame changed more than the threshold.
	Moving bool
	// ChangePercent is the share of pixels that changed, 0..100.
	ChangePercent float64
	// Active is true while within the hold window of the last movement.
	Active bool
}

// MotionDetector detects motion between consecutive frames using frame
// differencing with Gaussian blur for noise reduction, and tracks whether
// the scene is still within the hold window of its last movement.
type MotionDetector struct {
	threshold    float64
	holdMs       int64
	prevGray     gocv.Mat
	initialized  bool
	lastMotionMs int64
	everMoved    bool
	mu           sync.Mutex
}

// NewMotionDetector creates a new MotionDetector with the given threshold,
// the percentage of pixels that must change to count as motion.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		holdMs:    DefaultActiveHoldMs,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares the frame with the previous one. The first frame only
// establishes the reference and never counts as motion.
func (m *MotionDetector) Detect(frame *Frame) Motion {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Mat == nil || frame.Mat.Empty() {
		return Motion{}
	}

	changePercent, ok := m.diff(frame.Mat)
	if !ok {
		return Motion{}
	}

	moving := changePercent > m.threshold
	if moving {
		m.lastMotionMs = frame.CapturedMs
		m.everMoved = true
	}

	return Motion{
		Moving:        moving,
		ChangePercent: changePercent,
		Active:        m.everMoved && frame.CapturedMs-m.lastMotionMs < m.holdMs,
	}
}

// diff returns the changed-pixel percentage against the previous frame and
// stores the current one as the new reference.
func (m *MotionDetector) diff(mat *gocv.Mat) (float64, bool) {
	gray := gocv.NewMat()
	defer gray.Close()

	if mat.Channels() > 1 {
		gocv.CvtColor(*mat, &gray, gocv.ColorBGRToGray)
	} else {
		mat.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return 0, false
	}

	delta := gocv.NewMat()
	defer delta.Close()
	gocv.AbsDiff(blurred, m.prevGray, &delta)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(delta, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()

	blurred.CopyTo(&m.prevGray)

	if totalPixels == 0 {
		return 0, true
	}
	return float64(nonZero) / float64(totalPixels) * 100.0, true
}

// Reset clears the reference frame and the hold window.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
}

func (m *MotionDetector) clear() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
	m.everMoved = false
	m.lastMotionMs = 0
}

// SetThreshold sets the motion detection threshold.
// Values less than or equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}

// SetActiveHold sets how long the detector stays active after motion.
// Negative values are ignored.
func (m *MotionDetector) SetActiveHold(ms int64) {
	if ms < 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.holdMs = ms
}
