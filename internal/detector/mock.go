package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/scoreturner/internal/gesture"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	faces []gesture.FaceObservation
	queue [][]gesture.FaceObservation
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []gesture.FaceObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// Enqueue schedules per-frame results. Each Detect call consumes one entry;
// once the queue is empty Detect falls back to the faces set by SetFaces.
func (m *MockDetector) Enqueue(frames ...[]gesture.FaceObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued frame, the pre-configured faces, or the error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]gesture.FaceObservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.faces, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// NeutralFace returns a face looking straight ahead with both eyes open.
func NeutralFace() gesture.FaceObservation {
	return gesture.FaceObservation{
		Area:         0.12,
		LeftEyeOpen:  gesture.Prob(0.95),
		RightEyeOpen: gesture.Prob(0.95),
		Smile:        gesture.Prob(0.05),
		HeadPitchDeg: 0,
	}
}

// LeftWinkFace returns a neutral face with the left eye closed.
func LeftWinkFace() gesture.FaceObservation {
	f := NeutralFace()
	f.LeftEyeOpen = gesture.Prob(0.05)
	return f
}

// RightWinkFace returns a neutral face with the right eye closed.
func RightWinkFace() gesture.FaceObservation {
	f := NeutralFace()
	f.RightEyeOpen = gesture.Prob(0.05)
	return f
}

// SmilingFace returns a neutral face with a broad smile.
func SmilingFace() gesture.FaceObservation {
	f := NeutralFace()
	f.Smile = gesture.Prob(0.95)
	return f
}

// PitchedFace returns a neutral face tilted by pitchDeg. Negative values
// tilt down.
func PitchedFace(pitchDeg float64) gesture.FaceObservation {
	f := NeutralFace()
	f.HeadPitchDeg = pitchDeg
	return f
}
