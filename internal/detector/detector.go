package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/scoreturner/internal/gesture"
)

// Detector defines the interface for face attribute detection.
type Detector interface {
	// Detect analyzes a video frame and returns the faces found in it.
	// Returns an empty slice if no faces are detected.
	Detect(frame *gocv.Mat) ([]gesture.FaceObservation, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for the face service.
type Config struct {
	// Script is the path to the face attribute service. When empty the
	// usual install locations are searched.
	Script string

	// Python is the interpreter used to run Script. When empty a virtual
	// environment is searched for, then python3.
	Python string

	// Command, when set, replaces the interpreter and script entirely.
	Command []string

	// Env is appended to the service's environment.
	Env []string

	// IdleTimeout stops the service after this long without a frame.
	IdleTimeout time.Duration

	// MaxFaces caps the faces returned per frame (0 means no cap).
	MaxFaces int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		IdleTimeout: 30 * time.Second,
		MaxFaces:    4,
	}
}
