package gesture

import "math"

// Defaults for signals the detector could not measure. Both read as "nothing
// happening" so a missing value never produces a gesture on its own.
const (
	DefaultEyeOpen = 1.0
	DefaultSmile   = 0.0
)

// FaceObservation is one detected face in one frame.
type FaceObservation struct {
	// Area is bounding-box width times height. Only used to pick the primary face.
	Area float64 `json:"area" yaml:"area"`

	// Probabilities in [0,1]; nil when the detector did not classify them.
	LeftEyeOpen  *float64 `json:"left_eye_open,omitempty" yaml:"left_eye_open,omitempty"`
	RightEyeOpen *float64 `json:"right_eye_open,omitempty" yaml:"right_eye_open,omitempty"`
	Smile        *float64 `json:"smile,omitempty" yaml:"smile,omitempty"`

	// HeadPitchDeg is the signed head tilt around the horizontal axis.
	HeadPitchDeg float64 `json:"head_pitch_deg" yaml:"head_pitch_deg"`
}

// Prob returns a pointer to p, for building observations in code.
func Prob(p float64) *float64 {
	return &p
}

// signals are the four values the engine reads from the primary face.
type signals struct {
	leftEye  float64
	rightEye float64
	smile    float64
	pitch    float64
}

func (f FaceObservation) signals() signals {
	return signals{
		leftEye:  probOr(f.LeftEyeOpen, DefaultEyeOpen),
		rightEye: probOr(f.RightEyeOpen, DefaultEyeOpen),
		smile:    probOr(f.Smile, DefaultSmile),
		pitch:    f.HeadPitchDeg,
	}
}

// probOr treats non-finite probabilities the same as missing ones.
func probOr(p *float64, def float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return def
	}
	return *p
}

// PrimaryFace returns the face with the largest area. Equal areas resolve to
// the earliest face in the slice. Faces with a non-finite area lose to any
// finite one.
func PrimaryFace(faces []FaceObservation) (FaceObservation, bool) {
	if len(faces) == 0 {
		return FaceObservation{}, false
	}

	best := 0
	bestArea := finiteOr(faces[0].Area, math.Inf(-1))
	for i := 1; i < len(faces); i++ {
		area := finiteOr(faces[i].Area, math.Inf(-1))
		if area > bestArea {
			best = i
			bestArea = area
		}
	}
	return faces[best], true
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
