package gesture

import "math"

// Event is a fired gesture.
type Event struct {
	Kind Kind  `json:"kind"`
	AtMs int64 `json:"at_ms"`
}

// State is everything the recognizer remembers between frames. The zero
// value is the state of a freshly created session.
type State struct {
	// LastTriggerMs is the time of the most recent fired event of any kind.
	// It only counts once Fired is true.
	LastTriggerMs int64
	Fired         bool

	// BaselinePitch is captured once per session and never moves.
	BaselinePitch float64
	HasBaseline   bool

	NodDownLatched bool
	NodUpLatched   bool
	SmileLatched   bool
}

// ready reports whether the global cooldown has elapsed at nowMs.
func (s *State) ready(nowMs, cooldownMs int64) bool {
	return !s.Fired || nowMs-s.LastTriggerMs > cooldownMs
}

// attemptFire emits k when the cooldown allows it. A blocked candidate is
// dropped, not retried.
func (s *State) attemptFire(k Kind, nowMs, cooldownMs int64) *Event {
	if !s.ready(nowMs, cooldownMs) {
		return nil
	}
	s.LastTriggerMs = nowMs
	s.Fired = true
	return &Event{Kind: k, AtMs: nowMs}
}

// Step advances the recognizer by one frame. It returns the next state and
// the fired event, if any.
//
// The kinds in Priority are tried in order and the first one whose trigger
// condition holds ends the frame, whether or not the cooldown lets it fire.
// An empty face list, or a primary face with a non-finite pitch, leaves the
// state untouched.
func Step(st State, cfg Config, faces []FaceObservation, nowMs int64) (State, *Event) {
	face, ok := PrimaryFace(faces)
	if !ok || math.IsNaN(face.HeadPitchDeg) || math.IsInf(face.HeadPitchDeg, 0) {
		return st, nil
	}
	sig := face.signals()

	for _, k := range Priority {
		// Winks and smile end the frame before calibration when they match.
		if k.isNod() && !st.HasBaseline {
			st.BaselinePitch = sig.pitch
			st.HasBaseline = true
		}
		if !cfg.Enabled.Has(k) {
			continue
		}

		var triggered bool
		switch k {
		case WinkLeft:
			triggered = sig.leftEye < cfg.WinkClosedThr && sig.rightEye > cfg.WinkOpenThr
		case WinkRight:
			triggered = sig.rightEye < cfg.WinkClosedThr && sig.leftEye > cfg.WinkOpenThr
		case Smile:
			triggered = st.stepSmile(sig.smile, cfg.SmileThreshold)
		case NodDown:
			triggered = stepNod(&st.NodDownLatched, st.BaselinePitch-sig.pitch, sig.pitch-st.BaselinePitch, cfg)
		case NodUp:
			triggered = stepNod(&st.NodUpLatched, sig.pitch-st.BaselinePitch, sig.pitch-st.BaselinePitch, cfg)
		}

		if triggered {
			return st, st.attemptFire(k, nowMs, cfg.CooldownMs)
		}
	}

	return st, nil
}

// stepSmile fires on the rising edge above threshold and re-arms once the
// probability drops below the release band.
func (s *State) stepSmile(smile, threshold float64) bool {
	if !s.SmileLatched && smile > threshold {
		s.SmileLatched = true
		return true
	}
	if s.SmileLatched && smile < threshold*SmileReleaseRatio {
		s.SmileLatched = false
	}
	return false
}

// stepNod arms the latch once the head moves more than NodDownDeltaDeg in
// the nod's direction and triggers when it comes back within
// NodReturnDeltaDeg of the baseline. Both checks run in the same frame.
func stepNod(latched *bool, away, offset float64, cfg Config) bool {
	if !*latched && away > cfg.NodDownDeltaDeg {
		*latched = true
	}
	if *latched && math.Abs(offset) < cfg.NodReturnDeltaDeg {
		*latched = false
		return true
	}
	return false
}

// Sink receives fired gestures. Nil slots are skipped.
type Sink struct {
	OnWinkLeft  func()
	OnWinkRight func()
	OnSmile     func()
	OnNodUp     func()
	OnNodDown   func()
}

func (s Sink) call(k Kind) {
	var fn func()
	switch k {
	case WinkLeft:
		fn = s.OnWinkLeft
	case WinkRight:
		fn = s.OnWinkRight
	case Smile:
		fn = s.OnSmile
	case NodUp:
		fn = s.OnNodUp
	case NodDown:
		fn = s.OnNodDown
	}
	if fn != nil {
		fn()
	}
}

// Engine holds one session's recognizer state and configuration and calls a
// Sink when a gesture fires. It is not safe for concurrent use; callers
// serialize ProcessFrame and UpdateConfig.
type Engine struct {
	cfg   Config
	state State
	sink  Sink
}

// NewEngine creates an engine with fresh state.
func NewEngine(cfg Config, sink Sink) *Engine {
	return &Engine{cfg: cfg, sink: sink}
}

// ProcessFrame feeds one frame to the engine. At most one Sink callback runs,
// synchronously, before ProcessFrame returns. The fired event is also
// returned.
func (e *Engine) ProcessFrame(faces []FaceObservation, nowMs int64) *Event {
	var ev *Event
	e.state, ev = Step(e.state, e.cfg, faces, nowMs)
	if ev != nil {
		e.sink.call(ev.Kind)
	}
	return ev
}

// UpdateConfig replaces the configuration. Baseline, latches and cooldown
// are kept.
func (e *Engine) UpdateConfig(cfg Config) {
	e.cfg = cfg
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// State returns a copy of the recognizer state.
func (e *Engine) State() State {
	return e.state
}
