// Package session owns the gesture engine's lifecycle for one reader.
//
// Enabling gesture input starts a fresh engine, which recalibrates the head
// pitch baseline on the next face. Disabling drops the engine and its state.
// Settings changes while enabled are applied in place, keeping the baseline,
// latches and cooldown.
package session

import (
	"sync"

	"github.com/ayusman/scoreturner/internal/clock"
	"github.com/ayusman/scoreturner/internal/gesture"
	"github.com/ayusman/scoreturner/internal/log"
	"github.com/ayusman/scoreturner/internal/store"
)

// Status is a point-in-time view of the session.
type Status struct {
	Enabled       bool           `json:"enabled"`
	Calibrated    bool           `json:"calibrated"`
	BaselinePitch float64        `json:"baseline_pitch_deg"`
	LastEvent     *gesture.Event `json:"last_event,omitempty"`
	Frames        int64          `json:"frames"`
}

// Session serializes all access to one engine. Safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	clock    clock.Clock
	settings store.Settings
	engine   *gesture.Engine
	last     *gesture.Event
	frames   int64
}

// New creates a session. Gesture input starts enabled when
// settings.UseFaceGestures is set.
func New(settings store.Settings, clk clock.Clock) *Session {
	if clk == nil {
		clk = clock.NewMonotonic()
	}
	s := &Session{
		clock:    clk,
		settings: settings.Clamp(),
	}
	if s.settings.UseFaceGestures {
		s.start()
	}
	return s
}

// Enable turns gesture input on. It is a no-op when already enabled.
func (s *Session) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.UseFaceGestures = true
	if s.engine == nil {
		s.start()
	}
}

// Disable turns gesture input off and discards the engine.
func (s *Session) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.UseFaceGestures = false
	if s.engine != nil {
		s.engine = nil
		log.Info("gesture input disabled")
	}
}

// Recalibrate replaces a running engine with a fresh one so the next face
// sets a new baseline.
func (s *Session) Recalibrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		s.start()
	}
}

// Enabled reports whether gesture input is on.
func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine != nil
}

// Process feeds one frame stamped at nowMs. It returns the fired event, or
// nil when nothing fired or input is disabled.
func (s *Session) Process(faces []gesture.FaceObservation, nowMs int64) *gesture.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return nil
	}

	s.frames++
	ev := s.engine.ProcessFrame(faces, nowMs)
	if ev != nil {
		last := *ev
		s.last = &last
	}
	return ev
}

// ProcessNow feeds one frame stamped with the session's clock.
func (s *Session) ProcessNow(faces []gesture.FaceObservation) *gesture.Event {
	return s.Process(faces, s.clock.NowMs())
}

// UpdateSettings applies new settings. Flipping UseFaceGestures enables or
// disables input; any other change is pushed into the running engine.
func (s *Session) UpdateSettings(settings store.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings.Clamp()

	switch {
	case s.settings.UseFaceGestures && s.engine == nil:
		s.start()
	case !s.settings.UseFaceGestures && s.engine != nil:
		s.engine = nil
		log.Info("gesture input disabled")
	case s.engine != nil:
		s.engine.UpdateConfig(s.settings.GestureConfig())
		log.Debug("gesture settings updated", "enabled", s.settings.GestureConfig().Enabled.Kinds())
	}
}

// Settings returns the settings the session is running with.
func (s *Session) Settings() store.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// LastEvent returns the most recent fired gesture, if any. It survives
// disable and enable.
func (s *Session) LastEvent() (gesture.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return gesture.Event{}, false
	}
	return *s.last, true
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Enabled: s.engine != nil, Frames: s.frames}
	if s.engine != nil {
		state := s.engine.State()
		st.Calibrated = state.HasBaseline
		st.BaselinePitch = state.BaselinePitch
	}
	if s.last != nil {
		last := *s.last
		st.LastEvent = &last
	}
	return st
}

// start creates a fresh engine. Callers hold mu.
func (s *Session) start() {
	cfg := s.settings.GestureConfig()
	s.engine = gesture.NewEngine(cfg, logSink())
	log.Info("gesture input enabled", "gestures", cfg.Enabled.Kinds(), "cooldown_ms", cfg.CooldownMs)
}

func logSink() gesture.Sink {
	fired := func(k gesture.Kind) func() {
		return func() { log.Debug("gesture fired", "gesture", k) }
	}
	return gesture.Sink{
		OnWinkLeft:  fired(gesture.WinkLeft),
		OnWinkRight: fired(gesture.WinkRight),
		OnSmile:     fired(gesture.Smile),
		OnNodUp:     fired(gesture.NodUp),
		OnNodDown:   fired(gesture.NodDown),
	}
}
