// Package replay runs recorded face sequences through a fresh gesture engine.
//
// A scenario is a YAML document listing timestamped frames of face
// observations, optional engine configuration overrides, and optionally the
// events the sequence is expected to produce.
package replay

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/scoreturner/internal/gesture"
)

// Scenario is one recorded sequence.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Config      Overrides   `yaml:"config,omitempty"`
	Frames      []Frame     `yaml:"frames"`
	Expect      *[]Expected `yaml:"expect,omitempty"`
}

// Overrides replaces fields of gesture.DefaultConfig. Unset fields keep
// their defaults.
type Overrides struct {
	Enabled           []gesture.Kind `yaml:"enabled,omitempty"`
	CooldownMs        *int64         `yaml:"cooldown_ms,omitempty"`
	WinkClosedThr     *float64       `yaml:"wink_closed_thr,omitempty"`
	WinkOpenThr       *float64       `yaml:"wink_open_thr,omitempty"`
	SmileThreshold    *float64       `yaml:"smile_threshold,omitempty"`
	NodDownDeltaDeg   *float64       `yaml:"nod_down_delta_deg,omitempty"`
	NodReturnDeltaDeg *float64       `yaml:"nod_return_delta_deg,omitempty"`
}

// Frame is one camera frame's worth of faces.
type Frame struct {
	AtMs  int64                     `yaml:"at_ms"`
	Faces []gesture.FaceObservation `yaml:"faces"`
}

// Expected is an event the scenario should produce.
type Expected struct {
	Kind gesture.Kind `yaml:"kind"`
	AtMs int64        `yaml:"at_ms"`
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks that the scenario has frames in time order.
func (s *Scenario) Validate() error {
	if len(s.Frames) == 0 {
		return errors.New("scenario has no frames")
	}
	for i := 1; i < len(s.Frames); i++ {
		if s.Frames[i].AtMs < s.Frames[i-1].AtMs {
			return fmt.Errorf("frame %d at %dms is earlier than frame %d at %dms",
				i, s.Frames[i].AtMs, i-1, s.Frames[i-1].AtMs)
		}
	}
	return nil
}

// GestureConfig returns the engine configuration the scenario runs with.
func (s *Scenario) GestureConfig() gesture.Config {
	cfg := gesture.DefaultConfig()
	o := s.Config

	if o.Enabled != nil {
		cfg.Enabled = gesture.NewKindSet(o.Enabled...)
	}
	if o.CooldownMs != nil {
		cfg.CooldownMs = *o.CooldownMs
	}
	if o.WinkClosedThr != nil {
		cfg.WinkClosedThr = *o.WinkClosedThr
	}
	if o.WinkOpenThr != nil {
		cfg.WinkOpenThr = *o.WinkOpenThr
	}
	if o.SmileThreshold != nil {
		cfg.SmileThreshold = *o.SmileThreshold
	}
	if o.NodDownDeltaDeg != nil {
		cfg.NodDownDeltaDeg = *o.NodDownDeltaDeg
	}
	if o.NodReturnDeltaDeg != nil {
		cfg.NodReturnDeltaDeg = *o.NodReturnDeltaDeg
	}
	return cfg
}

// Step is the outcome of one replayed frame.
type Step struct {
	Frame int
	AtMs  int64
	Event *gesture.Event
	State gesture.State
}

// Run replays every frame through a fresh engine configured with cfg and
// returns the fired events in order.
func Run(s *Scenario, cfg gesture.Config) []gesture.Event {
	var events []gesture.Event
	for _, st := range Trace(s, cfg) {
		if st.Event != nil {
			events = append(events, *st.Event)
		}
	}
	return events
}

// Trace replays the scenario and returns the state after every frame.
func Trace(s *Scenario, cfg gesture.Config) []Step {
	engine := gesture.NewEngine(cfg, gesture.Sink{})

	steps := make([]Step, 0, len(s.Frames))
	for i, f := range s.Frames {
		ev := engine.ProcessFrame(f.Faces, f.AtMs)
		steps = append(steps, Step{Frame: i, AtMs: f.AtMs, Event: ev, State: engine.State()})
	}
	return steps
}

// Check compares events with the scenario's expectations. Scenarios without
// an expect section always pass.
func (s *Scenario) Check(events []gesture.Event) error {
	if s.Expect == nil {
		return nil
	}
	want := *s.Expect

	var problems []string
	for i := 0; i < max(len(want), len(events)); i++ {
		switch {
		case i >= len(events):
			problems = append(problems, fmt.Sprintf("missing %s at %dms", want[i].Kind, want[i].AtMs))
		case i >= len(want):
			problems = append(problems, fmt.Sprintf("unexpected %s at %dms", events[i].Kind, events[i].AtMs))
		case events[i].Kind != want[i].Kind || events[i].AtMs != want[i].AtMs:
			problems = append(problems, fmt.Sprintf("event %d: got %s at %dms, want %s at %dms",
				i, events[i].Kind, events[i].AtMs, want[i].Kind, want[i].AtMs))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s: %s", s.Name, strings.Join(problems, "; "))
	}
	return nil
}
