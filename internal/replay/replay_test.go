package replay

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/scoreturner/internal/gesture"
	"github.com/ayusman/scoreturner/testdata"
)

func TestRecordedScenarios(t *testing.T) {
	names, err := testdata.ScenarioNames()
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no scenarios embedded")
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			data, err := testdata.Scenario(name)
			if err != nil {
				t.Fatal(err)
			}

			s, err := Parse(data)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if s.Expect == nil {
				t.Fatal("recorded scenarios must state their expected events")
			}

			if err := s.Check(Run(s, s.GestureConfig())); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(`
name: inline
config:
  enabled: [smile, nod_up]
  cooldown_ms: 1200
  smile_threshold: 0.6
frames:
  - at_ms: 0
    faces:
      - {area: 2, smile: 0.4, head_pitch_deg: 3.5}
      - {area: 1}
  - at_ms: 40
    faces: []
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if s.Name != "inline" || len(s.Frames) != 2 {
		t.Fatalf("unexpected scenario %+v", s)
	}
	if s.Expect != nil {
		t.Error("missing expect section should stay nil")
	}

	f := s.Frames[0].Faces[0]
	if f.Area != 2 || f.Smile == nil || *f.Smile != 0.4 || f.HeadPitchDeg != 3.5 {
		t.Errorf("unexpected face %+v", f)
	}
	if f.LeftEyeOpen != nil {
		t.Error("absent probability should be nil")
	}

	cfg := s.GestureConfig()
	if cfg.Enabled != gesture.NewKindSet(gesture.Smile, gesture.NodUp) {
		t.Errorf("Enabled = %v", cfg.Enabled.Kinds())
	}
	if cfg.CooldownMs != 1200 || cfg.SmileThreshold != 0.6 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.NodDownDeltaDeg != gesture.DefaultConfig().NodDownDeltaDeg {
		t.Error("unset fields should keep defaults")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"no frames", "name: empty\n", "no frames"},
		{"unknown gesture", "config: {enabled: [blink]}\nframes: [{at_ms: 0}]\n", "unknown gesture"},
		{"time goes backwards", "frames: [{at_ms: 10}, {at_ms: 5}]\n", "earlier than"},
		{"not yaml", "frames: [", "parse scenario"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	expect := []Expected{{Kind: gesture.WinkLeft, AtMs: 0}, {Kind: gesture.NodDown, AtMs: 500}}
	s := &Scenario{Name: "check", Expect: &expect}

	tests := []struct {
		name    string
		events  []gesture.Event
		wantErr string
	}{
		{"match", []gesture.Event{{Kind: gesture.WinkLeft, AtMs: 0}, {Kind: gesture.NodDown, AtMs: 500}}, ""},
		{"missing", []gesture.Event{{Kind: gesture.WinkLeft, AtMs: 0}}, "missing nod_down at 500ms"},
		{"extra", []gesture.Event{{Kind: gesture.WinkLeft}, {Kind: gesture.NodDown, AtMs: 500}, {Kind: gesture.Smile, AtMs: 900}}, "unexpected smile"},
		{"wrong kind", []gesture.Event{{Kind: gesture.WinkRight}, {Kind: gesture.NodDown, AtMs: 500}}, "got wink_right"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Check(tt.events)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %v does not contain %q", err, tt.wantErr)
			}
		})
	}

	if err := (&Scenario{}).Check([]gesture.Event{{Kind: gesture.Smile}}); err != nil {
		t.Errorf("scenario without expectations should pass, got %v", err)
	}
}

func TestTrace(t *testing.T) {
	data, err := testdata.Scenario("nod_down")
	if err != nil {
		t.Fatal(err)
	}
	s, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}

	steps := Trace(s, s.GestureConfig())
	if len(steps) != len(s.Frames) {
		t.Fatalf("expected %d steps, got %d", len(s.Frames), len(steps))
	}
	if !steps[1].State.NodDownLatched {
		t.Error("expected latch after the head drops")
	}
	if steps[4].Event == nil || steps[4].State.NodDownLatched {
		t.Errorf("expected fire and unlatch on return, got %+v", steps[4])
	}
	if !steps[0].State.HasBaseline || steps[0].State.BaselinePitch != 0 {
		t.Errorf("expected baseline from the first frame, got %+v", steps[0].State)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	if err := os.WriteFile(path, []byte("frames: [{at_ms: 0, faces: [{area: 1, left_eye_open: 0.1}]}]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	events := Run(s, s.GestureConfig())
	if len(events) != 1 || events[0].Kind != gesture.WinkLeft {
		t.Errorf("unexpected events %v", events)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
