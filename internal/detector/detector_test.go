package detector

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/ayusman/scoreturner/internal/gesture"
)

// TestHelperProcess stands in for the face service. It is only active when
// launched by a ServiceDetector from the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("SCORETURNER_WANT_HELPER") != "1" {
		return
	}

	for {
		header := make([]byte, 4)
		if _, err := io.ReadFull(os.Stdin, header); err != nil {
			os.Exit(0)
		}
		payload := make([]byte, binary.BigEndian.Uint32(header))
		if _, err := io.ReadFull(os.Stdin, payload); err != nil {
			os.Exit(0)
		}

		switch string(payload) {
		case "wink":
			out, _ := json.Marshal(response{Faces: []gesture.FaceObservation{LeftWinkFace()}})
			os.Stdout.Write(append(out, '\n'))
		case "fail":
			os.Stdout.WriteString(`{"faces":[],"error":"model not loaded"}` + "\n")
		case "garbage":
			os.Stdout.WriteString("not json\n")
		case "crash":
			os.Exit(3)
		default:
			os.Stdout.WriteString(`{"faces":[]}` + "\n")
		}
	}
}

func helperDetector(t *testing.T, idle time.Duration) *ServiceDetector {
	t.Helper()

	d, err := NewServiceDetector(Config{
		Command:     []string{os.Args[0], "-test.run=TestHelperProcess", "--"},
		Env:         []string{"SCORETURNER_WANT_HELPER=1"},
		IdleTimeout: idle,
	})
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestServiceDetector(t *testing.T) {
	t.Run("decodes faces", func(t *testing.T) {
		d := helperDetector(t, time.Minute)

		faces, err := d.detectEncoded([]byte("wink"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(faces) != 1 {
			t.Fatalf("expected 1 face, got %d", len(faces))
		}
		if faces[0].LeftEyeOpen == nil || *faces[0].LeftEyeOpen != 0.05 {
			t.Errorf("unexpected left eye %v", faces[0].LeftEyeOpen)
		}
		if !d.Running() {
			t.Error("expected service to be running after a frame")
		}
	})

	t.Run("empty result", func(t *testing.T) {
		d := helperDetector(t, time.Minute)

		faces, err := d.detectEncoded([]byte("nobody"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(faces) != 0 {
			t.Errorf("expected no faces, got %d", len(faces))
		}
	})

	t.Run("service error keeps process", func(t *testing.T) {
		d := helperDetector(t, time.Minute)

		_, err := d.detectEncoded([]byte("fail"))
		var svcErr *serviceError
		if !errors.As(err, &svcErr) {
			t.Fatalf("expected service error, got %v", err)
		}
		if !d.Running() {
			t.Error("service error should not stop the process")
		}

		if _, err := d.detectEncoded([]byte("wink")); err != nil {
			t.Errorf("expected next frame to succeed, got %v", err)
		}
	})

	t.Run("bad response", func(t *testing.T) {
		d := helperDetector(t, time.Minute)

		if _, err := d.detectEncoded([]byte("garbage")); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("restarts after crash", func(t *testing.T) {
		d := helperDetector(t, time.Minute)

		if _, err := d.detectEncoded([]byte("crash")); err == nil {
			t.Fatal("expected error from crashed service")
		}
		if d.Running() {
			t.Error("crashed service should be marked stopped")
		}

		faces, err := d.detectEncoded([]byte("wink"))
		if err != nil {
			t.Fatalf("expected restart to succeed, got %v", err)
		}
		if len(faces) != 1 {
			t.Errorf("expected 1 face after restart, got %d", len(faces))
		}
	})

	t.Run("stops when idle", func(t *testing.T) {
		d := helperDetector(t, 50*time.Millisecond)

		if _, err := d.detectEncoded([]byte("wink")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		deadline := time.Now().Add(2 * time.Second)
		for d.Running() && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		if d.Running() {
			t.Error("expected idle service to stop")
		}
	})

	t.Run("nil frame", func(t *testing.T) {
		d := helperDetector(t, time.Minute)

		faces, err := d.Detect(nil)
		if err != nil || faces != nil {
			t.Errorf("expected nil, nil for nil frame, got %v, %v", faces, err)
		}
		if d.Running() {
			t.Error("nil frame should not start the service")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*ServiceDetector)(nil)
	})
}

func TestServiceCommand(t *testing.T) {
	t.Run("explicit command wins", func(t *testing.T) {
		argv, err := serviceCommand(Config{Command: []string{"/bin/faces", "-v"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(argv) != 2 || argv[0] != "/bin/faces" {
			t.Errorf("unexpected argv %v", argv)
		}
	})

	t.Run("script with interpreter and face cap", func(t *testing.T) {
		script := t.TempDir() + "/face_service.py"
		if err := os.WriteFile(script, []byte("# stub"), 0o644); err != nil {
			t.Fatal(err)
		}

		argv, err := serviceCommand(Config{Script: script, Python: "/usr/bin/python3", MaxFaces: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"/usr/bin/python3", script, "--max-faces", "2"}
		if len(argv) != len(want) {
			t.Fatalf("argv = %v, want %v", argv, want)
		}
		for i := range want {
			if argv[i] != want[i] {
				t.Errorf("argv[%d] = %q, want %q", i, argv[i], want[i])
			}
		}
	})

	t.Run("missing script", func(t *testing.T) {
		if _, err := serviceCommand(Config{Script: "/nonexistent/face_service.py"}); err == nil {
			t.Error("expected error for missing script")
		}
	})
}

func TestParseResponse(t *testing.T) {
	faces, err := parseResponse([]byte(`{"faces":[{"area":0.2,"head_pitch_deg":-12.5,"smile":0.9},{"area":0.1,"head_pitch_deg":0}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(faces))
	}
	if faces[0].HeadPitchDeg != -12.5 || faces[0].Smile == nil || *faces[0].Smile != 0.9 {
		t.Errorf("unexpected first face %+v", faces[0])
	}
	if faces[0].LeftEyeOpen != nil {
		t.Error("missing probability should decode as nil")
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty faces by default", func(t *testing.T) {
		mock := NewMockDetector()

		faces, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if faces != nil {
			t.Errorf("expected nil faces, got %v", faces)
		}
	})

	t.Run("returns configured faces", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetFaces([]gesture.FaceObservation{NeutralFace(), SmilingFace()})

		faces, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(faces) != 2 {
			t.Errorf("expected 2 faces, got %d", len(faces))
		}
	})

	t.Run("queue is consumed before fallback", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetFaces([]gesture.FaceObservation{NeutralFace()})
		mock.Enqueue(
			[]gesture.FaceObservation{LeftWinkFace()},
			nil,
		)

		first, _ := mock.Detect(nil)
		second, _ := mock.Detect(nil)
		third, _ := mock.Detect(nil)

		if len(first) != 1 || *first[0].LeftEyeOpen != 0.05 {
			t.Errorf("unexpected first frame %v", first)
		}
		if len(second) != 0 {
			t.Errorf("expected empty second frame, got %v", second)
		}
		if len(third) != 1 || *third[0].LeftEyeOpen != 0.95 {
			t.Errorf("expected fallback face, got %v", third)
		}
		if mock.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		faces, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if faces != nil {
			t.Errorf("expected nil faces when error is set, got %v", faces)
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		if err := NewMockDetector().Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestFacePresets(t *testing.T) {
	cfg := gesture.DefaultConfig()
	cfg.Enabled = gesture.AllKinds

	cases := []struct {
		name string
		face gesture.FaceObservation
		want gesture.Kind
	}{
		{"left wink", LeftWinkFace(), gesture.WinkLeft},
		{"right wink", RightWinkFace(), gesture.WinkRight},
		{"smile", SmilingFace(), gesture.Smile},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, ev := gesture.Step(gesture.State{}, cfg, []gesture.FaceObservation{c.face}, 0)
			if ev == nil || ev.Kind != c.want {
				t.Errorf("expected %v, got %v", c.want, ev)
			}
		})
	}

	t.Run("neutral fires nothing", func(t *testing.T) {
		_, ev := gesture.Step(gesture.State{}, cfg, []gesture.FaceObservation{NeutralFace()}, 0)
		if ev != nil {
			t.Errorf("expected no event, got %v", ev)
		}
	})

	t.Run("pitched face tilts", func(t *testing.T) {
		if PitchedFace(-20).HeadPitchDeg != -20 {
			t.Error("expected pitch to be applied")
		}
	})
}
