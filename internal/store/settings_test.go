package store

import (
	"path/filepath"
	"testing"

	"github.com/ayusman/scoreturner/internal/gesture"
)

// newTestStore creates a new Store backed by a temporary database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettingsRepository_LoadDefaults(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Settings().Load()
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}

	if got != DefaultSettings() {
		t.Errorf("expected defaults on empty table, got %+v", got)
	}
}

func TestSettingsRepository_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	want := DefaultSettings()
	want.UseFaceGestures = true
	want.SmileEnabled = true
	want.NodUpEnabled = false
	want.CooldownMs = 1200
	want.WinkClosedThreshold = 0.3
	want.SmileThreshold = 0.65

	saved, err := repo.Save(want)
	if err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}
	if saved != want {
		t.Errorf("saved = %+v, want %+v", saved, want)
	}

	got, err := repo.Load()
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if got != want {
		t.Errorf("loaded = %+v, want %+v", got, want)
	}
}

func TestSettingsRepository_SaveClamps(t *testing.T) {
	s := newTestStore(t)

	in := DefaultSettings()
	in.CooldownMs = 50
	in.NodDownDeltaDeg = 90
	in.NodReturnDeltaDeg = 1
	in.WinkClosedThreshold = 0.9
	in.WinkOpenThreshold = 0.1
	in.SmileThreshold = 2

	saved, err := s.Settings().Save(in)
	if err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"cooldown", float64(saved.CooldownMs), MinCooldownMs},
		{"nod down", float64(saved.NodDownDeltaDeg), MaxNodDownDeltaDeg},
		{"nod return", float64(saved.NodReturnDeltaDeg), MinNodReturnDeltaDeg},
		{"wink closed", saved.WinkClosedThreshold, MaxWinkClosedThr},
		{"wink open", saved.WinkOpenThreshold, MinWinkOpenThr},
		{"smile", saved.SmileThreshold, MaxSmileThreshold},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestSettingsRepository_IgnoresCorruptValues(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.DB().Exec(`INSERT INTO settings (key, value) VALUES ('cooldown_ms', 'fast'), ('nod_enabled', 'false')`); err != nil {
		t.Fatalf("failed to insert raw settings: %v", err)
	}

	got, err := s.Settings().Load()
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if got.CooldownMs != DefaultSettings().CooldownMs {
		t.Errorf("expected default cooldown for corrupt value, got %d", got.CooldownMs)
	}
	if got.NodEnabled {
		t.Error("expected valid nod_enabled=false to be read")
	}
}

func TestSettings_GestureConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := DefaultSettings().GestureConfig()
		want := gesture.DefaultConfig()
		if cfg != want {
			t.Errorf("GestureConfig() = %+v, want %+v", cfg, want)
		}
	})

	t.Run("group switch gates directions", func(t *testing.T) {
		s := DefaultSettings()
		s.WinkEnabled = false
		s.NodEnabled = true
		s.NodUpEnabled = false
		s.SmileEnabled = true

		cfg := s.GestureConfig()
		want := gesture.NewKindSet(gesture.Smile, gesture.NodDown)
		if cfg.Enabled != want {
			t.Errorf("Enabled = %v, want %v", cfg.Enabled.Kinds(), want.Kinds())
		}
	})

	t.Run("numeric fields", func(t *testing.T) {
		s := DefaultSettings()
		s.CooldownMs = 1500
		s.NodDownDeltaDeg = 20
		s.NodReturnDeltaDeg = 4

		cfg := s.GestureConfig()
		if cfg.CooldownMs != 1500 || cfg.NodDownDeltaDeg != 20 || cfg.NodReturnDeltaDeg != 4 {
			t.Errorf("unexpected config %+v", cfg)
		}
	})
}
