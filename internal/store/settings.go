package store

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/ayusman/scoreturner/internal/gesture"
)

// Settings is the user-editable gesture configuration. The group switches
// (WinkEnabled, NodEnabled) gate their per-direction switches.
type Settings struct {
	UseFaceGestures bool `json:"use_face_gestures" yaml:"use_face_gestures"`

	WinkEnabled      bool `json:"wink_enabled" yaml:"wink_enabled"`
	WinkLeftEnabled  bool `json:"wink_left_enabled" yaml:"wink_left_enabled"`
	WinkRightEnabled bool `json:"wink_right_enabled" yaml:"wink_right_enabled"`
	SmileEnabled     bool `json:"smile_enabled" yaml:"smile_enabled"`
	NodEnabled       bool `json:"nod_enabled" yaml:"nod_enabled"`
	NodUpEnabled     bool `json:"nod_up_enabled" yaml:"nod_up_enabled"`
	NodDownEnabled   bool `json:"nod_down_enabled" yaml:"nod_down_enabled"`

	CooldownMs          int     `json:"cooldown_ms" yaml:"cooldown_ms"`
	NodDownDeltaDeg     int     `json:"nod_down_delta_deg" yaml:"nod_down_delta_deg"`
	NodReturnDeltaDeg   int     `json:"nod_return_delta_deg" yaml:"nod_return_delta_deg"`
	WinkClosedThreshold float64 `json:"wink_closed_thr" yaml:"wink_closed_thr"`
	WinkOpenThreshold   float64 `json:"wink_open_thr" yaml:"wink_open_thr"`
	SmileThreshold      float64 `json:"smile_threshold" yaml:"smile_threshold"`
}

// Allowed ranges for the numeric settings.
const (
	MinCooldownMs        = 300
	MaxCooldownMs        = 2000
	MinNodDownDeltaDeg   = 5
	MaxNodDownDeltaDeg   = 30
	MinNodReturnDeltaDeg = 3
	MaxNodReturnDeltaDeg = 20
	MinWinkClosedThr     = 0.05
	MaxWinkClosedThr     = 0.5
	MinWinkOpenThr       = 0.5
	MaxWinkOpenThr       = 0.95
	MinSmileThreshold    = 0.5
	MaxSmileThreshold    = 0.95
)

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		UseFaceGestures:     false,
		WinkEnabled:         true,
		WinkLeftEnabled:     true,
		WinkRightEnabled:    true,
		SmileEnabled:        false,
		NodEnabled:          true,
		NodUpEnabled:        true,
		NodDownEnabled:      true,
		CooldownMs:          900,
		NodDownDeltaDeg:     15,
		NodReturnDeltaDeg:   7,
		WinkClosedThreshold: 0.25,
		WinkOpenThreshold:   0.75,
		SmileThreshold:      0.8,
	}
}

// Clamp returns a copy with every numeric setting forced into its allowed range.
func (s Settings) Clamp() Settings {
	s.CooldownMs = clampInt(s.CooldownMs, MinCooldownMs, MaxCooldownMs)
	s.NodDownDeltaDeg = clampInt(s.NodDownDeltaDeg, MinNodDownDeltaDeg, MaxNodDownDeltaDeg)
	s.NodReturnDeltaDeg = clampInt(s.NodReturnDeltaDeg, MinNodReturnDeltaDeg, MaxNodReturnDeltaDeg)
	s.WinkClosedThreshold = clampFloat(s.WinkClosedThreshold, MinWinkClosedThr, MaxWinkClosedThr)
	s.WinkOpenThreshold = clampFloat(s.WinkOpenThreshold, MinWinkOpenThr, MaxWinkOpenThr)
	s.SmileThreshold = clampFloat(s.SmileThreshold, MinSmileThreshold, MaxSmileThreshold)
	return s
}

// GestureConfig converts the settings into an engine configuration.
func (s Settings) GestureConfig() gesture.Config {
	var enabled gesture.KindSet
	if s.WinkEnabled && s.WinkLeftEnabled {
		enabled = enabled.With(gesture.WinkLeft)
	}
	if s.WinkEnabled && s.WinkRightEnabled {
		enabled = enabled.With(gesture.WinkRight)
	}
	if s.SmileEnabled {
		enabled = enabled.With(gesture.Smile)
	}
	if s.NodEnabled && s.NodDownEnabled {
		enabled = enabled.With(gesture.NodDown)
	}
	if s.NodEnabled && s.NodUpEnabled {
		enabled = enabled.With(gesture.NodUp)
	}

	return gesture.Config{
		Enabled:           enabled,
		CooldownMs:        int64(s.CooldownMs),
		WinkClosedThr:     s.WinkClosedThreshold,
		WinkOpenThr:       s.WinkOpenThreshold,
		SmileThreshold:    s.SmileThreshold,
		NodDownDeltaDeg:   float64(s.NodDownDeltaDeg),
		NodReturnDeltaDeg: float64(s.NodReturnDeltaDeg),
	}
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func clampFloat(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// Setting keys.
const (
	keyUseFaceGestures  = "use_face_gestures"
	keyWinkEnabled      = "wink_enabled"
	keyWinkLeftEnabled  = "wink_left_enabled"
	keyWinkRightEnabled = "wink_right_enabled"
	keySmileEnabled     = "smile_enabled"
	keyNodEnabled       = "nod_enabled"
	keyNodUpEnabled     = "nod_up_enabled"
	keyNodDownEnabled   = "nod_down_enabled"
	keyCooldownMs       = "cooldown_ms"
	keyNodDown          = "nod_down_delta_deg"
	keyNodReturn        = "nod_return_delta_deg"
	keyWinkClosed       = "wink_closed_thr"
	keyWinkOpen         = "wink_open_thr"
	keySmileThreshold   = "smile_threshold"
)

// SettingsRepository reads and writes Settings in the settings table.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Load returns the stored settings. Keys that were never written, or hold
// values that do not parse, take their default.
func (r *SettingsRepository) Load() (Settings, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return Settings{}, err
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Settings{}, err
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return Settings{}, err
	}

	s := DefaultSettings()
	readBool(values, keyUseFaceGestures, &s.UseFaceGestures)
	readBool(values, keyWinkEnabled, &s.WinkEnabled)
	readBool(values, keyWinkLeftEnabled, &s.WinkLeftEnabled)
	readBool(values, keyWinkRightEnabled, &s.WinkRightEnabled)
	readBool(values, keySmileEnabled, &s.SmileEnabled)
	readBool(values, keyNodEnabled, &s.NodEnabled)
	readBool(values, keyNodUpEnabled, &s.NodUpEnabled)
	readBool(values, keyNodDownEnabled, &s.NodDownEnabled)
	readInt(values, keyCooldownMs, &s.CooldownMs)
	readInt(values, keyNodDown, &s.NodDownDeltaDeg)
	readInt(values, keyNodReturn, &s.NodReturnDeltaDeg)
	readFloat(values, keyWinkClosed, &s.WinkClosedThreshold)
	readFloat(values, keyWinkOpen, &s.WinkOpenThreshold)
	readFloat(values, keySmileThreshold, &s.SmileThreshold)

	return s.Clamp(), nil
}

// Save clamps and writes every setting in a single transaction and returns
// what was stored.
func (r *SettingsRepository) Save(s Settings) (Settings, error) {
	s = s.Clamp()

	values := map[string]string{
		keyUseFaceGestures:  strconv.FormatBool(s.UseFaceGestures),
		keyWinkEnabled:      strconv.FormatBool(s.WinkEnabled),
		keyWinkLeftEnabled:  strconv.FormatBool(s.WinkLeftEnabled),
		keyWinkRightEnabled: strconv.FormatBool(s.WinkRightEnabled),
		keySmileEnabled:     strconv.FormatBool(s.SmileEnabled),
		keyNodEnabled:       strconv.FormatBool(s.NodEnabled),
		keyNodUpEnabled:     strconv.FormatBool(s.NodUpEnabled),
		keyNodDownEnabled:   strconv.FormatBool(s.NodDownEnabled),
		keyCooldownMs:       strconv.Itoa(s.CooldownMs),
		keyNodDown:          strconv.Itoa(s.NodDownDeltaDeg),
		keyNodReturn:        strconv.Itoa(s.NodReturnDeltaDeg),
		keyWinkClosed:       strconv.FormatFloat(s.WinkClosedThreshold, 'g', -1, 64),
		keyWinkOpen:         strconv.FormatFloat(s.WinkOpenThreshold, 'g', -1, 64),
		keySmileThreshold:   strconv.FormatFloat(s.SmileThreshold, 'g', -1, 64),
	}

	tx, err := r.db.Begin()
	if err != nil {
		return Settings{}, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return Settings{}, err
	}
	defer stmt.Close()

	for key, value := range values {
		if _, err := stmt.Exec(key, value); err != nil {
			return Settings{}, fmt.Errorf("save setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func readBool(values map[string]string, key string, target *bool) {
	if raw, ok := values[key]; ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			*target = v
		}
	}
}

func readInt(values map[string]string, key string, target *int) {
	if raw, ok := values[key]; ok {
		if v, err := strconv.Atoi(raw); err == nil {
			*target = v
		}
	}
}

func readFloat(values map[string]string, key string, target *float64) {
	if raw, ok := values[key]; ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			*target = v
		}
	}
}
