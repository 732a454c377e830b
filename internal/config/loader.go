package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Loader.
const (
	EnvConfigFile      = "SCORETURNER_CONFIG"
	EnvListenAddr      = "SCORETURNER_LISTEN_ADDR"
	EnvDataDir         = "SCORETURNER_DATA_DIR"
	EnvDBPath          = "SCORETURNER_DB_PATH"
	EnvPluginDir       = "SCORETURNER_PLUGIN_DIR"
	EnvWebDir          = "SCORETURNER_WEB_DIR"
	EnvDetectorScript  = "SCORETURNER_DETECTOR_SCRIPT"
	EnvCameraID        = "SCORETURNER_CAMERA_ID"
	EnvMotionThreshold = "SCORETURNER_MOTION_THRESHOLD"
	EnvPluginTimeoutMs = "SCORETURNER_PLUGIN_TIMEOUT_MS"
	EnvLogLevel        = "SCORETURNER_LOG_LEVEL"
	EnvTray            = "SCORETURNER_TRAY"
)

// Loader builds a Config from defaults, an optional YAML file and environment
// variables, in that order. Tests can override Lookup and ReadFile.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load returns the validated configuration.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	cfg := Default()

	if path, ok := l.Lookup(EnvConfigFile); ok && strings.TrimSpace(path) != "" {
		data, err := l.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	overrideString(l.Lookup, EnvListenAddr, &cfg.ListenAddr)
	overrideString(l.Lookup, EnvDataDir, &cfg.DataDir)
	overrideString(l.Lookup, EnvDBPath, &cfg.DBPath)
	overrideString(l.Lookup, EnvPluginDir, &cfg.PluginDir)
	overrideString(l.Lookup, EnvWebDir, &cfg.WebDir)
	overrideString(l.Lookup, EnvDetectorScript, &cfg.DetectorScript)
	overrideString(l.Lookup, EnvLogLevel, &cfg.LogLevel)
	if err := overrideInt(l.Lookup, EnvCameraID, &cfg.CameraID); err != nil {
		return Config{}, err
	}
	if err := overrideFloat(l.Lookup, EnvMotionThreshold, &cfg.MotionThreshold); err != nil {
		return Config{}, err
	}
	if err := overrideInt(l.Lookup, EnvPluginTimeoutMs, &cfg.PluginTimeoutMs); err != nil {
		return Config{}, err
	}
	if err := overrideBool(l.Lookup, EnvTray, &cfg.Tray); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
