// Package config loads process configuration for scoreturner.
package config

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	DefaultListenAddr      = ":8080"
	DefaultCameraID        = 0
	DefaultMotionThreshold = 1.0
	DefaultLogLevel        = "info"
	DefaultPluginTimeoutMs = 5000
)

// Config holds the process configuration. Gesture tuning is not here; it is
// user-editable and lives in the settings store.
type Config struct {
	ListenAddr      string  `yaml:"listen_addr"`
	DataDir         string  `yaml:"data_dir"`
	DBPath          string  `yaml:"db_path"`
	PluginDir       string  `yaml:"plugin_dir"`
	WebDir          string  `yaml:"web_dir"`
	DetectorScript  string  `yaml:"detector_script"`
	CameraID        int     `yaml:"camera_id"`
	MotionThreshold float64 `yaml:"motion_threshold"`
	PluginTimeoutMs int     `yaml:"plugin_timeout_ms"`
	LogLevel        string  `yaml:"log_level"`
	Tray            bool    `yaml:"tray"`
}

// Default returns the configuration used when nothing is overridden.
// Paths are rooted at ~/.scoreturner.
func Default() Config {
	dataDir := ".scoreturner"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".scoreturner")
	}

	return Config{
		ListenAddr:      DefaultListenAddr,
		DataDir:         dataDir,
		CameraID:        DefaultCameraID,
		MotionThreshold: DefaultMotionThreshold,
		PluginTimeoutMs: DefaultPluginTimeoutMs,
		LogLevel:        DefaultLogLevel,
		Tray:            true,
	}
}

// Validate checks the configuration and fills paths derived from DataDir.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("config: listen address is required")
	}
	if c.DataDir == "" {
		return errors.New("config: data dir is required")
	}
	if c.CameraID < 0 {
		return errors.New("config: camera id must be >= 0")
	}
	if c.MotionThreshold <= 0 {
		return errors.New("config: motion threshold must be > 0")
	}
	if c.PluginTimeoutMs <= 0 {
		return errors.New("config: plugin timeout must be > 0")
	}

	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "scoreturner.db")
	}
	if c.PluginDir == "" {
		c.PluginDir = filepath.Join(c.DataDir, "plugins")
	}
	return nil
}
