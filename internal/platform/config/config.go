// Package config resolves paths and settings from the data directory and
// its optional .sleeptrack/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	stateDir   = ".sleeptrack"
	configFile = "config.yaml"

	FallbackUTC   = "utc"
	FallbackLocal = "local"
)

// File is the on-disk shape of config.yaml.
type File struct {
	LogLevel         string       `yaml:"log_level"`
	TimezoneFallback string       `yaml:"timezone_fallback"`
	Sync             SyncConfig   `yaml:"sync"`
	Day              DayConfig    `yaml:"day"`
	Export           ExportConfig `yaml:"export"`
}

type SyncConfig struct {
	Workers  int    `yaml:"workers"`
	Provider string `yaml:"provider"`
}

type DayConfig struct {
	TargetMinutes int `yaml:"target_minutes"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

type Config struct {
	DataDir       string
	DBPath        string
	ManifestPath  string
	ConfigPath    string
	File          File
	ExportDir     string
	FallbackZone  *time.Location
	SyncWorkers   int
	TargetMinutes int
}

func Default() File {
	return File{
		LogLevel:         "info",
		TimezoneFallback: FallbackUTC,
		Sync:             SyncConfig{Workers: 4},
		Day:              DayConfig{TargetMinutes: 480},
		Export:           ExportConfig{Dir: "sessions-export"},
	}
}

func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data directory is required")
	}
	cfg := Config{
		DataDir:      dataDir,
		DBPath:       filepath.Join(dataDir, stateDir, "sleeptrack.db"),
		ManifestPath: filepath.Join(dataDir, "providers", "providers.json"),
		ConfigPath:   filepath.Join(dataDir, stateDir, configFile),
		File:         Default(),
	}
	raw, err := os.ReadFile(cfg.ConfigPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(raw, &cfg.File); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write persists f as the config file of dataDir.
func Write(dataDir string, f File) error {
	dir := filepath.Join(dataDir, stateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFile), raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WithLogLevel overrides the configured log level when level is set.
func (c Config) WithLogLevel(level string) Config {
	if strings.TrimSpace(level) != "" {
		c.File.LogLevel = level
	}
	return c
}

func (c *Config) resolve() error {
	zone, err := ParseFallbackZone(c.File.TimezoneFallback)
	if err != nil {
		return err
	}
	c.FallbackZone = zone
	c.SyncWorkers = c.File.Sync.Workers
	if c.SyncWorkers <= 0 {
		c.SyncWorkers = 1
	}
	c.ExportDir = c.File.Export.Dir
	if c.ExportDir == "" {
		c.ExportDir = Default().Export.Dir
	}
	if !filepath.IsAbs(c.ExportDir) {
		c.ExportDir = filepath.Join(c.DataDir, c.ExportDir)
	}
	c.TargetMinutes = c.File.Day.TargetMinutes
	if c.TargetMinutes <= 0 {
		c.TargetMinutes = 480
	}
	return nil
}

// ParseFallbackZone resolves the zone used for sessions recorded without an
// offset: "utc", "local", or a fixed "+hh:mm" / "-hh:mm" offset.
func ParseFallbackZone(raw string) (*time.Location, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "", FallbackUTC:
		return time.UTC, nil
	case FallbackLocal:
		return time.Local, nil
	}
	parsed, err := time.Parse("-07:00", value)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone_fallback %q: want utc, local or +hh:mm", raw)
	}
	_, offset := parsed.Zone()
	return time.FixedZone(value, offset), nil
}
