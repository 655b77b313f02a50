// Package config loads and saves the psiq YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvConfig             = "PSIQ_CONFIG"
	EnvDatabase           = "PSIQ_DB"
	EnvReviewerName       = "PSIQ_REVIEWER_NAME"
	EnvReviewerCredential = "PSIQ_REVIEWER_CREDENTIAL"
)

type Capture struct {
	MaxDurationSeconds int    `yaml:"max_duration_seconds"`
	SampleRate         int    `yaml:"sample_rate"`
	BlockSize          int    `yaml:"block_size"`
	Device             string `yaml:"device"`
	HumFilter          bool   `yaml:"hum_filter"`
}

type Storage struct {
	Path string `yaml:"path"`
}

// Reviewer is the identity written into report headers.
type Reviewer struct {
	Name         string `yaml:"name"`
	CredentialID string `yaml:"credential_id"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Root struct {
	Capture  Capture  `yaml:"capture"`
	Storage  Storage  `yaml:"storage"`
	Reviewer Reviewer `yaml:"reviewer"`
	Log      Log      `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Root {
	return Root{
		Capture: Capture{
			MaxDurationSeconds: 120,
			SampleRate:         48000,
			BlockSize:          1024,
			HumFilter:          true,
		},
		Storage: Storage{Path: filepath.Join(baseDir(), "psiq.sqlite")},
		Log:     Log{Level: "info", File: "psiq-debug.log"},
	}
}

// DefaultPath returns the config file location, honouring PSIQ_CONFIG.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(baseDir(), "config.yaml")
}

func baseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "psiq")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Root, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overrides file values with any non-empty environment variables.
func (r *Root) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDatabase); v != "" {
		r.Storage.Path = v
	}
	if v := getenv(EnvReviewerName); v != "" {
		r.Reviewer.Name = v
	}
	if v := getenv(EnvReviewerCredential); v != "" {
		r.Reviewer.CredentialID = v
	}
}

// Validate checks capture limits and required paths.
func (r *Root) Validate() error {
	c := r.Capture
	if c.MaxDurationSeconds < 1 || c.MaxDurationSeconds > 3600 {
		return fmt.Errorf("capture.max_duration_seconds must be 1..3600, got %d", c.MaxDurationSeconds)
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("capture.sample_rate must be 8000..192000, got %d", c.SampleRate)
	}
	if c.BlockSize < 256 || c.BlockSize > 8192 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("capture.block_size must be a power of two in 256..8192, got %d", c.BlockSize)
	}
	if r.Storage.Path == "" {
		return errors.New("storage.path is empty")
	}
	return nil
}

// MaxDuration returns the recording cap.
func (c Capture) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationSeconds) * time.Second
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Root) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
