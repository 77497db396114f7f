// Package config holds the daemon configuration and the startup validation
// that must pass before any filesystem mutation.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/driftsync/driftsync/internal/utils"
)

const DefaultFrequency = 60

type Config struct {
	SourceDir  string `json:"source_dir"`
	ReplicaDir string `json:"replica_dir"`
	// Frequency is the interval between passes, in seconds.
	Frequency int    `json:"frequency"`
	LogDir    string `json:"log_dir"`
	Compare   string `json:"compare"`
	Watch     bool   `json:"watch"`
	Once      bool   `json:"-"`
	DryRun    bool   `json:"-"`
	Path      string `json:"-"`
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.Frequency) * time.Second
}

// Validate resolves all paths and enforces the startup invariants: the
// source must be an existing directory, the replica must not be the source
// or nested either way, and the frequency must be positive. An unusable log
// directory is not fatal, it falls back to the current working directory.
func (c *Config) Validate() error {
	source, err := utils.ResolvePath(c.SourceDir)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("source directory %q: %w", source, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %q is not a directory", source)
	}
	c.SourceDir = source

	replica, err := utils.ResolvePath(c.ReplicaDir)
	if err != nil {
		return fmt.Errorf("replica directory: %w", err)
	}
	if utils.FileExists(replica) {
		return fmt.Errorf("replica %q is not a directory", replica)
	}
	c.ReplicaDir = replica

	if source == replica {
		return fmt.Errorf("source and replica are the same directory %q", source)
	}
	if utils.IsWithin(source, replica) {
		return fmt.Errorf("replica %q is a subdirectory of source %q", replica, source)
	}
	if utils.IsWithin(replica, source) {
		return fmt.Errorf("source %q is a subdirectory of replica %q", source, replica)
	}

	if c.Frequency <= 0 {
		return fmt.Errorf("frequency must be a positive number of seconds, got %d", c.Frequency)
	}

	c.LogDir = resolveLogDir(c.LogDir)

	return nil
}

// resolveLogDir picks a usable log directory, preferring the configured one
// and falling back to the current working directory.
func resolveLogDir(logDir string) string {
	if logDir != "" {
		resolved, err := utils.ResolvePath(logDir)
		if err == nil && utils.DirExists(resolved) {
			return resolved
		}
		slog.Warn("log directory unusable, falling back to working directory", "log_dir", logDir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	if cfg.Frequency == 0 {
		cfg.Frequency = DefaultFrequency
	}

	return &cfg, nil
}
