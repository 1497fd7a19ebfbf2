// Package config loads mimble.toml, the optional per-directory settings file
// for the CLI. Command line flags override file values, file values override
// the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"mimble/internal/logging"
	"mimble/internal/trace"
)

// FileName is the settings file looked up from the working directory upwards.
const FileName = "mimble.toml"

type Config struct {
	Path  string      `toml:"-"` // file the values came from, empty for defaults
	Run   RunConfig   `toml:"run"`
	Trace TraceConfig `toml:"trace"`
	Log   LogConfig   `toml:"log"`
}

type RunConfig struct {
	Jobs    int    `toml:"jobs"`
	Timeout string `toml:"timeout"` // Go duration, "0" or empty disables
	Timings bool   `toml:"timings"`
}

type TraceConfig struct {
	Output   string `toml:"output"` // path or "-" for stderr, empty disables
	Level    string `toml:"level"`
	Format   string `toml:"format"`
	Mode     string `toml:"mode"`
	RingSize int    `toml:"ring_size"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Run: RunConfig{Jobs: 0, Timeout: "0"},
		Trace: TraceConfig{
			Level:    "step",
			Format:   "auto",
			Mode:     "stream",
			RingSize: 4096,
		},
		Log: LogConfig{Level: "warn", Format: "text"},
	}
}

// TimeoutDuration parses Run.Timeout; zero means no timeout.
func (c Config) TimeoutDuration() time.Duration {
	d, err := parseTimeout(c.Run.Timeout)
	if err != nil {
		return 0
	}
	return d
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the nearest settings file. Without one it
// returns Default() and false.
func Discover(startDir string) (Config, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return Default(), false, err
	}
	cfg, err := Load(path)
	if err != nil {
		return Default(), true, err
	}
	return cfg, true, nil
}

// Load decodes path on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := validate(cfg, meta); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

func validate(cfg Config, meta toml.MetaData) error {
	if meta.IsDefined("run", "jobs") && cfg.Run.Jobs < 0 {
		return fmt.Errorf("[run].jobs must not be negative")
	}
	if meta.IsDefined("run", "timeout") {
		if _, err := parseTimeout(cfg.Run.Timeout); err != nil {
			return fmt.Errorf("[run].timeout: %w", err)
		}
	}
	if meta.IsDefined("trace", "level") {
		if _, err := trace.ParseLevel(cfg.Trace.Level); err != nil {
			return fmt.Errorf("[trace].level: %w", err)
		}
	}
	if meta.IsDefined("trace", "format") {
		if _, err := trace.ParseFormat(cfg.Trace.Format); err != nil {
			return fmt.Errorf("[trace].format: %w", err)
		}
	}
	if meta.IsDefined("trace", "mode") {
		if _, err := trace.ParseMode(cfg.Trace.Mode); err != nil {
			return fmt.Errorf("[trace].mode: %w", err)
		}
	}
	if meta.IsDefined("trace", "ring_size") && cfg.Trace.RingSize <= 0 {
		return fmt.Errorf("[trace].ring_size must be positive")
	}
	if meta.IsDefined("log", "level") {
		if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("[log].level: %w", err)
		}
	}
	if meta.IsDefined("log", "format") {
		if _, err := logging.ParseFormat(cfg.Log.Format); err != nil {
			return fmt.Errorf("[log].format: %w", err)
		}
	}
	return nil
}
