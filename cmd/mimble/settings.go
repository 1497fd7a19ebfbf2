package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mimble/internal/config"
	"mimble/internal/logging"
)

// settings is what every subcommand sees after flags and mimble.toml are merged.
type settings struct {
	cfg    config.Config
	logger *slog.Logger
	color  bool // цвет для stderr-диагностики
}

type settingsKey struct{}

func loadSettings(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	colorFlag, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := resolveColor(colorFlag, isTerminal(os.Stderr))
	if err != nil {
		return err
	}
	color.NoColor = !useColor

	levelStr := stringSetting(cmd, "log-level", cfg.Log.Level)
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(stringSetting(cmd, "log-format", cfg.Log.Format))
	if err != nil {
		return err
	}
	logger := logging.New(cmd.ErrOrStderr(), logging.Options{Level: level, Format: format, NoColor: !useColor})
	if cfg.Path != "" {
		logger.Debug("config loaded", "path", cfg.Path)
	}

	st := &settings{cfg: cfg, logger: logger, color: useColor}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, settingsKey{}, st))
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	cfg, _, err := config.Discover(".")
	return cfg, err
}

// settingsFrom returns merged settings; commands invoked without the root
// pre-run (unit tests of helpers) get defaults.
func settingsFrom(cmd *cobra.Command) *settings {
	if ctx := cmd.Context(); ctx != nil {
		if st, ok := ctx.Value(settingsKey{}).(*settings); ok {
			return st
		}
	}
	return &settings{cfg: config.Default(), logger: logging.Discard()}
}

func resolveColor(mode string, tty bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return tty, nil
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
}

// Флаг, заданный явно, важнее значения из mimble.toml.

func stringSetting(cmd *cobra.Command, name, fromFile string) string {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return f.Value.String()
	}
	return fromFile
}

func intSetting(cmd *cobra.Command, name string, fromFile int) (int, error) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return cmd.Flags().GetInt(name)
	}
	return fromFile, nil
}

func boolSetting(cmd *cobra.Command, name string, fromFile bool) (bool, error) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return cmd.Flags().GetBool(name)
	}
	return fromFile, nil
}
