package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mimble/internal/trace"
	"mimble/internal/ui"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [flags] <trace-file>",
		Short: "Play back a stored trace",
		Long: `Replay decodes a trace written by "mimble trace" or "mimble run --trace" and
steps through it interactively. When stdout is not a terminal the events are
printed as text.`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}
	cmd.Flags().String("format", "auto", "trace encoding (auto|ndjson|json|msgpack)")
	cmd.Flags().String("source", "", "program source to show next to events")
	cmd.Flags().Duration("interval", ui.DefaultReplayInterval, "auto-play delay between events")
	cmd.Flags().Bool("paused", false, "start paused")
	cmd.Flags().String("ui", "auto", "interactive UI (auto|on|off)")
	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	st := settingsFrom(cmd)
	path := args[0]

	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	events, err := loadTrace(path, format)
	if err != nil {
		return err
	}
	st.logger.Debug("trace loaded", "path", path, "events", len(events))

	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	if !shouldUseTUI(mode, cmd.OutOrStdout()) {
		return trace.Encode(cmd.OutOrStdout(), events, trace.FormatText)
	}

	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return fmt.Errorf("failed to get interval flag: %w", err)
	}
	paused, err := cmd.Flags().GetBool("paused")
	if err != nil {
		return fmt.Errorf("failed to get paused flag: %w", err)
	}
	opts := []ui.ReplayOption{ui.WithInterval(max(interval, time.Millisecond))}
	if paused {
		opts = append(opts, ui.Paused())
	}
	srcPath, err := cmd.Flags().GetString("source")
	if err != nil {
		return fmt.Errorf("failed to get source flag: %w", err)
	}
	if srcPath != "" {
		src, err := readProgram(srcPath, cmd.InOrStdin())
		if err != nil {
			return err
		}
		opts = append(opts, ui.WithSource(src))
	}
	return runReplayUI(cmd, filepath.Base(path), events, opts...)
}

// loadTrace decodes a trace file; FormatAuto picks the codec by extension,
// unknown extensions are read as NDJSON.
func loadTrace(path string, format trace.Format) ([]trace.Event, error) {
	if format == trace.FormatAuto {
		format = trace.FormatForPath(path)
		if format == trace.FormatText {
			format = trace.FormatNDJSON
		}
	}
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		// #nosec G304 -- path is provided by the user
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	events, err := trace.Decode(bufio.NewReader(r), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}
