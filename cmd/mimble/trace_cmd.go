package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mimble/internal/diagfmt"
	"mimble/internal/interp"
	"mimble/internal/trace"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace [flags] <file.mb>",
		Short: "Run a program and write its execution trace",
		Long: `Trace runs a program with an event collector attached and writes every
recorded event. The trace is written even when the program fails.`,
		Args: cobra.ExactArgs(1),
		RunE: runTrace,
	}
	cmd.Flags().String("format", "auto", "output format (auto|text|ndjson|json|msgpack)")
	cmd.Flags().StringP("output", "o", "", "write the trace to a file instead of stdout")
	cmd.Flags().String("level", "debug", "keep events up to this level (error|binding|step|debug)")
	return cmd
}

func runTrace(cmd *cobra.Command, args []string) error {
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
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	levelStr, err := cmd.Flags().GetString("level")
	if err != nil {
		return fmt.Errorf("failed to get level flag: %w", err)
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	if format == trace.FormatAuto {
		format = trace.FormatForPath(output)
	}

	src, err := readProgram(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	it := interp.New(interp.WithFileName(path), interp.WithLogger(st.logger))
	events, _, runErr := it.Interpret(src)
	events = filterEvents(events, level)
	st.logger.Debug("trace collected", "file", path, "events", len(events))

	if err := writeTrace(cmd, output, events, format); err != nil {
		return err
	}
	if runErr != nil {
		_ = diagfmt.PrettyError(cmd.ErrOrStderr(), runErr, it.Files(), diagfmt.PrettyOpts{Color: st.color, Context: 1})
		return errReported
	}
	return nil
}

func filterEvents(events []trace.Event, level trace.Level) []trace.Event {
	out := events[:0:0]
	for _, ev := range events {
		if level.ShouldEmit(ev.Kind) {
			out = append(out, ev)
		}
	}
	return out
}

func writeTrace(cmd *cobra.Command, output string, events []trace.Event, format trace.Format) (err error) {
	var w io.Writer = cmd.OutOrStdout()
	if output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil && cerr != nil {
				err = cerr
			}
		}()
		w = f
	}
	if err := trace.Encode(w, events, format); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return nil
}
