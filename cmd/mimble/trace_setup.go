package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mimble/internal/trace"
)

func addTraceFlags(cmd *cobra.Command) {
	cmd.Flags().String("trace", "", "trace output file (- for stderr); empty disables tracing")
	cmd.Flags().String("trace-level", "", "trace level (off|error|binding|step|debug)")
	cmd.Flags().String("trace-format", "", "trace format (auto|text|ndjson|json|msgpack)")
	cmd.Flags().String("trace-mode", "", "trace storage mode (stream|ring|both)")
	cmd.Flags().Int("trace-ring-size", 0, "ring buffer capacity for ring mode")
}

// tracerSetup is the CLI-built tracer plus what is needed to finish it.
type tracerSetup struct {
	tracer trace.Tracer
	ring   *trace.RingTracer // только для mode=ring: дамп при закрытии
	config trace.Config
}

// setupTracing reads trace flags over mimble.toml values and builds the tracer.
// A nil tracer means tracing is disabled.
func setupTracing(cmd *cobra.Command, st *settings) (*tracerSetup, error) {
	output := stringSetting(cmd, "trace", st.cfg.Trace.Output)
	if output == "" {
		return &tracerSetup{}, nil
	}

	level, err := trace.ParseLevel(stringSetting(cmd, "trace-level", st.cfg.Trace.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		return &tracerSetup{}, nil
	}
	mode, err := trace.ParseMode(stringSetting(cmd, "trace-mode", st.cfg.Trace.Mode))
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(stringSetting(cmd, "trace-format", st.cfg.Trace.Format))
	if err != nil {
		return nil, fmt.Errorf("invalid trace format: %w", err)
	}
	ringSize, err := intSetting(cmd, "trace-ring-size", st.cfg.Trace.RingSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	cfg := trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
	}
	if output == "-" {
		// без Close: stderr закрывать нельзя
		cfg.Output = struct{ io.Writer }{cmd.ErrOrStderr()}
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	st.logger.Debug("tracing enabled", "output", output, "level", level, "mode", mode, "format", format)

	setup := &tracerSetup{tracer: tracer, config: cfg}
	if mode == trace.ModeRing {
		setup.ring, _ = tracer.(*trace.RingTracer)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return setup, nil
}

// finish dumps the ring (ring mode) and closes the tracer. Errors are
// reported on stderr and do not change the exit status of the run.
func (s *tracerSetup) finish(cmd *cobra.Command) {
	if s == nil || s.tracer == nil {
		return
	}
	if s.ring != nil {
		if err := dumpRing(cmd, s.ring, s.config); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
		}
	}
	if err := trace.Close(s.tracer); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
	}
}

func dumpRing(cmd *cobra.Command, ring *trace.RingTracer, cfg trace.Config) error {
	format := cfg.Format
	if format == trace.FormatAuto {
		format = trace.FormatForPath(cfg.OutputPath)
	}
	if cfg.OutputPath == "-" {
		return ring.Dump(cmd.ErrOrStderr(), format)
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to open trace output: %w", err)
	}
	defer f.Close()
	return ring.Dump(f, format)
}
