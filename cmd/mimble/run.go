package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mimble/internal/diagfmt"
	"mimble/internal/interp"
	"mimble/internal/observ"
	"mimble/internal/prof"
	"mimble/internal/source"
	"mimble/internal/trace"
	"mimble/internal/ui"
	"mimble/internal/value"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] <file.mb>...",
		Short: "Run one or more Mimble programs",
		Long: `Run executes each program in its own interpreter and prints the value of
its last statement. Use "-" to read a program from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPrograms,
	}
	addTraceFlags(cmd)
	cmd.Flags().IntP("jobs", "j", 0, "maximum number of programs run in parallel (0 = unlimited)")
	cmd.Flags().Duration("timeout", 0, "abandon a program that runs longer than this (0 = no limit); the abandoned run finishes in the background with its trace cut off")
	cmd.Flags().Bool("timings", false, "print phase timings to stderr")
	cmd.Flags().String("ui", "auto", "progress UI for several files (auto|on|off)")
	cmd.Flags().String("cpuprofile", "", "write a Go CPU profile of the run to this file")
	cmd.Flags().String("memprofile", "", "write a Go heap profile after the run to this file")
	cmd.Flags().String("runtime-trace", "", "write a Go runtime trace of the run to this file")
	return cmd
}

type runOptions struct {
	jobs    int
	timeout time.Duration
	timer   *observ.Timer // nil без --timings
	tracer  trace.Tracer
	stdin   io.Reader
	notify  func(ui.FileEvent)
	st      *settings
}

type runResult struct {
	path  string
	value value.Value
	err   error
	files *source.FileSet
}

func runPrograms(cmd *cobra.Command, args []string) error {
	st := settingsFrom(cmd)

	jobs, err := intSetting(cmd, "jobs", st.cfg.Run.Jobs)
	if err != nil {
		return err
	}
	timeout := st.cfg.TimeoutDuration()
	if f := cmd.Flags().Lookup("timeout"); f != nil && f.Changed {
		if timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return err
		}
	}
	timings, err := boolSetting(cmd, "timings", st.cfg.Run.Timings)
	if err != nil {
		return err
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	profOpts, err := readProfileFlags(cmd)
	if err != nil {
		return err
	}
	if profOpts.Enabled() {
		session, err := prof.Start(profOpts)
		if err != nil {
			return err
		}
		defer func() {
			if err := session.Stop(); err != nil {
				st.logger.Error("failed to write profiles", "err", err)
			}
		}()
	}

	setup, err := setupTracing(cmd, st)
	if err != nil {
		return err
	}
	defer setup.finish(cmd)

	opts := runOptions{
		jobs:    jobs,
		timeout: timeout,
		tracer:  trace.FromContext(cmd.Context()),
		stdin:   cmd.InOrStdin(),
		notify:  func(ui.FileEvent) {},
		st:      st,
	}
	if timings {
		opts.timer = observ.NewTimer()
	}
	// Шаги в событиях нумеруются на интерпретатор, поэтому общий поток трассировки пишем последовательно.
	if !trace.IsNop(opts.tracer) && len(args) > 1 && opts.jobs != 1 {
		st.logger.Info("tracing enabled, running programs sequentially", "files", len(args))
		opts.jobs = 1
	}

	var results []runResult
	if len(args) > 1 && shouldUseTUI(mode, cmd.OutOrStdout()) {
		err = runWithProgressUI(cmd, args, func(notify func(ui.FileEvent)) {
			opts.notify = notify
			results = runAll(cmd.Context(), args, opts)
		})
		if err != nil {
			return fmt.Errorf("progress UI: %w", err)
		}
	} else {
		results = runAll(cmd.Context(), args, opts)
	}

	failed := printResults(cmd, results, st)
	if opts.timer != nil {
		if err := opts.timer.WriteSummary(cmd.ErrOrStderr()); err != nil {
			return err
		}
	}
	if failed {
		return errReported
	}
	return nil
}

// runAll runs every file in its own Interpreter; results keep argument order.
func runAll(ctx context.Context, paths []string, opts runOptions) []runResult {
	results := make([]runResult, len(paths))
	var g errgroup.Group
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			results[i] = runFile(ctx, path, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func runFile(ctx context.Context, path string, opts runOptions) runResult {
	res := runResult{path: path}
	opts.notify(ui.FileEvent{File: path, Status: ui.StatusParsing})

	var phase int
	if opts.timer != nil {
		phase = opts.timer.Begin(path, "read")
	}
	src, err := readProgram(path, opts.stdin)
	if opts.timer != nil {
		opts.timer.End(phase, 0, "")
	}
	if err != nil {
		res.err = err
		opts.notify(ui.FileEvent{File: path, Status: ui.StatusError})
		return res
	}

	it := interp.New(
		interp.WithFileName(path),
		interp.WithLogger(opts.st.logger.With("file", path)),
	)
	res.files = it.Files()
	var rt *runTracer
	if !trace.IsNop(opts.tracer) {
		rt = newRunTracer(opts.tracer)
		it.SetTracer(rt)
	}

	opts.notify(ui.FileEvent{File: path, Status: ui.StatusRunning})
	if opts.timer != nil {
		phase = opts.timer.Begin(path, "run")
	}
	res.value, res.err = runWithTimeout(ctx, opts.timeout, func() (value.Value, error) {
		return it.Run(src)
	})
	timedOut := isTimeout(res.err)
	if timedOut && rt != nil {
		rt.detach()
	}
	var steps uint64
	if !timedOut {
		// брошенный по таймауту прогон ещё работает, его счётчик читать нельзя
		steps = it.Steps()
	}
	if opts.timer != nil {
		note := ""
		switch {
		case timedOut:
			note = "timeout"
		case res.err != nil:
			note = "failed"
		}
		opts.timer.End(phase, steps, note)
	}

	status := ui.StatusDone
	switch {
	case timedOut:
		status = ui.StatusTimeout
	case res.err != nil:
		status = ui.StatusError
	}
	opts.notify(ui.FileEvent{File: path, Status: status, Steps: steps})
	return res
}

func readProgram(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	// #nosec G304 -- path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printResults(cmd *cobra.Command, results []runResult, st *settings) (failed bool) {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	opts := diagfmt.PrettyOpts{Color: st.color, Context: 1}
	for _, res := range results {
		if res.err != nil {
			failed = true
			if err := diagfmt.PrettyError(errOut, res.err, res.files, opts); err != nil {
				st.logger.Error("failed to print diagnostics", "err", err)
			}
			continue
		}
		if len(results) > 1 {
			fmt.Fprintf(out, "%s: %s\n", res.path, res.value)
		} else {
			fmt.Fprintln(out, res.value)
		}
	}
	return failed
}

func readProfileFlags(cmd *cobra.Command) (prof.Options, error) {
	var opts prof.Options
	var err error
	if opts.CPUPath, err = cmd.Flags().GetString("cpuprofile"); err != nil {
		return opts, fmt.Errorf("failed to get cpuprofile flag: %w", err)
	}
	if opts.MemPath, err = cmd.Flags().GetString("memprofile"); err != nil {
		return opts, fmt.Errorf("failed to get memprofile flag: %w", err)
	}
	if opts.TracePath, err = cmd.Flags().GetString("runtime-trace"); err != nil {
		return opts, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return opts, nil
}
