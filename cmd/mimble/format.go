package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mimble/internal/diagfmt"
	"mimble/internal/format"
	"mimble/internal/source"
)

func newFmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [flags] <file.mb|-> [file.mb...]",
		Short: "Format Mimble source files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFmt,
	}
	cmd.Flags().Bool("check", false, "list files whose formatting differs and fail if any")
	cmd.Flags().Bool("stdout", false, "print formatted code to stdout instead of rewriting files")
	cmd.Flags().String("format", "text", "report format (text|json)")
	cmd.Flags().Int("indent", 4, "spaces per indentation level")
	cmd.Flags().Bool("tabs", false, "indent with tabs")
	return cmd
}

type fmtResult struct {
	Path      string
	Formatted []byte
	Changed   bool
	Err       error
}

func runFmt(cmd *cobra.Command, args []string) error {
	st := settingsFrom(cmd)
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}
	report, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	indent, err := cmd.Flags().GetInt("indent")
	if err != nil {
		return err
	}
	tabs, err := cmd.Flags().GetBool("tabs")
	if err != nil {
		return err
	}
	if report != "text" && report != "json" {
		return fmt.Errorf("fmt: unsupported output format %q", report)
	}
	if toStdout && check {
		return errors.New("fmt: --stdout cannot be used with --check")
	}
	if toStdout && report != "text" {
		return errors.New("fmt: --stdout is only supported with text output")
	}
	opt := format.Options{IndentWidth: indent, UseTabs: tabs}

	fs := source.NewFileSet()
	results := make([]fmtResult, 0, len(args))
	for _, path := range args {
		res := formatOne(cmd, fs, path, opt)
		if res.Err == nil && !check && !toStdout && path != "-" && res.Changed {
			res.Err = writeFormatted(path, res.Formatted)
		}
		results = append(results, res)
	}
	st.logger.Debug("fmt finished", "files", len(results), "check", check)

	var hasErrors, hasChanges bool
	out := cmd.OutOrStdout()
	for _, res := range results {
		if res.Err != nil {
			hasErrors = true
			if perr := diagfmt.PrettyError(cmd.ErrOrStderr(), res.Err, fs, diagfmt.PrettyOpts{Color: st.color, Context: 1}); perr != nil {
				return perr
			}
			continue
		}
		hasChanges = hasChanges || res.Changed
		if report != "text" {
			continue
		}
		switch {
		case toStdout || res.Path == "-":
			if _, err := out.Write(res.Formatted); err != nil {
				return err
			}
		case check && res.Changed:
			fmt.Fprintln(out, res.Path)
		case res.Changed:
			fmt.Fprintf(out, "reformatted %s\n", res.Path)
		}
	}
	if report == "json" {
		if err := renderFmtJSON(out, results, check); err != nil {
			return err
		}
	}

	if hasErrors {
		return errReported
	}
	if check && hasChanges {
		return errors.New("fmt: formatting changes required")
	}
	return nil
}

func formatOne(cmd *cobra.Command, fs *source.FileSet, path string, opt format.Options) fmtResult {
	src, err := readProgram(path, cmd.InOrStdin())
	if err != nil {
		return fmtResult{Path: path, Err: err}
	}
	name := path
	if path == "-" {
		name = "<stdin>"
	}
	id := fs.AddVirtual(name, []byte(src))
	formatted, err := format.Source(fs, id, opt)
	if err != nil {
		return fmtResult{Path: path, Err: err}
	}
	return fmtResult{
		Path:      path,
		Formatted: formatted,
		Changed:   !bytes.Equal(formatted, fs.Get(id).Content),
	}
}

func writeFormatted(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return fmt.Errorf("fmt: %w", err)
	}
	return nil
}

func renderFmtJSON(w io.Writer, results []fmtResult, check bool) error {
	type jsonResult struct {
		Path     string `json:"path"`
		Changed  bool   `json:"changed"`
		Error    string `json:"error,omitempty"`
		CheckRun bool   `json:"check"`
	}

	payload := make([]jsonResult, 0, len(results))
	for _, res := range results {
		jr := jsonResult{Path: res.Path, Changed: res.Changed, CheckRun: check}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		payload = append(payload, jr)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
