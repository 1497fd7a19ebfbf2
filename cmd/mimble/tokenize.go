package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mimble/internal/diag"
	"mimble/internal/diagfmt"
	"mimble/internal/lexer"
	"mimble/internal/source"
)

func newTokenizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize [flags] <file.mb>",
		Short: "Print the tokens of a Mimble source file",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenize,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runTokenize(cmd *cobra.Command, args []string) error {
	st := settingsFrom(cmd)
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}

	src, err := readProgram(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	fs := source.NewFileSet()
	id := fs.AddVirtual(args[0], []byte(src))
	bag := diag.NewBag(100)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: &diag.BagReporter{Bag: bag}})
	tokens := lx.All()

	// Выводим диагностику в stderr, если есть
	if bag.Len() > 0 {
		bag.Sort()
		items := diagfmt.FromDiagnostics(bag.Items())
		if err := diagfmt.Pretty(cmd.ErrOrStderr(), items, fs, diagfmt.PrettyOpts{Color: st.color, Context: 2}); err != nil {
			return err
		}
	}

	switch format {
	case "json":
		err = diagfmt.FormatTokensJSON(cmd.OutOrStdout(), tokens, fs)
	default:
		err = diagfmt.FormatTokensPretty(cmd.OutOrStdout(), tokens, fs)
	}
	if err != nil {
		return err
	}
	if bag.HasErrors() {
		return errReported
	}
	return nil
}
