package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mimble/internal/version"
)

// errReported означает, что команда уже напечатала диагностику и нужен только код выхода.
var errReported = errors.New("errors reported")

// newRootCmd builds the command tree; tests get a fresh tree per case.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "mimble",
		Short:             "Mimble interpreter and trace tools",
		Long:              `Mimble runs small scripts and records step-by-step execution traces`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadSettings,
	}

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text|json)")
	rootCmd.PersistentFlags().String("config", "", "path to mimble.toml (default: search upwards from the working directory)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newTraceCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newReplCmd())
	rootCmd.AddCommand(newTokenizeCmd())
	rootCmd.AddCommand(newFmtCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "mimble: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
