package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mimble/internal/diagfmt"
	"mimble/internal/eval"
	"mimble/internal/interp"
	"mimble/internal/trace"
)

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive read-eval-print loop",
		Long: `Repl evaluates input against one interpreter, so bindings persist between
lines. Commands: :globals, :reset, :trace on|off, :builtins, :quit.`,
		Args: cobra.NoArgs,
		RunE: runRepl,
	}
	cmd.Flags().Bool("no-prompt", false, "do not print the prompt")
	return cmd
}

type repl struct {
	it     *interp.Interpreter
	out    io.Writer
	errOut io.Writer
	st     *settings
}

func runRepl(cmd *cobra.Command, _ []string) error {
	st := settingsFrom(cmd)
	noPrompt, err := cmd.Flags().GetBool("no-prompt")
	if err != nil {
		return fmt.Errorf("failed to get no-prompt flag: %w", err)
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !isTerminal(f) {
		noPrompt = true
	}

	r := &repl{
		it:     interp.New(interp.WithFileName("<repl>"), interp.WithLogger(st.logger)),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		st:     st,
	}
	scanner := bufio.NewScanner(in)
	var pending strings.Builder
	for {
		if !noPrompt {
			if pending.Len() > 0 {
				fmt.Fprint(r.out, "... ")
			} else {
				fmt.Fprint(r.out, ">>> ")
			}
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if pending.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			if quit := r.command(strings.TrimSpace(line)); quit {
				return nil
			}
			continue
		}
		pending.WriteString(line)
		pending.WriteByte('\n')
		// незакрытые скобки - ждём продолжения
		if openDepth(pending.String()) > 0 {
			continue
		}
		r.eval(pending.String())
		pending.Reset()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if pending.Len() > 0 {
		r.eval(pending.String())
	}
	return nil
}

func (r *repl) eval(src string) {
	if strings.TrimSpace(src) == "" {
		return
	}
	v, err := r.it.Run(src)
	if err != nil {
		_ = diagfmt.PrettyError(r.errOut, err, r.it.Files(), diagfmt.PrettyOpts{Color: r.st.color})
		return
	}
	fmt.Fprintln(r.out, v)
}

func (r *repl) command(line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":reset":
		r.it.Reset()
	case ":globals":
		for _, name := range r.it.Globals() {
			v, _ := r.it.Lookup(name)
			fmt.Fprintf(r.out, "%s = %s\n", name, v)
		}
	case ":builtins":
		fmt.Fprintln(r.out, strings.Join(eval.Builtins(), " "))
	case ":trace":
		if len(fields) > 1 && fields[1] == "off" {
			r.it.SetTracer(nil)
			return false
		}
		r.it.SetTracer(trace.NewStreamTracer(struct{ io.Writer }{r.errOut}, trace.LevelDebug, trace.FormatText))
	default:
		fmt.Fprintf(r.errOut, "unknown command %s\n", fields[0])
	}
	return false
}

// openDepth counts unclosed brackets outside string literals and comments.
func openDepth(src string) int {
	depth := 0
	inString, escaped, inComment := false, false, false
	for _, ch := range src {
		switch {
		case inComment:
			if ch == '\n' {
				inComment = false
			}
		case inString:
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"' || ch == '\n':
				inString = false
			}
		case ch == '#':
			inComment = true
		case ch == '"':
			inString = true
		case ch == '{' || ch == '(' || ch == '[':
			depth++
		case ch == '}' || ch == ')' || ch == ']':
			depth--
		}
	}
	return depth
}
