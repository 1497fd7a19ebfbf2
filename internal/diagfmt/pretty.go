package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"mimble/internal/diag"
	"mimble/internal/source"
)

type palette struct {
	err, warn, info, path, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		note:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.path, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//	   3 | let x = ;
//	     |         ^
//
// затем заметки, если включены.
func Pretty(w io.Writer, items []Item, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, it := range items {
		if err := prettyOne(w, it, fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

// PrettyError prints err with source context when it carries positions,
// and as a plain "error: ..." line otherwise.
func PrettyError(w io.Writer, err error, fs *source.FileSet, opts PrettyOpts) error {
	if err == nil {
		return nil
	}
	if items, ok := FromError(err); ok && len(items) > 0 {
		return Pretty(w, items, fs, opts)
	}
	p := newPalette(opts.Color)
	_, werr := fmt.Fprintf(w, "%s %s\n", p.err.Sprint("error:"), err.Error())
	return werr
}

func prettyOne(w io.Writer, it Item, fs *source.FileSet, opts PrettyOpts, p palette) error {
	var sb strings.Builder
	var file *source.File
	if fs != nil {
		file = fs.Get(it.Span.File)
	}
	if file != nil {
		start, _ := fs.Resolve(it.Span)
		loc := fmt.Sprintf("%s:%d:%d:", formatPath(file.Path, opts.PathMode, opts.BaseDir), start.Line, start.Col)
		sb.WriteString(p.path.Sprint(loc))
		sb.WriteByte(' ')
	}
	sev := it.Severity.String()
	if it.Code != "" {
		sev += " " + it.Code
	}
	fmt.Fprintf(&sb, "%s: %s\n", p.severity(it.Severity).Sprint(sev), it.Message)

	if file != nil {
		writeSnippet(&sb, file, fs, it.Span, opts.Context, p)
	}
	if opts.ShowNotes {
		for _, n := range it.Notes {
			sb.WriteString("  " + p.note.Sprint("note:") + " ")
			if fs != nil && fs.Get(n.Span.File) != nil && !n.Span.Empty() {
				sb.WriteString(fs.Position(n.Span) + ": ")
			}
			sb.WriteString(n.Msg + "\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeSnippet(sb *strings.Builder, file *source.File, fs *source.FileSet, span source.Span, context int, p palette) {
	start, end := fs.Resolve(span)
	if start.Line == 0 {
		return
	}
	first := start.Line
	if context > 0 {
		if uint32(context) >= first {
			first = 1
		} else {
			first -= uint32(context)
		}
	}
	width := len(fmt.Sprint(start.Line))
	for ln := first; ln <= start.Line; ln++ {
		fmt.Fprintf(sb, "%s %s\n", p.gutter.Sprintf("%*d |", width+1, ln), file.GetLine(ln))
	}

	line := file.GetLine(start.Line)
	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	pad := runewidth.StringWidth(strings.ReplaceAll(line[:col], "\t", "    "))
	// подчёркивание только в пределах первой строки
	endCol := len(line)
	if end.Line == start.Line {
		endCol = min(int(end.Col)-1, len(line))
	}
	underline := 1
	if endCol > col {
		underline = max(runewidth.StringWidth(line[col:endCol]), 1)
	}
	marker := "^" + strings.Repeat("~", underline-1)
	fmt.Fprintf(sb, "%s %s%s\n", p.gutter.Sprintf("%*s |", width+1, ""), strings.Repeat(" ", pad), p.caret.Sprint(marker))
}
