package parser

import (
	"fmt"

	"mimble/internal/diag"
	"mimble/internal/source"
)

// Error is returned by Parse when the source is malformed.
// It carries every collected diagnostic; Error() reports the first one.
type Error struct {
	Path        string
	Pos         source.LineCol
	Diagnostics []diag.Diagnostic
	Files       *source.FileSet
}

func newError(fs *source.FileSet, bag *diag.Bag) *Error {
	items := bag.Items()
	out := make([]diag.Diagnostic, 0, len(items))
	for _, d := range items {
		if d.Severity >= diag.SevError {
			out = append(out, d)
		}
	}
	e := &Error{Diagnostics: out, Files: fs}
	if len(out) > 0 {
		if f := fs.Get(out[0].Primary.File); f != nil {
			e.Path = f.Path
			e.Pos, _ = fs.Resolve(out[0].Primary)
		}
	}
	return e
}

func (e *Error) Error() string {
	if len(e.Diagnostics) == 0 {
		return "parse error"
	}
	first := e.Diagnostics[0]
	msg := fmt.Sprintf("parse error at %s:%d:%d: %s", e.Path, e.Pos.Line, e.Pos.Col, first.Message)
	if n := len(e.Diagnostics) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}
