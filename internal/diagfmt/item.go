package diagfmt

import (
	"errors"

	"mimble/internal/diag"
	"mimble/internal/eval"
	"mimble/internal/parser"
	"mimble/internal/source"
)

// Item is a renderable diagnostic from any stage: lexing, parsing or evaluation.
type Item struct {
	Severity diag.Severity
	Code     string // LEX1002, SYN2001, EV1003 ...
	Message  string
	Span     source.Span
	Notes    []diag.Note
}

// FromDiagnostics converts parser/lexer diagnostics.
func FromDiagnostics(ds []diag.Diagnostic) []Item {
	out := make([]Item, 0, len(ds))
	for _, d := range ds {
		out = append(out, Item{
			Severity: d.Severity,
			Code:     d.Code.ID(),
			Message:  d.Message,
			Span:     d.Primary,
			Notes:    d.Notes,
		})
	}
	return out
}

// FromError extracts items from a *parser.Error or *eval.Error anywhere in
// err's chain. ok is false for other errors.
func FromError(err error) (items []Item, ok bool) {
	var pe *parser.Error
	if errors.As(err, &pe) {
		return FromDiagnostics(pe.Diagnostics), true
	}
	var ee *eval.Error
	if errors.As(err, &ee) {
		return []Item{{
			Severity: diag.SevError,
			Code:     ee.Code.String(),
			Message:  ee.Message,
			Span:     ee.Span,
		}}, true
	}
	return nil, false
}
