package eval

import (
	"fmt"
	"strings"

	"mimble/internal/source"
)

// Code identifies the kind of evaluation error.
type Code int

// Stable error codes - do not change values.
const (
	CodeUndefined    Code = 1001 // EV1001: unbound name
	CodeTypeMismatch Code = 1002 // EV1002: operand or argument of the wrong type
	CodeDivByZero    Code = 1003 // EV1003: division or modulo by zero
	CodeOverflow     Code = 1004 // EV1004: integer overflow or non-finite float
	CodeOutOfBounds  Code = 1005 // EV1005: index out of range
	CodeRedeclared   Code = 1006 // EV1006: `let` of a name already bound in the same scope
	CodeBadCall      Code = 1007 // EV1007: wrong arity or calling a non-function
	CodeConversion   Code = 1008 // EV1008: int()/float() could not parse the input
	CodeInternal     Code = 1999 // EV1999: malformed program tree
)

// String returns the code as "EV1001" format.
func (c Code) String() string {
	return fmt.Sprintf("EV%d", c)
}

// Error is a runtime evaluation failure.
type Error struct {
	Code    Code
	Message string
	Span    source.Span    // location where evaluation failed
	Pos     source.LineCol // resolved start of Span, zero if unknown
	Path    string         // file path, empty if unknown
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" && !e.Pos.IsZero() {
		return fmt.Sprintf("%s:%d:%d: error %s: %s", e.Path, e.Pos.Line, e.Pos.Col, e.Code, e.Message)
	}
	return fmt.Sprintf("error %s: %s", e.Code, e.Message)
}

// FormatWithFiles formats the error with the offending source line and a caret.
func (e *Error) FormatWithFiles(files *source.FileSet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "error %s: %s\n", e.Code, e.Message)

	if files == nil {
		return sb.String()
	}
	file := files.Get(e.Span.File)
	if file == nil {
		return sb.String()
	}
	start, _ := files.Resolve(e.Span)
	fmt.Fprintf(&sb, "  at %s:%d:%d\n", file.Path, start.Line, start.Col)
	if line := file.GetLine(start.Line); line != "" {
		fmt.Fprintf(&sb, "   | %s\n", line)
		fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", int(start.Col)-1))
	}
	return sb.String()
}
