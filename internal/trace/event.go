package trace

import (
	"mimble/internal/source"
	"mimble/internal/value"
)

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindInit fires when `let` creates a binding.
	KindInit Kind = iota + 1
	// KindAssign fires when a variable or an array slot is overwritten.
	KindAssign
	// KindCompare fires on every comparison operator.
	KindCompare
	// KindValue fires when an operator or a builtin call produces a value.
	KindValue
	// KindError fires when evaluation fails.
	KindError
)

var kindNames = [...]string{
	KindInit:    "Init",
	KindAssign:  "Assign",
	KindCompare: "Compare",
	KindValue:   "Value",
	KindError:   "Error",
}

// String returns the string representation of Kind.
func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindInit; k <= KindError; k++ {
		if kindNames[k] == s {
			return k, true
		}
	}
	return 0, false
}

// Event represents a single trace event. Fields beyond the header are
// populated according to Kind:
//
//	Init:    To (the new variable), Value
//	Assign:  From, To, Value
//	Compare: Left, Right, Result
//	Value:   Value, Label (operator or function name)
//	Error:   Label (message)
type Event struct {
	Kind Kind
	Step uint64         // 1-based, resets per run
	Span source.Span    // source range that caused the event
	Pos  source.LineCol // resolved start of Span

	Value  value.Tracked
	From   value.Source
	To     value.Source
	Left   value.Tracked
	Right  value.Tracked
	Result bool
	Label  string
}

// Equal compares two events structurally. Value snapshots are compared with
// value.Equal, so array identity is ignored.
func (e Event) Equal(o Event) bool {
	return e.Kind == o.Kind &&
		e.Step == o.Step &&
		e.Span == o.Span &&
		e.Pos == o.Pos &&
		trackedEqual(e.Value, o.Value) &&
		e.From == o.From &&
		e.To == o.To &&
		trackedEqual(e.Left, o.Left) &&
		trackedEqual(e.Right, o.Right) &&
		e.Result == o.Result &&
		e.Label == o.Label
}

func trackedEqual(a, b value.Tracked) bool {
	return a.Source == b.Source && a.Value.Kind == b.Value.Kind && a.Value.Equal(b.Value)
}
