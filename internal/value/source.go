package value

import "fmt"

// SourceKind tags where a value came from or where it was stored.
type SourceKind uint8

const (
	SourceNone SourceKind = iota
	SourceVariable
	SourceArraySlot
	SourceExpression
	SourceLiteral
)

var sourceKindNames = [...]string{
	SourceNone:       "None",
	SourceVariable:   "Variable",
	SourceArraySlot:  "ArraySlot",
	SourceExpression: "Expression",
	SourceLiteral:    "Literal",
}

func (k SourceKind) String() string {
	if int(k) < len(sourceKindNames) {
		return sourceKindNames[k]
	}
	return "Unknown"
}

// ParseSourceKind is the inverse of SourceKind.String.
func ParseSourceKind(s string) (SourceKind, bool) {
	for k, name := range sourceKindNames {
		if name == s {
			return SourceKind(k), true
		}
	}
	return SourceNone, false
}

// Source is the provenance of a tracked value.
type Source struct {
	Kind    SourceKind
	Name    string // SourceVariable
	ArrayID uint64 // SourceArraySlot
	Index   int    // SourceArraySlot
}

var (
	NoSource         = Source{}
	ExpressionSource = Source{Kind: SourceExpression}
	LiteralSource    = Source{Kind: SourceLiteral}
)

func Variable(name string) Source {
	return Source{Kind: SourceVariable, Name: name}
}

func ArraySlot(id uint64, index int) Source {
	return Source{Kind: SourceArraySlot, ArrayID: id, Index: index}
}

func (s Source) String() string {
	switch s.Kind {
	case SourceVariable:
		return fmt.Sprintf("Variable(%s)", s.Name)
	case SourceArraySlot:
		return fmt.Sprintf("ArraySlot(id=%d, index=%d)", s.ArrayID, s.Index)
	default:
		return s.Kind.String()
	}
}

// Tracked pairs a value with its provenance.
type Tracked struct {
	Value  Value
	Source Source
}

func Track(v Value, src Source) Tracked {
	return Tracked{Value: v, Source: src}
}

// Snapshot clones the value so later mutation of an aliased array does not show through.
func (t Tracked) Snapshot() Tracked {
	return Tracked{Value: t.Value.Clone(), Source: t.Source}
}
