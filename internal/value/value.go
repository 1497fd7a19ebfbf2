package value

import (
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindArray
	KindFunc
)

var kindNames = [...]string{
	KindNil:    "Nil",
	KindInt:    "Integer",
	KindFloat:  "Float",
	KindString: "String",
	KindBool:   "Boolean",
	KindArray:  "Array",
	KindFunc:   "Function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Value is a tagged union; only the field matching Kind is meaningful.
// The zero Value is Nil.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string // KindString, KindFunc (builtin name)
	Bool  bool
	Arr   *Array
}

// Array is a reference value: copies of a Value share the same *Array.
type Array struct {
	ID    uint64
	Elem  Type
	Elems []Tracked
}

var Nil = Value{}

func Int(n int64) Value        { return Value{Kind: KindInt, Int: n} }
func Float(f float64) Value    { return Value{Kind: KindFloat, Float: f} }
func String(s string) Value    { return Value{Kind: KindString, Str: s} }
func Bool(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func Func(name string) Value   { return Value{Kind: KindFunc, Str: name} }
func FromArray(a *Array) Value { return Value{Kind: KindArray, Arr: a} }

// NewArray builds an array value whose element type unifies all elements.
// Callers check homogeneity before calling; incompatible elements are ignored
// when computing the type.
func NewArray(id uint64, elems []Tracked) Value {
	elem := TypeNil
	for _, el := range elems {
		if t, ok := Unify(elem, TypeOf(el.Value)); ok {
			elem = t
		}
	}
	return FromArray(&Array{ID: id, Elem: elem, Elems: elems})
}

func (v Value) IsNil() bool { return v.Kind == KindNil }

// IsNumber reports whether v is an Integer or a Float.
func (v Value) IsNumber() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// AsFloat widens a number to float64.
func (v Value) AsFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// Len returns the element count of an array or the rune count of a string.
func (v Value) Len() (int, bool) {
	switch v.Kind {
	case KindArray:
		return len(v.Arr.Elems), true
	case KindString:
		return len([]rune(v.Str)), true
	default:
		return 0, false
	}
}

// Clone returns a deep copy. Arrays are copied element by element so the
// result no longer aliases v; the array ID is kept.
func (v Value) Clone() Value {
	if v.Kind != KindArray || v.Arr == nil {
		return v
	}
	elems := make([]Tracked, len(v.Arr.Elems))
	for i, el := range v.Arr.Elems {
		elems[i] = Tracked{Value: el.Value.Clone(), Source: el.Source}
	}
	return FromArray(&Array{ID: v.Arr.ID, Elem: v.Arr.Elem, Elems: elems})
}

// Reaches reports whether target is v itself or nested anywhere inside v.
// Stores that would make an array contain itself are rejected with it, so
// Clone, Equal and String never meet a cycle.
func (v Value) Reaches(target *Array) bool {
	if v.Kind != KindArray || v.Arr == nil || target == nil {
		return false
	}
	if v.Arr == target {
		return true
	}
	for _, el := range v.Arr.Elems {
		if el.Value.Reaches(target) {
			return true
		}
	}
	return false
}

// Equal is structural equality. Integers and floats compare numerically;
// arrays compare element-wise and ignore identity and provenance.
func (v Value) Equal(o Value) bool {
	if v.IsNumber() && o.IsNumber() {
		if v.Kind == KindInt && o.Kind == KindInt {
			return v.Int == o.Int
		}
		return v.AsFloat() == o.AsFloat()
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindString, KindFunc:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	case KindArray:
		if v.Arr == o.Arr {
			return true
		}
		if v.Arr == nil || o.Arr == nil || len(v.Arr.Elems) != len(o.Arr.Elems) {
			return false
		}
		for i := range v.Arr.Elems {
			if !v.Arr.Elems[i].Value.Equal(o.Arr.Elems[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v the way the REPL and trace output show it: strings are quoted.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb, true)
	return sb.String()
}

// Display renders v for str() and print-like output: top-level strings are bare.
func (v Value) Display() string {
	if v.Kind == KindString {
		return v.Str
	}
	return v.String()
}

func (v Value) write(sb *strings.Builder, quote bool) {
	switch v.Kind {
	case KindNil:
		sb.WriteString("nil")
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		sb.WriteString(FormatFloat(v.Float))
	case KindString:
		if quote {
			sb.WriteString(strconv.Quote(v.Str))
		} else {
			sb.WriteString(v.Str)
		}
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.Bool))
	case KindArray:
		sb.WriteByte('[')
		if v.Arr != nil {
			for i, el := range v.Arr.Elems {
				if i > 0 {
					sb.WriteString(", ")
				}
				el.Value.write(sb, true)
			}
		}
		sb.WriteByte(']')
	case KindFunc:
		sb.WriteString("<builtin ")
		sb.WriteString(v.Str)
		sb.WriteByte('>')
	default:
		sb.WriteString("<unknown>")
	}
}

// FormatFloat prints the shortest representation, keeping a ".0" on
// integral values so floats stay distinguishable from integers.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") { // n: NaN, Inf
		s += ".0"
	}
	return s
}
