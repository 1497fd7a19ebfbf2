package eval

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mimble/internal/ast"
	"mimble/internal/source"
	"mimble/internal/value"
)

// call is the argument bundle handed to a builtin.
type call struct {
	e    *Evaluator
	ex   *ast.Expr
	args []value.Tracked
}

func (c *call) arg(i int) value.Value { return c.args[i].Value }

func (c *call) argSpan(i int) source.Span {
	if i < len(c.ex.Elems) {
		if a := c.e.prog.Expr(c.ex.Elems[i]); a != nil {
			return a.Span
		}
	}
	return c.ex.Span
}

// wantArg fails unless argument i has one of the given kinds.
func (c *call) wantArg(name string, i int, kinds ...value.Kind) error {
	if slices.Contains(kinds, c.arg(i).Kind) {
		return nil
	}
	want := make([]string, len(kinds))
	for k, kind := range kinds {
		want[k] = kind.String()
	}
	return c.e.fail(CodeTypeMismatch, c.argSpan(i), "%s expects %s, got %s",
		name, strings.Join(want, " or "), value.TypeOf(c.arg(i)))
}

type builtin struct {
	name  string
	arity int
	fn    func(c *call) (value.Value, error)
}

var builtins map[string]builtin

func init() {
	list := []builtin{
		{"len", 1, builtinLen},
		{"push", 2, builtinPush},
		{"pop", 1, builtinPop},
		{"str", 1, builtinStr},
		{"int", 1, builtinInt},
		{"float", 1, builtinFloat},
		{"type", 1, builtinType},
		{"upper", 1, builtinUpper},
		{"lower", 1, builtinLower},
		{"abs", 1, builtinAbs},
	}
	builtins = make(map[string]builtin, len(list))
	for _, b := range list {
		builtins[b.name] = b
	}
}

// Builtins returns the names of the native functions, sorted.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func builtinLen(c *call) (value.Value, error) {
	if err := c.wantArg("len", 0, value.KindArray, value.KindString); err != nil {
		return value.Nil, err
	}
	n, _ := c.arg(0).Len()
	return value.Int(int64(n)), nil
}

// builtinPush appends to the array in place and returns the array.
func builtinPush(c *call) (value.Value, error) {
	if err := c.wantArg("push", 0, value.KindArray); err != nil {
		return value.Nil, err
	}
	arrV, v := c.arg(0), c.args[1]
	arr := arrV.Arr
	if v.Value.Reaches(arr) {
		return value.Nil, c.e.fail(CodeTypeMismatch, c.argSpan(1), "cannot push an array into itself")
	}
	elem, ok := value.Unify(arr.Elem, value.TypeOf(v.Value))
	if !ok {
		return value.Nil, c.e.fail(CodeTypeMismatch, c.argSpan(1), "cannot push %s onto %s",
			value.TypeOf(v.Value), value.TypeOf(arrV))
	}
	arr.Elem = elem
	arr.Elems = append(arr.Elems, value.Track(v.Value, v.Source))
	c.e.emitAssign(c.ex.Span, v.Source, value.ArraySlot(arr.ID, len(arr.Elems)-1), v.Value)
	return arrV, nil
}

// builtinPop removes and returns the last element.
func builtinPop(c *call) (value.Value, error) {
	if err := c.wantArg("pop", 0, value.KindArray); err != nil {
		return value.Nil, err
	}
	arr := c.arg(0).Arr
	if len(arr.Elems) == 0 {
		return value.Nil, c.e.fail(CodeOutOfBounds, c.argSpan(0), "pop from empty array")
	}
	last := len(arr.Elems) - 1
	v := arr.Elems[last].Value
	arr.Elems[last] = value.Tracked{}
	arr.Elems = arr.Elems[:last]
	c.e.emitAssign(c.ex.Span, value.ArraySlot(arr.ID, last), value.NoSource, v)
	return v, nil
}

func builtinStr(c *call) (value.Value, error) {
	return value.String(c.arg(0).Display()), nil
}

func builtinInt(c *call) (value.Value, error) {
	v := c.arg(0)
	switch v.Kind {
	case value.KindInt:
		return v, nil
	case value.KindFloat:
		t := math.Trunc(v.Float)
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return value.Nil, c.e.fail(CodeOverflow, c.argSpan(0), "%s does not fit in Integer", value.FormatFloat(v.Float))
		}
		return value.Int(int64(t)), nil
	case value.KindBool:
		if v.Bool {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	case value.KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return value.Nil, c.e.fail(CodeConversion, c.argSpan(0), "cannot convert %q to Integer", v.Str)
		}
		return value.Int(n), nil
	default:
		return value.Nil, c.wantArg("int", 0, value.KindInt, value.KindFloat, value.KindBool, value.KindString)
	}
}

func builtinFloat(c *call) (value.Value, error) {
	v := c.arg(0)
	switch v.Kind {
	case value.KindInt:
		return value.Float(float64(v.Int)), nil
	case value.KindFloat:
		return v, nil
	case value.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || !finite(f) {
			return value.Nil, c.e.fail(CodeConversion, c.argSpan(0), "cannot convert %q to Float", v.Str)
		}
		return value.Float(f), nil
	default:
		return value.Nil, c.wantArg("float", 0, value.KindInt, value.KindFloat, value.KindString)
	}
}

func builtinType(c *call) (value.Value, error) {
	return value.String(value.TypeOf(c.arg(0)).String()), nil
}

func builtinUpper(c *call) (value.Value, error) {
	if err := c.wantArg("upper", 0, value.KindString); err != nil {
		return value.Nil, err
	}
	return value.String(cases.Upper(language.Und).String(c.arg(0).Str)), nil
}

func builtinLower(c *call) (value.Value, error) {
	if err := c.wantArg("lower", 0, value.KindString); err != nil {
		return value.Nil, err
	}
	return value.String(cases.Lower(language.Und).String(c.arg(0).Str)), nil
}

func builtinAbs(c *call) (value.Value, error) {
	v := c.arg(0)
	switch v.Kind {
	case value.KindInt:
		if v.Int == math.MinInt64 {
			return value.Nil, c.e.fail(CodeOverflow, c.argSpan(0), "integer overflow in abs(%d)", v.Int)
		}
		if v.Int < 0 {
			return value.Int(-v.Int), nil
		}
		return v, nil
	case value.KindFloat:
		return value.Float(math.Abs(v.Float)), nil
	default:
		return value.Nil, c.wantArg("abs", 0, value.KindInt, value.KindFloat)
	}
}
