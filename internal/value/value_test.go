package value

import (
	"math"
	"testing"
)

func TestEqual(t *testing.T) {
	arr := func(vals ...Value) Value {
		elems := make([]Tracked, len(vals))
		for i, v := range vals {
			elems[i] = Track(v, LiteralSource)
		}
		return NewArray(1, elems)
	}
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"ints", Int(3), Int(3), true},
		{"int float mix", Int(3), Float(3), true},
		{"float diff", Float(0.5), Float(0.25), false},
		{"strings", String("a"), String("a"), true},
		{"string vs int", String("1"), Int(1), false},
		{"nil", Nil, Nil, true},
		{"bool", Bool(true), Bool(false), false},
		{"arrays structural", arr(Int(1), Int(2)), arr(Int(1), Int(2)), true},
		{"arrays length", arr(Int(1)), arr(Int(1), Int(2)), false},
		{"nested", arr(arr(Int(1))), arr(arr(Int(1))), true},
		{"func", Func("len"), Func("len"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("%s == %s: got %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCloneBreaksAliasing(t *testing.T) {
	orig := NewArray(7, []Tracked{Track(Int(1), LiteralSource)})
	alias := orig
	snap := orig.Clone()

	alias.Arr.Elems[0].Value = Int(99)
	alias.Arr.Elems = append(alias.Arr.Elems, Track(Int(2), LiteralSource))

	if orig.Arr.Elems[0].Value.Int != 99 {
		t.Fatalf("alias should share storage")
	}
	if len(snap.Arr.Elems) != 1 || snap.Arr.Elems[0].Value.Int != 1 {
		t.Errorf("snapshot changed: %s", snap)
	}
	if snap.Arr.ID != 7 {
		t.Errorf("clone should keep array id, got %d", snap.Arr.ID)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int(-4), "-4"},
		{Float(2.5), "2.5"},
		{Float(3), "3.0"},
		{Float(1e21), "1e+21"},
		{Float(math.Inf(1)), "+Inf"},
		{String("hi"), `"hi"`},
		{Bool(true), "true"},
		{Nil, "nil"},
		{Func("len"), "<builtin len>"},
		{NewArray(1, []Tracked{Track(String("a"), NoSource), Track(String("b"), NoSource)}), `["a", "b"]`},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("got %s, want %s", got, tt.want)
		}
	}
	if got := String("hi").Display(); got != "hi" {
		t.Errorf("Display should not quote: %s", got)
	}
}

func TestTypes(t *testing.T) {
	empty := NewArray(1, nil)
	ints := NewArray(2, []Tracked{Track(Int(1), NoSource)})

	if got := TypeOf(empty).String(); got != "Array<Nil>" {
		t.Errorf("empty array type: %s", got)
	}
	if got := TypeOf(ints).String(); got != "Array<Integer>" {
		t.Errorf("int array type: %s", got)
	}
	if !TypeNil.Accepts(TypeString) {
		t.Errorf("nil slot should accept anything")
	}
	if TypeInt.Accepts(TypeFloat) {
		t.Errorf("int slot should reject float")
	}
	if !ArrayOf(TypeInt).Accepts(ArrayOf(TypeNil)) {
		t.Errorf("array slot should accept an empty array")
	}
	if ArrayOf(TypeInt).Accepts(ArrayOf(TypeString)) {
		t.Errorf("array of int should reject array of string")
	}
	if !ArrayOf(TypeNil).Accepts(ArrayOf(TypeInt)) {
		t.Errorf("array of nil should accept any array")
	}
	if !TypeInt.Accepts(TypeNil) {
		t.Errorf("nil fits any slot")
	}
	nested := NewArray(3, []Tracked{Track(NewArray(4, nil), NoSource), Track(ints, NoSource)})
	if got := TypeOf(nested).String(); got != "Array<Array<Integer>>" {
		t.Errorf("nested array type: %s", got)
	}
	if _, ok := Unify(TypeInt, TypeString); ok {
		t.Errorf("int and string should not unify")
	}
}

func TestSource(t *testing.T) {
	if got := ArraySlot(3, 1).String(); got != "ArraySlot(id=3, index=1)" {
		t.Errorf("got %s", got)
	}
	if got := Variable("x").String(); got != "Variable(x)" {
		t.Errorf("got %s", got)
	}
	for _, k := range []SourceKind{SourceNone, SourceVariable, SourceArraySlot, SourceExpression, SourceLiteral} {
		back, ok := ParseSourceKind(k.String())
		if !ok || back != k {
			t.Errorf("ParseSourceKind(%s) = %v, %v", k, back, ok)
		}
	}
}

func TestLen(t *testing.T) {
	if n, ok := String("héllo").Len(); !ok || n != 5 {
		t.Errorf("string len: %d %v", n, ok)
	}
	if _, ok := Int(1).Len(); ok {
		t.Errorf("int has no len")
	}
}
