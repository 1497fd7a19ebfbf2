package value

import "fmt"

// Type is the static shape of a value. Elem is set only for arrays.
type Type struct {
	Kind Kind
	Elem *Type
}

var (
	TypeNil    = Type{Kind: KindNil}
	TypeInt    = Type{Kind: KindInt}
	TypeFloat  = Type{Kind: KindFloat}
	TypeString = Type{Kind: KindString}
	TypeBool   = Type{Kind: KindBool}
	TypeFunc   = Type{Kind: KindFunc}
)

func ArrayOf(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

// TypeOf reports the type of v. An array's type comes from its recorded element type.
func TypeOf(v Value) Type {
	if v.Kind == KindArray {
		if v.Arr == nil {
			return ArrayOf(TypeNil)
		}
		return ArrayOf(v.Arr.Elem)
	}
	return Type{Kind: v.Kind}
}

func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind != KindArray {
		return true
	}
	return t.elem().Equal(o.elem())
}

// Unify returns the common type of a and b. Nil unifies with anything,
// arrays unify element-wise.
func Unify(a, b Type) (Type, bool) {
	switch {
	case a.Kind == KindNil:
		return b, true
	case b.Kind == KindNil:
		return a, true
	case a.Kind == KindArray && b.Kind == KindArray:
		elem, ok := Unify(a.elem(), b.elem())
		if !ok {
			return Type{}, false
		}
		return ArrayOf(elem), true
	case a.Kind == b.Kind:
		return a, true
	}
	return Type{}, false
}

// Accepts reports whether a value of type o may be stored in a slot of type t.
func (t Type) Accepts(o Type) bool {
	_, ok := Unify(t, o)
	return ok
}

func (t Type) elem() Type {
	if t.Elem == nil {
		return TypeNil
	}
	return *t.Elem
}

func (t Type) String() string {
	if t.Kind == KindArray {
		return fmt.Sprintf("Array<%s>", t.elem())
	}
	return t.Kind.String()
}
