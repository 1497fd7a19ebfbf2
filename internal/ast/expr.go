package ast

import (
	"mimble/internal/source"
)

// ExprKind enumerates the different kinds of expressions.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	// ExprIdent represents an identifier expression.
	ExprIdent
	ExprIntLit
	ExprFloatLit
	ExprStringLit
	ExprBoolLit
	ExprNilLit
	// ExprArray represents an array literal `[a, b]`.
	ExprArray
	ExprUnary
	ExprBinary
	// ExprCall represents a call `f(a, b)`; Callee is the function expression.
	ExprCall
	// ExprIndex represents `x[i]`.
	ExprIndex
	// ExprGroup represents a parenthesized expression.
	ExprGroup
)

var exprKindNames = [...]string{
	ExprInvalid:   "invalid",
	ExprIdent:     "ident",
	ExprIntLit:    "int",
	ExprFloatLit:  "float",
	ExprStringLit: "string",
	ExprBoolLit:   "bool",
	ExprNilLit:    "nil",
	ExprArray:     "array",
	ExprUnary:     "unary",
	ExprBinary:    "binary",
	ExprCall:      "call",
	ExprIndex:     "index",
	ExprGroup:     "group",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "unknown"
}

// ExprBinaryOp enumerates binary operator kinds.
type ExprBinaryOp uint8

const (
	// Арифметические
	ExprBinaryAdd ExprBinaryOp = iota
	ExprBinarySub
	ExprBinaryMul
	ExprBinaryDiv
	ExprBinaryMod

	// Сравнения
	ExprBinaryEq
	ExprBinaryNotEq
	ExprBinaryLess
	ExprBinaryLessEq
	ExprBinaryGreater
	ExprBinaryGreaterEq

	// Логические
	ExprBinaryLogicalAnd
	ExprBinaryLogicalOr
)

var binaryOpNames = [...]string{
	ExprBinaryAdd:        "+",
	ExprBinarySub:        "-",
	ExprBinaryMul:        "*",
	ExprBinaryDiv:        "/",
	ExprBinaryMod:        "%",
	ExprBinaryEq:         "==",
	ExprBinaryNotEq:      "!=",
	ExprBinaryLess:       "<",
	ExprBinaryLessEq:     "<=",
	ExprBinaryGreater:    ">",
	ExprBinaryGreaterEq:  ">=",
	ExprBinaryLogicalAnd: "&&",
	ExprBinaryLogicalOr:  "||",
}

func (op ExprBinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// IsComparison reports whether the operator yields a Bool by comparing operands.
func (op ExprBinaryOp) IsComparison() bool {
	return op >= ExprBinaryEq && op <= ExprBinaryGreaterEq
}

// IsLogical reports whether the operator short-circuits.
func (op ExprBinaryOp) IsLogical() bool {
	return op == ExprBinaryLogicalAnd || op == ExprBinaryLogicalOr
}

// ExprUnaryOp enumerates prefix operators.
type ExprUnaryOp uint8

const (
	ExprUnaryMinus ExprUnaryOp = iota // -x
	ExprUnaryNot                      // !x
)

func (op ExprUnaryOp) String() string {
	if op == ExprUnaryNot {
		return "!"
	}
	return "-"
}

// Expr represents an expression node in the AST.
// Only the fields relevant to Kind are populated.
type Expr struct {
	Kind ExprKind
	Span source.Span

	Int   int64   // ExprIntLit
	Float float64 // ExprFloatLit
	Str   string  // ExprStringLit (decoded), ExprIdent (name)
	Bool  bool    // ExprBoolLit

	BinaryOp ExprBinaryOp // ExprBinary
	UnaryOp  ExprUnaryOp  // ExprUnary

	Left  ExprID // binary lhs, unary operand, call callee, index target, group inner
	Right ExprID // binary rhs, index expression

	Elems []ExprID // array elements, call arguments
}

type Exprs struct {
	Arena *Arena[Expr]
}

func NewExprs(capHint uint) *Exprs {
	return &Exprs{Arena: NewArena[Expr](capHint)}
}

func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) new(x Expr) ExprID {
	return ExprID(e.Arena.Allocate(x))
}

func (e *Exprs) NewIdent(sp source.Span, name string) ExprID {
	return e.new(Expr{Kind: ExprIdent, Span: sp, Str: name})
}

func (e *Exprs) NewInt(sp source.Span, v int64) ExprID {
	return e.new(Expr{Kind: ExprIntLit, Span: sp, Int: v})
}

func (e *Exprs) NewFloat(sp source.Span, v float64) ExprID {
	return e.new(Expr{Kind: ExprFloatLit, Span: sp, Float: v})
}

func (e *Exprs) NewString(sp source.Span, v string) ExprID {
	return e.new(Expr{Kind: ExprStringLit, Span: sp, Str: v})
}

func (e *Exprs) NewBool(sp source.Span, v bool) ExprID {
	return e.new(Expr{Kind: ExprBoolLit, Span: sp, Bool: v})
}

func (e *Exprs) NewNil(sp source.Span) ExprID {
	return e.new(Expr{Kind: ExprNilLit, Span: sp})
}

func (e *Exprs) NewArray(sp source.Span, elems []ExprID) ExprID {
	return e.new(Expr{Kind: ExprArray, Span: sp, Elems: elems})
}

func (e *Exprs) NewUnary(sp source.Span, op ExprUnaryOp, operand ExprID) ExprID {
	return e.new(Expr{Kind: ExprUnary, Span: sp, UnaryOp: op, Left: operand})
}

func (e *Exprs) NewBinary(sp source.Span, op ExprBinaryOp, left, right ExprID) ExprID {
	return e.new(Expr{Kind: ExprBinary, Span: sp, BinaryOp: op, Left: left, Right: right})
}

func (e *Exprs) NewCall(sp source.Span, callee ExprID, args []ExprID) ExprID {
	return e.new(Expr{Kind: ExprCall, Span: sp, Left: callee, Elems: args})
}

func (e *Exprs) NewIndex(sp source.Span, target, index ExprID) ExprID {
	return e.new(Expr{Kind: ExprIndex, Span: sp, Left: target, Right: index})
}

func (e *Exprs) NewGroup(sp source.Span, inner ExprID) ExprID {
	return e.new(Expr{Kind: ExprGroup, Span: sp, Left: inner})
}
