package eval

import (
	"math"
	"strings"

	"mimble/internal/ast"
	"mimble/internal/value"
)

func (e *Evaluator) evalUnary(ex *ast.Expr) (value.Tracked, error) {
	operand, err := e.evalExpr(ex.Left)
	if err != nil {
		return value.Tracked{}, err
	}
	v := operand.Value

	var res value.Value
	switch {
	case ex.UnaryOp == ast.ExprUnaryNot && v.Kind == value.KindBool:
		res = value.Bool(!v.Bool)
	case ex.UnaryOp == ast.ExprUnaryMinus && v.Kind == value.KindInt:
		if v.Int == math.MinInt64 {
			return value.Tracked{}, e.fail(CodeOverflow, ex.Span, "integer overflow in -%d", v.Int)
		}
		res = value.Int(-v.Int)
	case ex.UnaryOp == ast.ExprUnaryMinus && v.Kind == value.KindFloat:
		res = value.Float(-v.Float)
	default:
		return value.Tracked{}, e.fail(CodeTypeMismatch, ex.Span,
			"operator %s cannot be applied to %s", ex.UnaryOp, value.TypeOf(v))
	}
	e.emitValue(ex.Span, ex.UnaryOp.String(), res)
	return value.Track(res, value.ExpressionSource), nil
}

// evalLogical handles && and || with short-circuiting.
func (e *Evaluator) evalLogical(ex *ast.Expr) (value.Tracked, error) {
	left, err := e.evalExpr(ex.Left)
	if err != nil {
		return value.Tracked{}, err
	}
	if left.Value.Kind != value.KindBool {
		return value.Tracked{}, e.fail(CodeTypeMismatch, e.prog.Expr(ex.Left).Span,
			"operator %s expects Boolean operands, got %s", ex.BinaryOp, value.TypeOf(left.Value))
	}

	res := left.Value.Bool
	shortCircuit := (ex.BinaryOp == ast.ExprBinaryLogicalAnd && !res) || (ex.BinaryOp == ast.ExprBinaryLogicalOr && res)
	if !shortCircuit {
		right, err := e.evalExpr(ex.Right)
		if err != nil {
			return value.Tracked{}, err
		}
		if right.Value.Kind != value.KindBool {
			return value.Tracked{}, e.fail(CodeTypeMismatch, e.prog.Expr(ex.Right).Span,
				"operator %s expects Boolean operands, got %s", ex.BinaryOp, value.TypeOf(right.Value))
		}
		res = right.Value.Bool
	}

	out := value.Bool(res)
	e.emitValue(ex.Span, ex.BinaryOp.String(), out)
	return value.Track(out, value.ExpressionSource), nil
}

func (e *Evaluator) evalBinary(ex *ast.Expr) (value.Tracked, error) {
	left, err := e.evalExpr(ex.Left)
	if err != nil {
		return value.Tracked{}, err
	}
	right, err := e.evalExpr(ex.Right)
	if err != nil {
		return value.Tracked{}, err
	}

	if ex.BinaryOp.IsComparison() {
		res, err := e.compare(ex, left.Value, right.Value)
		if err != nil {
			return value.Tracked{}, err
		}
		e.emitCompare(ex.Span, left, right, res)
		return value.Track(value.Bool(res), value.ExpressionSource), nil
	}

	res, err := e.arith(ex, left.Value, right.Value)
	if err != nil {
		return value.Tracked{}, err
	}
	e.emitValue(ex.Span, ex.BinaryOp.String(), res)
	return value.Track(res, value.ExpressionSource), nil
}

func (e *Evaluator) compare(ex *ast.Expr, l, r value.Value) (bool, error) {
	switch ex.BinaryOp {
	case ast.ExprBinaryEq:
		return l.Equal(r), nil
	case ast.ExprBinaryNotEq:
		return !l.Equal(r), nil
	}

	var c int
	switch {
	case l.Kind == value.KindInt && r.Kind == value.KindInt:
		c = cmpOrdered(l.Int, r.Int)
	case l.IsNumber() && r.IsNumber():
		c = cmpOrdered(l.AsFloat(), r.AsFloat())
	case l.Kind == value.KindString && r.Kind == value.KindString:
		c = strings.Compare(l.Str, r.Str)
	default:
		return false, e.fail(CodeTypeMismatch, ex.Span,
			"cannot compare %s %s %s", value.TypeOf(l), ex.BinaryOp, value.TypeOf(r))
	}

	switch ex.BinaryOp {
	case ast.ExprBinaryLess:
		return c < 0, nil
	case ast.ExprBinaryLessEq:
		return c <= 0, nil
	case ast.ExprBinaryGreater:
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (e *Evaluator) arith(ex *ast.Expr, l, r value.Value) (value.Value, error) {
	op := ex.BinaryOp

	if op == ast.ExprBinaryAdd && l.Kind == value.KindString && r.Kind == value.KindString {
		return value.String(l.Str + r.Str), nil
	}
	if !l.IsNumber() || !r.IsNumber() {
		return value.Nil, e.fail(CodeTypeMismatch, ex.Span,
			"operator %s cannot be applied to %s and %s", op, value.TypeOf(l), value.TypeOf(r))
	}

	if l.Kind == value.KindInt && r.Kind == value.KindInt {
		return e.arithInt(ex, l.Int, r.Int)
	}
	return e.arithFloat(ex, l.AsFloat(), r.AsFloat())
}

func (e *Evaluator) arithInt(ex *ast.Expr, a, b int64) (value.Value, error) {
	var (
		res int64
		ok  = true
	)
	switch ex.BinaryOp {
	case ast.ExprBinaryAdd:
		res, ok = addInt64Checked(a, b)
	case ast.ExprBinarySub:
		res, ok = subInt64Checked(a, b)
	case ast.ExprBinaryMul:
		res, ok = mulInt64Checked(a, b)
	case ast.ExprBinaryDiv, ast.ExprBinaryMod:
		if b == 0 {
			return value.Nil, e.fail(CodeDivByZero, ex.Span, "division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			ok = false
		} else if ex.BinaryOp == ast.ExprBinaryDiv {
			res = a / b
		} else {
			res = a % b
		}
	default:
		return value.Nil, e.fail(CodeInternal, ex.Span, "unsupported operator %s", ex.BinaryOp)
	}
	if !ok {
		return value.Nil, e.fail(CodeOverflow, ex.Span, "integer overflow in %d %s %d", a, ex.BinaryOp, b)
	}
	return value.Int(res), nil
}

func (e *Evaluator) arithFloat(ex *ast.Expr, a, b float64) (value.Value, error) {
	var res float64
	switch ex.BinaryOp {
	case ast.ExprBinaryAdd:
		res = a + b
	case ast.ExprBinarySub:
		res = a - b
	case ast.ExprBinaryMul:
		res = a * b
	case ast.ExprBinaryDiv, ast.ExprBinaryMod:
		if b == 0 {
			return value.Nil, e.fail(CodeDivByZero, ex.Span, "division by zero")
		}
		if ex.BinaryOp == ast.ExprBinaryDiv {
			res = a / b
		} else {
			res = math.Mod(a, b)
		}
	default:
		return value.Nil, e.fail(CodeInternal, ex.Span, "unsupported operator %s", ex.BinaryOp)
	}
	if !finite(res) {
		return value.Nil, e.fail(CodeOverflow, ex.Span, "float overflow in %s %s %s",
			value.FormatFloat(a), ex.BinaryOp, value.FormatFloat(b))
	}
	return value.Float(res), nil
}
