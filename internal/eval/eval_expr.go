package eval

import (
	"mimble/internal/ast"
	"mimble/internal/source"
	"mimble/internal/value"
)

// evalExpr evaluates an expression together with its provenance:
// literals are Literal, identifiers are Variable, indexing is ArraySlot,
// everything computed is Expression.
func (e *Evaluator) evalExpr(id ast.ExprID) (value.Tracked, error) {
	ex := e.prog.Expr(id)
	if ex == nil {
		return value.Tracked{}, e.fail(CodeInternal, source.Span{}, "invalid expression")
	}

	switch ex.Kind {
	case ast.ExprIntLit:
		return value.Track(value.Int(ex.Int), value.LiteralSource), nil
	case ast.ExprFloatLit:
		return value.Track(value.Float(ex.Float), value.LiteralSource), nil
	case ast.ExprStringLit:
		return value.Track(value.String(ex.Str), value.LiteralSource), nil
	case ast.ExprBoolLit:
		return value.Track(value.Bool(ex.Bool), value.LiteralSource), nil
	case ast.ExprNilLit:
		return value.Track(value.Nil, value.LiteralSource), nil

	case ast.ExprIdent:
		if v, ok := e.env.Lookup(ex.Str); ok {
			return value.Track(v, value.Variable(ex.Str)), nil
		}
		if _, ok := builtins[ex.Str]; ok {
			return value.Track(value.Func(ex.Str), value.Variable(ex.Str)), nil
		}
		return value.Tracked{}, e.fail(CodeUndefined, ex.Span, "undefined variable %q", ex.Str)

	case ast.ExprGroup:
		return e.evalExpr(ex.Left)

	case ast.ExprArray:
		return e.evalArrayLit(ex)

	case ast.ExprUnary:
		return e.evalUnary(ex)

	case ast.ExprBinary:
		if ex.BinaryOp.IsLogical() {
			return e.evalLogical(ex)
		}
		return e.evalBinary(ex)

	case ast.ExprIndex:
		return e.evalIndex(ex)

	case ast.ExprCall:
		return e.evalCall(ex)

	default:
		return value.Tracked{}, e.fail(CodeInternal, ex.Span, "unsupported expression %s", ex.Kind)
	}
}

func (e *Evaluator) evalArrayLit(ex *ast.Expr) (value.Tracked, error) {
	elems := make([]value.Tracked, 0, len(ex.Elems))
	elemType := value.TypeNil
	for _, id := range ex.Elems {
		el, err := e.evalExpr(id)
		if err != nil {
			return value.Tracked{}, err
		}
		t, ok := value.Unify(elemType, value.TypeOf(el.Value))
		if !ok {
			return value.Tracked{}, e.fail(CodeTypeMismatch, e.prog.Expr(id).Span,
				"array elements must share one type: %s vs %s", elemType, value.TypeOf(el.Value))
		}
		elemType = t
		elems = append(elems, el)
	}
	arr := &value.Array{ID: e.newArrayID(), Elem: elemType, Elems: elems}
	return value.Track(value.FromArray(arr), value.LiteralSource), nil
}

func (e *Evaluator) evalIndex(ex *ast.Expr) (value.Tracked, error) {
	target, err := e.evalExpr(ex.Left)
	if err != nil {
		return value.Tracked{}, err
	}
	idxV, err := e.evalExpr(ex.Right)
	if err != nil {
		return value.Tracked{}, err
	}

	switch target.Value.Kind {
	case value.KindArray:
		arr := target.Value.Arr
		idx, err := e.checkIndex(ex, len(arr.Elems), idxV.Value)
		if err != nil {
			return value.Tracked{}, err
		}
		return value.Track(arr.Elems[idx].Value, value.ArraySlot(arr.ID, idx)), nil
	case value.KindString:
		runes := []rune(target.Value.Str)
		idx, err := e.checkIndex(ex, len(runes), idxV.Value)
		if err != nil {
			return value.Tracked{}, err
		}
		return value.Track(value.String(string(runes[idx])), value.ExpressionSource), nil
	default:
		return value.Tracked{}, e.fail(CodeTypeMismatch, e.prog.Expr(ex.Left).Span,
			"cannot index %s", value.TypeOf(target.Value))
	}
}

// checkIndex validates idx against a container of length n.
func (e *Evaluator) checkIndex(ex *ast.Expr, n int, idx value.Value) (int, error) {
	idxSpan := e.prog.Expr(ex.Right).Span
	if idx.Kind != value.KindInt {
		return 0, e.fail(CodeTypeMismatch, idxSpan, "index must be Integer, got %s", value.TypeOf(idx))
	}
	if idx.Int < 0 || idx.Int >= int64(n) {
		return 0, e.fail(CodeOutOfBounds, idxSpan, "index %d out of range for length %d", idx.Int, n)
	}
	return int(idx.Int), nil
}

func (e *Evaluator) evalCall(ex *ast.Expr) (value.Tracked, error) {
	callee, err := e.evalExpr(ex.Left)
	if err != nil {
		return value.Tracked{}, err
	}
	if callee.Value.Kind != value.KindFunc {
		return value.Tracked{}, e.fail(CodeBadCall, e.prog.Expr(ex.Left).Span,
			"cannot call a value of type %s", value.TypeOf(callee.Value))
	}
	b, ok := builtins[callee.Value.Str]
	if !ok {
		return value.Tracked{}, e.fail(CodeBadCall, ex.Span, "unknown function %q", callee.Value.Str)
	}

	args := make([]value.Tracked, 0, len(ex.Elems))
	for _, id := range ex.Elems {
		a, err := e.evalExpr(id)
		if err != nil {
			return value.Tracked{}, err
		}
		args = append(args, a)
	}
	if len(args) != b.arity {
		return value.Tracked{}, e.fail(CodeBadCall, ex.Span,
			"%s expects %d argument(s), got %d", b.name, b.arity, len(args))
	}

	c := &call{e: e, ex: ex, args: args}
	res, err := b.fn(c)
	if err != nil {
		return value.Tracked{}, err
	}
	e.emitValue(ex.Span, b.name, res)
	return value.Track(res, value.ExpressionSource), nil
}
