package eval

import (
	"mimble/internal/ast"
	"mimble/internal/source"
	"mimble/internal/value"
)

// execStmt runs one statement and returns its value (see Exec).
func (e *Evaluator) execStmt(id ast.StmtID) (value.Value, error) {
	st := e.prog.Stmt(id)
	if st == nil {
		return value.Nil, e.fail(CodeInternal, source.Span{}, "invalid statement")
	}

	switch st.Kind {
	case ast.StmtLet:
		v, err := e.evalExpr(st.Value)
		if err != nil {
			return value.Nil, err
		}
		if !e.env.Declare(st.Name, v.Value) {
			return value.Nil, e.fail(CodeRedeclared, st.NameSpan, "variable %q is already declared in this scope", st.Name)
		}
		e.emitInit(st.Span, st.Name, v)
		return v.Value, nil

	case ast.StmtAssign:
		return e.execAssign(st)

	case ast.StmtExpr:
		v, err := e.evalExpr(st.Value)
		return v.Value, err

	case ast.StmtIf:
		cond, err := e.evalCond(st.Cond, "if")
		if err != nil {
			return value.Nil, err
		}
		if cond {
			return e.execStmt(st.Body)
		}
		if st.Else.IsValid() {
			return e.execStmt(st.Else)
		}
		return value.Nil, nil

	case ast.StmtWhile:
		for {
			cond, err := e.evalCond(st.Cond, "while")
			if err != nil {
				return value.Nil, err
			}
			if !cond {
				return value.Nil, nil
			}
			if _, err := e.execStmt(st.Body); err != nil {
				return value.Nil, err
			}
		}

	case ast.StmtBlock:
		return e.execBlock(st.Stmts)

	default:
		return value.Nil, e.fail(CodeInternal, st.Span, "unsupported statement %s", st.Kind)
	}
}

// execBlock runs stmts in a fresh scope; the block's value is its last statement's.
func (e *Evaluator) execBlock(stmts []ast.StmtID) (value.Value, error) {
	outer := e.env
	e.env = NewEnv(outer)
	defer func() { e.env = outer }()

	result := value.Nil
	for _, id := range stmts {
		v, err := e.execStmt(id)
		if err != nil {
			return value.Nil, err
		}
		result = v
	}
	return result, nil
}

func (e *Evaluator) execAssign(st *ast.Stmt) (value.Value, error) {
	target := e.prog.Expr(st.Target)
	if target == nil {
		return value.Nil, e.fail(CodeInternal, st.Span, "invalid assignment target")
	}

	switch target.Kind {
	case ast.ExprIdent:
		v, err := e.evalExpr(st.Value)
		if err != nil {
			return value.Nil, err
		}
		if !e.env.Set(target.Str, v.Value) {
			return value.Nil, e.fail(CodeUndefined, target.Span, "assignment to undeclared variable %q", target.Str)
		}
		e.emitAssign(st.Span, v.Source, value.Variable(target.Str), v.Value)
		return v.Value, nil

	case ast.ExprIndex:
		arrV, err := e.evalExpr(target.Left)
		if err != nil {
			return value.Nil, err
		}
		idxV, err := e.evalExpr(target.Right)
		if err != nil {
			return value.Nil, err
		}
		v, err := e.evalExpr(st.Value)
		if err != nil {
			return value.Nil, err
		}
		if arrV.Value.Kind != value.KindArray {
			return value.Nil, e.fail(CodeTypeMismatch, e.prog.Expr(target.Left).Span,
				"cannot assign into an element of %s", value.TypeOf(arrV.Value))
		}
		arr := arrV.Value.Arr
		idx, err := e.checkIndex(target, len(arr.Elems), idxV.Value)
		if err != nil {
			return value.Nil, err
		}
		if v.Value.Reaches(arr) {
			return value.Nil, e.fail(CodeTypeMismatch, e.prog.Expr(st.Value).Span,
				"cannot store an array inside itself")
		}
		elem, ok := value.Unify(arr.Elem, value.TypeOf(v.Value))
		if !ok {
			return value.Nil, e.fail(CodeTypeMismatch, e.prog.Expr(st.Value).Span,
				"cannot store %s in %s", value.TypeOf(v.Value), value.TypeOf(arrV.Value))
		}
		to := value.ArraySlot(arr.ID, idx)
		arr.Elem = elem
		arr.Elems[idx] = value.Track(v.Value, v.Source)
		e.emitAssign(st.Span, v.Source, to, v.Value)
		return v.Value, nil

	default:
		return value.Nil, e.fail(CodeInternal, target.Span, "invalid assignment target %s", target.Kind)
	}
}

func (e *Evaluator) evalCond(id ast.ExprID, what string) (bool, error) {
	v, err := e.evalExpr(id)
	if err != nil {
		return false, err
	}
	if v.Value.Kind != value.KindBool {
		return false, e.fail(CodeTypeMismatch, e.prog.Expr(id).Span,
			"%s condition must be Boolean, got %s", what, value.TypeOf(v.Value))
	}
	return v.Value.Bool, nil
}
