package format

import (
	"fmt"
	"strconv"
	"strings"

	"mimble/internal/ast"
)

// shape renders the tree without spans, so two parses of differently laid
// out sources can be compared.
func shape(prog *ast.Program) string {
	var sb strings.Builder
	for _, id := range prog.Stmts {
		shapeStmt(&sb, prog, id)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func shapeStmt(sb *strings.Builder, prog *ast.Program, id ast.StmtID) {
	st := prog.Stmt(id)
	if st == nil {
		sb.WriteString("<nil>")
		return
	}
	sb.WriteString("(" + st.Kind.String())
	switch st.Kind {
	case ast.StmtLet:
		sb.WriteString(" " + st.Name + " ")
		shapeExpr(sb, prog, st.Value)
	case ast.StmtAssign:
		sb.WriteByte(' ')
		shapeExpr(sb, prog, st.Target)
		sb.WriteByte(' ')
		shapeExpr(sb, prog, st.Value)
	case ast.StmtExpr:
		sb.WriteByte(' ')
		shapeExpr(sb, prog, st.Value)
	case ast.StmtIf, ast.StmtWhile:
		sb.WriteByte(' ')
		shapeExpr(sb, prog, st.Cond)
		sb.WriteByte(' ')
		shapeStmt(sb, prog, st.Body)
		if st.Else.IsValid() {
			sb.WriteString(" else ")
			shapeStmt(sb, prog, st.Else)
		}
	case ast.StmtBlock:
		for _, inner := range st.Stmts {
			sb.WriteByte(' ')
			shapeStmt(sb, prog, inner)
		}
	}
	sb.WriteByte(')')
}

func shapeExpr(sb *strings.Builder, prog *ast.Program, id ast.ExprID) {
	e := prog.Expr(id)
	if e == nil {
		sb.WriteString("<nil>")
		return
	}
	switch e.Kind {
	case ast.ExprIdent:
		sb.WriteString(e.Str)
	case ast.ExprIntLit:
		sb.WriteString(strconv.FormatInt(e.Int, 10))
	case ast.ExprFloatLit:
		sb.WriteString(strconv.FormatFloat(e.Float, 'g', -1, 64) + "f")
	case ast.ExprStringLit:
		sb.WriteString(strconv.Quote(e.Str))
	case ast.ExprBoolLit:
		sb.WriteString(strconv.FormatBool(e.Bool))
	case ast.ExprNilLit:
		sb.WriteString("nil")
	default:
		fmt.Fprintf(sb, "(%s", e.Kind)
		switch e.Kind {
		case ast.ExprUnary:
			sb.WriteString(" " + e.UnaryOp.String())
		case ast.ExprBinary:
			sb.WriteString(" " + e.BinaryOp.String())
		}
		for _, sub := range []ast.ExprID{e.Left, e.Right} {
			if sub.IsValid() {
				sb.WriteByte(' ')
				shapeExpr(sb, prog, sub)
			}
		}
		for _, sub := range e.Elems {
			sb.WriteByte(' ')
			shapeExpr(sb, prog, sub)
		}
		sb.WriteByte(')')
	}
}
