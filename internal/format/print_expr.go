package format

import (
	"mimble/internal/ast"
)

// printExpr печатает выражение. Скобки в дереве сохраняются как ExprGroup,
// поэтому новые скобки не добавляются.
func (p *printer) printExpr(id ast.ExprID) {
	e := p.prog.Expr(id)
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprIdent:
		p.writer.WriteString(e.Str)
	case ast.ExprIntLit, ast.ExprFloatLit, ast.ExprStringLit:
		// литералы как в исходнике: 1e3 остаётся 1e3
		p.writer.CopySpan(e.Span)
	case ast.ExprBoolLit:
		if e.Bool {
			p.writer.WriteString("true")
		} else {
			p.writer.WriteString("false")
		}
	case ast.ExprNilLit:
		p.writer.WriteString("nil")
	case ast.ExprArray:
		p.writer.WriteString("[")
		p.printList(e.Elems)
		p.writer.WriteString("]")
	case ast.ExprUnary:
		p.writer.WriteString(e.UnaryOp.String())
		p.printExpr(e.Left)
	case ast.ExprBinary:
		p.printExpr(e.Left)
		p.writer.WriteString(" " + e.BinaryOp.String() + " ")
		p.printExpr(e.Right)
	case ast.ExprCall:
		p.printExpr(e.Left)
		p.writer.WriteString("(")
		p.printList(e.Elems)
		p.writer.WriteString(")")
	case ast.ExprIndex:
		p.printExpr(e.Left)
		p.writer.WriteString("[")
		p.printExpr(e.Right)
		p.writer.WriteString("]")
	case ast.ExprGroup:
		p.writer.WriteString("(")
		p.printExpr(e.Left)
		p.writer.WriteString(")")
	default:
		p.writer.CopySpan(e.Span)
	}
}

func (p *printer) printList(ids []ast.ExprID) {
	for i, id := range ids {
		if i > 0 {
			p.writer.WriteString(", ")
		}
		p.printExpr(id)
	}
}
