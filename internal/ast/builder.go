package ast

import (
	"mimble/internal/source"
)

type Hints struct{ Stmts, Exprs uint }

// Builder owns the node arenas of one parsed program.
type Builder struct {
	Stmts *Stmts
	Exprs *Exprs
}

func NewBuilder(hints Hints) *Builder {
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 6
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	return &Builder{
		Stmts: NewStmts(hints.Stmts),
		Exprs: NewExprs(hints.Exprs),
	}
}

// Program is the root of a parsed source file.
type Program struct {
	File  source.FileID
	Span  source.Span
	Stmts []StmtID
	Nodes *Builder
}

// Stmt is a shortcut for p.Nodes.Stmts.Get.
func (p *Program) Stmt(id StmtID) *Stmt {
	return p.Nodes.Stmts.Get(id)
}

// Expr is a shortcut for p.Nodes.Exprs.Get.
func (p *Program) Expr(id ExprID) *Expr {
	return p.Nodes.Exprs.Get(id)
}
