package ast

import (
	"mimble/internal/source"
)

type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	// StmtLet: `let Name = Value`
	StmtLet
	// StmtAssign: `Target = Value`, Target is an ident or index expression
	StmtAssign
	StmtExpr
	// StmtIf: `if Cond Body else Else`; Else is a StmtBlock, a StmtIf or NoStmtID
	StmtIf
	StmtWhile
	StmtBlock
)

var stmtKindNames = [...]string{
	StmtInvalid: "invalid",
	StmtLet:     "let",
	StmtAssign:  "assign",
	StmtExpr:    "expr",
	StmtIf:      "if",
	StmtWhile:   "while",
	StmtBlock:   "block",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "unknown"
}

type Stmt struct {
	Kind StmtKind
	Span source.Span

	Name     string      // StmtLet
	NameSpan source.Span // StmtLet
	Target   ExprID      // StmtAssign
	Value    ExprID      // StmtLet, StmtAssign, StmtExpr
	Cond     ExprID      // StmtIf, StmtWhile
	Body     StmtID      // StmtIf, StmtWhile (always a StmtBlock)
	Else     StmtID      // StmtIf
	Stmts    []StmtID    // StmtBlock
}

type Stmts struct {
	Arena *Arena[Stmt]
}

func NewStmts(capHint uint) *Stmts {
	return &Stmts{Arena: NewArena[Stmt](capHint)}
}

func (s *Stmts) New(st Stmt) StmtID {
	return StmtID(s.Arena.Allocate(st))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}
