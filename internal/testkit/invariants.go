// Package testkit holds structural checks shared by parser, fuzz and
// evaluator tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"mimble/internal/ast"
	"mimble/internal/source"
)

// CheckSpanInvariants walks a parsed program and verifies:
// 1) every span points into sf and stays within its content
// 2) every node span is non-empty
// 3) a child's span is contained in its parent's span
func CheckSpanInvariants(prog *ast.Program, sf *source.File) error {
	if prog == nil || sf == nil {
		return fmt.Errorf("nil program or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	c := &spanChecker{prog: prog, file: sf.ID, limit: lenContent}
	if prog.Span.File != sf.ID {
		return fmt.Errorf("program span points to different file id: got=%d want=%d", prog.Span.File, sf.ID)
	}
	for _, id := range prog.Stmts {
		if err := c.stmt(id, prog.Span); err != nil {
			return err
		}
	}
	return nil
}

type spanChecker struct {
	prog  *ast.Program
	file  source.FileID
	limit uint32
}

func (c *spanChecker) check(what string, sp, parent source.Span) error {
	if sp.File != c.file {
		return fmt.Errorf("%s span file mismatch: got=%d want=%d", what, sp.File, c.file)
	}
	if sp.End <= sp.Start {
		return fmt.Errorf("empty %s span: %v", what, sp)
	}
	if sp.End > c.limit {
		return fmt.Errorf("%s span end beyond content: %d > %d", what, sp.End, c.limit)
	}
	if sp.Start < parent.Start || sp.End > parent.End {
		return fmt.Errorf("%s span %v is outside parent span %v", what, sp, parent)
	}
	return nil
}

func (c *spanChecker) stmt(id ast.StmtID, parent source.Span) error {
	st := c.prog.Stmt(id)
	if st == nil {
		return fmt.Errorf("nil statement for id=%d", id)
	}
	what := "stmt " + st.Kind.String()
	if err := c.check(what, st.Span, parent); err != nil {
		return err
	}
	for _, e := range []ast.ExprID{st.Target, st.Value, st.Cond} {
		if e.IsValid() {
			if err := c.expr(e, st.Span); err != nil {
				return err
			}
		}
	}
	for _, s := range []ast.StmtID{st.Body, st.Else} {
		if s.IsValid() {
			if err := c.stmt(s, st.Span); err != nil {
				return err
			}
		}
	}
	for _, s := range st.Stmts {
		if err := c.stmt(s, st.Span); err != nil {
			return err
		}
	}
	return nil
}

func (c *spanChecker) expr(id ast.ExprID, parent source.Span) error {
	ex := c.prog.Expr(id)
	if ex == nil {
		return fmt.Errorf("nil expression for id=%d", id)
	}
	if err := c.check("expr "+ex.Kind.String(), ex.Span, parent); err != nil {
		return err
	}
	for _, e := range []ast.ExprID{ex.Left, ex.Right} {
		if e.IsValid() {
			if err := c.expr(e, ex.Span); err != nil {
				return err
			}
		}
	}
	for _, e := range ex.Elems {
		if err := c.expr(e, ex.Span); err != nil {
			return err
		}
	}
	return nil
}
