package format

import (
	"mimble/internal/ast"
)

// printStmtList prints stmts one per line together with the comments found
// in the source between lo and hi.
func (p *printer) printStmtList(stmts []ast.StmtID, lo, hi int) {
	prev := lo
	first := true
	for i, id := range stmts {
		st := p.prog.Stmt(id)
		if st == nil {
			continue
		}
		g := p.scanGap(prev, int(st.Span.Start))
		first = p.emitGap(g, first)
		if g.blankBefore && !first {
			p.writer.BlankLine()
		} else {
			p.writer.Newline()
		}
		p.printStmt(st)
		if i+1 < len(stmts) && p.needsSemicolon(st, p.prog.Stmt(stmts[i+1])) {
			p.writer.WriteString(";")
		}
		prev = int(st.Span.End)
		first = false
	}
	p.emitGap(p.scanGap(prev, hi), first)
}

// needsSemicolon reports whether next would glue onto cur as a binary,
// call or index continuation without an explicit separator.
func (p *printer) needsSemicolon(cur, next *ast.Stmt) bool {
	if next == nil {
		return false
	}
	switch cur.Kind {
	case ast.StmtLet, ast.StmtAssign, ast.StmtExpr:
	default:
		return false
	}
	start := int(next.Span.Start)
	if start >= len(p.sf.Content) {
		return false
	}
	switch p.sf.Content[start] {
	case '-', '(', '[':
		return true
	}
	return false
}

func (p *printer) printStmt(st *ast.Stmt) {
	switch st.Kind {
	case ast.StmtLet:
		if p.hasComment(int(st.Span.Start), int(st.Span.End)) {
			break
		}
		p.writer.WriteString("let ")
		p.writer.WriteString(st.Name)
		p.writer.WriteString(" = ")
		p.printExpr(st.Value)
		return
	case ast.StmtAssign:
		if p.hasComment(int(st.Span.Start), int(st.Span.End)) {
			break
		}
		p.printExpr(st.Target)
		p.writer.WriteString(" = ")
		p.printExpr(st.Value)
		return
	case ast.StmtExpr:
		if p.hasComment(int(st.Span.Start), int(st.Span.End)) {
			break
		}
		p.printExpr(st.Value)
		return
	case ast.StmtIf:
		if p.printIf(st) {
			return
		}
	case ast.StmtWhile:
		body := p.prog.Stmt(st.Body)
		if body == nil || p.hasComment(int(st.Span.Start), int(body.Span.Start)) {
			break
		}
		p.writer.WriteString("while ")
		p.printExpr(st.Cond)
		p.writer.Space()
		p.printBlock(body)
		return
	case ast.StmtBlock:
		p.printBlock(st)
		return
	}
	// комментарий внутри выражения: оставляем как есть
	p.writer.CopySpan(st.Span)
}

// printIf prints an if/else chain; false means the chain has comments
// outside its blocks and must be copied.
func (p *printer) printIf(st *ast.Stmt) bool {
	body := p.prog.Stmt(st.Body)
	if body == nil || p.hasComment(int(st.Span.Start), int(body.Span.Start)) {
		return false
	}
	var alt *ast.Stmt
	if st.Else.IsValid() {
		alt = p.prog.Stmt(st.Else)
		if alt == nil || p.hasComment(int(body.Span.End), int(alt.Span.Start)) {
			return false
		}
	}
	p.writer.WriteString("if ")
	p.printExpr(st.Cond)
	p.writer.Space()
	p.printBlock(body)
	if alt == nil {
		return true
	}
	p.writer.WriteString(" else ")
	if alt.Kind == ast.StmtIf {
		if !p.printIf(alt) {
			p.writer.CopySpan(alt.Span)
		}
		return true
	}
	p.printBlock(alt)
	return true
}

func (p *printer) printBlock(st *ast.Stmt) {
	lo, hi := int(st.Span.Start)+1, int(st.Span.End)-1
	if len(st.Stmts) == 0 && !p.hasComment(lo, hi) {
		p.writer.WriteString("{}")
		return
	}
	p.writer.WriteString("{")
	p.writer.IndentPush()
	p.printStmtList(st.Stmts, lo, hi)
	p.writer.IndentPop()
	p.writer.Newline()
	p.writer.WriteString("}")
}
