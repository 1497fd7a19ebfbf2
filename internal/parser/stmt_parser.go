package parser

import (
	"mimble/internal/ast"
	"mimble/internal/diag"
	"mimble/internal/token"
)

// stmtStarters - токены, с которых может начаться новый statement; на них останавливается resync.
var stmtStarters = []token.Kind{token.Semicolon, token.KwLet, token.KwIf, token.KwWhile, token.RBrace}

// parseStmtOrRecover разбирает statement; при ошибке прокручивает до следующего стартера.
// Гарантирует прогресс: хотя бы один токен будет съеден.
func (p *Parser) parseStmtOrRecover() (ast.StmtID, bool) {
	if p.at(token.Semicolon) {
		p.advance()
		return ast.NoStmtID, false
	}
	before := p.lx.Peek().Span
	id, ok := p.parseStmt()
	if ok {
		if p.at(token.Semicolon) {
			p.advance()
		}
		return id, true
	}
	p.resyncUntil(stmtStarters...)
	if p.at(token.Semicolon) {
		p.advance()
	}
	if after := p.lx.Peek(); after.Span == before && after.Kind != token.EOF && after.Kind != token.RBrace {
		p.advance()
	}
	return ast.NoStmtID, false
}

func (p *Parser) parseStmt() (ast.StmtID, bool) {
	switch p.lx.Peek().Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.LBrace:
		return p.parseBlock()
	default:
		return p.parseExprOrAssign()
	}
}

// parseLet: let <ident> = <expr>
func (p *Parser) parseLet() (ast.StmtID, bool) {
	letTok := p.advance()
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier after 'let'")
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.Assign, diag.SynExpectAssign, "expected '=' after variable name"); !ok {
		return ast.NoStmtID, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	return p.nodes.Stmts.New(ast.Stmt{
		Kind:     ast.StmtLet,
		Span:     letTok.Span.Cover(p.nodes.Exprs.Get(value).Span),
		Name:     name.Text,
		NameSpan: name.Span,
		Value:    value,
	}), true
}

// parseExprOrAssign: <expr> | <target> = <expr>
func (p *Parser) parseExprOrAssign() (ast.StmtID, bool) {
	lhs, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	lhsNode := p.nodes.Exprs.Get(lhs)
	if !p.at(token.Assign) {
		return p.nodes.Stmts.New(ast.Stmt{Kind: ast.StmtExpr, Span: lhsNode.Span, Value: lhs}), true
	}

	assignTok := p.advance()
	if lhsNode.Kind != ast.ExprIdent && lhsNode.Kind != ast.ExprIndex {
		p.report(diag.SynInvalidAssignment, diag.SevError, lhsNode.Span.Cover(assignTok.Span),
			"left side of assignment must be a variable or an index expression")
		return ast.NoStmtID, false
	}
	rhs, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	return p.nodes.Stmts.New(ast.Stmt{
		Kind:   ast.StmtAssign,
		Span:   lhsNode.Span.Cover(p.nodes.Exprs.Get(rhs).Span),
		Target: lhs,
		Value:  rhs,
	}), true
}

// parseIf: if <expr> { ... } [else { ... } | else if ...]
func (p *Parser) parseIf() (ast.StmtID, bool) {
	ifTok := p.advance()
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	body, ok := p.parseBlockExpected("expected '{' after if condition")
	if !ok {
		return ast.NoStmtID, false
	}
	span := ifTok.Span.Cover(p.nodes.Stmts.Get(body).Span)

	elseID := ast.NoStmtID
	if p.at(token.KwElse) {
		p.advance()
		if p.at(token.KwIf) {
			elseID, ok = p.parseIf()
		} else {
			elseID, ok = p.parseBlockExpected("expected '{' or 'if' after 'else'")
		}
		if !ok {
			return ast.NoStmtID, false
		}
		span = span.Cover(p.nodes.Stmts.Get(elseID).Span)
	}

	return p.nodes.Stmts.New(ast.Stmt{Kind: ast.StmtIf, Span: span, Cond: cond, Body: body, Else: elseID}), true
}

// parseWhile: while <expr> { ... }
func (p *Parser) parseWhile() (ast.StmtID, bool) {
	whileTok := p.advance()
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	body, ok := p.parseBlockExpected("expected '{' after while condition")
	if !ok {
		return ast.NoStmtID, false
	}
	span := whileTok.Span.Cover(p.nodes.Stmts.Get(body).Span)
	return p.nodes.Stmts.New(ast.Stmt{Kind: ast.StmtWhile, Span: span, Cond: cond, Body: body}), true
}

func (p *Parser) parseBlockExpected(msg string) (ast.StmtID, bool) {
	if !p.at(token.LBrace) {
		p.err(diag.SynExpectBlock, msg)
		return ast.NoStmtID, false
	}
	return p.parseBlock()
}

// parseBlock: { stmt* }
func (p *Parser) parseBlock() (ast.StmtID, bool) {
	open := p.advance()
	var stmts []ast.StmtID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if id, ok := p.parseStmtOrRecover(); ok {
			stmts = append(stmts, id)
		}
	}
	closeTok, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close block")
	if !ok {
		return ast.NoStmtID, false
	}
	return p.nodes.Stmts.New(ast.Stmt{Kind: ast.StmtBlock, Span: open.Span.Cover(closeTok.Span), Stmts: stmts}), true
}
