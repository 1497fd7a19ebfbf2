package parser

import (
	"fmt"
	"strconv"
	"strings"

	"mimble/internal/ast"
	"mimble/internal/diag"
	"mimble/internal/lexer"
	"mimble/internal/token"
)

// parseExpr - главная точка входа для парсинга выражений
func (p *Parser) parseExpr() (ast.ExprID, bool) {
	return p.parseBinaryExpr(0)
}

// parseBinaryExpr реализует Pratt parsing для бинарных операторов
// minPrec - минимальный приоритет для текущего уровня
func (p *Parser) parseBinaryExpr(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}

	for {
		prec, op := binaryOp(p.lx.Peek().Kind)
		if prec < 0 || prec < minPrec {
			break
		}
		p.advance()

		right, ok := p.parseBinaryExpr(prec + 1)
		if !ok {
			return ast.NoExprID, false
		}
		span := p.nodes.Exprs.Get(left).Span.Cover(p.nodes.Exprs.Get(right).Span)
		left = p.nodes.Exprs.NewBinary(span, op, left, right)
	}
	return left, true
}

// parseUnaryExpr обрабатывает унарные операторы (префиксы)
func (p *Parser) parseUnaryExpr() (ast.ExprID, bool) {
	var op ast.ExprUnaryOp
	switch p.lx.Peek().Kind {
	case token.Minus:
		op = ast.ExprUnaryMinus
	case token.Bang:
		op = ast.ExprUnaryNot
	default:
		return p.parsePostfixExpr()
	}
	opTok := p.advance()
	operand, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	span := opTok.Span.Cover(p.nodes.Exprs.Get(operand).Span)
	return p.nodes.Exprs.NewUnary(span, op, operand), true
}

// parsePostfixExpr: primary ( "(" args ")" | "[" expr "]" )*
func (p *Parser) parsePostfixExpr() (ast.ExprID, bool) {
	expr, ok := p.parsePrimaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		switch p.lx.Peek().Kind {
		case token.LParen:
			p.advance()
			args, closeTok, ok := p.parseExprList(token.RParen, diag.SynUnclosedParen, "expected ')' after arguments")
			if !ok {
				return ast.NoExprID, false
			}
			span := p.nodes.Exprs.Get(expr).Span.Cover(closeTok.Span)
			expr = p.nodes.Exprs.NewCall(span, expr, args)
		case token.LBracket:
			p.advance()
			index, ok := p.parseExpr()
			if !ok {
				return ast.NoExprID, false
			}
			closeTok, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' after index")
			if !ok {
				return ast.NoExprID, false
			}
			span := p.nodes.Exprs.Get(expr).Span.Cover(closeTok.Span)
			expr = p.nodes.Exprs.NewIndex(span, expr, index)
		default:
			return expr, true
		}
	}
}

func (p *Parser) parsePrimaryExpr() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return p.nodes.Exprs.NewIdent(tok.Span, tok.Text), true

	case token.IntLit:
		p.advance()
		n, err := strconv.ParseInt(strings.ReplaceAll(tok.Text, "_", ""), 10, 64)
		if err != nil {
			p.report(diag.LexBadNumber, diag.SevError, tok.Span, fmt.Sprintf("integer literal %s out of range", tok.Text))
			return ast.NoExprID, false
		}
		return p.nodes.Exprs.NewInt(tok.Span, n), true

	case token.FloatLit:
		p.advance()
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok.Text, "_", ""), 64)
		if err != nil {
			p.report(diag.LexBadNumber, diag.SevError, tok.Span, fmt.Sprintf("invalid float literal %s", tok.Text))
			return ast.NoExprID, false
		}
		return p.nodes.Exprs.NewFloat(tok.Span, f), true

	case token.StringLit:
		p.advance()
		s, err := lexer.Unquote(tok.Text)
		if err != nil {
			// лексер уже отрепортил плохой escape
			return ast.NoExprID, false
		}
		return p.nodes.Exprs.NewString(tok.Span, s), true

	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.nodes.Exprs.NewBool(tok.Span, tok.Kind == token.KwTrue), true

	case token.KwNil:
		p.advance()
		return p.nodes.Exprs.NewNil(tok.Span), true

	case token.LParen:
		open := p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		closeTok, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'")
		if !ok {
			return ast.NoExprID, false
		}
		return p.nodes.Exprs.NewGroup(open.Span.Cover(closeTok.Span), inner), true

	case token.LBracket:
		open := p.advance()
		elems, closeTok, ok := p.parseExprList(token.RBracket, diag.SynUnclosedBracket, "expected ']' after array elements")
		if !ok {
			return ast.NoExprID, false
		}
		return p.nodes.Exprs.NewArray(open.Span.Cover(closeTok.Span), elems), true

	case token.Invalid:
		// лексер уже отрепортил
		p.advance()
		return ast.NoExprID, false

	default:
		if tok.Kind == token.EOF {
			p.err(diag.SynExpectExpression, "expected expression, found end of input")
		} else {
			p.err(diag.SynExpectExpression, fmt.Sprintf("expected expression, found '%s'", tok.Text))
		}
		return ast.NoExprID, false
	}
}

// parseExprList разбирает `a, b, c` до закрывающего токена; открывающий уже съеден.
// Допускается завершающая запятая.
func (p *Parser) parseExprList(closeKind token.Kind, code diag.Code, msg string) ([]ast.ExprID, token.Token, bool) {
	var items []ast.ExprID
	for !p.at(closeKind) {
		item, ok := p.parseExpr()
		if !ok {
			return nil, token.Token{}, false
		}
		items = append(items, item)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	closeTok, ok := p.expect(closeKind, code, msg)
	if !ok {
		return nil, token.Token{}, false
	}
	return items, closeTok, true
}
