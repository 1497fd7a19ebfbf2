package parser

import (
	"mimble/internal/ast"
	"mimble/internal/token"
)

// Таблица приоритетов для бинарных операторов
// Чем больше число, тем выше приоритет
const (
	precLogicalOr      = 1 // ||
	precLogicalAnd     = 2 // &&
	precEquality       = 3 // == !=
	precComparison     = 4 // < <= > >=
	precAdditive       = 5 // + -
	precMultiplicative = 6 // * / %
)

// binaryOp возвращает приоритет и оператор; -1 если токен не бинарный оператор.
// Все операторы левоассоциативные.
func binaryOp(kind token.Kind) (int, ast.ExprBinaryOp) {
	switch kind {
	case token.OrOr:
		return precLogicalOr, ast.ExprBinaryLogicalOr
	case token.AndAnd:
		return precLogicalAnd, ast.ExprBinaryLogicalAnd
	case token.EqEq:
		return precEquality, ast.ExprBinaryEq
	case token.BangEq:
		return precEquality, ast.ExprBinaryNotEq
	case token.Lt:
		return precComparison, ast.ExprBinaryLess
	case token.LtEq:
		return precComparison, ast.ExprBinaryLessEq
	case token.Gt:
		return precComparison, ast.ExprBinaryGreater
	case token.GtEq:
		return precComparison, ast.ExprBinaryGreaterEq
	case token.Plus:
		return precAdditive, ast.ExprBinaryAdd
	case token.Minus:
		return precAdditive, ast.ExprBinarySub
	case token.Star:
		return precMultiplicative, ast.ExprBinaryMul
	case token.Slash:
		return precMultiplicative, ast.ExprBinaryDiv
	case token.Percent:
		return precMultiplicative, ast.ExprBinaryMod
	default:
		return -1, 0
	}
}
