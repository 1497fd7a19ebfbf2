package lexer

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"mimble/internal/diag"
	"mimble/internal/token"
)

// scanString сканирует "..." с escape-последовательностями.
// Незакрытая строка репортится и превращается в Invalid-токен до конца строки.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // открывающая "

	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		b := lx.cursor.Bump()
		if b == '\\' {
			if !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.bumpRune()
			}
			continue
		}
		if b == '"' {
			break
		}
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	if _, err := Unquote(text); err != nil {
		lx.report(diag.LexBadEscape, sp, err.Error())
	}
	return token.Token{Kind: token.StringLit, Span: sp, Text: text}
}

// Unquote decodes a quoted string literal and returns it in NFC form.
// Supported escapes: \n \t \r \\ \" \0.
func Unquote(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return "", fmt.Errorf("malformed string literal %s", lit)
	}
	body := lit[1 : len(lit)-1]
	if !strings.ContainsRune(body, '\\') {
		return norm.NFC.String(body), nil
	}

	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("dangling escape at end of string")
		}
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		default:
			return "", fmt.Errorf("invalid escape sequence \\%c", body[i])
		}
	}
	return norm.NFC.String(sb.String()), nil
}
