// Package token defines lexical token kinds for mimble source text.
// Invariants:
//   - Token.Text is a slice of the original source (no copies), except for
//     string literals whose Text holds the raw quoted lexeme.
//   - Token.Span matches Text exactly (Start..End).
//   - Comments and whitespace never appear in the token stream.
package token
