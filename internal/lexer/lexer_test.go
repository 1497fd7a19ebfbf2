package lexer_test

import (
	"testing"

	"mimble/internal/diag"
	"mimble/internal/lexer"
	"mimble/internal/source"
	"mimble/internal/token"
)

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string) (*lexer.Lexer, *diag.Bag) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.mb", []byte(input))
	bag := diag.NewBag(16)
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: &diag.BagReporter{Bag: bag}})
	return lx, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Kind)
	}
	return out
}

func TestLexer_Tokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{
			name:  "let binding",
			input: "let x = 5",
			want:  []token.Kind{token.KwLet, token.Ident, token.Assign, token.IntLit, token.EOF},
		},
		{
			name:  "two char operators are greedy",
			input: "a<=b==c!=d>=e&&f||g",
			want: []token.Kind{
				token.Ident, token.LtEq, token.Ident, token.EqEq, token.Ident, token.BangEq,
				token.Ident, token.GtEq, token.Ident, token.AndAnd, token.Ident, token.OrOr, token.Ident, token.EOF,
			},
		},
		{
			name:  "comments and newlines are trivia",
			input: "# header\nx # trailing\n;",
			want:  []token.Kind{token.Ident, token.Semicolon, token.EOF},
		},
		{
			name:  "numbers",
			input: "1 1_000 2.5 1e3 3.0E-2",
			want:  []token.Kind{token.IntLit, token.IntLit, token.FloatLit, token.FloatLit, token.FloatLit, token.EOF},
		},
		{
			name:  "array and call",
			input: `push([1, 2], "s")`,
			want: []token.Kind{
				token.Ident, token.LParen, token.LBracket, token.IntLit, token.Comma, token.IntLit,
				token.RBracket, token.Comma, token.StringLit, token.RParen, token.EOF,
			},
		},
		{
			name:  "keywords",
			input: "if else while true false nil",
			want:  []token.Kind{token.KwIf, token.KwElse, token.KwWhile, token.KwTrue, token.KwFalse, token.KwNil, token.EOF},
		},
		{
			name:  "unicode identifier",
			input: "переменная = 1",
			want:  []token.Kind{token.Ident, token.Assign, token.IntLit, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lx, bag := makeTestLexer(tt.input)
			got := kinds(lx.All())
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d: got %v, want %v (all: %v)", i, got[i], tt.want[i], got)
				}
			}
			if bag.HasErrors() {
				t.Errorf("unexpected diagnostics: %+v", bag.Items())
			}
		})
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  diag.Code
	}{
		{"unknown char", "let x = @", diag.LexUnknownChar},
		{"unterminated string", "\"abc\nx", diag.LexUnterminatedString},
		{"bad escape", `"a\qb"`, diag.LexBadEscape},
		{"trailing dot", "1.", diag.LexBadNumber},
		{"bad suffix", "12abc", diag.LexBadNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lx, bag := makeTestLexer(tt.input)
			toks := lx.All()
			if toks[len(toks)-1].Kind != token.EOF {
				t.Fatal("lexer must always finish with EOF")
			}
			if !bag.HasErrors() {
				t.Fatal("expected a diagnostic")
			}
			if got := bag.Items()[0].Code; got != tt.code {
				t.Errorf("code = %v, want %v", got.ID(), tt.code.ID())
			}
		})
	}
}

func TestLexer_SpansAndPeek(t *testing.T) {
	lx, _ := makeTestLexer("  foo  bar")
	peeked := lx.Peek()
	if peeked.Text != "foo" || lx.Peek().Text != "foo" {
		t.Fatalf("Peek must not consume: %q", peeked.Text)
	}
	foo := lx.Next()
	if foo.Span.Start != 2 || foo.Span.End != 5 {
		t.Errorf("foo span = %v", foo.Span)
	}
	bar := lx.Next()
	if bar.Text != "bar" || bar.Span.Start != 7 {
		t.Errorf("bar = %+v", bar)
	}
	if lx.Next().Kind != token.EOF || lx.Next().Kind != token.EOF {
		t.Error("EOF must be sticky")
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`"plain"`, "plain", false},
		{`"a\nb\t\"q\"\\"`, "a\nb\t\"q\"\\", false},
		{"\"e\u0301\"", "\u00e9", false}, // NFC
		{`"bad\x"`, "", true},
		{`noquotes`, "", true},
	}
	for _, tt := range tests {
		got, err := lexer.Unquote(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Unquote(%s) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unquote(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
