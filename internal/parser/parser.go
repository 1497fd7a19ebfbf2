package parser

import (
	"slices"

	"mimble/internal/ast"
	"mimble/internal/diag"
	"mimble/internal/lexer"
	"mimble/internal/source"
	"mimble/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough - проверить, достигли ли мы максимального количества ошибок
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	Program *ast.Program
	Errors  uint
}

// Parser - состояние парсера на один файл
type Parser struct {
	lx       *lexer.Lexer
	nodes    *ast.Builder
	file     *source.File
	opts     Options
	lastSpan source.Span // span последнего съеденного токена для лучшей диагностики
}

// ParseFile - входная точка для разбора одного файла.
// Диагностики уходят в opts.Reporter; лексер пишет туда же.
func ParseFile(file *source.File, opts Options) Result {
	p := &Parser{
		nodes: ast.NewBuilder(ast.Hints{}),
		file:  file,
		opts:  opts,
	}
	// лексер и парсер делят один счётчик ошибок
	p.lx = lexer.New(file, lexer.Options{Reporter: &countingReporter{opts: &p.opts}})
	p.lastSpan = p.lx.EmptySpan()

	prog := &ast.Program{File: file.ID, Nodes: p.nodes}
	startSpan := p.lx.Peek().Span
	for !p.at(token.EOF) {
		if p.at(token.RBrace) {
			p.err(diag.SynUnexpectedToken, "unexpected '}' outside of a block")
			p.advance()
			continue
		}
		if id, ok := p.parseStmtOrRecover(); ok {
			prog.Stmts = append(prog.Stmts, id)
		}
	}
	prog.Span = startSpan.Cover(p.lx.Peek().Span)
	return Result{Program: prog, Errors: p.opts.CurrentErrors}
}

// Parse разбирает файл из FileSet и возвращает *Error, если были ошибки.
func Parse(fs *source.FileSet, id source.FileID) (*ast.Program, error) {
	file := fs.Get(id)
	if file == nil {
		return nil, &Error{Path: "<unknown>", Diagnostics: []diag.Diagnostic{{
			Severity: diag.SevError,
			Message:  "unknown source file",
		}}}
	}
	bag := diag.NewBag(64)
	res := ParseFile(file, Options{MaxErrors: 64, Reporter: &diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		bag.Sort()
		return res.Program, newError(fs, bag)
	}
	return res.Program, nil
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

// countingReporter считает ошибки лексера в общий лимит.
type countingReporter struct {
	opts *Options
}

func (r *countingReporter) Report(code diag.Code, sev diag.Severity, sp source.Span, msg string, notes []diag.Note) {
	if r.opts.Reporter == nil {
		return
	}
	if sev == diag.SevError {
		r.opts.CurrentErrors++
		if r.opts.MaxErrors != 0 && r.opts.CurrentErrors > r.opts.MaxErrors {
			return
		}
	}
	r.opts.Reporter.Report(code, sev, sp, msg, notes)
}
