package eval

import (
	"context"
	"fmt"
	"log/slog"

	"mimble/internal/ast"
	"mimble/internal/logging"
	"mimble/internal/source"
	"mimble/internal/trace"
	"mimble/internal/value"
)

// Options configures an Evaluator.
type Options struct {
	// Files resolves spans into line/col for events and errors. May be nil.
	Files *source.FileSet
	// Logger receives debug records and tracer panic warnings. Nil discards.
	Logger *slog.Logger
}

// Evaluator executes programs against a persistent global scope.
// It is not safe for concurrent use.
type Evaluator struct {
	files  *source.FileSet
	logger *slog.Logger

	globals *Env
	env     *Env
	prog    *ast.Program

	tracer      trace.Tracer
	step        uint64
	nextArrayID uint64
}

func New(opts Options) *Evaluator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	globals := NewEnv(nil)
	return &Evaluator{
		files:   opts.Files,
		logger:  logger,
		globals: globals,
		env:     globals,
	}
}

// SetTracer attaches t for subsequent runs; nil detaches.
func (e *Evaluator) SetTracer(t trace.Tracer) {
	if trace.IsNop(t) {
		t = nil
	}
	e.tracer = t
}

// Reset drops all global bindings.
func (e *Evaluator) Reset() {
	e.globals = NewEnv(nil)
	e.env = e.globals
}

// Lookup reads a global binding.
func (e *Evaluator) Lookup(name string) (value.Value, bool) {
	return e.globals.Lookup(name)
}

// Globals lists the global binding names, sorted.
func (e *Evaluator) Globals() []string {
	return e.globals.Names()
}

// Steps reports how many events the last run emitted.
func (e *Evaluator) Steps() uint64 {
	return e.step
}

// Exec runs prog and returns the value of the last top-level statement.
// Bindings made before a failure stay in the global scope.
func (e *Evaluator) Exec(prog *ast.Program) (result value.Value, err error) {
	if prog == nil || prog.Nodes == nil {
		return value.Nil, &Error{Code: CodeInternal, Message: "no program"}
	}
	e.prog = prog
	e.env = e.globals
	e.step = 0
	defer func() {
		e.prog = nil
		e.env = e.globals
	}()

	result = value.Nil
	for _, id := range prog.Stmts {
		v, err := e.execStmt(id)
		if err != nil {
			e.logger.Debug("run failed", "steps", e.step, "err", err)
			return value.Nil, err
		}
		result = v
	}
	if e.logger.Enabled(context.Background(), slog.LevelDebug) {
		e.logger.Debug("run finished", "steps", e.step, "result", result.String())
	}
	return result, nil
}

// fail builds an *Error at sp and reports it to the tracer.
func (e *Evaluator) fail(code Code, sp source.Span, format string, args ...any) error {
	err := &Error{Code: code, Message: fmt.Sprintf(format, args...), Span: sp}
	if e.files != nil {
		if f := e.files.Get(sp.File); f != nil {
			err.Path = f.Path
			err.Pos, _ = e.files.Resolve(sp)
		}
	}
	if e.tracing() {
		e.emit(trace.Event{Kind: trace.KindError, Span: sp, Label: err.Message})
	}
	return err
}

func (e *Evaluator) newArrayID() uint64 {
	e.nextArrayID++
	return e.nextArrayID
}
