// Package interp is the embeddable entry point: it owns the evaluator state
// and a single tracer slot, and combines parsing and execution into Run.
package interp

import (
	"fmt"
	"log/slog"

	"mimble/internal/eval"
	"mimble/internal/logging"
	"mimble/internal/parser"
	"mimble/internal/source"
	"mimble/internal/trace"
	"mimble/internal/value"
)

// ErrTracerAbsent is returned by TakeTracerAs when no tracer is attached.
// It wraps trace.ErrAbsent.
var ErrTracerAbsent = fmt.Errorf("interp: %w", trace.ErrAbsent)

// DefaultFileName names the virtual file each Run parses.
const DefaultFileName = "<input>"

// Interpreter runs programs against persistent global bindings.
//
// Tracer slot: SetTracer attaches (replacing any current tracer silently),
// TakeTracer detaches and hands the tracer back. Runs with an empty slot
// emit nothing. An Interpreter is not safe for overlapping runs.
type Interpreter struct {
	files    *source.FileSet
	ev       *eval.Evaluator
	tracer   trace.Tracer
	logger   *slog.Logger
	fileName string
	fileID   source.FileID
	hasFile  bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger routes debug records and tracer panic warnings to l.
func WithLogger(l *slog.Logger) Option {
	return func(it *Interpreter) {
		if l != nil {
			it.logger = l
		}
	}
}

// WithFileName sets the name used in positions and error messages.
func WithFileName(name string) Option {
	return func(it *Interpreter) {
		if name != "" {
			it.fileName = name
		}
	}
}

func New(opts ...Option) *Interpreter {
	it := &Interpreter{
		files:    source.NewFileSet(),
		logger:   logging.Discard(),
		fileName: DefaultFileName,
	}
	for _, opt := range opts {
		opt(it)
	}
	it.ev = eval.New(eval.Options{Files: it.files, Logger: it.logger})
	return it
}

// SetTracer attaches t for subsequent runs. A previously attached tracer is
// dropped without notice; nil empties the slot.
func (it *Interpreter) SetTracer(t trace.Tracer) {
	if it.tracer != nil && t != nil {
		it.logger.Debug("tracer replaced", "old", fmt.Sprintf("%T", it.tracer), "new", fmt.Sprintf("%T", t))
	}
	it.tracer = t
}

// TakeTracer empties the slot and returns what it held.
// A second call without re-attaching returns (nil, false).
func (it *Interpreter) TakeTracer() (trace.Tracer, bool) {
	t := it.tracer
	it.tracer = nil
	return t, t != nil
}

// HasTracer reports whether the slot is occupied.
func (it *Interpreter) HasTracer() bool {
	return it.tracer != nil
}

// Run parses and executes src. Parse failures return *parser.Error,
// evaluation failures *eval.Error; events emitted before a failure stay
// with the attached tracer.
//
// Every run reuses one virtual file, so a long REPL session keeps only the
// latest source. Format an error against Files before the next Run.
func (it *Interpreter) Run(src string) (value.Value, error) {
	if !it.hasFile || !it.files.ReplaceVirtual(it.fileID, []byte(src)) {
		it.fileID = it.files.AddVirtual(it.fileName, []byte(src))
		it.hasFile = true
	}
	id := it.fileID
	it.logger.Debug("run", "file", it.fileName, "bytes", len(src), "traced", it.tracer != nil)

	prog, err := parser.Parse(it.files, id)
	if err != nil {
		return value.Nil, err
	}

	it.ev.SetTracer(it.tracer)
	defer it.ev.SetTracer(nil)
	return it.ev.Exec(prog)
}

// Reset drops all global bindings. The tracer slot is left as is.
func (it *Interpreter) Reset() {
	it.ev.Reset()
}

// Globals lists the names bound at top level, sorted.
func (it *Interpreter) Globals() []string {
	return it.ev.Globals()
}

// Lookup reads a global binding.
func (it *Interpreter) Lookup(name string) (value.Value, bool) {
	return it.ev.Lookup(name)
}

// Steps returns how many trace steps the last run emitted; zero when it ran
// without a tracer.
func (it *Interpreter) Steps() uint64 {
	return it.ev.Steps()
}

// Files exposes the file set holding the latest source Run parsed,
// for resolving spans in errors and events.
func (it *Interpreter) Files() *source.FileSet {
	return it.files
}

// TakeTracerAs takes the tracer and recovers its concrete type. On a type
// mismatch the tracer is put back so the slot stays as it was.
func TakeTracerAs[T trace.Tracer](it *Interpreter) (T, error) {
	t, ok := it.TakeTracer()
	if !ok {
		var zero T
		return zero, ErrTracerAbsent
	}
	got, err := trace.As[T](t)
	if err != nil {
		it.tracer = t
		return got, err
	}
	return got, nil
}

// Interpret runs src with a fresh collector and returns the collected
// events. Events are returned even when the run fails. Whatever tracer was
// attached before is replaced and the slot is empty afterwards.
func (it *Interpreter) Interpret(src string) ([]trace.Event, value.Value, error) {
	it.SetTracer(trace.NewCollector())
	v, runErr := it.Run(src)

	col, err := TakeTracerAs[*trace.Collector](it)
	if err != nil {
		return nil, v, err
	}
	return col.Events(), v, runErr
}

// Interpret is the one-shot host operation: a new Interpreter runs src once.
func Interpret(src string, opts ...Option) ([]trace.Event, value.Value, error) {
	return New(opts...).Interpret(src)
}
