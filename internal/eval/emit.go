package eval

import (
	"mimble/internal/source"
	"mimble/internal/trace"
	"mimble/internal/value"
)

// tracing reports whether events should be built at all.
// Callers check it before cloning snapshots.
func (e *Evaluator) tracing() bool {
	return e.tracer != nil
}

// emit stamps ev with the next step and position and hands it to the tracer.
// A panicking tracer is logged and otherwise ignored.
func (e *Evaluator) emit(ev trace.Event) {
	e.step++
	ev.Step = e.step
	if e.files != nil && e.files.Get(ev.Span.File) != nil {
		ev.Pos, _ = e.files.Resolve(ev.Span)
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("tracer panicked", "step", ev.Step, "kind", ev.Kind.String(), "panic", r)
		}
	}()
	e.tracer.Notify(ev)
}

func (e *Evaluator) emitInit(sp source.Span, name string, v value.Tracked) {
	if !e.tracing() {
		return
	}
	e.emit(trace.Event{Kind: trace.KindInit, Span: sp, To: value.Variable(name), Value: v.Snapshot()})
}

func (e *Evaluator) emitAssign(sp source.Span, from, to value.Source, v value.Value) {
	if !e.tracing() {
		return
	}
	e.emit(trace.Event{Kind: trace.KindAssign, Span: sp, From: from, To: to, Value: value.Track(v.Clone(), from)})
}

func (e *Evaluator) emitCompare(sp source.Span, left, right value.Tracked, result bool) {
	if !e.tracing() {
		return
	}
	e.emit(trace.Event{Kind: trace.KindCompare, Span: sp, Left: left.Snapshot(), Right: right.Snapshot(), Result: result})
}

func (e *Evaluator) emitValue(sp source.Span, label string, v value.Value) {
	if !e.tracing() {
		return
	}
	e.emit(trace.Event{Kind: trace.KindValue, Span: sp, Label: label, Value: value.Track(v.Clone(), value.ExpressionSource)})
}
