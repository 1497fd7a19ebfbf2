// Package trace provides the tracer capability of the interpreter.
//
// The evaluator notifies the attached Tracer synchronously on each
// semantically significant step (bindings, assignments, comparisons,
// produced values, errors). A Tracer only observes: it never owns
// evaluator state and cannot interrupt a run.
//
// # Tracers
//
//   - Collector: keeps every event in order; the host reads them after the run
//   - Nop: zero-overhead no-op tracer
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: keeps the last N events for post-mortem dumps
//   - MultiTracer: fan-out to several tracers
//
// # Levels
//
// Stream and ring tracers filter events by Level:
//
//   - LevelOff: nothing
//   - LevelError: evaluation errors only
//   - LevelBinding: plus Init and Assign
//   - LevelStep: plus Compare
//   - LevelDebug: everything including produced values
//
// # Recovery
//
// A tracer handed back by the interpreter is typed as the interface.
// As recovers the concrete type with a checked assertion:
//
//	t, _ := it.TakeTracer()
//	col, err := trace.As[*trace.Collector](t)
//	if err != nil {
//		return err // ErrAbsent or *MismatchError
//	}
//	events := col.Events()
package trace
