package trace

// nopTracer is a no-op implementation for zero overhead when tracing is disabled.
type nopTracer struct{}

// Notify does nothing.
func (nopTracer) Notify(Event) {}

// Nop is the package-level singleton nop tracer.
var Nop Tracer = nopTracer{}

// IsNop reports whether t does nothing with events.
func IsNop(t Tracer) bool {
	if t == nil {
		return true
	}
	_, ok := t.(nopTracer)
	return ok
}
