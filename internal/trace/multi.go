package trace

// MultiTracer fans out trace events to multiple tracers.
type MultiTracer struct {
	tracers []Tracer
}

// NewMultiTracer creates a new MultiTracer that notifies all provided tracers.
// Nil entries are skipped.
func NewMultiTracer(tracers ...Tracer) *MultiTracer {
	m := &MultiTracer{}
	for _, tr := range tracers {
		if tr != nil {
			m.tracers = append(m.tracers, tr)
		}
	}
	return m
}

// Notify sends the event to all underlying tracers.
func (t *MultiTracer) Notify(ev Event) {
	for _, tr := range t.tracers {
		tr.Notify(ev)
	}
}

// Tracers returns the underlying tracers in notification order.
func (t *MultiTracer) Tracers() []Tracer {
	return t.tracers
}

// Close closes all underlying tracers.
func (t *MultiTracer) Close() error {
	var firstErr error
	for _, tr := range t.tracers {
		if err := Close(tr); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
