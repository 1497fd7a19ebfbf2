package trace

import (
	"io"
	"sync"
)

// StreamTracer writes events immediately to an io.Writer.
type StreamTracer struct {
	mu         sync.Mutex
	w          io.Writer
	level      Level
	format     Format
	firstEvent bool  // for JSON array comma handling
	err        error // first write error
}

// NewStreamTracer creates a new StreamTracer.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	st := &StreamTracer{
		w:          w,
		level:      level,
		format:     format,
		firstEvent: true,
	}

	if format == FormatJSON {
		st.write([]byte("[\n"))
	}

	return st
}

// Notify writes an event to the output.
func (t *StreamTracer) Notify(ev Event) {
	if !t.level.ShouldEmit(ev.Kind) {
		return
	}

	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.format == FormatJSON {
		if !t.firstEvent {
			t.write([]byte(",\n"))
		}
		t.firstEvent = false
	}

	t.write(data)
}

// write remembers the first error; later writes are skipped so a broken
// output never disturbs the run.
func (t *StreamTracer) write(p []byte) {
	if t.err != nil {
		return
	}
	if _, err := t.w.Write(p); err != nil {
		t.err = err
	}
}

// Err returns the first write error, if any.
func (t *StreamTracer) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Flush ensures all buffered data is written.
func (t *StreamTracer) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close writes the JSON footer, flushes and closes the writer if it
// implements io.Closer.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	if t.format == FormatJSON {
		t.write([]byte("\n]\n"))
	}
	err := t.err
	t.mu.Unlock()

	if ferr := t.Flush(); err == nil {
		err = ferr
	}
	if closer, ok := t.w.(io.Closer); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Level returns the current tracing level.
func (t *StreamTracer) Level() Level {
	return t.level
}
