package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mimble/internal/trace"
	"mimble/internal/value"
)

// errTimeout marks a run abandoned by --timeout.
var errTimeout = errors.New("run timed out")

type runOutcome struct {
	value value.Value
	err   error
}

// runWithTimeout runs fn in its own goroutine and stops waiting after d.
// The evaluator has no cancellation point, so an abandoned run keeps going
// in the background until it finishes on its own.
func runWithTimeout(ctx context.Context, d time.Duration, fn func() (value.Value, error)) (value.Value, error) {
	if d <= 0 {
		return fn()
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan runOutcome, 1)
	go func() {
		v, err := fn()
		ch <- runOutcome{value: v, err: err}
	}()
	select {
	case out := <-ch:
		return out.value, out.err
	case <-ctx.Done():
		return value.Nil, fmt.Errorf("%w after %s: %w", errTimeout, d, ctx.Err())
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, errTimeout)
}

// runTracer sits between one run and the shared CLI tracer. After detach
// the run can keep executing, but its events go nowhere: a run abandoned
// by --timeout must not write into the next file's trace or into a closed
// stream.
type runTracer struct {
	mu    sync.Mutex
	inner trace.Tracer
}

func newRunTracer(inner trace.Tracer) *runTracer {
	return &runTracer{inner: inner}
}

func (t *runTracer) Notify(ev trace.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inner != nil {
		t.inner.Notify(ev)
	}
}

// detach returns once no Notify into the shared tracer is in flight.
func (t *runTracer) detach() {
	t.mu.Lock()
	t.inner = nil
	t.mu.Unlock()
}
