package fuzztests

import (
	"bytes"
	"errors"
	"testing"

	"mimble/internal/eval"
	"mimble/internal/interp"
	"mimble/internal/trace"
)

// FuzzTracingParity checks that a program computes the same result with and
// without a tracer, and that steps are numbered 1..N.
// Inputs with loops are skipped: the evaluator has no step limit.
func FuzzTracingParity(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if bytes.Contains(input, []byte("while")) || len(input) > 4096 {
			t.Skip()
		}
		src := string(input)

		plain := interp.New()
		want, wantErr := plain.Run(src)

		traced := interp.New()
		col := trace.NewCollector()
		traced.SetTracer(col)
		got, gotErr := traced.Run(src)

		if (wantErr == nil) != (gotErr == nil) {
			t.Fatalf("error mismatch: plain=%v traced=%v", wantErr, gotErr)
		}
		if wantErr != nil && wantErr.Error() != gotErr.Error() {
			t.Fatalf("error text mismatch: %q vs %q", wantErr, gotErr)
		}
		if !want.Equal(got) {
			t.Fatalf("result mismatch: %s vs %s", want, got)
		}

		events := col.Events()
		for i, ev := range events {
			if ev.Step != uint64(i+1) {
				t.Fatalf("event %d has step %d", i, ev.Step)
			}
		}
		var evalErr *eval.Error
		if errors.As(gotErr, &evalErr) {
			if len(events) == 0 || events[len(events)-1].Kind != trace.KindError {
				t.Fatalf("runtime error %v must be the last event", gotErr)
			}
		}
	})
}
