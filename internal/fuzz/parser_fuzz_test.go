package fuzztests

import (
	"testing"
	"time"

	"mimble/internal/parser"
	"mimble/internal/source"
	"mimble/internal/testkit"
)

// parseTimeout is the maximum time allowed for parsing a single input.
// If parsing takes longer, it indicates a potential infinite loop.
const parseTimeout = 5 * time.Second

func FuzzParserSpans(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampSeed(input)

		type result struct {
			err     error
			spanErr error
		}
		done := make(chan result, 1)
		go func() {
			fs := source.NewFileSet()
			fileID := fs.AddVirtual("fuzz.mb", input)
			prog, err := parser.Parse(fs, fileID)
			var r result
			r.err = err
			if err == nil {
				r.spanErr = testkit.CheckSpanInvariants(prog, fs.Get(fileID))
			}
			done <- r
		}()

		select {
		case r := <-done:
			if r.spanErr != nil {
				t.Fatalf("span invariant violated: %v\ninput: %q", r.spanErr, truncateForLog(input, 200))
			}
		case <-time.After(parseTimeout):
			t.Fatalf("parser hang detected: parsing took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

func truncateForLog(input []byte, n int) []byte {
	if len(input) <= n {
		return input
	}
	return input[:n]
}
