package observ

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClock advances by one millisecond on every read.
func fakeClock() func() time.Time {
	var mu sync.Mutex
	cur := time.Unix(0, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Millisecond)
		return cur
	}
}

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock()

	p := tm.Begin("b.mb", "parse")
	tm.End(p, 0, "")
	e := tm.Begin("a.mb", "exec")
	tm.End(e, 12, "")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases: %d", len(r.Phases))
	}
	if r.Phases[0].Scope != "a.mb" || r.Phases[1].Scope != "b.mb" {
		t.Errorf("phases not sorted by scope: %+v", r.Phases)
	}
	if r.Steps != 12 {
		t.Errorf("steps = %d", r.Steps)
	}
	if r.TotalMS != 2 {
		t.Errorf("total = %v", r.TotalMS)
	}
}

func TestTimerMeasureAndSummary(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock()

	err := tm.Measure("x.mb", "exec", func() (uint64, error) { return 3, errors.New("boom") })
	if err == nil {
		t.Fatal("Measure must pass the error through")
	}
	s := tm.Summary()
	for _, want := range []string{"x.mb:exec", "3 steps", "// failed", "total"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestTimerEndUnknown(t *testing.T) {
	tm := NewTimer()
	tm.End(5, 0, "") // no panic
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Errorf("unexpected phases: %+v", r.Phases)
	}
}

func TestTimerConcurrent(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("f", "exec"), 1, "")
		}()
	}
	wg.Wait()
	if r := tm.Report(); len(r.Phases) != 16 || r.Steps != 16 {
		t.Errorf("report: %d phases, %d steps", len(r.Phases), r.Steps)
	}
}
