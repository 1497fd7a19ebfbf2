// Package observ collects wall-clock timings of run phases.
package observ

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Phase is one timed stage of a run, e.g. "parse" or "exec" for a file.
type Phase struct {
	Name  string
	Scope string // имя файла или пустая строка
	Start time.Time
	Dur   time.Duration
	Steps uint64
	Note  string
}

// Timer records phases; safe for use from several goroutines.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	now    func() time.Time
}

func NewTimer() *Timer {
	return &Timer{phases: make([]Phase, 0, 8), now: time.Now}
}

// Begin starts a phase and returns its handle for End.
func (t *Timer) Begin(scope, name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Scope: scope, Start: t.now()})
	return len(t.phases) - 1
}

// End closes the phase; unknown handles are ignored.
func (t *Timer) End(idx int, steps uint64, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Steps = steps
	p.Note = note
}

// Measure runs fn as a single phase.
func (t *Timer) Measure(scope, name string, fn func() (uint64, error)) error {
	idx := t.Begin(scope, name)
	steps, err := fn()
	note := ""
	if err != nil {
		note = "failed"
	}
	t.End(idx, steps, note)
	return err
}

type PhaseReport struct {
	Scope      string  `json:"scope,omitempty"`
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Steps      uint64  `json:"steps,omitempty"`
	Note       string  `json:"note,omitempty"`
}

// Report агрегирует фазы; порядок стабилен: по scope, затем по времени старта.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Steps   uint64        `json:"steps"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	t.mu.Lock()
	phases := make([]Phase, len(t.phases))
	copy(phases, t.phases)
	t.mu.Unlock()

	if len(phases) == 0 {
		return Report{}
	}
	sort.SliceStable(phases, func(i, j int) bool {
		if phases[i].Scope != phases[j].Scope {
			return phases[i].Scope < phases[j].Scope
		}
		return phases[i].Start.Before(phases[j].Start)
	})
	report := Report{Phases: make([]PhaseReport, len(phases))}
	var total time.Duration
	for i, p := range phases {
		total += p.Dur
		report.Steps += p.Steps
		report.Phases[i] = PhaseReport{
			Scope:      p.Scope,
			Name:       p.Name,
			DurationMS: durationToMillis(p.Dur),
			Steps:      p.Steps,
			Note:       p.Note,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

// WriteSummary prints a human-readable table of phases.
func (t *Timer) WriteSummary(w io.Writer) error {
	_, err := io.WriteString(w, t.Summary())
	return err
}

func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		label := p.Name
		if p.Scope != "" {
			label = p.Scope + ":" + p.Name
		}
		fmt.Fprintf(&sb, "  %-28s %7.2f ms", label, p.DurationMS)
		if p.Steps > 0 {
			fmt.Fprintf(&sb, "  %d steps", p.Steps)
		}
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-28s %7.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
