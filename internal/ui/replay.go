package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"mimble/internal/trace"
)

const (
	DefaultReplayInterval = 200 * time.Millisecond
	minReplayInterval     = 25 * time.Millisecond
	maxReplayInterval     = 2 * time.Second
)

var (
	replayTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	replayCurrentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	replayDimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	replayErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	replaySourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// ReplayModel steps through a recorded trace.
//
// Keys: space - play/pause, ←/→ - step, home/end - jump, +/- - speed, q - quit.
type ReplayModel struct {
	title    string
	events   []trace.Event
	lines    []string // исходник программы, если известен
	cursor   int
	playing  bool
	interval time.Duration
	gen      int // отбрасывает тики, запланированные до паузы
	prog     progress.Model
	width    int
	rows     int
}

type replayTickMsg struct{ gen int }

type ReplayOption func(*ReplayModel)

// WithSource attaches program text so the current event's line is shown.
func WithSource(src string) ReplayOption {
	return func(m *ReplayModel) {
		if src != "" {
			m.lines = strings.Split(src, "\n")
		}
	}
}

func WithInterval(d time.Duration) ReplayOption {
	return func(m *ReplayModel) {
		if d > 0 {
			m.interval = d
		}
	}
}

// Paused starts the replay without auto-play.
func Paused() ReplayOption {
	return func(m *ReplayModel) { m.playing = false }
}

func NewReplayModel(title string, events []trace.Event, opts ...ReplayOption) *ReplayModel {
	prog := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	prog.Width = 60
	m := &ReplayModel{
		title:    title,
		events:   events,
		playing:  len(events) > 1,
		interval: DefaultReplayInterval,
		prog:     prog,
		width:    80,
		rows:     10,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cursor returns the index of the current event.
func (m *ReplayModel) Cursor() int { return m.cursor }

func (m *ReplayModel) Playing() bool { return m.playing }

func (m *ReplayModel) Interval() time.Duration { return m.interval }

// Current returns the event under the cursor.
func (m *ReplayModel) Current() (trace.Event, bool) {
	if len(m.events) == 0 {
		return trace.Event{}, false
	}
	return m.events[m.cursor], true
}

func (m *ReplayModel) Init() tea.Cmd {
	if m.playing {
		return m.tick()
	}
	return nil
}

func (m *ReplayModel) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return replayTickMsg{gen: gen} })
}

func (m *ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case replayTickMsg:
		if !m.playing || msg.gen != m.gen {
			return m, nil
		}
		m.move(1)
		if m.atEnd() {
			m.playing = false
			return m, nil
		}
		return m, m.tick()
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = max(msg.Width-24, 10)
		}
		if msg.Height > 0 {
			m.rows = max(msg.Height-12, 3)
		}
	}
	return m, nil
}

func (m *ReplayModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case " ", "p":
		if m.playing {
			m.pause()
			return nil
		}
		if m.atEnd() {
			m.cursor = 0
		}
		m.playing = true
		m.gen++
		return m.tick()
	case "right", "l", "n":
		m.pause()
		m.move(1)
	case "left", "h", "b":
		m.pause()
		m.move(-1)
	case "home", "g":
		m.pause()
		m.cursor = 0
	case "end", "G":
		m.pause()
		m.cursor = max(len(m.events)-1, 0)
	case "+", "=":
		m.interval = max(m.interval/2, minReplayInterval)
	case "-", "_":
		m.interval = min(m.interval*2, maxReplayInterval)
	}
	return nil
}

func (m *ReplayModel) pause() {
	if m.playing {
		m.playing = false
		m.gen++
	}
}

func (m *ReplayModel) move(delta int) {
	if len(m.events) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.events)-1)
}

func (m *ReplayModel) atEnd() bool {
	return m.cursor >= len(m.events)-1
}

func (m *ReplayModel) View() string {
	var b strings.Builder
	state := "paused"
	if m.playing {
		state = "playing"
	}
	b.WriteString(replayTitleStyle.Render(m.title))
	if len(m.events) == 0 {
		b.WriteString("\n\n  (empty trace)\n\n")
		b.WriteString(replayDimStyle.Render("q quit"))
		b.WriteString("\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  %d/%d  %s  %s/step\n\n", m.cursor+1, len(m.events), state, m.interval)

	frac := 1.0
	if len(m.events) > 1 {
		frac = float64(m.cursor) / float64(len(m.events)-1)
	}
	b.WriteString("  " + m.prog.ViewAs(frac) + "\n\n")

	start, end := m.window()
	lineWidth := max(m.width-4, 20)
	for i := start; i < end; i++ {
		ev := m.events[i]
		text := runewidth.FillRight(truncate(fmt.Sprintf("[%4d] %s", ev.Step, trace.Describe(ev)), lineWidth), lineWidth)
		switch {
		case i == m.cursor:
			text = replayCurrentStyle.Render(text)
		case ev.Kind == trace.KindError:
			text = replayErrorStyle.Render(text)
		case i > m.cursor:
			text = replayDimStyle.Render(text)
		}
		b.WriteString("  " + text + "\n")
	}

	if src := m.sourceView(m.events[m.cursor], lineWidth); src != "" {
		b.WriteString("\n" + src)
	}
	b.WriteString("\n")
	b.WriteString(replayDimStyle.Render("space play/pause  ←/→ step  home/end jump  +/- speed  q quit"))
	b.WriteString("\n")
	return b.String()
}

// window returns the visible slice of events, keeping the cursor inside.
func (m *ReplayModel) window() (int, int) {
	rows := max(m.rows, 1)
	start := max(m.cursor-rows/2, 0)
	end := min(start+rows, len(m.events))
	start = max(end-rows, 0)
	return start, end
}

func (m *ReplayModel) sourceView(ev trace.Event, width int) string {
	ln := int(ev.Pos.Line)
	if ln <= 0 || ln > len(m.lines) {
		return ""
	}
	line := strings.ReplaceAll(m.lines[ln-1], "\t", "    ")
	head := fmt.Sprintf("  %4d | ", ln)
	out := replaySourceStyle.Render(head) + truncate(line, width-len(head)) + "\n"
	col := int(ev.Pos.Col) - 1
	if col >= 0 && col <= len(m.lines[ln-1]) {
		pad := runewidth.StringWidth(strings.ReplaceAll(m.lines[ln-1][:col], "\t", "    "))
		out += strings.Repeat(" ", len(head)+pad) + replayErrorStyle.Render("^") + "\n"
	}
	return out
}
