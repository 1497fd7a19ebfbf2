package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mimble/internal/trace"
	"mimble/internal/value"
)

// execute runs the CLI in a fresh temp working directory.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func workdir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readTrace(t *testing.T, path string, format trace.Format) []trace.Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	events, err := trace.Decode(f, format)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return events
}

func hasKind(events []trace.Event, kind trace.Kind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func TestRunSingleFile(t *testing.T) {
	workdir(t, map[string]string{"a.mb": "let x = 2\nx * 21\n"})
	out, _, err := execute(t, "", "run", "a.mb")
	if err != nil {
		t.Fatal(err)
	}
	if out != "42\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestRunStdin(t *testing.T) {
	workdir(t, nil)
	out, _, err := execute(t, "1 + 2", "run", "-")
	if err != nil || out != "3\n" {
		t.Errorf("out=%q err=%v", out, err)
	}
}

func TestRunSeveralFilesKeepsOrder(t *testing.T) {
	workdir(t, map[string]string{
		"a.mb": "1",
		"b.mb": `"hi"`,
		"c.mb": "[1, 2]",
	})
	out, _, err := execute(t, "", "run", "--ui", "off", "-j", "2", "a.mb", "b.mb", "c.mb")
	if err != nil {
		t.Fatal(err)
	}
	want := "a.mb: 1\nb.mb: \"hi\"\nc.mb: [1, 2]\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestRunReportsErrors(t *testing.T) {
	workdir(t, map[string]string{"bad.mb": "let y = x\n", "ok.mb": "7"})
	out, errOut, err := execute(t, "", "run", "--ui", "off", "bad.mb", "ok.mb")
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v, want errReported", err)
	}
	if !strings.Contains(errOut, "bad.mb:1:9") || !strings.Contains(errOut, "EV1001") {
		t.Errorf("stderr:\n%s", errOut)
	}
	if out != "ok.mb: 7\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestRunMissingFile(t *testing.T) {
	workdir(t, nil)
	_, errOut, err := execute(t, "", "run", "nope.mb")
	if !errors.Is(err, errReported) || !strings.Contains(errOut, "error:") {
		t.Errorf("err=%v stderr=%q", err, errOut)
	}
}

func TestRunWritesTrace(t *testing.T) {
	dir := workdir(t, map[string]string{"a.mb": "let x = 1\nx = x + 1\n"})
	_, _, err := execute(t, "", "run", "--trace", "out.json", "--trace-level", "debug", "a.mb")
	if err != nil {
		t.Fatal(err)
	}
	events := readTrace(t, filepath.Join(dir, "out.json"), trace.FormatJSON)
	if len(events) == 0 {
		t.Fatal("no events")
	}
	for i, ev := range events {
		if ev.Step != uint64(i+1) {
			t.Fatalf("event %d has step %d", i, ev.Step)
		}
	}
	if !hasKind(events, trace.KindInit) || !hasKind(events, trace.KindAssign) {
		t.Errorf("missing binding events: %+v", events)
	}
}

func TestRunRingTrace(t *testing.T) {
	dir := workdir(t, map[string]string{"a.mb": "let i = 0\nwhile i < 10 { i = i + 1 }\n"})
	_, _, err := execute(t, "", "run", "--trace", "ring.ndjson", "--trace-mode", "ring", "--trace-ring-size", "4", "a.mb")
	if err != nil {
		t.Fatal(err)
	}
	events := readTrace(t, filepath.Join(dir, "ring.ndjson"), trace.FormatNDJSON)
	if len(events) != 4 {
		t.Fatalf("ring dump has %d events, want 4", len(events))
	}
	if events[0].Step >= events[3].Step {
		t.Errorf("ring dump out of order: %d..%d", events[0].Step, events[3].Step)
	}
}

func TestConfigPrecedence(t *testing.T) {
	src := "let n = len([1, 2])\n"
	toml := "[trace]\noutput = \"cfg.ndjson\"\nlevel = \"binding\"\n"

	t.Run("file over default", func(t *testing.T) {
		dir := workdir(t, map[string]string{"a.mb": src, "mimble.toml": toml})
		if _, _, err := execute(t, "", "run", "a.mb"); err != nil {
			t.Fatal(err)
		}
		events := readTrace(t, filepath.Join(dir, "cfg.ndjson"), trace.FormatNDJSON)
		if !hasKind(events, trace.KindInit) || hasKind(events, trace.KindValue) {
			t.Errorf("binding level from file not applied: %+v", events)
		}
	})
	t.Run("flag over file", func(t *testing.T) {
		dir := workdir(t, map[string]string{"a.mb": src, "mimble.toml": toml})
		if _, _, err := execute(t, "", "run", "--trace-level", "debug", "a.mb"); err != nil {
			t.Fatal(err)
		}
		events := readTrace(t, filepath.Join(dir, "cfg.ndjson"), trace.FormatNDJSON)
		if !hasKind(events, trace.KindValue) {
			t.Errorf("flag level not applied: %+v", events)
		}
	})
	t.Run("explicit config path", func(t *testing.T) {
		dir := workdir(t, map[string]string{"a.mb": src, "other.toml": "[run]\ntimings = true\n"})
		_, errOut, err := execute(t, "", "--config", filepath.Join(dir, "other.toml"), "run", "a.mb")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(errOut, "timings:") {
			t.Errorf("timings from config not applied:\n%s", errOut)
		}
	})
	t.Run("invalid config", func(t *testing.T) {
		workdir(t, map[string]string{"a.mb": src, "mimble.toml": "[trace]\nlevel = \"loud\"\n"})
		if _, _, err := execute(t, "", "run", "a.mb"); err == nil {
			t.Error("invalid mimble.toml must fail")
		}
	})
}

func TestTraceCommand(t *testing.T) {
	src := "let a = [1]\npush(a, 2)\na[0] = 5\n"

	t.Run("msgpack file", func(t *testing.T) {
		dir := workdir(t, map[string]string{"p.mb": src})
		if _, _, err := execute(t, "", "trace", "-o", "t.msgpack", "p.mb"); err != nil {
			t.Fatal(err)
		}
		events := readTrace(t, filepath.Join(dir, "t.msgpack"), trace.FormatMsgpack)
		if len(events) == 0 || !hasKind(events, trace.KindAssign) {
			t.Errorf("events: %+v", events)
		}
	})
	t.Run("text stdout", func(t *testing.T) {
		workdir(t, map[string]string{"p.mb": src})
		out, _, err := execute(t, "", "trace", "p.mb")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "Init") || !strings.Contains(out, "ArraySlot") {
			t.Errorf("stdout:\n%s", out)
		}
	})
	t.Run("level filter", func(t *testing.T) {
		workdir(t, map[string]string{"p.mb": src})
		out, _, err := execute(t, "", "trace", "--format", "ndjson", "--level", "error", "p.mb")
		if err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(out) != "" {
			t.Errorf("error level should drop every event of a clean run:\n%s", out)
		}
	})
	t.Run("failing program still writes", func(t *testing.T) {
		dir := workdir(t, map[string]string{"f.mb": "let x = 1\nx / 0\n"})
		_, errOut, err := execute(t, "", "trace", "-o", "f.ndjson", "f.mb")
		if !errors.Is(err, errReported) || !strings.Contains(errOut, "EV1003") {
			t.Fatalf("err=%v stderr=%s", err, errOut)
		}
		events := readTrace(t, filepath.Join(dir, "f.ndjson"), trace.FormatNDJSON)
		if len(events) == 0 || events[len(events)-1].Kind != trace.KindError {
			t.Errorf("last event should be the error: %+v", events)
		}
	})
}

func TestReplayTextFallback(t *testing.T) {
	workdir(t, map[string]string{"p.mb": "let x = 3\n"})
	if _, _, err := execute(t, "", "trace", "-o", "p.ndjson", "p.mb"); err != nil {
		t.Fatal(err)
	}
	out, _, err := execute(t, "", "replay", "--ui", "off", "p.ndjson")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Init 3 at Variable(x)") {
		t.Errorf("stdout:\n%s", out)
	}

	if _, _, err := execute(t, "", "replay", "--ui", "off", "missing.ndjson"); err == nil {
		t.Error("missing trace file must fail")
	}
}

func TestRepl(t *testing.T) {
	workdir(t, nil)
	in := "let x = 5\nx + 1\nif x > 1 {\n  x = 10\n}\n:globals\nlet x = 1\n:reset\nlet x = 1\n:quit\nx\n"
	out, errOut, err := execute(t, in, "repl", "--no-prompt")
	if err != nil {
		t.Fatal(err)
	}
	want := "5\n6\n10\nx = 10\n1\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
	if !strings.Contains(errOut, "EV1006") {
		t.Errorf("redeclaration should be reported:\n%s", errOut)
	}
}

func TestOpenDepth(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"x + 1", 0},
		{"if x {", 1},
		{"let a = [1, (2", 2},
		{`let s = "{"`, 0},
		{"# {\nx", 0},
		{`"\"{"`, 0},
	}
	for _, tt := range tests {
		if got := openDepth(tt.src); got != tt.want {
			t.Errorf("openDepth(%q) = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	workdir(t, map[string]string{"a.mb": "let x = 1", "bad.mb": "let @ = 1"})
	out, _, err := execute(t, "", "tokenize", "--format", "json", "a.mb")
	if err != nil {
		t.Fatal(err)
	}
	var toks []map[string]any
	if err := json.Unmarshal([]byte(out), &toks); err != nil {
		t.Fatalf("bad json: %v\n%s", err, out)
	}
	if len(toks) != 5 {
		t.Errorf("tokens: %d", len(toks))
	}

	_, errOut, err := execute(t, "", "tokenize", "bad.mb")
	if !errors.Is(err, errReported) || !strings.Contains(errOut, "LEX1001") {
		t.Errorf("err=%v stderr=%s", err, errOut)
	}
}

func TestVersionJSON(t *testing.T) {
	workdir(t, nil)
	out, _, err := execute(t, "", "version", "--format", "json", "--full")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "mimble" || payload.Version == "" || payload.GitCommit == "" {
		t.Errorf("payload: %+v", payload)
	}
}

func TestResolveColor(t *testing.T) {
	tests := []struct {
		mode    string
		tty     bool
		want    bool
		wantErr bool
	}{
		{"auto", true, true, false},
		{"auto", false, false, false},
		{"on", false, true, false},
		{"off", true, false, false},
		{"rainbow", true, false, true},
	}
	for _, tt := range tests {
		got, err := resolveColor(tt.mode, tt.tty)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("resolveColor(%q, %v) = %v, %v", tt.mode, tt.tty, got, err)
		}
	}
}

func TestRunWithTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	_, err := runWithTimeout(context.Background(), 10*time.Millisecond, func() (value.Value, error) {
		<-release
		return value.Nil, nil
	})
	if !isTimeout(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v", err)
	}

	v, err := runWithTimeout(context.Background(), time.Second, func() (value.Value, error) {
		return value.Int(4), nil
	})
	if err != nil || !v.Equal(value.Int(4)) {
		t.Errorf("v=%v err=%v", v, err)
	}
}

func TestRunTracerDetach(t *testing.T) {
	col := trace.NewCollector()
	rt := newRunTracer(col)
	rt.Notify(trace.Event{Kind: trace.KindValue, Step: 1})
	rt.detach()
	rt.Notify(trace.Event{Kind: trace.KindValue, Step: 2})
	if col.Len() != 1 {
		t.Errorf("detached tracer forwarded events: %d", col.Len())
	}
}

func TestTimedOutRunStopsTracing(t *testing.T) {
	dir := workdir(t, map[string]string{
		"loop.mb": "let i = 0\nwhile i < 2000000 { i = i + 1 }\n",
		"ok.mb":   "let done = 1\n",
	})
	_, stderr, err := execute(t, "", "run", "--timeout", "50ms", "--trace", "t.ndjson", "--trace-level", "debug", "loop.mb", "ok.mb")
	if err == nil {
		t.Fatal("expected the timed-out file to fail the run")
	}
	if !strings.Contains(stderr, "timed out") {
		t.Errorf("stderr should mention the timeout: %q", stderr)
	}
	// the abandoned loop is still running; give it time to misbehave
	time.Sleep(50 * time.Millisecond)

	events := readTrace(t, filepath.Join(dir, "t.ndjson"), trace.FormatNDJSON)
	if len(events) == 0 {
		t.Fatal("no events")
	}
	last := events[len(events)-1]
	if last.Kind != trace.KindInit || last.To != value.Variable("done") {
		t.Errorf("events after the second file's trace: last is %s", trace.Describe(last))
	}
}

func TestRunProfiles(t *testing.T) {
	dir := workdir(t, map[string]string{"a.mb": "1"})
	_, _, err := execute(t, "", "run", "--cpuprofile", "cpu.pprof", "--memprofile", "mem.pprof", "a.mb")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"cpu.pprof", "mem.pprof"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestFmtCommand(t *testing.T) {
	t.Run("rewrite", func(t *testing.T) {
		dir := workdir(t, map[string]string{
			"a.mb":  "let x=1;x",
			"ok.mb": "let y = 2\n",
		})
		stdout, _, err := execute(t, "", "fmt", "a.mb", "ok.mb")
		if err != nil {
			t.Fatalf("fmt: %v", err)
		}
		if stdout != "reformatted a.mb\n" {
			t.Fatalf("unexpected stdout %q", stdout)
		}
		got, err := os.ReadFile(filepath.Join(dir, "a.mb"))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "let x = 1\nx\n" {
			t.Fatalf("unexpected file content %q", got)
		}
	})

	t.Run("check", func(t *testing.T) {
		dir := workdir(t, map[string]string{"a.mb": "let x=1"})
		stdout, _, err := execute(t, "", "fmt", "--check", "a.mb")
		if err == nil {
			t.Fatal("expected check failure")
		}
		if stdout != "a.mb\n" {
			t.Fatalf("unexpected stdout %q", stdout)
		}
		got, _ := os.ReadFile(filepath.Join(dir, "a.mb"))
		if string(got) != "let x=1" {
			t.Fatalf("check must not rewrite, got %q", got)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		stdout, _, err := execute(t, "while a{b=1}", "fmt", "--tabs", "-")
		if err != nil {
			t.Fatalf("fmt: %v", err)
		}
		if stdout != "while a {\n\tb = 1\n}\n" {
			t.Fatalf("unexpected stdout %q", stdout)
		}
	})

	t.Run("parse error", func(t *testing.T) {
		workdir(t, map[string]string{"bad.mb": "let = 1"})
		_, stderr, err := execute(t, "", "fmt", "--stdout", "bad.mb")
		if !errors.Is(err, errReported) {
			t.Fatalf("expected errReported, got %v", err)
		}
		if !strings.Contains(stderr, "bad.mb:1:") {
			t.Fatalf("expected diagnostic, got %q", stderr)
		}
	})

	t.Run("json", func(t *testing.T) {
		workdir(t, map[string]string{"a.mb": "x"})
		stdout, _, err := execute(t, "", "fmt", "--check", "--format", "json", "a.mb")
		if err == nil {
			t.Fatal("expected check failure for missing newline")
		}
		if !strings.Contains(stdout, `"path": "a.mb"`) || !strings.Contains(stdout, `"changed": true`) {
			t.Fatalf("unexpected json %q", stdout)
		}
	})
}
