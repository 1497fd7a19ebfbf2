package eval_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"mimble/internal/ast"
	"mimble/internal/eval"
	"mimble/internal/parser"
	"mimble/internal/source"
	"mimble/internal/trace"
	"mimble/internal/value"
)

type harness struct {
	files *source.FileSet
	ev    *eval.Evaluator
}

func newHarness(opts eval.Options) *harness {
	if opts.Files == nil {
		opts.Files = source.NewFileSet()
	}
	return &harness{files: opts.Files, ev: eval.New(opts)}
}

func (h *harness) parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	id := h.files.AddVirtual("test.mb", []byte(src))
	prog, err := parser.Parse(h.files, id)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return prog
}

func (h *harness) run(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	return h.ev.Exec(h.parse(t, src))
}

func TestExecResults(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty program", "", "nil"},
		{"addition", "1 + 2", "3"},
		{"int division truncates", "7 / 2", "3"},
		{"negative division truncates toward zero", "-7 / 2", "-3"},
		{"modulo", "7 % 3", "1"},
		{"float division", "7.0 / 2", "3.5"},
		{"mixed arithmetic", "1 + 2.5", "3.5"},
		{"float modulo", "7.5 % 2", "1.5"},
		{"string concat", `"ab" + "cd"`, `"abcd"`},
		{"let yields value", "let x = 5", "5"},
		{"assign yields value", "let x = 5\nx = x * 2", "10"},
		{"if taken branch", "if 1 < 2 { 10 } else { 20 }", "10"},
		{"else branch", "if 1 > 2 { 10 } else { 20 }", "20"},
		{"else if", "let n = 0\nif n > 0 { 1 } else if n == 0 { 0 } else { -1 }", "0"},
		{"if not taken", "if false { 1 }", "nil"},
		{"while loop", "let i = 0\nwhile i < 5 { i = i + 1 }\ni", "5"},
		{"while yields nil", "let i = 0\nwhile i < 2 { i = i + 1 }", "nil"},
		{"push and len", "let xs = [1, 2]\npush(xs, 3)\nlen(xs)", "3"},
		{"push returns array", "push([1], 2)", "[1, 2]"},
		{"pop", "let xs = [1, 2, 3]\npop(xs)", "3"},
		{"arrays alias", "let ys = [1]\nlet zs = ys\npush(zs, 2)\nys", "[1, 2]"},
		{"nested empty array", "let g = [[1], []]\ng[1]", "[]"},
		{"index assignment", "let a = [1, 2]\na[0] = 9\na", "[9, 2]"},
		{"nested index assignment", "let g = [[1, 2], [3]]\ng[0][1] = 7\ng", "[[1, 7], [3]]"},
		{"string index", `"héllo"[1]`, `"é"`},
		{"upper", `upper("héllo")`, `"HÉLLO"`},
		{"lower", `lower("ÀB")`, `"àb"`},
		{"type of array", "type([1])", `"Array<Integer>"`},
		{"type of float", "type(1.5)", `"Float"`},
		{"str", `str(12) + "!"`, `"12!"`},
		{"int conversions", `int("42") + int(3.9) + int(true)`, "46"},
		{"float conversion", "float(1)", "1.0"},
		{"abs", "abs(-3) + abs(2)", "5"},
		{"abs float", "abs(-2.5)", "2.5"},
		{"numeric equality mixes", "1 == 1.0", "true"},
		{"array equality", "[1, 2] == [1, 2]", "true"},
		{"string ordering", `"a" < "b"`, "true"},
		{"not equal", "nil != 0", "true"},
		{"short circuit or", "true || undefined", "true"},
		{"short circuit and", "false && undefined", "false"},
		{"logical", "!(1 > 2) && 2 >= 2", "true"},
		{"shadowing in block", "let x = 1\n{ let x = 2\nx = 3 }\nx", "1"},
		{"assignment reaches outer scope", "let x = 1\n{ x = 2 }\nx", "2"},
		{"builtin as value", "len", "<builtin len>"},
		{"semicolons", "let a = 1; let b = 2; a + b", "3"},
		{"comments", "# comment\nlet a = 1 # trailing\na", "1"},
		{"unary minus", "-(2 * 3)", "-6"},
		{"nil in array", "[nil, 1]", "[nil, 1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(eval.Options{})
			got, err := h.run(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExecErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code eval.Code
	}{
		{"undefined variable", "x", eval.CodeUndefined},
		{"assign undeclared", "y = 1", eval.CodeUndefined},
		{"redeclared", "let x = 1\nlet x = 2", eval.CodeRedeclared},
		{"div by zero", "1 / 0", eval.CodeDivByZero},
		{"mod by zero", "1 % 0", eval.CodeDivByZero},
		{"float div by zero", "1.0 / 0", eval.CodeDivByZero},
		{"add overflow", "9223372036854775807 + 1", eval.CodeOverflow},
		{"sub overflow", "-9223372036854775807 - 2", eval.CodeOverflow},
		{"mul overflow", "4611686018427387904 * 2", eval.CodeOverflow},
		{"float overflow", "1e308 * 10.0", eval.CodeOverflow},
		{"index out of range", "[1, 2][2]", eval.CodeOutOfBounds},
		{"negative index", "[1][-1]", eval.CodeOutOfBounds},
		{"pop empty", "pop([])", eval.CodeOutOfBounds},
		{"add string and int", `1 + "a"`, eval.CodeTypeMismatch},
		{"non bool condition", "if 1 { 2 }", eval.CodeTypeMismatch},
		{"non bool while", "while 1 { 2 }", eval.CodeTypeMismatch},
		{"heterogeneous array", `[1, "a"]`, eval.CodeTypeMismatch},
		{"push wrong type", `push([1], "a")`, eval.CodeTypeMismatch},
		{"store wrong type", "let a = [1]\na[0] = \"s\"", eval.CodeTypeMismatch},
		{"push array into itself", "let a = []\npush(a, a)", eval.CodeTypeMismatch},
		{"push array into its element", "let a = [[]]\npush(a[0], a)", eval.CodeTypeMismatch},
		{"store array inside itself", "let a = [[]]\na[0] = a", eval.CodeTypeMismatch},
		{"store array into nested slot", "let a = [[[]]]\nlet b = a[0]\nb[0] = a", eval.CodeTypeMismatch},
		{"not on int", "!1", eval.CodeTypeMismatch},
		{"compare string and int", `1 < "a"`, eval.CodeTypeMismatch},
		{"logical on int", "1 && true", eval.CodeTypeMismatch},
		{"index non-int", `[1]["a"]`, eval.CodeTypeMismatch},
		{"index int", "5[0]", eval.CodeTypeMismatch},
		{"call non-function", "5(1)", eval.CodeBadCall},
		{"wrong arity", "len(1, 2)", eval.CodeBadCall},
		{"len of int", "len(1)", eval.CodeTypeMismatch},
		{"bad int conversion", `int("abc")`, eval.CodeConversion},
		{"bad float conversion", `float("inf")`, eval.CodeConversion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(eval.Options{})
			_, err := h.run(t, tt.src)
			var evErr *eval.Error
			if !errors.As(err, &evErr) {
				t.Fatalf("want *eval.Error, got %v", err)
			}
			if evErr.Code != tt.code {
				t.Errorf("got %s (%s), want %s", evErr.Code, evErr.Message, tt.code)
			}
		})
	}
}

func TestErrorPosition(t *testing.T) {
	h := newHarness(eval.Options{})
	_, err := h.run(t, "let a = 1\nlet b = a + missing")
	var evErr *eval.Error
	if !errors.As(err, &evErr) {
		t.Fatalf("want *eval.Error, got %v", err)
	}
	if evErr.Pos.Line != 2 || evErr.Pos.Col != 13 {
		t.Errorf("got %d:%d, want 2:13", evErr.Pos.Line, evErr.Pos.Col)
	}
	if !strings.HasPrefix(evErr.Error(), "test.mb:2:13: error EV1001") {
		t.Errorf("message: %s", evErr.Error())
	}
	pretty := evErr.FormatWithFiles(h.files)
	if !strings.Contains(pretty, "let b = a + missing") || !strings.Contains(pretty, "            ^") {
		t.Errorf("pretty output:\n%s", pretty)
	}
}

func TestGlobalsPersistAcrossRuns(t *testing.T) {
	h := newHarness(eval.Options{})
	if _, err := h.run(t, "let counter = 1"); err != nil {
		t.Fatal(err)
	}
	got, err := h.run(t, "counter = counter + 1\ncounter")
	if err != nil {
		t.Fatal(err)
	}
	if got.Int != 2 {
		t.Errorf("got %s, want 2", got)
	}
	if names := h.ev.Globals(); len(names) != 1 || names[0] != "counter" {
		t.Errorf("globals: %v", names)
	}

	// bindings made before a failure stay
	if _, err := h.run(t, "let kept = 1\nboom"); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := h.ev.Lookup("kept"); !ok {
		t.Errorf("binding before failure should persist")
	}

	h.ev.Reset()
	if _, err := h.run(t, "counter"); err == nil {
		t.Errorf("Reset should drop bindings")
	}
}

func TestBlockScopeRestoredAfterError(t *testing.T) {
	h := newHarness(eval.Options{})
	if _, err := h.run(t, "{ let inner = 1\nfail }"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := h.run(t, "inner"); err == nil {
		t.Errorf("block binding leaked into globals")
	}
}

func TestTracingDoesNotChangeResults(t *testing.T) {
	programs := []string{
		"let x = 5\nx = x + 1\nx",
		"let xs = [3, 1, 2]\nlet i = 0\nwhile i < len(xs) { xs[i] = xs[i] * 2\ni = i + 1 }\nxs",
		"let s = \"a\"\nif s == \"a\" && true { upper(s) } else { s }",
		"let xs = []\npush(xs, 1)\npush(xs, 2)\npop(xs) + pop(xs)",
		"1 / 0",
		"undefined_name",
		"let a = []\npush(a, a)\nlen(a)",
		"let a = [[1]]\npush(a, a[0])\na[0] == a[1]",
	}
	for _, src := range programs {
		plain := newHarness(eval.Options{})
		wantV, wantErr := plain.run(t, src)

		traced := newHarness(eval.Options{})
		col := trace.NewCollector()
		traced.ev.SetTracer(col)
		gotV, gotErr := traced.run(t, src)

		if (wantErr == nil) != (gotErr == nil) || (wantErr != nil && wantErr.Error() != gotErr.Error()) {
			t.Errorf("%q: errors differ: %v vs %v", src, wantErr, gotErr)
		}
		if !wantV.Equal(gotV) {
			t.Errorf("%q: results differ: %s vs %s", src, wantV, gotV)
		}
		if col.Len() == 0 {
			t.Errorf("%q: expected events", src)
		}
		if plain.ev.Steps() != 0 {
			t.Errorf("%q: untraced run should not count steps", src)
		}
	}
}

func TestSelfContainingArrayRejected(t *testing.T) {
	h := newHarness(eval.Options{})
	col := trace.NewCollector()
	h.ev.SetTracer(col)
	_, err := h.run(t, "let a = [[]]\npush(a[0], a)")
	var evErr *eval.Error
	if !errors.As(err, &evErr) || evErr.Code != eval.CodeTypeMismatch {
		t.Fatalf("want type mismatch, got %v", err)
	}
	a, ok := h.ev.Lookup("a")
	if !ok {
		t.Fatal("a should still be bound")
	}
	if got := a.String(); got != "[[]]" {
		t.Errorf("array changed by rejected push: %s", got)
	}
	events := col.Events()
	if events[len(events)-1].Kind != trace.KindError {
		t.Errorf("last event should be Error, got %s", events[len(events)-1].Kind)
	}
}

func TestEvents(t *testing.T) {
	h := newHarness(eval.Options{})
	col := trace.NewCollector()
	h.ev.SetTracer(col)

	_, err := h.run(t, "let x = 5\nlet y = x\nx = y + 1\nx < 10")
	if err != nil {
		t.Fatal(err)
	}
	events := col.Events()

	want := []struct {
		kind  trace.Kind
		descr string
	}{
		{trace.KindInit, "Init 5 at Variable(x)"},
		{trace.KindInit, "Init 5 at Variable(y)"},
		{trace.KindValue, "Value + = 6"},
		{trace.KindAssign, "Assign 6 from Expression to Variable(x)"},
		{trace.KindCompare, "Compare 6 and 10: true"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, w := range want {
		ev := events[i]
		if ev.Kind != w.kind || trace.Describe(ev) != w.descr {
			t.Errorf("event %d: got %s %q, want %s %q", i, ev.Kind, trace.Describe(ev), w.kind, w.descr)
		}
		if ev.Step != uint64(i+1) {
			t.Errorf("event %d: step %d", i, ev.Step)
		}
	}

	if events[0].Value.Source != value.LiteralSource {
		t.Errorf("literal init should have Literal source, got %s", events[0].Value.Source)
	}
	if events[1].Value.Source != value.Variable("x") {
		t.Errorf("copy from x should carry Variable(x), got %s", events[1].Value.Source)
	}
	if events[4].Left.Source != value.Variable("x") || events[4].Right.Source != value.LiteralSource {
		t.Errorf("compare sources: %s / %s", events[4].Left.Source, events[4].Right.Source)
	}
	if events[3].Pos.Line != 3 || events[3].Pos.Col != 1 {
		t.Errorf("assign position: %d:%d", events[3].Pos.Line, events[3].Pos.Col)
	}
}

func TestArrayEvents(t *testing.T) {
	h := newHarness(eval.Options{})
	col := trace.NewCollector()
	h.ev.SetTracer(col)

	_, err := h.run(t, "let xs = [1]\nxs[0] = 2\npush(xs, 3)\npop(xs)")
	if err != nil {
		t.Fatal(err)
	}
	events := col.Events()

	var assigns []trace.Event
	for _, ev := range events {
		if ev.Kind == trace.KindAssign {
			assigns = append(assigns, ev)
		}
	}
	if len(assigns) != 3 {
		t.Fatalf("want 3 assigns (index, push, pop), got %d", len(assigns))
	}
	id := events[0].Value.Value.Arr.ID
	if assigns[0].To != value.ArraySlot(id, 0) {
		t.Errorf("index assign target: %s", assigns[0].To)
	}
	if assigns[1].To != value.ArraySlot(id, 1) || assigns[1].Value.Value.Int != 3 {
		t.Errorf("push target: %s", trace.Describe(assigns[1]))
	}
	if assigns[2].From != value.ArraySlot(id, 1) || assigns[2].To != value.NoSource {
		t.Errorf("pop: %s", trace.Describe(assigns[2]))
	}

	// the Init snapshot must not see later mutations
	if got := events[0].Value.Value.String(); got != "[1]" {
		t.Errorf("init snapshot changed to %s", got)
	}
}

func TestErrorEventIsLast(t *testing.T) {
	h := newHarness(eval.Options{})
	col := trace.NewCollector()
	h.ev.SetTracer(col)

	_, err := h.run(t, "let a = 1\nlet b = a / 0\nlet c = 3")
	if err == nil {
		t.Fatal("expected error")
	}
	events := col.Events()
	if len(events) != 2 {
		t.Fatalf("want Init + Error, got %d events", len(events))
	}
	last := events[len(events)-1]
	if last.Kind != trace.KindError || last.Label != "division by zero" {
		t.Errorf("last event: %+v", last)
	}
}

func TestStepsResetPerRun(t *testing.T) {
	h := newHarness(eval.Options{})
	col := trace.NewCollector()
	h.ev.SetTracer(col)

	if _, err := h.run(t, "let a = 1\nlet b = 2"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.run(t, "let c = 3"); err != nil {
		t.Fatal(err)
	}
	events := col.Events()
	if len(events) != 3 || events[2].Step != 1 {
		t.Errorf("second run should restart at step 1: %+v", events)
	}
}

type panickyTracer struct{ calls int }

func (p *panickyTracer) Notify(trace.Event) {
	p.calls++
	panic("observer bug")
}

func TestTracerPanicIsContained(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	h := newHarness(eval.Options{Logger: logger})
	p := &panickyTracer{}
	h.ev.SetTracer(p)

	got, err := h.run(t, "let x = 2\nx * 21")
	if err != nil {
		t.Fatalf("tracer panic leaked into the run: %v", err)
	}
	if got.Int != 42 {
		t.Errorf("got %s", got)
	}
	if p.calls != 2 {
		t.Errorf("tracer should keep being notified, calls=%d", p.calls)
	}
	if !strings.Contains(logs.String(), "tracer panicked") {
		t.Errorf("panic should be logged at warn:\n%s", logs.String())
	}
}

func TestRunFinishedLogging(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, `result="[1, 2]"`},
		{slog.LevelInfo, ""},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: tt.level}))
			h := newHarness(eval.Options{Logger: logger})
			if _, err := h.run(t, "[1, 2]"); err != nil {
				t.Fatal(err)
			}
			if tt.want == "" {
				if logs.Len() != 0 {
					t.Errorf("nothing should be logged above debug:\n%s", logs.String())
				}
				return
			}
			if !strings.Contains(logs.String(), tt.want) {
				t.Errorf("missing %s in:\n%s", tt.want, logs.String())
			}
		})
	}
}

func TestSetTracerNopDetaches(t *testing.T) {
	h := newHarness(eval.Options{})
	h.ev.SetTracer(trace.Nop)
	if _, err := h.run(t, "1 + 1"); err != nil {
		t.Fatal(err)
	}
	if h.ev.Steps() != 0 {
		t.Errorf("Nop tracer should not produce steps")
	}
}

func TestBuiltins(t *testing.T) {
	names := eval.Builtins()
	want := []string{"abs", "float", "int", "len", "lower", "pop", "push", "str", "type", "upper"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("builtins: %v", names)
	}
}
