package format

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mimble/internal/parser"
	"mimble/internal/source"
)

func formatString(t *testing.T, src string, opt Options) string {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("fmt.mb", []byte(src))
	out, err := Source(fs, id, opt)
	if err != nil {
		t.Fatalf("format %q: %v", src, err)
	}
	return string(out)
}

func TestFormatProgram(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"let", "let   x=1+2*3", "let x = 1 + 2 * 3\n"},
		{"semicolons dropped", "let x = 1; x = x+1;", "let x = 1\nx = x + 1\n"},
		{"groups kept", "let y = ( 1+2 )*3", "let y = (1 + 2) * 3\n"},
		{"literals verbatim", `let s = "a\tb"; let f = 1e3; let n = 1_000`, "let s = \"a\\tb\"\nlet f = 1e3\nlet n = 1_000\n"},
		{"arrays and calls", "let a=[1,2 ,[3]]; push( a,4 ); a[0]=-a[1]", "let a = [1, 2, [3]]\npush(a, 4)\na[0] = -a[1]\n"},
		{"unary", "let b = !true && !!false || - -1 > 0", "let b = !true && !!false || --1 > 0\n"},
		{"nil", "let z = nil", "let z = nil\n"},
		{
			"if chain",
			"if x<1{y=1}else if x<2 {y=2} else {y=3}",
			"if x < 1 {\n    y = 1\n} else if x < 2 {\n    y = 2\n} else {\n    y = 3\n}\n",
		},
		{"while", "while i<3 { i = i+1 }", "while i < 3 {\n    i = i + 1\n}\n"},
		{"empty block", "while false {}", "while false {}\n"},
		{"nested", "{ { let a = 1 } }", "{\n    {\n        let a = 1\n    }\n}\n"},
		{"empty", "  \n\n", ""},
		{"blank lines collapse", "let a = 1\n\n\n\nlet b = 2", "let a = 1\n\nlet b = 2\n"},
		{"separator kept before minus", "x; -1", "x;\n-1\n"},
		{"separator kept before paren", "let a = b; (c)", "let a = b;\n(c)\n"},
		{"no separator after block", "if a {}\n-1", "if a {}\n-1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatString(t, tt.src, Options{})
			if got != tt.want {
				t.Fatalf("mismatch:\nwant %q\ngot  %q", tt.want, got)
			}
		})
	}
}

func TestFormatComments(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"leading and trailing",
			"# header\n\nlet x = 1   # one\n# before y\nlet y = 2\n",
			"# header\n\nlet x = 1 # one\n# before y\nlet y = 2\n",
		},
		{
			"inside block",
			"while x {\n# top\nx = x - 1 # dec\n\n  # tail\n}",
			"while x {\n    # top\n    x = x - 1 # dec\n\n    # tail\n}\n",
		},
		{
			"comment-only block",
			"if a {\n # nothing\n}",
			"if a {\n    # nothing\n}\n",
		},
		{
			"hash in string is not a comment",
			`let s  =  "#x"`,
			"let s = \"#x\"\n",
		},
		{
			"comment inside expression copies statement",
			"let a = [1, # first\n  2]",
			"let a = [1, # first\n  2]\n",
		},
		{
			"comment before else copies chain",
			"if a { b }\n# why\nelse { c }",
			"if a { b }\n# why\nelse { c }\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatString(t, tt.src, Options{})
			if got != tt.want {
				t.Fatalf("mismatch:\nwant %q\ngot  %q", tt.want, got)
			}
		})
	}
}

func TestFormatOptions(t *testing.T) {
	src := "# c\nwhile a { b = 1 }"
	if got, want := formatString(t, src, Options{UseTabs: true}), "# c\nwhile a {\n\tb = 1\n}\n"; got != want {
		t.Fatalf("tabs: want %q, got %q", want, got)
	}
	if got, want := formatString(t, src, Options{IndentWidth: 2, DropComments: true}), "while a {\n  b = 1\n}\n"; got != want {
		t.Fatalf("indent 2: want %q, got %q", want, got)
	}
}

func TestSourceParseError(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("bad.mb", []byte("let = 1"))
	_, err := Source(fs, id, Options{})
	var perr *parser.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *parser.Error, got %v", err)
	}
}

func TestFormatProgramRejectsForeignFile(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.AddVirtual("a.mb", []byte("1"))
	b := fs.AddVirtual("b.mb", []byte("2"))
	prog, err := parser.Parse(fs, a)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := FormatProgram(fs.Get(b), prog, Options{}); err == nil {
		t.Fatal("expected error for mismatched file")
	}
	if _, err := FormatProgram(nil, prog, Options{}); err == nil {
		t.Fatal("expected error for nil file")
	}
}

func TestCheckRoundTrip(t *testing.T) {
	srcs := []string{
		"let x = 1; x = x + 1; x",
		"# c\nif a { b } else if c { d } else { e } # t",
		"let a = [1, [2, 3]]; a[1][0] = (a[0] + 2) * -3",
		"let i = 0\nwhile i < 10 && !done { i = i + 1; -i }",
	}
	for _, src := range srcs {
		fs := source.NewFileSet()
		sf := fs.Get(fs.AddVirtual("rt.mb", []byte(src)))
		if ok, msg := CheckRoundTrip(sf, Options{}); !ok {
			t.Errorf("%q: %s", src, msg)
		}
	}
}

func TestCheckRoundTripPrograms(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "testdata", "programs", "*.mb"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no sample programs")
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		fs := source.NewFileSet()
		sf := fs.Get(fs.AddVirtual(filepath.Base(path), content))
		if ok, msg := CheckRoundTrip(sf, Options{}); !ok {
			t.Errorf("%s: %s", path, msg)
		}
	}
}

func TestCheckRoundTripParseError(t *testing.T) {
	fs := source.NewFileSet()
	sf := fs.Get(fs.AddVirtual("bad.mb", []byte("let = ")))
	if ok, _ := CheckRoundTrip(sf, Options{}); ok {
		t.Fatal("expected failure")
	}
}
