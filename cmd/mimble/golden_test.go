package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestGoldenPrograms runs testdata/programs/*.mb and compares stdout with the
// matching .out file.
func TestGoldenPrograms(t *testing.T) {
	dir, err := filepath.Abs(filepath.Join("..", "..", "testdata", "programs"))
	if err != nil {
		t.Fatal(err)
	}
	programs, err := filepath.Glob(filepath.Join(dir, "*.mb"))
	if err != nil {
		t.Fatal(err)
	}
	if len(programs) == 0 {
		t.Skip("no golden programs")
	}
	for _, path := range programs {
		name := strings.TrimSuffix(filepath.Base(path), ".mb")
		t.Run(name, func(t *testing.T) {
			want, err := os.ReadFile(strings.TrimSuffix(path, ".mb") + ".out")
			if err != nil {
				t.Fatal(err)
			}
			workdir(t, nil)
			out, errOut, err := execute(t, "", "run", path)
			if err != nil {
				t.Fatalf("run failed: %v\n%s", err, errOut)
			}
			if out != string(want) {
				t.Errorf("stdout = %q, want %q", out, want)
			}
		})
	}
}
