package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB - ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

var inlineSeeds = []string{
	"",
	"1 + 2",
	"let x = 1\nx = x * 2\nx",
	"let a = [1, 2, 3]\na[1] = len(a)\npop(a)",
	`let s = "héllo"; upper(s) + str(1.5)`,
	"if 1 < 2 && !false { 1 } else if nil == nil { 2 } else { 3 }",
	"let a = []\npush(a, [1])\na[0][0]",
	"9223372036854775807 + 1",
	"1 / 0",
	"let x = (1",
	"x = ]",
	"let = = =",
	"\"unterminated",
	"{ { { } } }",
	"int(\"12\") % 5 - float(\"2.5\")",
	"type([1.0, 2])",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every *.mb program under testdata/.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".mb" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
