package format

import (
	"bytes"
	"errors"
	"fmt"

	"mimble/internal/ast"
	"mimble/internal/diag"
	"mimble/internal/parser"
	"mimble/internal/source"
)

type Options struct {
	IndentWidth  int
	UseTabs      bool
	DropComments bool
}

func (o Options) withDefaults() Options {
	if o.IndentWidth <= 0 {
		o.IndentWidth = 4
	}
	return o
}

type printer struct {
	prog   *ast.Program
	sf     *source.File
	writer *Writer
	opt    Options
}

// FormatProgram prints prog in canonical layout. sf must be the file prog was parsed from.
func FormatProgram(sf *source.File, prog *ast.Program, opt Options) ([]byte, error) {
	if sf == nil {
		return nil, errors.New("format: nil source file")
	}
	if prog == nil || prog.Nodes == nil {
		return nil, errors.New("format: nil program")
	}
	if prog.File != sf.ID {
		return nil, fmt.Errorf("format: program belongs to file %d, not %d", prog.File, sf.ID)
	}

	opt = opt.withDefaults()
	pr := printer{
		prog:   prog,
		sf:     sf,
		writer: NewWriter(sf, opt),
		opt:    opt,
	}
	pr.printStmtList(prog.Stmts, 0, len(sf.Content))
	pr.writer.Newline()
	out := pr.writer.Bytes()
	if len(bytes.TrimSpace(out)) == 0 {
		return []byte{}, nil
	}
	return out, nil
}

// Source parses file id from fs and formats it.
// Parse failures come back as *parser.Error.
func Source(fs *source.FileSet, id source.FileID, opt Options) ([]byte, error) {
	prog, err := parser.Parse(fs, id)
	if err != nil {
		return nil, err
	}
	return FormatProgram(fs.Get(id), prog, opt)
}

// CheckRoundTrip formats the file, re-parses the result and compares the trees.
// A second formatting pass must reproduce the first one byte for byte.
func CheckRoundTrip(sf *source.File, opt Options) (ok bool, msg string) {
	orig, failed := parseOnce(sf)
	if failed {
		return false, "fmt-check: initial parse has errors"
	}

	formatted, err := FormatProgram(sf, orig, opt)
	if err != nil {
		return false, "fmt-check: formatter failed: " + err.Error()
	}

	fs2 := source.NewFileSet()
	rebuilt := fs2.Get(fs2.AddVirtual(sf.Path, formatted))
	again, failed := parseOnce(rebuilt)
	if failed {
		return false, "fmt-check: reparse failed"
	}

	if a, b := shape(orig), shape(again); a != b {
		return false, fmt.Sprintf("fmt-check: tree differs after round-trip:\n%s\nvs\n%s", a, b)
	}

	second, err := FormatProgram(rebuilt, again, opt)
	if err != nil {
		return false, "fmt-check: second pass failed: " + err.Error()
	}
	if !bytes.Equal(formatted, second) {
		return false, "fmt-check: output is not stable"
	}
	return true, "fmt-check: OK"
}

func parseOnce(sf *source.File) (*ast.Program, bool) {
	bag := diag.NewBag(32)
	res := parser.ParseFile(sf, parser.Options{Reporter: &diag.BagReporter{Bag: bag}, MaxErrors: 32})
	return res.Program, bag.HasErrors()
}
