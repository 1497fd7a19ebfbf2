package trace

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/vmihailenco/msgpack/v5"

	"mimble/internal/value"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto    Format = iota // pick by output path
	FormatText                  // human-readable text
	FormatNDJSON                // newline-delimited JSON
	FormatJSON                  // one JSON array
	FormatMsgpack               // back-to-back msgpack records
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatNDJSON:
		return "ndjson"
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "json":
		return FormatJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson|json|msgpack)", s)
	}
}

// FormatForPath auto-detects the format from a file extension.
// Stderr and unknown extensions get text.
func FormatForPath(path string) Format {
	if path == "" || path == "-" {
		return FormatText
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".json":
		return FormatJSON
	case ".msgpack", ".mp":
		return FormatMsgpack
	default:
		return FormatText
	}
}

// FormatEvent formats a single event according to the specified format.
// JSON output has no trailing separator; the caller frames the array.
func FormatEvent(ev Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		data, _ := json.Marshal(toWire(ev))
		return append(data, '\n')
	case FormatJSON:
		data, _ := json.Marshal(toWire(ev))
		return data
	case FormatMsgpack:
		data, _ := msgpack.Marshal(toWire(ev))
		return data
	default:
		return formatText(ev)
	}
}

const (
	posWidth      = 8
	maxValueWidth = 60
)

// formatText formats an event as human-readable text.
// Format: [step] line:col  Kind details
func formatText(ev Event) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%4d] ", ev.Step)
	pos := ""
	if !ev.Pos.IsZero() {
		pos = fmt.Sprintf("%d:%d", ev.Pos.Line, ev.Pos.Col)
	}
	sb.WriteString(runewidth.FillRight(pos, posWidth))
	sb.WriteString(Describe(ev))
	sb.WriteString("\n")
	return []byte(sb.String())
}

// Describe renders the payload of an event in one line, e.g.
// "Assign 6 from Expression to Variable(x)".
func Describe(ev Event) string {
	switch ev.Kind {
	case KindInit:
		return fmt.Sprintf("Init %s at %s", short(ev.Value.Value), ev.To)
	case KindAssign:
		return fmt.Sprintf("Assign %s from %s to %s", short(ev.Value.Value), ev.From, ev.To)
	case KindCompare:
		return fmt.Sprintf("Compare %s and %s: %t", short(ev.Left.Value), short(ev.Right.Value), ev.Result)
	case KindValue:
		return fmt.Sprintf("Value %s = %s", ev.Label, short(ev.Value.Value))
	case KindError:
		return "Error " + ev.Label
	default:
		return "Unknown"
	}
}

func short(v value.Value) string {
	return runewidth.Truncate(v.String(), maxValueWidth, "…")
}
