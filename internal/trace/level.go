package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity of stream and ring tracers.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff     Level = iota // no tracing
	LevelError                // evaluation errors only
	LevelBinding              // + Init/Assign
	LevelStep                 // + Compare
	LevelDebug                // everything including produced values
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelBinding:
		return "binding"
	case LevelStep:
		return "step"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "binding":
		return LevelBinding, nil
	case "step":
		return LevelStep, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|binding|step|debug)", s)
	}
}

// ShouldEmit returns true if events of the given kind pass this level.
func (l Level) ShouldEmit(kind Kind) bool {
	switch kind {
	case KindError:
		return l >= LevelError
	case KindInit, KindAssign:
		return l >= LevelBinding
	case KindCompare:
		return l >= LevelStep
	case KindValue:
		return l >= LevelDebug
	}
	return false
}
