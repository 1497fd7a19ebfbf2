package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
)

// Tracer receives event notifications from the evaluator.
type Tracer interface {
	// Notify is called synchronously, in execution order. It must not
	// retain pointers into evaluator state; events carry snapshots.
	Notify(ev Event)
}

var (
	// ErrAbsent is returned when recovering from an empty tracer handle.
	ErrAbsent = errors.New("trace: no tracer")
	// ErrTypeMismatch is wrapped by *MismatchError.
	ErrTypeMismatch = errors.New("trace: tracer type mismatch")
)

// MismatchError reports that a tracer is not of the requested concrete type.
type MismatchError struct {
	Want string
	Got  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("trace: tracer is %s, not %s", e.Got, e.Want)
}

func (e *MismatchError) Unwrap() error { return ErrTypeMismatch }

// As recovers the concrete type of t with a checked assertion.
func As[T Tracer](t Tracer) (T, error) {
	var zero T
	if t == nil {
		return zero, ErrAbsent
	}
	got, ok := t.(T)
	if !ok {
		return zero, &MismatchError{
			Want: reflect.TypeFor[T]().String(),
			Got:  reflect.TypeOf(t).String(),
		}
	}
	return got, nil
}

// Close flushes and closes t if it holds an output. Tracers without
// resources are left alone.
func Close(t Tracer) error {
	if c, ok := t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// StorageMode determines how CLI-built tracers store events.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // immediate write
	ModeRing                          // circular buffer
	ModeBoth                          // stream + ring
)

// String returns the string representation of StorageMode.
func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode converts a string to StorageMode.
func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
	}
}

// Config holds tracer configuration.
type Config struct {
	Level      Level       // tracing level
	Mode       StorageMode // storage mode
	Format     Format      // output format (FormatAuto for auto-detection)
	Output     io.Writer   // for stream mode (if nil, use OutputPath)
	OutputPath string      // alternative: file path ("-" for stderr)
	RingSize   int         // for ring mode (default 4096)
}

// New creates a Tracer based on Config.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}

	if cfg.RingSize <= 0 {
		cfg.RingSize = 4096
	}

	format := cfg.Format
	if format == FormatAuto {
		format = FormatForPath(cfg.OutputPath)
	}

	switch cfg.Mode {
	case ModeStream:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		return NewStreamTracer(w, cfg.Level, format), nil

	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil

	case ModeBoth:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		stream := NewStreamTracer(w, cfg.Level, format)
		ring := NewRingTracer(cfg.RingSize, cfg.Level)
		return NewMultiTracer(stream, ring), nil

	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
}

// openOutput opens the output writer from config.
func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}

	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return keepOpen{os.Stderr}, nil
	}

	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}

	return f, nil
}

// keepOpen hides the Close method of stderr from StreamTracer.Close.
type keepOpen struct{ io.Writer }
