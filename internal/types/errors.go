package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, one per pipeline failure kind. Use errors.Is against these.
var (
	ErrNotFound               = errors.New("no matching window")
	ErrAllStrategiesFailed    = errors.New("all capture strategies failed")
	ErrRecognitionUnavailable = errors.New("text recognition unavailable")
	ErrTimeout                = errors.New("stage timed out")
	ErrBusy                   = errors.New("another capture is in progress")
)

type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindAllStrategiesFailed
	KindRecognitionUnavailable
	KindTimeout
	KindBusy
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAllStrategiesFailed:
		return "all_strategies_failed"
	case KindRecognitionUnavailable:
		return "recognition_unavailable"
	case KindTimeout:
		return "timeout"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindAllStrategiesFailed:
		return ErrAllStrategiesFailed
	case KindRecognitionUnavailable:
		return ErrRecognitionUnavailable
	case KindTimeout:
		return ErrTimeout
	case KindBusy:
		return ErrBusy
	}
	return nil
}

// PipelineError is the only error type a pipeline run returns.
type PipelineError struct {
	Kind     ErrorKind
	Op       string // stage that failed: locate, capture, ocr, ...
	Err      error
	Details  string
	Attempts []CaptureAttempt
}

func (e *PipelineError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.sentinel().Error())
	if e.Details != "" {
		b.WriteString(" (")
		b.WriteString(e.Details)
		b.WriteString(")")
	}
	if e.Err != nil && !errors.Is(e.Err, e.Kind.sentinel()) {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Attempts) > 0 {
		parts := make([]string, len(e.Attempts))
		for i, a := range e.Attempts {
			parts[i] = a.String()
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, "; "))
	}
	return b.String()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *PipelineError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// NewPipelineError builds a PipelineError of the given kind.
func NewPipelineError(kind ErrorKind, op string, err error, details string) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: err, Details: details}
}

// KindOf returns the kind of err, or zero when err is not a PipelineError.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
