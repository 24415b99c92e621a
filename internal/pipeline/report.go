package pipeline

import (
	"strings"
	"time"

	"github.com/dooshek/textgrab/internal/types"
)

// Report describes one finished run, successful or not. Observers must not
// modify the frame.
type Report struct {
	Target    string
	Threshold float64
	Handle    *types.WindowHandle
	Frame     *types.CaptureFrame
	Attempts  []types.CaptureAttempt
	RawCount  int
	Regions   []types.TextRegion
	Err       error
	StartedAt time.Time
	Duration  time.Duration
	Stages    map[string]time.Duration
}

// Observer is told about every run after it finishes
type Observer interface {
	OnRun(report Report)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(report Report)

func (f ObserverFunc) OnRun(report Report) { f(report) }

// Text joins region texts one per line in reading order
func (r Report) Text() string {
	return JoinText(r.Regions)
}

// Strategy is the strategy that produced the frame, if any
func (r Report) Strategy() string {
	if r.Frame == nil {
		return ""
	}
	return r.Frame.Strategy
}

func JoinText(regions []types.TextRegion) string {
	lines := make([]string, len(regions))
	for i, region := range regions {
		lines[i] = region.Text
	}
	return strings.Join(lines, "\n")
}
