package present

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/dooshek/textgrab/internal/history"
	"github.com/dooshek/textgrab/internal/timing"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func TestMessageIsDistinctPerKind(t *testing.T) {
	kinds := []types.ErrorKind{
		types.KindNotFound,
		types.KindAllStrategiesFailed,
		types.KindRecognitionUnavailable,
		types.KindTimeout,
		types.KindBusy,
	}

	seen := make(map[string]types.ErrorKind)
	for _, k := range kinds {
		msg := Message(types.NewPipelineError(k, "test", nil, ""))
		if msg == "" {
			t.Errorf("%v has no message", k)
		}
		if prev, dup := seen[msg]; dup {
			t.Errorf("%v and %v share the message %q", prev, k, msg)
		}
		seen[msg] = k
	}

	if Message(nil) != "" {
		t.Error("nil error should have no message")
	}
	if got := Message(errors.New("plain")); got != "plain" {
		t.Errorf("plain error message = %q", got)
	}
}

func TestRegionsOutput(t *testing.T) {
	var buf bytes.Buffer
	Regions(&buf, []types.TextRegion{
		{Text: "File", Polygon: types.PolygonFromRect(image.Rect(4, 2, 30, 12)), Confidence: 0.93},
		{Text: "Edit", Polygon: types.PolygonFromRect(image.Rect(40, 2, 70, 12)), Confidence: 0.88},
	})
	out := buf.String()
	if !strings.Contains(out, "1. File (0.93 @ 4,2)") || !strings.Contains(out, "2 regions") {
		t.Errorf("unexpected output:\n%s", out)
	}

	buf.Reset()
	Regions(&buf, nil)
	if !strings.Contains(buf.String(), "No text found") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestRegionsJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := RegionsJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("got %q", buf.String())
	}
}

func TestErrorListsAttempts(t *testing.T) {
	pe := types.NewPipelineError(types.KindAllStrategiesFailed, "capture", nil, "")
	pe.Attempts = []types.CaptureAttempt{
		{Strategy: "handle", Attempt: 1, Degenerate: true, Reason: "degenerate frame"},
		{Strategy: "region", Attempt: 1, Reason: "window is minimized"},
	}

	var buf bytes.Buffer
	Error(&buf, pe)
	out := buf.String()
	for _, want := range []string{"Error: The window could not be captured", "handle#1 failed: degenerate frame", "region#1 failed: window is minimized"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTimingsOrder(t *testing.T) {
	var buf bytes.Buffer
	Timings(&buf, map[string]timing.StageSummary{
		timing.StageTotal:   {Count: 1, TotalMs: 90, AverageMs: 90},
		timing.StageLocate:  {Count: 1, TotalMs: 10, AverageMs: 10},
		timing.StageCapture: {Count: 1, TotalMs: 40, AverageMs: 40},
	})
	out := buf.String()
	locate, capture, total := strings.Index(out, "\nlocate"), strings.Index(out, "\ncapture"), strings.Index(out, "\ntotal")
	if locate < 0 || !(locate < capture && capture < total) {
		t.Errorf("stages out of order:\n%s", out)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("one\ntwo   three", 100); got != "one two three" {
		t.Errorf("Preview = %q", got)
	}
	if got := Preview("abcdef", 3); got != "abc…" {
		t.Errorf("Preview = %q", got)
	}
}

func TestHistory(t *testing.T) {
	var buf bytes.Buffer
	History(&buf, []*history.Run{
		{Target: "firefox", Strategy: "handle", RegionCount: 2, Text: "hello\nworld", DurationMs: 120},
		{Target: "ghost", ErrorKind: "not_found"},
	})
	out := buf.String()

	for _, want := range []string{"firefox", "2 regions", "hello world", "not_found"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	History(&buf, nil)
	if !strings.Contains(buf.String(), "No runs") {
		t.Errorf("empty history output %q", buf.String())
	}
}
