package clipboard

import (
	"errors"
	"testing"

	"github.com/dooshek/textgrab/internal/pipeline"
	"github.com/dooshek/textgrab/internal/types"
)

func stub(t *testing.T, robot, fallback func(string) error) {
	t.Helper()
	origWrite, origXclip := writeAll, xclip
	writeAll, xclip = robot, fallback
	t.Cleanup(func() { writeAll, xclip = origWrite, origXclip })
}

func TestCopyFallsBackToXclip(t *testing.T) {
	var viaXclip string
	stub(t,
		func(string) error { return errors.New("no display") },
		func(s string) error { viaXclip = s; return nil },
	)

	if err := CopyToClipboard("grabbed"); err != nil {
		t.Fatal(err)
	}
	if viaXclip != "grabbed" {
		t.Errorf("xclip got %q", viaXclip)
	}
}

func TestObserverCopiesOnlySuccessfulText(t *testing.T) {
	var copied []string
	stub(t,
		func(s string) error { copied = append(copied, s); return nil },
		func(string) error { t.Error("fallback should not run"); return nil },
	)

	var o Observer
	o.OnRun(pipeline.Report{Regions: []types.TextRegion{{Text: "a"}, {Text: "b"}}})
	o.OnRun(pipeline.Report{Regions: []types.TextRegion{}})
	o.OnRun(pipeline.Report{Err: errors.New("failed"), Regions: []types.TextRegion{{Text: "stale"}}})

	if len(copied) != 1 || copied[0] != "a\nb" {
		t.Errorf("copied = %q", copied)
	}
}
