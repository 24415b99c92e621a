package dbus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dooshek/textgrab/internal/pipeline"
	"github.com/dooshek/textgrab/internal/state"
	"github.com/dooshek/textgrab/internal/timing"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/godbus/dbus/v5"
)

type fakeRunner struct {
	regions []types.TextRegion
	err     error
	targets []string
	busy    bool
}

func (f *fakeRunner) Run(_ context.Context, target string, _ float64) ([]types.TextRegion, error) {
	f.targets = append(f.targets, target)
	return f.regions, f.err
}

func (f *fakeRunner) Busy() bool { return f.busy }

type signal struct {
	name string
	args []interface{}
}

type fakeEmitter struct {
	mu      sync.Mutex
	signals []signal
}

func (f *fakeEmitter) Emit(path dbus.ObjectPath, name string, values ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path != dbusObjectPath {
		return errors.New("unexpected path")
	}
	f.signals = append(f.signals, signal{name, values})
	return nil
}

func newTestServer(runner Runner, recorder *timing.Recorder) (*Server, *fakeEmitter) {
	s := NewServer(runner, recorder)
	em := &fakeEmitter{}
	s.emitter = em
	return s, em
}

func init() {
	state.Init(&types.Config{DefaultTarget: "editor"})
}

func TestCaptureReturnsRegionsJSON(t *testing.T) {
	runner := &fakeRunner{regions: []types.TextRegion{{Text: "hello", Confidence: 0.9}}}
	s, em := newTestServer(runner, nil)

	out, dErr := s.Capture("firefox", -1)
	if dErr != nil {
		t.Fatal(dErr)
	}

	var got []types.TextRegion
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(got) != 1 || got[0].Text != "hello" {
		t.Errorf("regions = %+v", got)
	}
	if len(em.signals) != 1 || em.signals[0].name != dbusInterface+".CaptureStarted" || em.signals[0].args[0] != "firefox" {
		t.Errorf("signals = %+v", em.signals)
	}
}

func TestCaptureEmptyResultIsArray(t *testing.T) {
	s, _ := newTestServer(&fakeRunner{}, nil)

	out, dErr := s.Capture("firefox", 0.5)
	if dErr != nil {
		t.Fatal(dErr)
	}
	if out != "[]" {
		t.Errorf("out = %q, want []", out)
	}
}

func TestCaptureUsesDefaultTarget(t *testing.T) {
	runner := &fakeRunner{}
	s, _ := newTestServer(runner, nil)

	if _, dErr := s.Capture("", -1); dErr != nil {
		t.Fatal(dErr)
	}
	if len(runner.targets) != 1 || runner.targets[0] != "editor" {
		t.Errorf("targets = %q", runner.targets)
	}
}

func TestCaptureReturnsError(t *testing.T) {
	runner := &fakeRunner{err: types.NewPipelineError(types.KindNotFound, "locate", errors.New("none"), "ghost")}
	s, _ := newTestServer(runner, nil)

	if _, dErr := s.Capture("ghost", -1); dErr == nil {
		t.Error("expected D-Bus error")
	}
}

func TestOnRunSignals(t *testing.T) {
	s, em := newTestServer(&fakeRunner{}, nil)

	s.OnRun(pipeline.Report{Regions: []types.TextRegion{{Text: "a"}, {Text: "b"}}})
	s.OnRun(pipeline.Report{Err: types.NewPipelineError(types.KindTimeout, "capture", errors.New("slow"), "")})

	if len(em.signals) != 2 {
		t.Fatalf("signals = %+v", em.signals)
	}
	if em.signals[0].name != dbusInterface+".TextReady" || em.signals[0].args[0] != "a\nb" {
		t.Errorf("text ready = %+v", em.signals[0])
	}
	if em.signals[1].name != dbusInterface+".CaptureError" || em.signals[1].args[0] != types.KindTimeout.String() {
		t.Errorf("error = %+v", em.signals[1])
	}
}

func TestStatusAndTimings(t *testing.T) {
	rec := timing.NewRecorder()
	rec.Record("ocr", 12)
	s, _ := newTestServer(&fakeRunner{busy: true}, rec)

	busy, _ := s.GetStatus()
	if !busy {
		t.Error("GetStatus should report busy")
	}

	out, dErr := s.GetTimings()
	if dErr != nil {
		t.Fatal(dErr)
	}
	var summary map[string]timing.StageSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if summary["ocr"].Count != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestNoConnectionDoesNotPanic(t *testing.T) {
	s := NewServer(&fakeRunner{}, nil)
	s.OnRun(pipeline.Report{})
}
