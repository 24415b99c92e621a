package autocapture

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dooshek/textgrab/internal/types"
)

type fakeRunner struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	release  chan struct{}
	err      error

	explicitThreshold atomic.Bool
}

func (f *fakeRunner) Run(ctx context.Context, target string, threshold float64) ([]types.TextRegion, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if threshold >= 0 {
		f.explicitThreshold.Store(true)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
		}
	}
	return nil, f.err
}

func TestNewServiceValidates(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.AutoCaptureConfig
	}{
		{"no target", types.AutoCaptureConfig{Interval: time.Second}},
		{"no interval", types.AutoCaptureConfig{Target: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(&fakeRunner{}, tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunsOnInterval(t *testing.T) {
	runner := &fakeRunner{}
	s, err := NewService(runner, types.AutoCaptureConfig{Target: "editor", Interval: 5 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.Start(ctx); err != context.DeadlineExceeded {
		t.Errorf("Start returned %v", err)
	}
	if runner.calls.Load() < 2 {
		t.Errorf("calls = %d, want at least 2", runner.calls.Load())
	}
	if s.IsRunning() {
		t.Error("service still running after Start returned")
	}
	if runner.explicitThreshold.Load() {
		t.Error("auto capture should use the configured threshold")
	}
}

func TestSlowRunDropsTicks(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	s, err := NewService(runner, types.AutoCaptureConfig{Target: "editor", Interval: 2 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	close(runner.release)
	s.Stop()
	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}

	if runner.maxSeen.Load() != 1 {
		t.Errorf("max concurrent runs = %d, want 1", runner.maxSeen.Load())
	}
}

func TestBusyIsNotFatal(t *testing.T) {
	runner := &fakeRunner{err: types.NewPipelineError(types.KindBusy, "run", nil, "")}
	s, err := NewService(runner, types.AutoCaptureConfig{Target: "editor", Interval: 5 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	if err := s.Start(ctx); err != context.DeadlineExceeded {
		t.Errorf("Start returned %v", err)
	}
	if runner.calls.Load() < 2 {
		t.Error("service should keep ticking after a busy pipeline")
	}
}

func TestStartTwice(t *testing.T) {
	s, err := NewService(&fakeRunner{}, types.AutoCaptureConfig{Target: "editor", Interval: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	go s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(time.Second)
	for !s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
}
