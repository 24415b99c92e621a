package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dooshek/textgrab/internal/types"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

var (
	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// scripted returns the queued results in order and repeats the last one
type scripted struct {
	name    string
	results []func(ctx context.Context) (*image.RGBA, error)
	calls   int32
}

func (s *scripted) Name() string { return s.name }

func (s *scripted) Capture(ctx context.Context, h *types.WindowHandle) (*types.CaptureFrame, error) {
	i := int(atomic.AddInt32(&s.calls, 1)) - 1
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	img, err := s.results[i](ctx)
	if err != nil {
		return nil, err
	}
	return types.NewCaptureFrame(img, s.name), nil
}

func frameOf(img *image.RGBA) func(context.Context) (*image.RGBA, error) {
	return func(context.Context) (*image.RGBA, error) { return img, nil }
}

func failWith(msg string) func(context.Context) (*image.RGBA, error) {
	return func(context.Context) (*image.RGBA, error) { return nil, errors.New(msg) }
}

func newTestOrchestrator(t *testing.T, timeout time.Duration) *Orchestrator {
	t.Helper()
	checker, err := NewDegeneracyChecker(types.DegeneracyConfig{Statistic: types.StatMeanLuma, Threshold: types.Float64(10)})
	if err != nil {
		t.Fatal(err)
	}
	return NewOrchestrator(checker, timeout, nil)
}

var testWindow = &types.WindowHandle{ID: 0x42, Title: "test", Bounds: types.Rect{Width: 20, Height: 20}, Visible: true}

func TestAcquireAllDegenerate(t *testing.T) {
	o := newTestOrchestrator(t, time.Second)
	handle := &scripted{name: "handle", results: []func(context.Context) (*image.RGBA, error){frameOf(solid(20, 20, black))}}
	region := &scripted{name: "region", results: []func(context.Context) (*image.RGBA, error){frameOf(solid(20, 20, black))}}

	frame, attempts, err := o.Acquire(context.Background(), testWindow, []Strategy{handle, region}, 2)
	if frame != nil {
		t.Fatal("degenerate frame must never be returned")
	}
	if !errors.Is(err, types.ErrAllStrategiesFailed) {
		t.Fatalf("err = %v, want ErrAllStrategiesFailed", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("attempts = %v, want one per strategy", attempts)
	}
	for _, a := range attempts {
		if !a.Degenerate || a.Success {
			t.Errorf("attempt %+v should be degenerate", a)
		}
	}

	var pe *types.PipelineError
	if !errors.As(err, &pe) || len(pe.Attempts) != 2 {
		t.Errorf("error should carry the attempts, got %v", err)
	}
}

func TestAcquireFallsBackOnDegenerate(t *testing.T) {
	o := newTestOrchestrator(t, time.Second)
	handle := &scripted{name: "handle", results: []func(context.Context) (*image.RGBA, error){frameOf(solid(20, 20, black))}}
	region := &scripted{name: "region", results: []func(context.Context) (*image.RGBA, error){frameOf(solid(20, 20, white))}}

	frame, attempts, err := o.Acquire(context.Background(), testWindow, []Strategy{handle, region}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Strategy != "region" {
		t.Errorf("frame from %s, want region", frame.Strategy)
	}
	if handle.calls != 1 {
		t.Errorf("degenerate frames are not retried, handle called %d times", handle.calls)
	}
	if len(attempts) != 2 || !attempts[1].Success {
		t.Errorf("attempts = %v", attempts)
	}
}

func TestAcquireRetriesCaptureErrors(t *testing.T) {
	o := newTestOrchestrator(t, time.Second)
	handle := &scripted{name: "handle", results: []func(context.Context) (*image.RGBA, error){
		failWith("BadMatch"),
		frameOf(solid(20, 20, white)),
	}}

	frame, attempts, err := o.Acquire(context.Background(), testWindow, []Strategy{handle}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Strategy != "handle" || len(attempts) != 2 {
		t.Errorf("frame %v attempts %v", frame.Strategy, attempts)
	}
	if attempts[0].Reason != "BadMatch" || attempts[0].Attempt != 1 || attempts[1].Attempt != 2 {
		t.Errorf("attempts = %+v", attempts)
	}
}

func TestAcquireBoundsRetries(t *testing.T) {
	o := newTestOrchestrator(t, time.Second)
	handle := &scripted{name: "handle", results: []func(context.Context) (*image.RGBA, error){failWith("boom")}}

	_, attempts, err := o.Acquire(context.Background(), testWindow, []Strategy{handle}, 3)
	if !errors.Is(err, types.ErrAllStrategiesFailed) {
		t.Fatalf("err = %v", err)
	}
	if len(attempts) != 3 || handle.calls != 3 {
		t.Errorf("attempts = %d calls = %d, want 3", len(attempts), handle.calls)
	}
}

func TestAcquireTimeoutCountsAsFailure(t *testing.T) {
	o := newTestOrchestrator(t, 20*time.Millisecond)
	hang := &scripted{name: "handle", results: []func(context.Context) (*image.RGBA, error){
		func(ctx context.Context) (*image.RGBA, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}}
	region := &scripted{name: "region", results: []func(context.Context) (*image.RGBA, error){frameOf(solid(20, 20, white))}}

	frame, attempts, err := o.Acquire(context.Background(), testWindow, []Strategy{hang, region}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Strategy != "region" {
		t.Errorf("frame from %s", frame.Strategy)
	}
	if attempts[0].Success || attempts[0].Reason == "" {
		t.Errorf("timed out attempt = %+v", attempts[0])
	}
}

func TestAbandonedCaptureKeepsGuard(t *testing.T) {
	release := make(chan struct{})
	var stuck int32 = 1

	hang := &scripted{name: "handle", results: []func(context.Context) (*image.RGBA, error){
		func(context.Context) (*image.RGBA, error) {
			<-release
			atomic.StoreInt32(&stuck, 0)
			return nil, errors.New("late")
		},
	}}
	_, _, err := newTestOrchestrator(t, 20*time.Millisecond).Acquire(context.Background(), testWindow, []Strategy{hang}, 1)
	if !errors.Is(err, types.ErrAllStrategiesFailed) {
		t.Fatalf("err = %v", err)
	}

	var overlapped int32
	next := &scripted{name: "region", results: []func(context.Context) (*image.RGBA, error){
		func(context.Context) (*image.RGBA, error) {
			if atomic.LoadInt32(&stuck) == 1 {
				atomic.StoreInt32(&overlapped, 1)
			}
			return solid(20, 20, white), nil
		},
	}}

	patient := newTestOrchestrator(t, 2*time.Second)
	done := make(chan error, 1)
	go func() {
		_, _, err := patient.Acquire(context.Background(), testWindow, []Strategy{next}, 1)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&next.calls) != 0 {
		t.Error("capture started while an abandoned call was still inside the OS API")
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if overlapped != 0 {
		t.Error("capture calls overlapped")
	}
}

func TestAcquireStopsWhenWindowDisappears(t *testing.T) {
	checker, _ := NewDegeneracyChecker(types.DegeneracyConfig{Statistic: types.StatMeanLuma, Threshold: types.Float64(10)})
	o := NewOrchestrator(checker, time.Second, func(*types.WindowHandle) bool { return false })
	s := &scripted{name: "handle", results: []func(context.Context) (*image.RGBA, error){frameOf(solid(4, 4, white))}}

	_, attempts, err := o.Acquire(context.Background(), testWindow, []Strategy{s}, 2)
	if !errors.Is(err, types.ErrAllStrategiesFailed) {
		t.Errorf("err = %v, want ErrAllStrategiesFailed", err)
	}
	if len(attempts) != 2 || attempts[0].Reason == "" {
		t.Errorf("vanished window should be recorded as failed attempts, got %v", attempts)
	}
	if s.calls != 0 {
		t.Error("no capture should run against a vanished window")
	}
}

func TestAcquireHonoursRunDeadline(t *testing.T) {
	o := newTestOrchestrator(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &scripted{name: "handle", results: []func(context.Context) (*image.RGBA, error){frameOf(solid(4, 4, white))}}
	_, _, err := o.Acquire(ctx, testWindow, []Strategy{s}, 2)
	if !errors.Is(err, types.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestDegeneracyChecker(t *testing.T) {
	half := solid(20, 20, white)
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			half.SetRGBA(x, y, black)
		}
	}

	tests := []struct {
		stat      string
		threshold float64
		img       *image.RGBA
		want      bool
	}{
		{types.StatMeanLuma, 10, solid(8, 8, black), true},
		{types.StatMeanLuma, 10, solid(8, 8, white), false},
		{types.StatMeanLuma, 10, half, false},
		{types.StatDarkFraction, 0.98, solid(8, 8, black), true},
		{types.StatDarkFraction, 0.98, half, false},
		{types.StatUniformFraction, 0.98, solid(8, 8, white), true},
		{types.StatUniformFraction, 0.98, half, false},
	}

	for _, tt := range tests {
		c, err := NewDegeneracyChecker(types.DegeneracyConfig{Statistic: tt.stat, Threshold: types.Float64(tt.threshold)})
		if err != nil {
			t.Fatal(err)
		}
		got, v := c.Check(types.NewCaptureFrame(tt.img, "test"))
		if got != tt.want {
			t.Errorf("%s on %dx%d: degenerate = %v (value %.3f), want %v", c, tt.img.Rect.Dx(), tt.img.Rect.Dy(), got, v, tt.want)
		}
	}
}

func TestEmptyFrameIsDegenerate(t *testing.T) {
	c, _ := NewDegeneracyChecker(types.DegeneracyConfig{Statistic: types.StatUniformFraction, Threshold: types.Float64(0.98)})
	if got, _ := c.Check(types.NewCaptureFrame(image.NewRGBA(image.Rect(0, 0, 0, 0)), "test")); !got {
		t.Error("empty frame must be degenerate")
	}
	if got, _ := c.Check(nil); !got {
		t.Error("nil frame must be degenerate")
	}
	if _, err := NewDegeneracyChecker(types.DegeneracyConfig{Statistic: "entropy"}); err == nil {
		t.Error("unknown statistic should be rejected")
	}
	if _, err := NewDegeneracyChecker(types.DegeneracyConfig{Statistic: types.StatMeanLuma}); err == nil {
		t.Error("missing threshold should be rejected")
	}
}

type fakeScreen struct {
	displays []image.Rectangle
	asked    image.Rectangle
}

func (f *fakeScreen) Displays() []image.Rectangle { return f.displays }

func (f *fakeScreen) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	f.asked = r
	img := solid(r.Dx(), r.Dy(), white)
	img.Rect = r
	return img, nil
}

func TestRegionCapture(t *testing.T) {
	screen := &fakeScreen{displays: []image.Rectangle{image.Rect(0, 0, 1920, 1080)}}
	s := NewRegionCapture(screen)

	h := &types.WindowHandle{ID: 1, Bounds: types.Rect{X: 1800, Y: 1000, Width: 300, Height: 200}}
	frame, err := s.Capture(context.Background(), h)
	if err != nil {
		t.Fatal(err)
	}
	if screen.asked != image.Rect(1800, 1000, 1920, 1080) {
		t.Errorf("captured %v, want clipped rectangle", screen.asked)
	}
	if frame.Width != 120 || frame.Height != 80 || frame.Image.Rect.Min != (image.Point{}) {
		t.Errorf("frame %dx%d origin %v", frame.Width, frame.Height, frame.Image.Rect.Min)
	}

	for name, h := range map[string]*types.WindowHandle{
		"minimized": {ID: 1, Minimized: true, Bounds: types.Rect{Width: 10, Height: 10}},
		"empty":     {ID: 1},
		"offscreen": {ID: 1, Bounds: types.Rect{X: 5000, Y: 5000, Width: 10, Height: 10}},
	} {
		if _, err := s.Capture(context.Background(), h); err == nil {
			t.Errorf("%s window should fail region capture", name)
		}
	}
}

type fakeWindows struct{ img *image.RGBA }

func (f fakeWindows) CaptureWindow(uint32) (*image.RGBA, error) { return f.img, nil }

func TestHandleCaptureNeedsHandle(t *testing.T) {
	s := NewHandleCapture(fakeWindows{img: solid(4, 4, white)})
	if _, err := s.Capture(context.Background(), &types.WindowHandle{Bounds: types.Rect{Width: 4, Height: 4}}); err == nil {
		t.Error("region targets have no handle to capture")
	}
	if _, err := s.Capture(context.Background(), &types.WindowHandle{ID: 7}); err != nil {
		t.Error(err)
	}
	if _, err := NewHandleCapture(fakeWindows{}).Capture(context.Background(), &types.WindowHandle{ID: 7}); err == nil {
		t.Error("nil image should be a capture error")
	}
}

func TestNewStrategiesOrder(t *testing.T) {
	got, err := NewStrategies([]string{"region", "handle"}, &fakeScreen{}, fakeWindows{})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Name() != "region" || got[1].Name() != "handle" {
		t.Errorf("order = %s,%s", got[0].Name(), got[1].Name())
	}
	if _, err := NewStrategies([]string{"dxgi"}, nil, nil); err == nil {
		t.Error("unknown strategy should fail")
	}
}
