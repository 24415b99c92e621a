package ocr

import (
	"context"
	"errors"
	"image"
	"reflect"
	"testing"
	"time"

	"github.com/dooshek/textgrab/internal/types"
)

func det(text string, x, y int, conf float64) types.RawDetection {
	return types.RawDetection{
		Text:       text,
		Polygon:    types.PolygonFromRect(image.Rect(x, y, x+40, y+12)),
		Confidence: conf,
	}
}

func texts(regions []types.TextRegion) []string {
	out := make([]string, len(regions))
	for i, r := range regions {
		out[i] = r.Text
	}
	return out
}

func TestFilterOrdersTopToBottomLeftToRight(t *testing.T) {
	raw := []types.RawDetection{
		det("A", 10, 50, 0.9),
		det("B", 10, 10, 0.9),
		det("C", 100, 10, 0.9),
	}
	got := texts(Filter(raw, 0.5))
	if want := []string{"B", "C", "A"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestFilterThresholdIsInclusive(t *testing.T) {
	raw := []types.RawDetection{
		det("kept", 0, 0, 0.5),
		det("dropped", 0, 20, 0.49),
		det("high", 0, 40, 1.0),
	}
	got := texts(Filter(raw, 0.5))
	if want := []string{"kept", "high"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	for _, r := range Filter(raw, 0.5) {
		if r.Confidence < 0.5 {
			t.Errorf("%q has confidence %v below threshold", r.Text, r.Confidence)
		}
	}
}

func TestFilterIdempotent(t *testing.T) {
	raw := []types.RawDetection{
		det("x", 30, 30, 0.8),
		det("y", 5, 30, 0.6),
		det("z", 0, 0, 0.2),
		det("w", 5, 30, 0.95),
	}
	once := Filter(raw, 0.5)
	twice := Filter(types.Detections(once), 0.5)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filter not idempotent:\n%v\n%v", once, twice)
	}
}

func TestFilterStableForEqualPositions(t *testing.T) {
	raw := []types.RawDetection{
		det("first", 7, 7, 0.9),
		det("second", 7, 7, 0.9),
		det("third", 7, 7, 0.9),
	}
	got := texts(Filter(raw, 0))
	if want := []string{"first", "second", "third"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want input order", got)
	}
}

func TestFilterEmpty(t *testing.T) {
	got := Filter(nil, 0.5)
	if got == nil || len(got) != 0 {
		t.Errorf("Filter(nil) = %#v, want empty slice", got)
	}
	if got := Filter([]types.RawDetection{det("a", 0, 0, 0.1)}, 0.5); len(got) != 0 {
		t.Errorf("all below threshold should give empty, got %v", got)
	}
}

type fakeEngine struct {
	detections []types.RawDetection
	err        error
	delay      time.Duration
	panicMsg   string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image) ([]types.RawDetection, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.detections, f.err
}

func testFrame() *types.CaptureFrame {
	return types.NewCaptureFrame(image.NewRGBA(image.Rect(0, 0, 64, 32)), "region")
}

func TestRecognizer(t *testing.T) {
	tests := []struct {
		name     string
		engine   Engine
		timeout  time.Duration
		wantKind types.ErrorKind
		wantLen  int
	}{
		{"detections pass through", &fakeEngine{detections: []types.RawDetection{det("a", 0, 0, 0.9)}}, time.Second, 0, 1},
		{"no text is empty not error", &fakeEngine{}, time.Second, 0, 0},
		{"engine error", &fakeEngine{err: errors.New("no eng.traineddata")}, time.Second, types.KindRecognitionUnavailable, 0},
		{"engine panic", &fakeEngine{panicMsg: "segfault"}, time.Second, types.KindRecognitionUnavailable, 0},
		{"engine hang", &fakeEngine{delay: 200 * time.Millisecond}, 20 * time.Millisecond, types.KindTimeout, 0},
		{"no engine", nil, time.Second, types.KindRecognitionUnavailable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecognizer(tt.engine, tt.timeout)
			got, err := r.Recognize(context.Background(), testFrame())
			if kind := types.KindOf(err); kind != tt.wantKind {
				t.Fatalf("error kind = %v (%v), want %v", kind, err, tt.wantKind)
			}
			if err == nil && (got == nil || len(got) != tt.wantLen) {
				t.Errorf("detections = %#v, want %d", got, tt.wantLen)
			}
		})
	}
}

func TestPrepareRescalesPolygons(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	p := prepare(img, true, 300)
	if p.scale != 3 {
		t.Fatalf("scale = %v, want 3", p.scale)
	}
	if h := p.img.Bounds().Dy(); h != 300 {
		t.Errorf("prepared height = %d", h)
	}

	got := p.toFrame(image.Rect(30, 60, 90, 120)).Bounds()
	if want := image.Rect(10, 20, 30, 40); got != want {
		t.Errorf("rescaled box = %v, want %v", got, want)
	}

	if p := prepare(image.NewRGBA(image.Rect(0, 0, 10, 400)), false, 300); p.scale != 1 {
		t.Errorf("tall images are not scaled, got %v", p.scale)
	}
	if _, err := prepare(img, false, 0).png(); err != nil {
		t.Error(err)
	}
}

func TestClampConfidence(t *testing.T) {
	for in, want := range map[float64]float64{-0.01: 0, 0: 0, 0.42: 0.42, 1: 1, 1.7: 1} {
		if got := clampConfidence(in); got != want {
			t.Errorf("clampConfidence(%v) = %v, want %v", in, got, want)
		}
	}
}
