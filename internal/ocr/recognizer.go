package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/dooshek/textgrab/internal/types"
)

// Recognizer wraps an Engine with the recognition timeout and maps engine
// failures onto pipeline error kinds.
type Recognizer struct {
	engine  Engine
	timeout time.Duration
}

func NewRecognizer(engine Engine, timeout time.Duration) *Recognizer {
	return &Recognizer{engine: engine, timeout: timeout}
}

// Recognize runs the engine on frame. No text found is an empty result, not
// an error.
func (r *Recognizer) Recognize(ctx context.Context, frame *types.CaptureFrame) ([]types.RawDetection, error) {
	if r.engine == nil {
		return nil, types.NewPipelineError(types.KindRecognitionUnavailable, "ocr", nil, "no engine configured")
	}
	if frame == nil || frame.Image == nil {
		return nil, types.NewPipelineError(types.KindRecognitionUnavailable, "ocr", nil, "no frame to recognize")
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type result struct {
		detections []types.RawDetection
		err        error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("engine panicked: %v", p)}
			}
		}()
		d, err := r.engine.Recognize(ctx, frame.Image)
		done <- result{detections: d, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, types.NewPipelineError(types.KindRecognitionUnavailable, "ocr", res.err, r.engine.Name())
		}
		if res.detections == nil {
			res.detections = []types.RawDetection{}
		}
		return res.detections, nil
	case <-ctx.Done():
		return nil, types.NewPipelineError(types.KindTimeout, "ocr", ctx.Err(), r.engine.Name())
	}
}
