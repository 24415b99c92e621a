package ocr

import (
	"context"
	"image"

	"github.com/dooshek/textgrab/internal/types"
)

// Engine turns pixels into raw detections. Polygons are in the coordinates
// of the image passed in.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]types.RawDetection, error)
	Name() string
}

// Level is the granularity detections are reported at
type Level string

const (
	LevelWord Level = "word"
	LevelLine Level = "line"
)

// clampConfidence maps engine scores into [0, 1]
func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
