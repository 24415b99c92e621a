//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine runs the local tesseract library. A new client is created
// per call, so one engine may serve overlapping calls.
type TesseractEngine struct {
	language  string
	level     Level
	grayscale bool
	minHeight int
}

func NewTesseractEngine(cfg types.OCRConfig) (*TesseractEngine, error) {
	level := Level(cfg.Level)
	if level != LevelWord && level != LevelLine {
		return nil, fmt.Errorf("unsupported recognition level %q", cfg.Level)
	}
	return &TesseractEngine{
		language:  cfg.Language,
		level:     level,
		grayscale: cfg.Grayscale,
		minHeight: cfg.MinHeight,
	}, nil
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) ([]types.RawDetection, error) {
	p := prepare(img, e.grayscale, e.minHeight)
	data, err := p.png()
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(e.language, "+")...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	ril := gosseract.RIL_TEXTLINE
	if e.level == LevelWord {
		ril = gosseract.RIL_WORD
	}
	boxes, err := client.GetBoundingBoxes(ril)
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}

	detections := make([]types.RawDetection, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		detections = append(detections, types.RawDetection{
			Text:       text,
			Polygon:    p.toFrame(box.Box),
			Confidence: clampConfidence(box.Confidence / 100.0),
		})
	}

	logger.Debugf("Tesseract returned %d boxes at %s level (scale %.2f)", len(detections), e.level, p.scale)
	return detections, nil
}
