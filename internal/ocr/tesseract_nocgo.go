//go:build !cgo

package ocr

import (
	"context"
	"errors"
	"image"

	"github.com/dooshek/textgrab/internal/types"
)

var errNoCgo = errors.New("built without cgo, tesseract is not linked")

type TesseractEngine struct{}

func NewTesseractEngine(cfg types.OCRConfig) (*TesseractEngine, error) {
	return &TesseractEngine{}, nil
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) ([]types.RawDetection, error) {
	return nil, errNoCgo
}
