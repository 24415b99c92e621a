package ocr

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/dooshek/textgrab/internal/types"
)

// prepared is an image ready for the engine plus the factor it was scaled by
type prepared struct {
	img   image.Image
	scale float64
}

// prepare converts to grayscale and upscales short images, which tesseract
// reads poorly below roughly 300px.
func prepare(img image.Image, grayscale bool, minHeight int) prepared {
	var out image.Image = img
	if grayscale {
		out = imaging.Grayscale(out)
	}

	scale := 1.0
	if h := out.Bounds().Dy(); minHeight > 0 && h > 0 && h < minHeight {
		scale = float64(minHeight) / float64(h)
		out = imaging.Resize(out, 0, minHeight, imaging.Lanczos)
	}
	return prepared{img: out, scale: scale}
}

func (p prepared) png() ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, p.img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toFrame maps a rectangle in prepared coordinates back to frame coordinates
func (p prepared) toFrame(r image.Rectangle) types.Polygon {
	if p.scale == 1 {
		return types.PolygonFromRect(r)
	}
	return types.PolygonFromRect(image.Rect(
		int(float64(r.Min.X)/p.scale),
		int(float64(r.Min.Y)/p.scale),
		int(float64(r.Max.X)/p.scale+0.5),
		int(float64(r.Max.Y)/p.scale+0.5),
	))
}
