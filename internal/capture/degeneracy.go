package capture

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/dooshek/textgrab/internal/types"
)

const (
	darkLuma     = 16
	uniformDelta = 8
)

// DegeneracyChecker decides whether a frame is too blank to be worth
// recognizing.
type DegeneracyChecker struct {
	Statistic string
	Threshold float64
}

func NewDegeneracyChecker(cfg types.DegeneracyConfig) (*DegeneracyChecker, error) {
	switch cfg.Statistic {
	case types.StatMeanLuma, types.StatDarkFraction, types.StatUniformFraction:
	default:
		return nil, fmt.Errorf("unknown degeneracy statistic %q", cfg.Statistic)
	}
	if cfg.Threshold == nil {
		return nil, fmt.Errorf("degeneracy threshold for %s is not set", cfg.Statistic)
	}
	return &DegeneracyChecker{Statistic: cfg.Statistic, Threshold: *cfg.Threshold}, nil
}

// Check returns whether the frame is degenerate and the measured value.
// Frames without any pixels are always degenerate.
func (c *DegeneracyChecker) Check(frame *types.CaptureFrame) (bool, float64) {
	if frame == nil || frame.Image == nil || frame.Width == 0 || frame.Height == 0 {
		return true, 0
	}

	v := c.Measure(frame.Image)
	switch c.Statistic {
	case types.StatMeanLuma:
		return v < c.Threshold, v
	default:
		return v >= c.Threshold, v
	}
}

// Measure computes the configured statistic over img's luma plane
func (c *DegeneracyChecker) Measure(img image.Image) float64 {
	gray := effect.Grayscale(img)
	b := gray.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0
	}

	var sum float64
	var dark int
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for _, p := range row {
			sum += float64(p)
			if p < darkLuma {
				dark++
			}
		}
	}
	mean := sum / n

	switch c.Statistic {
	case types.StatDarkFraction:
		return float64(dark) / n
	case types.StatUniformFraction:
		var uniform int
		for y := 0; y < b.Dy(); y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
			for _, p := range row {
				if d := float64(p) - mean; d <= uniformDelta && d >= -uniformDelta {
					uniform++
				}
			}
		}
		return float64(uniform) / n
	default:
		return mean
	}
}

func (c *DegeneracyChecker) String() string {
	if c.Statistic == types.StatMeanLuma {
		return fmt.Sprintf("%s < %v", c.Statistic, c.Threshold)
	}
	return fmt.Sprintf("%s >= %v", c.Statistic, c.Threshold)
}
