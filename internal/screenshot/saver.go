package screenshot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/pipeline"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/lucasb-eyer/go-colorful"
)

const boxThickness = 2

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Saver writes the captured frame of every run to disk, optionally with a
// box drawn around each kept region.
type Saver struct {
	dir      string
	annotate bool
	boxColor color.Color
	now      func() time.Time
}

func NewSaver(cfg types.ScreenshotConfig) (*Saver, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("screenshot directory is not set")
	}

	c, err := colorful.Hex(cfg.BoxColor)
	if err != nil {
		return nil, fmt.Errorf("invalid box color %q: %w", cfg.BoxColor, err)
	}

	return &Saver{
		dir:      cfg.Dir,
		annotate: cfg.Annotate,
		boxColor: c.Clamped(),
		now:      time.Now,
	}, nil
}

func (s *Saver) OnRun(report pipeline.Report) {
	if report.Frame == nil {
		return
	}

	path, err := s.Save(report)
	if err != nil {
		logger.Error("Failed to save screenshot", err)
		return
	}
	logger.Infof("Screenshot saved to %s (%d regions)", path, len(report.Regions))
}

// Save writes the report's frame and returns the file path
func (s *Saver) Save(report pipeline.Report) (string, error) {
	if report.Frame == nil || report.Frame.Image == nil {
		return "", fmt.Errorf("report has no frame")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	var img image.Image = report.Frame.Image
	if s.annotate && len(report.Regions) > 0 {
		img = Annotate(report.Frame.Image, report.Regions, s.boxColor)
	}

	path := filepath.Join(s.dir, FileName(report, s.now()))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// FileName builds process_pid_YYYYMMDD_HHMMSS_OCR_n.png for windows and
// prefix_YYYYMMDD_HHMMSS_OCR_n.png for screen regions. Runs that produced no
// text end in _noOCR instead.
func FileName(report pipeline.Report, at time.Time) string {
	stamp := at.Format("20060102_150405")

	var base string
	if h := report.Handle; h != nil && !h.IsRegion() && h.ProcessName != "" {
		base = fmt.Sprintf("%s_%d_%s", sanitize(h.ProcessName), h.PID, stamp)
	} else {
		base = fmt.Sprintf("%s_%s", "region", stamp)
	}

	if report.Err == nil && len(report.Regions) > 0 {
		return fmt.Sprintf("%s_OCR_%d.png", base, len(report.Regions))
	}
	return base + "_noOCR.png"
}

func sanitize(name string) string {
	s := unsafeChars.ReplaceAllString(name, "-")
	if s == "" || s == "-" {
		return "window"
	}
	return s
}

// Annotate returns a copy of img with an outline around every region
func Annotate(img *image.RGBA, regions []types.TextRegion, c color.Color) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)

	src := image.NewUniform(c)
	for _, region := range regions {
		r := region.Polygon.Bounds().Intersect(out.Bounds())
		if r.Empty() {
			continue
		}
		for _, edge := range outline(r, boxThickness) {
			draw.Draw(out, edge, src, image.Point{}, draw.Src)
		}
	}
	return out
}

// outline returns the four edge strips of r, each t pixels thick
func outline(r image.Rectangle, t int) []image.Rectangle {
	return []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, min(r.Min.Y+t, r.Max.Y)),
		image.Rect(r.Min.X, max(r.Max.Y-t, r.Min.Y), r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, min(r.Min.X+t, r.Max.X), r.Max.Y),
		image.Rect(max(r.Max.X-t, r.Min.X), r.Min.Y, r.Max.X, r.Max.Y),
	}
}
