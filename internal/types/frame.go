package types

import (
	"fmt"
	"image"
	"time"
)

// Rect is an on-screen rectangle in root window coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// WindowHandle identifies a located window. ID is zero for a bare screen
// region, in which case only region capture can serve it.
type WindowHandle struct {
	ID          uint32    `json:"id"`
	PID         int       `json:"pid"`
	Title       string    `json:"title"`
	ProcessName string    `json:"process_name"`
	Bounds      Rect      `json:"bounds"`
	Minimized   bool      `json:"minimized"`
	Visible     bool      `json:"visible"`
	LastActive  uint32    `json:"last_active"` // _NET_WM_USER_TIME, server milliseconds
	Stacking    int       `json:"stacking"`    // higher is closer to the top
	LocatedAt   time.Time `json:"located_at"`
}

// IsRegion reports whether the handle is a screen region with no window behind it.
func (h *WindowHandle) IsRegion() bool { return h.ID == 0 }

func (h *WindowHandle) String() string {
	if h.IsRegion() {
		return "region " + h.Bounds.String()
	}
	return fmt.Sprintf("0x%x %q (pid %d)", h.ID, h.Title, h.PID)
}

// CaptureFrame is a captured pixel buffer. It is never mutated after the
// strategy that produced it returns.
type CaptureFrame struct {
	Image      *image.RGBA
	Width      int
	Height     int
	Layout     string
	CapturedAt time.Time
	Strategy   string
}

const LayoutRGBA8 = "RGBA8"

// NewCaptureFrame wraps img. The frame origin is reset to (0,0) so polygons
// are always in frame coordinates.
func NewCaptureFrame(img *image.RGBA, strategy string) *CaptureFrame {
	if img.Rect.Min != (image.Point{}) {
		shifted := *img
		shifted.Rect = img.Rect.Sub(img.Rect.Min)
		img = &shifted
	}
	return &CaptureFrame{
		Image:      img,
		Width:      img.Rect.Dx(),
		Height:     img.Rect.Dy(),
		Layout:     LayoutRGBA8,
		CapturedAt: time.Now(),
		Strategy:   strategy,
	}
}

// CaptureAttempt records one strategy invocation.
type CaptureAttempt struct {
	Strategy   string        `json:"strategy"`
	Attempt    int           `json:"attempt"`
	Success    bool          `json:"success"`
	Degenerate bool          `json:"degenerate"`
	Reason     string        `json:"reason,omitempty"`
	Duration   time.Duration `json:"duration"`
}

func (a CaptureAttempt) String() string {
	if a.Success {
		return fmt.Sprintf("%s#%d ok", a.Strategy, a.Attempt)
	}
	return fmt.Sprintf("%s#%d failed: %s", a.Strategy, a.Attempt, a.Reason)
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Polygon holds four corners, clockwise from the top-left one.
type Polygon [4]Point

// PolygonFromRect builds the four corners of an axis-aligned box.
func PolygonFromRect(r image.Rectangle) Polygon {
	return Polygon{
		{r.Min.X, r.Min.Y},
		{r.Max.X, r.Min.Y},
		{r.Max.X, r.Max.Y},
		{r.Min.X, r.Max.Y},
	}
}

// TopLeft returns the smallest X and smallest Y over all corners.
func (p Polygon) TopLeft() Point {
	tl := p[0]
	for _, c := range p[1:] {
		if c.X < tl.X {
			tl.X = c.X
		}
		if c.Y < tl.Y {
			tl.Y = c.Y
		}
	}
	return tl
}

// Bounds returns the axis-aligned box enclosing the polygon.
func (p Polygon) Bounds() image.Rectangle {
	r := image.Rectangle{Min: image.Point(p.TopLeft()), Max: image.Point(p[0])}
	for _, c := range p {
		if c.X > r.Max.X {
			r.Max.X = c.X
		}
		if c.Y > r.Max.Y {
			r.Max.Y = c.Y
		}
	}
	return r
}

// RawDetection is one recognition result before filtering. Confidence is in [0,1].
type RawDetection struct {
	Text       string  `json:"text"`
	Polygon    Polygon `json:"polygon"`
	Confidence float64 `json:"confidence"`
}

// TextRegion is a detection that passed the filter.
type TextRegion struct {
	Text       string  `json:"text"`
	Polygon    Polygon `json:"polygon"`
	Confidence float64 `json:"confidence"`
}

// Detections converts filtered regions back into raw detections.
func Detections(regions []TextRegion) []RawDetection {
	out := make([]RawDetection, len(regions))
	for i, r := range regions {
		out[i] = RawDetection(r)
	}
	return out
}
