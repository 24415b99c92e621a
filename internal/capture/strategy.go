package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/dooshek/textgrab/internal/types"
)

// Strategy is one way of obtaining pixels for a window. Implementations
// keep no state between calls.
type Strategy interface {
	Name() string
	Capture(ctx context.Context, h *types.WindowHandle) (*types.CaptureFrame, error)
}

// ScreenGrabber reads pixels from the composed screen
type ScreenGrabber interface {
	Displays() []image.Rectangle
	CaptureRect(r image.Rectangle) (*image.RGBA, error)
}

// WindowGrabber reads a window's own buffer by handle
type WindowGrabber interface {
	CaptureWindow(id uint32) (*image.RGBA, error)
}

// RegionCapture grabs the window's on-screen rectangle. It sees whatever is
// on top, so it needs the window visible and unobstructed.
type RegionCapture struct {
	screen ScreenGrabber
}

func NewRegionCapture(screen ScreenGrabber) *RegionCapture {
	return &RegionCapture{screen: screen}
}

func (r *RegionCapture) Name() string { return types.StrategyRegion }

func (r *RegionCapture) Capture(ctx context.Context, h *types.WindowHandle) (*types.CaptureFrame, error) {
	if h.Minimized {
		return nil, fmt.Errorf("window is minimized")
	}
	if h.Bounds.Empty() {
		return nil, fmt.Errorf("window has no on-screen area")
	}

	rect, err := visiblePart(h.Bounds.Image(), r.screen.Displays())
	if err != nil {
		return nil, err
	}

	img, err := r.screen.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("screen capture of %v failed: %w", rect, err)
	}
	if img == nil {
		return nil, fmt.Errorf("screen capture of %v returned no image", rect)
	}
	return types.NewCaptureFrame(img, r.Name()), nil
}

// visiblePart clips rect to the displays it touches and fails when it
// touches none.
func visiblePart(rect image.Rectangle, displays []image.Rectangle) (image.Rectangle, error) {
	var covered image.Rectangle
	for _, d := range displays {
		if in := rect.Intersect(d); !in.Empty() {
			covered = covered.Union(in)
		}
	}
	if covered.Empty() {
		return image.Rectangle{}, fmt.Errorf("rectangle %v is off-screen", rect)
	}
	return covered, nil
}

// HandleCapture reads the window buffer through its handle. It works for
// occluded windows but GPU surfaces often come back black.
type HandleCapture struct {
	windows WindowGrabber
}

func NewHandleCapture(windows WindowGrabber) *HandleCapture {
	return &HandleCapture{windows: windows}
}

func (c *HandleCapture) Name() string { return types.StrategyHandle }

func (c *HandleCapture) Capture(ctx context.Context, h *types.WindowHandle) (*types.CaptureFrame, error) {
	if h.IsRegion() {
		return nil, fmt.Errorf("target has no window handle")
	}

	img, err := c.windows.CaptureWindow(h.ID)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("window 0x%x returned no image", h.ID)
	}
	return types.NewCaptureFrame(img, c.Name()), nil
}

// NewStrategies builds strategies in the given order
func NewStrategies(names []string, screen ScreenGrabber, windows WindowGrabber) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch name {
		case types.StrategyHandle:
			strategies = append(strategies, NewHandleCapture(windows))
		case types.StrategyRegion:
			strategies = append(strategies, NewRegionCapture(screen))
		default:
			return nil, fmt.Errorf("unknown capture strategy %q", name)
		}
	}
	return strategies, nil
}
