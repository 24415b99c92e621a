package capture

import (
	"image"

	"github.com/dooshek/textgrab/internal/x11"
	"github.com/kbinani/screenshot"
)

type screenshotGrabber struct{}

// NewScreenGrabber returns a grabber backed by the display server's screen image
func NewScreenGrabber() ScreenGrabber {
	return screenshotGrabber{}
}

func (screenshotGrabber) Displays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	displays := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, screenshot.GetDisplayBounds(i))
	}
	return displays
}

func (screenshotGrabber) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

type x11Grabber struct {
	display string
}

// NewWindowGrabber returns a grabber that reads X11 drawables. Each call
// opens and closes its own connection.
func NewWindowGrabber(display string) WindowGrabber {
	return &x11Grabber{display: display}
}

func (g *x11Grabber) CaptureWindow(id uint32) (*image.RGBA, error) {
	c, err := x11.Connect(g.display)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	return c.CaptureWindow(id)
}
