package windowdetect

import (
	"fmt"

	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/dooshek/textgrab/internal/x11"
	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
)

type x11Backend struct {
	display string
}

// NewX11Backend returns a backend that opens a fresh X connection per call
func NewX11Backend(display string) Backend {
	return &x11Backend{display: display}
}

func (b *x11Backend) Windows() ([]types.WindowHandle, error) {
	c, err := x11.Connect(b.display)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	windows, err := c.Windows()
	if err != nil {
		return nil, err
	}

	handles := make([]types.WindowHandle, 0, len(windows))
	for _, w := range windows {
		handles = append(handles, toHandle(w))
	}
	return handles, nil
}

func (b *x11Backend) Describe(id uint32) (types.WindowHandle, error) {
	c, err := x11.Connect(b.display)
	if err != nil {
		return types.WindowHandle{}, err
	}
	defer c.Close()

	w, err := c.Describe(id)
	if err != nil {
		return types.WindowHandle{}, err
	}
	return toHandle(w), nil
}

func toHandle(w x11.Window) types.WindowHandle {
	return types.WindowHandle{
		ID:         w.ID,
		PID:        w.PID,
		Title:      w.Title,
		Bounds:     types.Rect{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height},
		Minimized:  w.Hidden,
		Visible:    w.Viewable && !w.Hidden,
		LastActive: w.UserTime,
		Stacking:   w.Stacking,
	}
}

func (b *x11Backend) Alive(id uint32) bool {
	c, err := x11.Connect(b.display)
	if err != nil {
		return false
	}
	defer c.Close()
	return c.Alive(id)
}

// Activate tries robotgo's xid activation first and falls back to an EWMH
// request when robotgo cannot reach the window.
func (b *x11Backend) Activate(h *types.WindowHandle) error {
	err := robotgo.ActivePid(int(h.ID), 1)
	if err == nil {
		return nil
	}
	logger.Debugf("robotgo activation of 0x%x failed: %v", h.ID, err)

	c, err := x11.Connect(b.display)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.RequestActivation(h.ID); err != nil {
		return fmt.Errorf("failed to activate window 0x%x: %w", h.ID, err)
	}
	return nil
}

func (b *x11Backend) PrimaryDisplay() (types.Rect, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return types.Rect{}, fmt.Errorf("no active displays found")
	}
	r := screenshot.GetDisplayBounds(0)
	return types.Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}, nil
}
