package x11

import (
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

// Window describes one managed top-level window.
type Window struct {
	ID       uint32
	PID      int
	Title    string
	X, Y     int
	Width    int
	Height   int
	Hidden   bool
	Viewable bool
	UserTime uint32
	Stacking int
}

// Windows lists managed windows in stacking order, bottom first. Falls back
// to _NET_CLIENT_LIST when the window manager does not publish stacking.
func (c *Client) Windows() ([]Window, error) {
	ids := c.windowList("_NET_CLIENT_LIST_STACKING")
	if len(ids) == 0 {
		ids = c.windowList("_NET_CLIENT_LIST")
	}
	if len(ids) == 0 {
		return nil, errors.New("window manager publishes no client list")
	}

	windows := make([]Window, 0, len(ids))
	for i, id := range ids {
		w, err := c.describe(id)
		if err != nil {
			// windows can vanish between the list read and the query
			continue
		}
		w.Stacking = i
		windows = append(windows, w)
	}
	return windows, nil
}

// Describe returns a single window's properties. Stacking is left at zero.
func (c *Client) Describe(id uint32) (Window, error) {
	return c.describe(xproto.Window(id))
}

func (c *Client) describe(id xproto.Window) (Window, error) {
	attrs, err := xproto.GetWindowAttributes(c.conn, id).Reply()
	if err != nil {
		return Window{}, errors.Wrapf(err, "window 0x%x attributes", uint32(id))
	}

	x, y, w, h, err := c.rootGeometry(id)
	if err != nil {
		return Window{}, err
	}

	pid, _ := c.cardinal(id, "_NET_WM_PID")

	return Window{
		ID:       uint32(id),
		PID:      int(pid),
		Title:    c.title(id),
		X:        x,
		Y:        y,
		Width:    w,
		Height:   h,
		Hidden:   c.hidden(id),
		Viewable: attrs.MapState == xproto.MapStateViewable,
		UserTime: c.userTime(id),
	}, nil
}

// rootGeometry returns the window's position in root coordinates and its size.
func (c *Client) rootGeometry(id xproto.Window) (x, y, w, h int, err error) {
	geom, err := xproto.GetGeometry(c.conn, xproto.Drawable(id)).Reply()
	if err != nil {
		return 0, 0, 0, 0, errors.Wrapf(err, "window 0x%x geometry", uint32(id))
	}

	tr, err := xproto.TranslateCoordinates(c.conn, id, c.root, 0, 0).Reply()
	if err != nil {
		return 0, 0, 0, 0, errors.Wrapf(err, "window 0x%x coordinates", uint32(id))
	}

	return int(tr.DstX), int(tr.DstY), int(geom.Width), int(geom.Height), nil
}
