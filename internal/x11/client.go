// Package x11 talks to the X server directly for window enumeration, EWMH
// properties and drawable capture.
package x11

import (
	"encoding/binary"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

var atomNames = []string{
	"_NET_CLIENT_LIST",
	"_NET_CLIENT_LIST_STACKING",
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"_NET_WM_STATE",
	"_NET_WM_STATE_HIDDEN",
	"_NET_WM_USER_TIME",
	"_NET_WM_USER_TIME_WINDOW",
	"WM_NAME",
	"UTF8_STRING",
}

// Client is one connection to the X server. Callers own it and must Close it.
type Client struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// Connect opens a connection to display ("" means $DISPLAY).
func Connect(display string) (*Client, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	setup := xproto.Setup(conn)
	c := &Client{
		conn:  conn,
		root:  setup.DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		c.atoms[name] = reply.Atom
	}

	return c, nil
}

func (c *Client) Close() {
	c.conn.Close()
}

func (c *Client) property(window xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(c.conn, false, window, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (c *Client) cardinal(window xproto.Window, name string) (uint32, bool) {
	data, err := c.property(window, c.atoms[name], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data), true
}

func (c *Client) windowList(name string) []xproto.Window {
	data, err := c.property(c.root, c.atoms[name], xproto.AtomWindow, 4096)
	if err != nil {
		return nil
	}
	ids := make([]xproto.Window, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		ids = append(ids, xproto.Window(binary.LittleEndian.Uint32(data[i:])))
	}
	return ids
}

func (c *Client) title(window xproto.Window) string {
	data, err := c.property(window, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = c.property(window, c.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

func (c *Client) hidden(window xproto.Window) bool {
	data, err := c.property(window, c.atoms["_NET_WM_STATE"], xproto.AtomAtom, 64)
	if err != nil {
		return false
	}
	hiddenAtom := c.atoms["_NET_WM_STATE_HIDDEN"]
	for i := 0; i+4 <= len(data); i += 4 {
		if xproto.Atom(binary.LittleEndian.Uint32(data[i:])) == hiddenAtom {
			return true
		}
	}
	return false
}

// userTime reads _NET_WM_USER_TIME, following _NET_WM_USER_TIME_WINDOW
// when the client keeps it on a separate window.
func (c *Client) userTime(window xproto.Window) uint32 {
	if t, ok := c.cardinal(window, "_NET_WM_USER_TIME"); ok {
		return t
	}
	data, err := c.property(window, c.atoms["_NET_WM_USER_TIME_WINDOW"], xproto.AtomWindow, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	t, _ := c.cardinal(xproto.Window(binary.LittleEndian.Uint32(data)), "_NET_WM_USER_TIME")
	return t
}

// RequestActivation asks the window manager to activate id through an
// EWMH _NET_ACTIVE_WINDOW client message.
func (c *Client) RequestActivation(id uint32) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(id),
		Type:   c.atoms["_NET_ACTIVE_WINDOW"],
		// source indication 2 = pager, timestamp 0 = CurrentTime
		Data: xproto.ClientMessageDataUnionData32New([]uint32{2, 0, 0, 0, 0}),
	}

	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	err := xproto.SendEventChecked(c.conn, false, c.root, mask, string(ev.Bytes())).Check()
	return errors.Wrap(err, "failed to send _NET_ACTIVE_WINDOW")
}

// Alive reports whether id still refers to an existing window.
func (c *Client) Alive(id uint32) bool {
	_, err := xproto.GetWindowAttributes(c.conn, xproto.Window(id)).Reply()
	return err == nil
}
