package x11

import (
	"image"

	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

// CaptureWindow reads the window's drawable with GetImage. The server
// answers with whatever the window's own buffer holds, so composited or
// GPU-rendered clients often come back black.
func (c *Client) CaptureWindow(id uint32) (*image.RGBA, error) {
	win := xproto.Window(id)

	geom, err := xproto.GetGeometry(c.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return nil, errors.Wrapf(err, "window 0x%x geometry", id)
	}
	if geom.Width == 0 || geom.Height == 0 {
		return nil, errors.Errorf("window 0x%x has no area", id)
	}

	reply, err := xproto.GetImage(c.conn, xproto.ImageFormatZPixmap, xproto.Drawable(win),
		0, 0, geom.Width, geom.Height, 0xffffffff).Reply()
	if err != nil {
		return nil, errors.Wrapf(err, "GetImage on window 0x%x", id)
	}

	return bgrxToRGBA(reply.Data, int(geom.Width), int(geom.Height))
}

// bgrxToRGBA converts a 32 bits-per-pixel ZPixmap (B, G, R, pad) into RGBA.
func bgrxToRGBA(data []byte, width, height int) (*image.RGBA, error) {
	if len(data) < width*height*4 {
		return nil, errors.Errorf("short image data: %d bytes for %dx%d", len(data), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height*4; i += 4 {
		img.Pix[i] = data[i+2]
		img.Pix[i+1] = data[i+1]
		img.Pix[i+2] = data[i]
		img.Pix[i+3] = 0xff
	}
	return img, nil
}
