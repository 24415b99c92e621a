package x11

import (
	"os"
	"testing"
)

func TestBGRXToRGBA(t *testing.T) {
	// two pixels: pure blue, then pure red, pad bytes set to garbage
	data := []byte{
		0xff, 0x00, 0x00, 0x12,
		0x00, 0x00, 0xff, 0x34,
	}

	img, err := bgrxToRGBA(data, 2, 1)
	if err != nil {
		t.Fatalf("bgrxToRGBA: %v", err)
	}

	if got := img.RGBAAt(0, 0); got.B != 0xff || got.R != 0 || got.A != 0xff {
		t.Errorf("pixel 0 = %+v, want opaque blue", got)
	}
	if got := img.RGBAAt(1, 0); got.R != 0xff || got.B != 0 || got.A != 0xff {
		t.Errorf("pixel 1 = %+v, want opaque red", got)
	}
}

func TestBGRXToRGBAShortData(t *testing.T) {
	if _, err := bgrxToRGBA(make([]byte, 7), 2, 1); err == nil {
		t.Error("expected an error for truncated data")
	}
}

func TestConnectAndList(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("no X display available")
	}

	c, err := Connect("")
	if err != nil {
		t.Skipf("cannot connect to X server: %v", err)
	}
	defer c.Close()

	windows, err := c.Windows()
	if err != nil {
		t.Skipf("window manager does not publish a client list: %v", err)
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].Stacking <= windows[i-1].Stacking {
			t.Errorf("stacking index not increasing at %d", i)
		}
	}
}
