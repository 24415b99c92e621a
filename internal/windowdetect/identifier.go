package windowdetect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dooshek/textgrab/internal/types"
)

type IdentKind int

const (
	IdentName IdentKind = iota
	IdentHandle
	IdentPID
	IdentRegion
	IdentCenter
)

// Identifier is a parsed target.
type Identifier struct {
	Kind   IdentKind
	Name   string
	Handle uint32
	PID    int
	Region types.Rect // for IdentCenter only Width and Height are set
}

// ParseIdentifier understands:
//
//	0x1a00007 or #27262983   explicit window handle
//	pid:4242                 newest window of a process
//	region:x,y,w,h           a bare screen rectangle
//	center:600x600           a rectangle centred on the primary display
//
// Anything else is a process name or title substring.
func ParseIdentifier(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identifier{}, fmt.Errorf("empty identifier")
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return Identifier{Kind: IdentName, Name: s}, nil
		}
		return Identifier{Kind: IdentHandle, Handle: uint32(v)}, nil

	case strings.HasPrefix(s, "#"):
		v, err := strconv.ParseUint(s[1:], 10, 32)
		if err != nil {
			return Identifier{Kind: IdentName, Name: s}, nil
		}
		return Identifier{Kind: IdentHandle, Handle: uint32(v)}, nil

	case strings.HasPrefix(lower, "pid:"):
		pid, err := strconv.Atoi(strings.TrimSpace(s[4:]))
		if err != nil || pid <= 0 {
			return Identifier{}, fmt.Errorf("invalid pid in %q", s)
		}
		return Identifier{Kind: IdentPID, PID: pid}, nil

	case strings.HasPrefix(lower, "region:"):
		parts := strings.Split(s[len("region:"):], ",")
		if len(parts) != 4 {
			return Identifier{}, fmt.Errorf("region must be x,y,w,h: %q", s)
		}
		var v [4]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return Identifier{}, fmt.Errorf("invalid region component %q", p)
			}
			v[i] = n
		}
		if v[2] <= 0 || v[3] <= 0 {
			return Identifier{}, fmt.Errorf("region must have positive size: %q", s)
		}
		return Identifier{Kind: IdentRegion, Region: types.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}}, nil

	case strings.HasPrefix(lower, "center:"):
		w, h, err := ParseSize(s[len("center:"):])
		if err != nil {
			return Identifier{}, err
		}
		return Identifier{Kind: IdentCenter, Region: types.Rect{Width: w, Height: h}}, nil
	}

	return Identifier{Kind: IdentName, Name: s}, nil
}

// ParseSize parses "WxH".
func ParseSize(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("size must be WxH: %q", s)
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q", s)
	}
	return w, h, nil
}
