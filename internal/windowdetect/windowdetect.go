package windowdetect

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/types"
)

// Backend is the OS window system as seen by the locator
type Backend interface {
	// Windows lists managed top-level windows. ProcessName may be empty.
	Windows() ([]types.WindowHandle, error)
	Alive(id uint32) bool
	// Describe reads the current state of a single window
	Describe(id uint32) (types.WindowHandle, error)
	Activate(h *types.WindowHandle) error
	PrimaryDisplay() (types.Rect, error)
}

// ProcessLookup resolves process details for a pid
type ProcessLookup interface {
	Name(pid int) (string, error)
	Info(pid int) (*ProcessInfo, error)
}

// Locator resolves user identifiers to window handles
type Locator struct {
	backend Backend
	procs   ProcessLookup
}

// New creates a locator for the current desktop session
func New() (*Locator, error) {
	if runtime.GOOS != "linux" {
		return nil, fmt.Errorf("window lookup is not supported on %s", runtime.GOOS)
	}
	if os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("DISPLAY is not set - an X11 or XWayland session is required")
	}

	return NewLocator(NewX11Backend(""), NewProcessLookup()), nil
}

// NewLocator creates a locator on top of explicit backends
func NewLocator(backend Backend, procs ProcessLookup) *Locator {
	return &Locator{backend: backend, procs: procs}
}

// Locate resolves identifier to a single window handle. See ParseIdentifier
// for the accepted forms.
func (l *Locator) Locate(identifier string) (*types.WindowHandle, error) {
	id, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, types.NewPipelineError(types.KindNotFound, "locate", err, identifier)
	}

	if id.Kind == IdentRegion || id.Kind == IdentCenter {
		return l.regionHandle(id)
	}

	windows, err := l.List()
	if err != nil {
		return nil, types.NewPipelineError(types.KindNotFound, "locate", err, "window list unavailable")
	}

	var candidates []types.WindowHandle
	switch id.Kind {
	case IdentHandle:
		for _, w := range windows {
			if w.ID == id.Handle {
				candidates = append(candidates, w)
			}
		}
	case IdentPID:
		for _, w := range windows {
			if w.PID == id.PID {
				candidates = append(candidates, w)
			}
		}
	default:
		candidates = matchByName(windows, id.Name)
	}

	if len(candidates) == 0 {
		return nil, types.NewPipelineError(types.KindNotFound, "locate", nil, identifier)
	}

	best := pickMostRecent(candidates)
	best.LocatedAt = time.Now()
	logger.Debugf("Located %s for %q (%d candidates)", best.String(), identifier, len(candidates))
	return &best, nil
}

// matchByName prefers exact process-name matches and falls back to a
// case-insensitive title substring.
func matchByName(windows []types.WindowHandle, name string) []types.WindowHandle {
	var exact []types.WindowHandle
	for _, w := range windows {
		if w.ProcessName != "" && sameProcessName(w.ProcessName, name) {
			exact = append(exact, w)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	needle := strings.ToLower(name)
	var byTitle []types.WindowHandle
	for _, w := range windows {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			byTitle = append(byTitle, w)
		}
	}
	return byTitle
}

func sameProcessName(a, b string) bool {
	trim := func(s string) string {
		if strings.HasSuffix(strings.ToLower(s), ".exe") {
			return s[:len(s)-4]
		}
		return s
	}
	return strings.EqualFold(trim(a), trim(b))
}

// pickMostRecent chooses the most recently active window; ties go to the
// one higher in the stacking order.
func pickMostRecent(candidates []types.WindowHandle) types.WindowHandle {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].LastActive != candidates[j].LastActive {
			return candidates[i].LastActive > candidates[j].LastActive
		}
		return candidates[i].Stacking > candidates[j].Stacking
	})
	return candidates[0]
}

func (l *Locator) regionHandle(id Identifier) (*types.WindowHandle, error) {
	rect := id.Region
	if id.Kind == IdentCenter {
		screen, err := l.backend.PrimaryDisplay()
		if err != nil {
			return nil, types.NewPipelineError(types.KindNotFound, "locate", err, "primary display unavailable")
		}
		rect = centered(screen, id.Region.Width, id.Region.Height)
	}

	if rect.Empty() {
		return nil, types.NewPipelineError(types.KindNotFound, "locate", nil, "empty region")
	}

	return &types.WindowHandle{
		Title:     "region " + rect.String(),
		Bounds:    rect,
		Visible:   true,
		LocatedAt: time.Now(),
	}, nil
}

func centered(screen types.Rect, w, h int) types.Rect {
	if w > screen.Width {
		w = screen.Width
	}
	if h > screen.Height {
		h = screen.Height
	}
	return types.Rect{
		X:      screen.X + (screen.Width-w)/2,
		Y:      screen.Y + (screen.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

// List returns every titled window with its process name filled in
func (l *Locator) List() ([]types.WindowHandle, error) {
	windows, err := l.backend.Windows()
	if err != nil {
		return nil, err
	}

	names := make(map[int]string)
	out := windows[:0]
	for _, w := range windows {
		if strings.TrimSpace(w.Title) == "" {
			continue
		}
		if w.ProcessName == "" && w.PID > 0 && l.procs != nil {
			name, ok := names[w.PID]
			if !ok {
				name, err = l.procs.Name(w.PID)
				if err != nil {
					logger.Debugf("No process name for pid %d: %v", w.PID, err)
				}
				names[w.PID] = name
			}
			w.ProcessName = name
		}
		out = append(out, w)
	}
	return out, nil
}

// Activate brings the window to the foreground. Callers treat failure as
// non-fatal.
func (l *Locator) Activate(h *types.WindowHandle) error {
	if h.IsRegion() {
		return nil
	}
	return l.backend.Activate(h)
}

// Refresh re-reads the window's geometry and map state into h. Activation
// can restore a minimized window, so the located state goes stale.
func (l *Locator) Refresh(h *types.WindowHandle) error {
	if h.IsRegion() {
		return nil
	}
	cur, err := l.backend.Describe(h.ID)
	if err != nil {
		return err
	}
	h.Bounds = cur.Bounds
	h.Minimized = cur.Minimized
	h.Visible = cur.Visible
	return nil
}

// IsValid reports whether the handle still refers to a live window
func (l *Locator) IsValid(h *types.WindowHandle) bool {
	if h == nil {
		return false
	}
	if h.IsRegion() {
		return true
	}
	return l.backend.Alive(h.ID)
}

// ProcessInfo returns details about the process owning pid
func (l *Locator) ProcessInfo(pid int) (*ProcessInfo, error) {
	if l.procs == nil {
		return nil, fmt.Errorf("process lookup unavailable")
	}
	return l.procs.Info(pid)
}
