package keyboard

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MarinX/keylogger"
	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/types"
)

const defaultDebounce = 500 * time.Millisecond

// ModifierState tracks the state of modifier keys (Ctrl, Shift, Alt, Super)
type ModifierState struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
}

// KeyboardMonitor interface defines the contract for keyboard monitoring implementations
type KeyboardMonitor interface {
	Start(ctx context.Context) error
	Stop()
}

// Trigger runs Fire when Binding is pressed
type Trigger struct {
	Name    string
	Binding types.KeyBinding
	Fire    func()
}

// keyMatcher reports whether an event is the binding's key
type keyMatcher func(binding types.KeyBinding, code uint16, name string) bool

// BaseMonitor provides common functionality for keyboard monitors
type BaseMonitor struct {
	triggers      []Trigger
	busy          func() bool
	matches       keyMatcher
	modifierState ModifierState
	debounce      time.Duration
	now           func() time.Time

	mu       sync.Mutex
	lastFire time.Time
}

// NewBaseMonitor creates a monitor core; busy reports whether a run is
// active, and shortcuts are ignored while it returns true
func NewBaseMonitor(triggers []Trigger, busy func() bool, matches keyMatcher) (*BaseMonitor, error) {
	for _, t := range triggers {
		if t.Binding.Key == "" {
			return nil, fmt.Errorf("shortcut %q has no key", t.Name)
		}
		if _, ok := KeyCodes[strings.ToLower(t.Binding.Key)]; !ok {
			return nil, fmt.Errorf("shortcut %q uses unsupported key %q", t.Name, t.Binding.Key)
		}
	}
	if busy == nil {
		busy = func() bool { return false }
	}

	return &BaseMonitor{
		triggers: triggers,
		busy:     busy,
		matches:  matches,
		debounce: defaultDebounce,
		now:      time.Now,
	}, nil
}

// checkModifiers verifies if current modifier state matches the binding
func (b *BaseMonitor) checkModifiers(kb types.KeyBinding) bool {
	return b.modifierState.Ctrl == kb.Ctrl &&
		b.modifierState.Shift == kb.Shift &&
		b.modifierState.Alt == kb.Alt &&
		b.modifierState.Super == kb.Super
}

func (b *BaseMonitor) setModifier(code uint16, down bool) {
	switch code {
	case KeyLeftControl, KeyRightControl:
		b.modifierState.Ctrl = down
	case KeyLeftShift, KeyRightShift:
		b.modifierState.Shift = down
	case KeyLeftAlt, KeyRightAlt:
		b.modifierState.Alt = down
	case KeySuper, KeyRightSuper:
		b.modifierState.Super = down
	}
}

// handleEvent updates modifier state and fires the first matching trigger
func (b *BaseMonitor) handleEvent(e keylogger.InputEvent) {
	if e.Type != keylogger.EvKey {
		return
	}
	code := uint16(e.Code)

	if e.KeyRelease() {
		b.setModifier(code, false)
		return
	}
	if !e.KeyPress() {
		return
	}
	if isModifier(code) {
		b.setModifier(code, true)
		return
	}

	name := strings.ToLower(e.KeyString())
	for _, t := range b.triggers {
		if b.matches(t.Binding, code, name) && b.checkModifiers(t.Binding) {
			b.fire(t)
			return
		}
	}
}

func (b *BaseMonitor) fire(t Trigger) {
	b.mu.Lock()
	now := b.now()
	if !b.lastFire.IsZero() && now.Sub(b.lastFire) < b.debounce {
		b.mu.Unlock()
		logger.Debugf("Shortcut %s ignored - too soon after previous (%d ms)", t.Name, now.Sub(b.lastFire).Milliseconds())
		return
	}
	b.lastFire = now
	b.mu.Unlock()

	if b.busy() {
		logger.Debugf("Shortcut %s ignored - capture in progress", t.Name)
		return
	}

	logger.Debugf("Detected %s shortcut", t.Name)
	go t.Fire()
}

// listen feeds events to handleEvent until ctx is done or the device closes
func (b *BaseMonitor) listen(ctx context.Context, kbd *keylogger.KeyLogger) error {
	events := kbd.Read()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return fmt.Errorf("keyboard device closed")
			}
			b.handleEvent(e)
		}
	}
}

// OpenKeyboard opens the first keyboard input device
func OpenKeyboard() (*keylogger.KeyLogger, error) {
	keyboards := keylogger.FindAllKeyboardDevices()
	if len(keyboards) == 0 {
		return nil, fmt.Errorf("no keyboard devices found - check permissions (input group)")
	}
	logger.Debugf("Found keyboard: %s", keyboards[0])

	kbd, err := keylogger.New(keyboards[0])
	if err != nil {
		if strings.Contains(err.Error(), "permission denied") {
			fmt.Printf("Cannot access keyboard device.\n" +
				"Solution: \n" +
				"1. Add yourself to the input group: sudo usermod -aG input $USER \n" +
				"2. Log out and log back in (or restart your system) \n" +
				"3. Run the program again \n\n")
		}
		return nil, fmt.Errorf("error initializing keylogger: %w", err)
	}
	return kbd, nil
}

// CreateMonitor creates the appropriate keyboard monitor based on the session type
func CreateMonitor(triggers []Trigger, busy func() bool) (KeyboardMonitor, error) {
	if isX11() {
		return NewX11Monitor(triggers, busy)
	}
	return NewWaylandMonitor(triggers, busy)
}

// isX11 checks if the current session is running X11
func isX11() bool {
	session := os.Getenv("XDG_SESSION_TYPE")
	return strings.ToLower(session) == "x11"
}
