package keyboard

import (
	"context"
	"strings"

	"github.com/MarinX/keylogger"
	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/types"
)

// WaylandMonitor matches target keys by input code
type WaylandMonitor struct {
	*BaseMonitor
	keyboard *keylogger.KeyLogger
	cancel   context.CancelFunc
}

func NewWaylandMonitor(triggers []Trigger, busy func() bool) (*WaylandMonitor, error) {
	base, err := NewBaseMonitor(triggers, busy, matchByCode)
	if err != nil {
		return nil, err
	}
	return &WaylandMonitor{BaseMonitor: base}, nil
}

func (w *WaylandMonitor) Start(ctx context.Context) error {
	kbd, err := OpenKeyboard()
	if err != nil {
		return err
	}
	w.keyboard = kbd

	ctx, w.cancel = context.WithCancel(ctx)
	defer w.keyboard.Close()

	for _, t := range w.triggers {
		logger.Infof("Listening for %s: %s", t.Name, FormatCombo(t.Binding))
	}

	return w.listen(ctx, kbd)
}

func matchByCode(binding types.KeyBinding, code uint16, _ string) bool {
	target, ok := KeyCodes[strings.ToLower(binding.Key)]
	return ok && target == code
}

func (w *WaylandMonitor) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}
