package keyboard

import (
	"context"
	"strings"

	"github.com/MarinX/keylogger"
	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/types"
)

// X11Monitor matches target keys by the name keylogger reports
type X11Monitor struct {
	*BaseMonitor
	keyLogger *keylogger.KeyLogger
	cancel    context.CancelFunc
}

func NewX11Monitor(triggers []Trigger, busy func() bool) (*X11Monitor, error) {
	base, err := NewBaseMonitor(triggers, busy, matchByName)
	if err != nil {
		return nil, err
	}
	return &X11Monitor{BaseMonitor: base}, nil
}

// Start blocks until ctx is cancelled or Stop is called
func (x *X11Monitor) Start(ctx context.Context) error {
	k, err := OpenKeyboard()
	if err != nil {
		return err
	}
	x.keyLogger = k

	ctx, x.cancel = context.WithCancel(ctx)
	defer x.keyLogger.Close()

	for _, t := range x.triggers {
		logger.Infof("Listening for %s: %s", t.Name, FormatCombo(t.Binding))
	}

	return x.listen(ctx, k)
}

func matchByName(binding types.KeyBinding, code uint16, name string) bool {
	target := strings.ToLower(binding.Key)
	switch target {
	case "escape":
		return name == "esc"
	case "print":
		return name == "sysrq" || name == "print"
	}
	if name == "" {
		return KeyCodes[target] == code
	}
	return name == target
}

func (x *X11Monitor) Stop() {
	if x.cancel != nil {
		x.cancel()
	}
	logger.Debugf("Keyboard monitor stopped")
}
