package notification

import (
	"fmt"

	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/pipeline"
	"github.com/dooshek/textgrab/internal/present"
)

const (
	appTitle   = "textgrab"
	previewLen = 120
)

// Notifier defines the interface for desktop notifications
type Notifier interface {
	NotifyCaptureStarted(target string) error
	NotifyTextReady(regions int, text string) error
	NotifyCaptureFailed(message string) error
	Notify(title, message string) error
}

// SilentNotifier is a no-op implementation for headless runs
type SilentNotifier struct{}

func NewSilent() Notifier {
	return &SilentNotifier{}
}

func (s *SilentNotifier) NotifyCaptureStarted(string) error  { return nil }
func (s *SilentNotifier) NotifyTextReady(int, string) error  { return nil }
func (s *SilentNotifier) NotifyCaptureFailed(string) error   { return nil }
func (s *SilentNotifier) Notify(title, message string) error { return nil }

type baseNotifier struct {
	platform platformNotifier
}

type platformNotifier interface {
	send(title, message string) error
}

// New creates the desktop notifier
func New() Notifier {
	logger.Debug("Initializing notification system")
	return &baseNotifier{platform: newLinuxNotifier()}
}

func (n *baseNotifier) NotifyCaptureStarted(target string) error {
	logger.Debug("Sending capture started notification")
	return n.Notify(appTitle, fmt.Sprintf("Capturing %s...", target))
}

func (n *baseNotifier) NotifyTextReady(regions int, text string) error {
	if regions == 0 {
		return n.Notify(appTitle, "No text found")
	}
	return n.Notify(fmt.Sprintf("%s: %d regions", appTitle, regions), present.Preview(text, previewLen))
}

func (n *baseNotifier) NotifyCaptureFailed(message string) error {
	return n.Notify(appTitle+": capture failed", message)
}

func (n *baseNotifier) Notify(title, message string) error {
	return n.platform.send(title, message)
}

// Observer notifies the desktop about every finished run
type Observer struct {
	notifier Notifier
}

func NewObserver(n Notifier) *Observer {
	return &Observer{notifier: n}
}

func (o *Observer) OnRun(report pipeline.Report) {
	var err error
	if report.Err != nil {
		err = o.notifier.NotifyCaptureFailed(present.Message(report.Err))
	} else {
		err = o.notifier.NotifyTextReady(len(report.Regions), report.Text())
	}
	if err != nil {
		logger.Debugf("Notification failed: %v", err)
	}
}
