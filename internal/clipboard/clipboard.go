package clipboard

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/pipeline"
	"github.com/go-vgo/robotgo"
)

var (
	writeAll = robotgo.WriteAll
	xclip    = func(text string) error {
		if _, err := exec.LookPath("xclip"); err != nil {
			return errors.New("xclip is not installed")
		}
		cmd := exec.Command("xclip", "-selection", "clipboard")
		cmd.Stdin = strings.NewReader(text)
		return cmd.Run()
	}
)

// CopyToClipboard copies text to the clipboard, falling back to xclip when
// robotgo cannot reach it.
func CopyToClipboard(text string) error {
	logger.Debugf("clipboard: copying %d bytes", len(text))

	err := writeAll(text)
	if err == nil {
		return nil
	}
	logger.Debugf("clipboard: robotgo write failed, trying xclip: %v", err)
	return xclip(text)
}

// Observer copies the text of every successful run
type Observer struct{}

func (Observer) OnRun(report pipeline.Report) {
	if report.Err != nil || len(report.Regions) == 0 {
		return
	}
	if err := CopyToClipboard(report.Text()); err != nil {
		logger.Error("Error copying to clipboard", err)
	}
}
