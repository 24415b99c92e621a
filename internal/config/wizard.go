package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/MarinX/keylogger"
	"github.com/dooshek/textgrab/internal/keyboard"
	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/fatih/color"
)

type KeyPress struct {
	Key   string
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
}

// Implement types.KeyCombo for KeyPress
func (kp KeyPress) HasCtrl() bool  { return kp.Ctrl }
func (kp KeyPress) HasShift() bool { return kp.Shift }
func (kp KeyPress) HasAlt() bool   { return kp.Alt }
func (kp KeyPress) HasSuper() bool { return kp.Super }
func (kp KeyPress) GetKey() string { return kp.Key }

func (kp KeyPress) binding() types.KeyBinding {
	return types.KeyBinding{Key: kp.Key, Ctrl: kp.Ctrl, Shift: kp.Shift, Alt: kp.Alt, Super: kp.Super}
}

func RunWizard() error {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	bold.Println("\nWelcome to the textgrab configuration wizard!")
	fmt.Println("\nThis wizard sets up your capture shortcuts, default window and confidence threshold.")

	reader := bufio.NewReader(os.Stdin)
	defaults := types.DefaultConfig()

	captureKey, err := askShortcut(reader, "capture the default window", defaults.CaptureKey)
	if err != nil {
		return err
	}
	regionKey, err := askShortcut(reader, "capture the centered region", defaults.RegionKey)
	if err != nil {
		return err
	}

	target, err := askTarget(reader, os.Stdout)
	if err != nil {
		return err
	}
	threshold, err := askThreshold(reader, os.Stdout, *defaults.GetOCRConfig().Threshold)
	if err != nil {
		return err
	}

	config := &types.Config{
		CaptureKey:    captureKey,
		RegionKey:     regionKey,
		DefaultTarget: target,
		OCR:           types.OCRConfig{Threshold: &threshold},
	}

	if err := SaveConfig(config); err != nil {
		logger.Error("Failed to save config", err)
		return err
	}

	green.Println("\nConfiguration saved successfully!")
	fmt.Print("Capture shortcut: ")
	printKeyCombination(captureKey, false)
	fmt.Print("\nRegion shortcut:  ")
	printKeyCombination(regionKey, false)
	fmt.Println("\nStart the daemon with `textgrab daemon` to use them.")

	return nil
}

func askShortcut(reader *bufio.Reader, purpose string, fallback types.KeyBinding) (types.KeyBinding, error) {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	for {
		cyan.Printf("\nPress the key combination to %s (Ctrl, Alt, Shift, Super + key)...\n", purpose)
		fmt.Print("Default is ")
		printKeyCombination(fallback, false)
		fmt.Println("\n(Press Ctrl+C to cancel)")

		keyPress, err := captureKeys()
		if err != nil {
			logger.Error("Failed to capture key", err)
			return types.KeyBinding{}, err
		}
		if keyPress.Key == "" {
			err := fmt.Errorf("no valid key was pressed")
			logger.Error("No valid key was pressed", err)
			return types.KeyBinding{}, err
		}

		yellow.Print("\nSelected shortcut is: ")
		printKeyCombination(keyPress, false)
		fmt.Println()

		ok, err := confirm(reader, os.Stdout, "Do you want to use this shortcut?")
		if err != nil {
			return types.KeyBinding{}, err
		}
		if ok {
			return keyPress.binding(), nil
		}
		fmt.Println("\nOK, let's try again.")
	}
}

func askTarget(reader *bufio.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "\nDefault window (process name, title, 0x<id> or pid:<n>; empty to skip): ")
	return readLine(reader)
}

func askThreshold(reader *bufio.Reader, w io.Writer, fallback float64) (float64, error) {
	for {
		fmt.Fprintf(w, "\nMinimum OCR confidence between 0 and 1 [%.2f]: ", fallback)
		line, err := readLine(reader)
		if err != nil {
			return 0, err
		}
		if line == "" {
			return fallback, nil
		}
		v, err := strconv.ParseFloat(line, 64)
		if err == nil && v >= 0 && v <= 1 {
			return v, nil
		}
		fmt.Fprintln(w, "Please enter a number between 0 and 1.")
	}
}

func confirm(reader *bufio.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "\n%s [Y/n]: ", question)
	response, err := readLine(reader)
	if err != nil {
		logger.Error("Failed to read input", err)
		return false, err
	}
	response = strings.ToLower(response)
	return response == "" || response == "y" || response == "yes", nil
}

// readLine returns the next input line without surrounding space or control
// characters
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	line = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, line)
	return strings.TrimSpace(line), nil
}

// printKeyCombination prints a key combination in a standardized format.
// If clearLine is true, it will clear the current line before printing.
func printKeyCombination(combo types.KeyCombo, clearLine bool) {
	if clearLine {
		fmt.Print("\033[2K\r")
		fmt.Print("Shortcut: ")
	}
	fmt.Print(keyboard.FormatCombo(combo))
}

func captureKeys() (KeyPress, error) {
	kbd, err := keyboard.OpenKeyboard()
	if err != nil {
		return KeyPress{}, err
	}
	defer kbd.Close()

	var keyPress KeyPress
	for e := range kbd.Read() {
		if e.Type != keylogger.EvKey {
			continue
		}
		code := uint16(e.Code)

		if e.KeyPress() {
			switch code {
			case keyboard.KeyLeftControl, keyboard.KeyRightControl:
				keyPress.Ctrl = true
			case keyboard.KeyLeftShift, keyboard.KeyRightShift:
				keyPress.Shift = true
			case keyboard.KeyLeftAlt, keyboard.KeyRightAlt:
				keyPress.Alt = true
			case keyboard.KeySuper:
				keyPress.Super = true
			default:
				if key, ok := keyboard.KeyNames[code]; ok {
					keyPress.Key = key
					return keyPress, nil
				}
				continue
			}
			printKeyCombination(keyPress, true)
		} else if e.KeyRelease() {
			switch code {
			case keyboard.KeyLeftControl, keyboard.KeyRightControl:
				keyPress.Ctrl = false
			case keyboard.KeyLeftShift, keyboard.KeyRightShift:
				keyPress.Shift = false
			case keyboard.KeyLeftAlt, keyboard.KeyRightAlt:
				keyPress.Alt = false
			case keyboard.KeySuper:
				keyPress.Super = false
			default:
				continue
			}
			printKeyCombination(keyPress, true)
		}
	}

	return KeyPress{}, fmt.Errorf("keyboard device closed")
}
