package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/dooshek/textgrab/internal/logger"
)

// ErrConfigNotFound is returned when a configuration file does not exist
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrProcessAlreadyRunning is returned when a textgrab daemon is already running
var ErrProcessAlreadyRunning = errors.New("textgrab daemon is already running")

const (
	historyDBName = "history.db"
	timingsName   = "timings.json"
	pidName       = "textgrab.pid"
)

// FileOps manages files in the textgrab config directory
type FileOps interface {
	// GetConfigDir returns the full path to the textgrab config directory
	GetConfigDir() string

	// GetScreenshotsDir returns where captured frames are written
	GetScreenshotsDir() string

	// GetHistoryDBPath returns the sqlite path of the run history
	GetHistoryDBPath() string

	// GetTimingsPath returns the persisted stage timings file
	GetTimingsPath() string

	SaveConfig(filename string, data []byte) error
	LoadConfig(filename string) ([]byte, error)

	// ListScreenshots returns saved screenshot names, newest first
	ListScreenshots() ([]string, error)
	DeleteScreenshot(filename string) error

	// EnsureDirectories creates necessary directories if they don't exist
	EnsureDirectories() error

	SavePID() error
	// CheckPID returns ErrProcessAlreadyRunning if another daemon is alive
	CheckPID() error
	CleanupPID() error
	HandleExit()
}

// DefaultFileOps implements FileOps on the local filesystem
type DefaultFileOps struct {
	configDir string
}

// NewDefaultFileOps uses ~/.config/textgrab
func NewDefaultFileOps() (*DefaultFileOps, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewFileOps(filepath.Join(homeDir, ".config", "textgrab")), nil
}

// NewFileOps uses configDir as the root for every file
func NewFileOps(configDir string) *DefaultFileOps {
	return &DefaultFileOps{configDir: configDir}
}

func (f *DefaultFileOps) GetConfigDir() string {
	return f.configDir
}

func (f *DefaultFileOps) GetScreenshotsDir() string {
	return filepath.Join(f.configDir, "screenshots")
}

func (f *DefaultFileOps) GetHistoryDBPath() string {
	return filepath.Join(f.configDir, historyDBName)
}

func (f *DefaultFileOps) GetTimingsPath() string {
	return filepath.Join(f.configDir, timingsName)
}

func (f *DefaultFileOps) SaveConfig(filename string, data []byte) error {
	path := filepath.Join(f.configDir, filename)
	return os.WriteFile(path, data, 0o644)
}

func (f *DefaultFileOps) LoadConfig(filename string) ([]byte, error) {
	path := filepath.Join(f.configDir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrConfigNotFound
	}
	return os.ReadFile(path)
}

func (f *DefaultFileOps) ListScreenshots() ([]string, error) {
	files, err := os.ReadDir(f.GetScreenshotsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type entry struct {
		name  string
		mtime int64
	}
	var entries []entry
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".png") {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entry{file.Name(), info.ModTime().UnixNano()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mtime > entries[j].mtime })

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names, nil
}

func (f *DefaultFileOps) DeleteScreenshot(filename string) error {
	return os.Remove(filepath.Join(f.GetScreenshotsDir(), filepath.Base(filename)))
}

func (f *DefaultFileOps) EnsureDirectories() error {
	for _, dir := range []string{f.configDir, f.GetScreenshotsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (f *DefaultFileOps) getPIDFilePath() string {
	return filepath.Join(f.configDir, pidName)
}

func (f *DefaultFileOps) SavePID() error {
	return os.WriteFile(f.getPIDFilePath(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func (f *DefaultFileOps) CheckPID() error {
	data, err := os.ReadFile(f.getPIDFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("invalid PID in file: %w", err)
	}
	if pid == os.Getpid() {
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}

	// signal 0 only checks that the process exists
	if err := process.Signal(syscall.Signal(0)); err == nil {
		return ErrProcessAlreadyRunning
	}

	logger.Debug("Found stale PID file, will be overwritten")
	return nil
}

func (f *DefaultFileOps) CleanupPID() error {
	return os.Remove(f.getPIDFilePath())
}

func (f *DefaultFileOps) HandleExit() {
	if err := f.CleanupPID(); err != nil && !os.IsNotExist(err) {
		logger.Error("Failed to cleanup PID file on exit", err)
	}
}
