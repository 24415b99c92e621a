package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Level represents logging levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// mu guards output and logFile. The active logger is swapped atomically so
// output can be redirected while other goroutines log.
var (
	mu           sync.Mutex
	currentLevel atomic.Int32
	output       io.Writer = os.Stdout
	logFile      *os.File
	active       atomic.Pointer[zerolog.Logger]
)

func log() *zerolog.Logger { return active.Load() }

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SetOutputFile sets the logger output to a file
func SetOutputFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	output = f

	initLogger()
	return nil
}

// SetOutput redirects the logger to w. Used by tests to capture events.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	initLogger()
}

// CloseLogFile closes the log file if it's open
func CloseLogFile() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
		output = os.Stdout
		initLogger()
	}
}

// initLogger must be called with mu held
func initLogger() {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: "15:04:05",
		NoColor:    logFile != nil,
	}

	l := zerolog.New(consoleWriter).With().Timestamp().Logger()
	active.Store(&l)
}

func init() {
	currentLevel.Store(int32(LevelInfo))
	initLogger()
}

// SetLevel sets the global log level
func SetLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		currentLevel.Store(int32(LevelDebug))
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		currentLevel.Store(int32(LevelInfo))
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		currentLevel.Store(int32(LevelWarn))
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		currentLevel.Store(int32(LevelError))
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		currentLevel.Store(int32(LevelInfo))
	}
}

// WithComponent returns a child logger tagged with a component field
func WithComponent(component string) zerolog.Logger {
	return log().With().Str("component", component).Logger()
}

// Event logs a structured event at the given level. Pipeline stages use it
// so consumers get stage, duration and target as separate fields.
func Event(level Level, msg string, fields map[string]interface{}) {
	var e *zerolog.Event
	switch level {
	case LevelDebug:
		e = log().Debug()
	case LevelWarn:
		e = log().Warn()
	case LevelError:
		e = log().Error()
	default:
		e = log().Info()
	}
	e.Fields(fields).Msg(msg)
}

// Debug logs a debug message
func Debug(msg string) {
	log().Debug().Msg(msg)
}

// Debugf logs a debug message with formatting
func Debugf(format string, v ...interface{}) {
	log().Debug().Msgf(format, v...)
}

// Info logs an info message
func Info(msg string) {
	log().Info().Msg(msg)
}

// Infof logs an info message with formatting
func Infof(format string, v ...interface{}) {
	log().Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(msg string) {
	log().Warn().Msg(msg)
}

// Warnf logs a warning message with formatting
func Warnf(format string, v ...interface{}) {
	log().Warn().Msgf(format, v...)
}

// Error logs an error message with the error object
func Error(msg string, err error) {
	log().Error().Err(err).Msg(msg)
}

// Errorf logs an error message with formatting and the error object
func Errorf(format string, err error, v ...interface{}) {
	log().Error().Err(err).Msgf(format, v...)
}

// GetCurrentLevel returns the current logging level
func GetCurrentLevel() Level {
	return Level(currentLevel.Load())
}
