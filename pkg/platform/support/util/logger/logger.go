// Package logger provides the process-wide logging facade for the platform.
// Call sites use printf-style helpers filtered by a global level; output is
// written by a zerolog logger, as JSON by default or in console form for local runs.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel is a type representing the logging level.
type LogLevel int

const (
	// LevelDebug is the log level used for detailed debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo is the log level used for general informational messages.
	LevelInfo
	// LevelWarn is the log level used for potential issues or warning messages.
	LevelWarn
	// LevelError is the log level used for error messages.
	LevelError
	// LevelFatal is the log level used for fatal error messages that cause application termination.
	LevelFatal
)

// Format values accepted by Configure.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var (
	mu       sync.RWMutex
	logLevel = LevelInfo
	base     zerolog.Logger
	exitFunc = os.Exit
)

func init() {
	Configure(os.Stderr, FormatJSON)
}

// Configure replaces the underlying writer and output format.
// Unknown formats fall back to JSON.
func Configure(out io.Writer, format string) {
	mu.Lock()
	defer mu.Unlock()

	if out == nil {
		out = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"

	w := out
	if strings.EqualFold(format, FormatConsole) {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	base = zerolog.New(w).With().Timestamp().Logger()
}

// SetLogLevel sets the global log level.
// Valid values are "DEBUG", "INFO", "WARN", "ERROR", "FATAL" (case-insensitive).
// An unknown value selects INFO and reports the fallback as a warning.
func SetLogLevel(level string) {
	parsed, ok := ParseLevel(level)
	mu.Lock()
	logLevel = parsed
	mu.Unlock()
	if !ok {
		Warnf("Unknown log level '%s' specified. Defaulting to INFO level.", level)
	}
}

// ParseLevel converts a level name into a LogLevel. The boolean is false when
// the name is not recognized, in which case LevelInfo is returned.
func ParseLevel(level string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// CurrentLevel returns the active global level.
func CurrentLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel
}

// String returns the canonical upper-case name of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
}

func emit(level LogLevel, format string, v ...interface{}) {
	mu.RLock()
	enabled := logLevel <= level
	l := base
	mu.RUnlock()
	if !enabled {
		return
	}

	var ev *zerolog.Event
	switch level {
	case LevelDebug:
		ev = l.Debug()
	case LevelInfo:
		ev = l.Info()
	case LevelWarn:
		ev = l.Warn()
	case LevelError:
		ev = l.Error()
	default:
		// WithLevel avoids zerolog's own os.Exit so Fatalf controls termination.
		ev = l.WithLevel(zerolog.FatalLevel)
	}
	ev.Msgf(format, v...)
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) {
	emit(LevelDebug, format, v...)
}

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) {
	emit(LevelInfo, format, v...)
}

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) {
	emit(LevelWarn, format, v...)
}

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) {
	emit(LevelError, format, v...)
}

// Fatalf formats and outputs a FATAL level log message,
// then terminates the program by calling os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	emit(LevelFatal, format, v...)
	exitFunc(1)
}
