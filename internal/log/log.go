// Package log is the process logger shared by the cajoler, its front ends
// and the language server. Diagnostics about cajoled content are not logged;
// they are reported through message queues.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level represents the severity of a log message
type Level int

const (
	// LevelDebug is for verbose debugging information
	LevelDebug Level = iota
	// LevelInfo is for important operational events
	LevelInfo
	// LevelWarn is for warnings that don't prevent operation
	LevelWarn
	// LevelError is for errors that may affect functionality
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l >= LevelDebug && l <= LevelError {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel reads a level name such as "debug" or "WARN".
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	if strings.EqualFold(s, "warning") {
		return LevelWarn, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

var (
	mu       sync.Mutex
	output   io.Writer = os.Stderr
	minLevel           = LevelInfo
)

const prefix = "[CAJA]"

// SetOutput sets the output destination (primarily for testing)
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetLevel sets the minimum log level to display
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = level
}

// GetLevel returns the current minimum log level
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return minLevel
}

// Debug logs a debug message (verbose debugging information)
func Debug(format string, args ...any) {
	log(LevelDebug, format, args...)
}

// Info logs an info message (important operational events)
func Info(format string, args ...any) {
	log(LevelInfo, format, args...)
}

// Warn logs a warning message (warnings that don't prevent operation)
func Warn(format string, args ...any) {
	log(LevelWarn, format, args...)
}

// Error logs an error message (errors that may affect functionality)
func Error(format string, args ...any) {
	log(LevelError, format, args...)
}

func log(level Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if level < minLevel {
		return
	}

	// Skip logging if output is nil (e.g., during test cleanup)
	if output == nil {
		return
	}

	// Format: [CAJA] LEVEL: message
	fmt.Fprintf(output, "%s %s: %s\n", prefix, level, fmt.Sprintf(format, args...))
}
