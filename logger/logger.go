package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// FileName is the log file created in the runtime directory
const FileName = "cursorsuggest.log"

// MaxLogLines is how many lines the log file keeps
const MaxLogLines = 5000

const timeFormat = "2006/01/02 15:04:05"

var noopFunc = func() {}

// Trace returns a function that logs operation duration when called.
// Usage: defer logger.Trace("operation")()
func Trace(name string) func() {
	ll := current()
	if !ll.enabled(LogLevelTrace) {
		return noopFunc
	}
	start := time.Now()
	return func() {
		ll.logf(LogLevelTrace, "%s: %v", name, time.Since(start))
	}
}

type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel parses a level name, case-insensitively. Unknown names give
// LogLevelInfo.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToUpper(s)
	if s == "WARNING" {
		return LogLevelWarn
	}
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return LogLevelInfo
}

// LimitedLogger writes leveled lines to a file and keeps it at MaxLogLines.
// Terminals are written to as is, without counting or rotation.
type LimitedLogger struct {
	mutex     sync.Mutex
	file      *os.File
	level     LogLevel
	terminal  bool
	lineCount int
}

var (
	// stderr is used until Open installs a file
	stderr = &LimitedLogger{file: os.Stderr, level: LogLevelInfo, terminal: isTerminal(os.Stderr)}

	globalMu     sync.RWMutex
	globalLogger *LimitedLogger
)

func current() *LimitedLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return stderr
}

// Open opens (or creates) FileName in dir and installs it as the global
// logger. Caller must Close it.
func Open(dir string, level LogLevel) (*LimitedLogger, error) {
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	ll := &LimitedLogger{file: f, level: level, terminal: isTerminal(f)}
	if !ll.terminal {
		data, _ := io.ReadAll(f)
		ll.lineCount = bytes.Count(data, []byte("\n"))
	}

	globalMu.Lock()
	globalLogger = ll
	globalMu.Unlock()
	return ll, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (ll *LimitedLogger) enabled(level LogLevel) bool {
	return level >= ll.level
}

func (ll *LimitedLogger) logf(level LogLevel, format string, v ...any) {
	if !ll.enabled(level) {
		return
	}
	msg := fmt.Sprintf("%s [%s] %s\n", time.Now().Format(timeFormat), level, fmt.Sprintf(format, v...))
	ll.Write([]byte(msg))
}

func Debug(format string, v ...any) { current().logf(LogLevelDebug, format, v...) }
func Info(format string, v ...any)  { current().logf(LogLevelInfo, format, v...) }
func Warn(format string, v ...any)  { current().logf(LogLevelWarn, format, v...) }
func Error(format string, v ...any) { current().logf(LogLevelError, format, v...) }

// Write implements io.Writer so the standard log package can share the file
func (ll *LimitedLogger) Write(p []byte) (int, error) {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()

	n, err := ll.file.Write(p)
	if err != nil || ll.terminal {
		return n, err
	}
	ll.lineCount += bytes.Count(p, []byte("\n"))
	if ll.lineCount > MaxLogLines {
		ll.trim()
	}
	return n, nil
}

// trim rewrites the file with its last MaxLogLines lines
func (ll *LimitedLogger) trim() {
	if _, err := ll.file.Seek(0, io.SeekStart); err != nil {
		return
	}
	data, err := io.ReadAll(ll.file)
	if err != nil {
		return
	}

	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > MaxLogLines {
		lines = lines[len(lines)-MaxLogLines:]
	}

	ll.file.Truncate(0)
	ll.file.Seek(0, io.SeekStart)
	ll.file.Write(bytes.Join(lines, nil))
	ll.lineCount = len(lines)
}

// Close closes the file and falls back to stderr
func (ll *LimitedLogger) Close() error {
	globalMu.Lock()
	if globalLogger == ll {
		globalLogger = nil
	}
	globalMu.Unlock()
	return ll.file.Close()
}
