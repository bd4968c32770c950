// Package logbook keeps the operator log for a session. Entries go to a plain
// text file through logrus so the terminal UI can tail them in its log panel.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook persists session activity to a text file.
type Logbook struct {
	path   string
	mu     sync.Mutex
	file   *os.File
	logger *logrus.Logger
	entry  *logrus.Entry
}

// New creates a logbook that appends to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logbook: open %s: %w", path, err)
	}
	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return &Logbook{
		path:   path,
		file:   f,
		logger: logger,
		entry:  logrus.NewEntry(logger),
	}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close releases the file handle.
func (l *Logbook) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.file.Close()
	l.file = nil
	return err
}

// WithField returns a logbook view that stamps key=value on every entry.
func (l *Logbook) WithField(key string, value any) *Logbook {
	if l == nil {
		return nil
	}
	return &Logbook{
		path:   l.path,
		file:   nil,
		logger: l.logger,
		entry:  l.entry.WithField(key, value),
	}
}

// Append writes a single entry to the logbook.
func (l *Logbook) Append(level Level, message string) {
	if l == nil || l.entry == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	message = strings.TrimSpace(message)
	switch level {
	case LevelWarn:
		l.entry.Warn(message)
	case LevelError:
		l.entry.Error(message)
	default:
		l.entry.Info(message)
	}
}

// Tail returns up to maxLines of the most recent entries and the total number
// of entries in the file.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	total := len(lines)
	if total == 0 {
		return nil, 0
	}
	if total > maxLines {
		lines = lines[total-maxLines:]
	}
	return lines, total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

// Printf satisfies the sandbox server's logger.
func (l *Logbook) Printf(format string, args ...any) {
	l.Info(format, args...)
}
