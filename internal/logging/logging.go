// Package logging writes the per-run log file. Every record carries the run
// ID so interleaved logs from separate runs can be told apart.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
)

// Logger is a run-scoped slog logger. A nil *Logger discards everything,
// which is what --no-log produces.
type Logger struct {
	slog     *slog.Logger
	file     *os.File
	filePath string
	runID    string
}

// Setup opens logDir/localprep_run_<timestamp>.log. It returns a nil Logger
// when disabled is set.
func Setup(logDir string, verbose, disabled bool) (*Logger, error) {
	if disabled {
		return nil, nil
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", logDir, err)
	}

	name := fmt.Sprintf("localprep_run_%s.log", time.Now().Format("20060102_150405"))
	filePath := filepath.Join(logDir, name)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", filePath, err)
	}

	level := LevelInfo
	if verbose {
		level = LevelDebug
	}
	l := New(file, level)
	l.file, l.filePath = file, filePath
	l.Info("localprep starting", "log_file", filePath, "verbose", verbose)
	return l, nil
}

// New returns a Logger writing text records to w with a fresh run ID.
func New(w io.Writer, level slog.Level) *Logger {
	id := uuid.NewString()
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{slog: slog.New(h).With("run", id), runID: id}
}

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// FilePath is empty for a nil or writer-backed Logger.
func (l *Logger) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

func (l *Logger) log(level slog.Level, msg string, args []any) {
	if l == nil {
		return
	}
	l.slog.Log(context.Background(), level, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }
