package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// sioHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runTag>\t<message>\t<key=value ...>
//
// The run tag names the CLI invocation, so one organize run's lines can be
// pulled out of sio.log with a single grep.
type sioHandler struct {
	w      io.Writer
	runTag string
	attrs  []slog.Attr
}

func (h *sioHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *sioHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, level, h.runTag, r.Message)
	if err != nil {
		return err
	}

	// Write pre-set attrs.
	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}

	// Write per-record attrs.
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *sioHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sioHandler{
		w:      h.w,
		runTag: h.runTag,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *sioHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that writes to both logDir/sio.log
// and stderr. sio.log is append-only across runs; the run tag keeps
// interleaved invocations distinguishable. Returns the slog.Logger and the
// open log file (for cleanup).
func newLogger(logDir string, runTag string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "sio.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	w := io.MultiWriter(f, os.Stderr)
	handler := &sioHandler{w: w, runTag: runTag}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the organize.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
