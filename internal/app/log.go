package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"btmad/internal/mad"
)

// madHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<opID>\t<message>\t<key=value ...>
//
// Values holding credentials are redacted. Values containing tabs or
// newlines, such as recipe instructions, are quoted to keep one record per
// line.
type madHandler struct {
	w     io.Writer
	opID  string
	attrs []slog.Attr
}

// redactedKeys name attrs whose values never reach the log.
var redactedKeys = map[string]bool{
	"api_key":       true,
	"client_secret": true,
	"token":         true,
}

func (h *madHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *madHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, level, h.opID, formatValue(r.Message))
	if err != nil {
		return err
	}

	for _, a := range h.attrs {
		writeAttr(h.w, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(h.w, a)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func writeAttr(w io.Writer, a slog.Attr) {
	if redactedKeys[a.Key] {
		fmt.Fprintf(w, "\t%s=[redacted]", a.Key)
		return
	}
	fmt.Fprintf(w, "\t%s=%s", a.Key, formatValue(a.Value.Resolve().String()))
}

func formatValue(s string) string {
	if strings.ContainsAny(s, "\t\n\r") {
		return strconv.Quote(s)
	}
	return s
}

func (h *madHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &madHandler{
		w:     h.w,
		opID:  h.opID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *madHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that writes to logDir/btmad.log and,
// when stderr is non-nil, mirrors to it. It returns the slog.Logger and the
// open log file (for cleanup).
func newLogger(logDir string, opID string, stderr io.Writer) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "btmad.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var w io.Writer = f
	if stderr != nil {
		w = io.MultiWriter(f, stderr)
	}
	handler := &madHandler{w: w, opID: opID}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the mad.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

var _ mad.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
