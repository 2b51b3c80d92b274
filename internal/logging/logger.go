// Package logging provides leveled logging and replicate tracing for twfelab.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A RunTrace for structured JSONL per-replicate traces
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for per-row diagnostics.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RunTrace writes one JSONL event per finished Monte-Carlo replicate.
// It is safe for concurrent use; a nil RunTrace is safe to use and all of
// its methods are no-ops.
type RunTrace struct {
	mu   sync.Mutex
	file *os.File
}

// NewRunTrace opens a trace file for append at path. At "info" level (the
// default) no file is created and nil is returned; nil is also returned when
// the file cannot be opened.
func NewRunTrace(path string, level string) *RunTrace {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &RunTrace{file: f}
}

// Replicate records one finished replicate: which configuration it belongs
// to, its replicate index, the number of estimation rows it produced, and
// how long it took. Safe to call on nil receiver.
func (rt *RunTrace) Replicate(config, replicate, rows int, elapsed time.Duration) {
	if rt == nil || rt.file == nil {
		return
	}

	entry := map[string]any{
		"time":       time.Now().UTC().Format(time.RFC3339Nano),
		"config":     config,
		"replicate":  replicate,
		"rows":       rows,
		"elapsed_ms": elapsed.Milliseconds(),
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = rt.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (rt *RunTrace) Close() {
	if rt == nil || rt.file == nil {
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.file.Close()
	rt.file = nil
}
