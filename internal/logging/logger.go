// Package logging provides nit's structured logging facility: a thin
// wrapper over log/slog with multi-destination fan-out, a pluggable
// export hook for shipping log records elsewhere, and redaction of
// secret-shaped attributes before anything is written.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level mirrors slog's severity levels under nit's own name so callers
// never import log/slog directly.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redactedKeys names attribute keys whose values must never reach a log
// sink verbatim (spec §7: "secrets must never appear in logs").
var redactedKeys = map[string]bool{
	"api_key":     true,
	"apikey":      true,
	"token":       true,
	"password":    true,
	"secret":      true,
	"bearer":      true,
	"auth_header": true,
}

const redactedValue = "[redacted]"

// LogEntry is the normalized form handed to a LogExporter.
type LogEntry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Service   string
	Attrs     map[string]any
}

// LogExporter ships log entries somewhere beyond the local handlers
// (a platform sink, a buffer for tests, etc.). Implementations must not
// block the calling goroutine indefinitely; Logger gives each export a
// bounded context.
type LogExporter interface {
	Export(ctx context.Context, entry LogEntry) error
	Flush(ctx context.Context) error
	Close() error
}

// NopExporter discards everything. It is the default when Config.Exporter
// is nil.
type NopExporter struct{}

func (NopExporter) Export(context.Context, LogEntry) error { return nil }
func (NopExporter) Flush(context.Context) error            { return nil }
func (NopExporter) Close() error                           { return nil }

// BufferedExporter accumulates entries in memory; used by tests and by
// callers that want to inspect what would have been shipped.
type BufferedExporter struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewBufferedExporter() *BufferedExporter { return &BufferedExporter{} }

func (b *BufferedExporter) Export(_ context.Context, entry LogEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	return nil
}

func (b *BufferedExporter) Flush(context.Context) error { return nil }
func (b *BufferedExporter) Close() error                { return nil }

// Entries returns a snapshot of everything exported so far.
func (b *BufferedExporter) Entries() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// WriterExporter writes a single JSON line per entry to an io.Writer.
type WriterExporter struct {
	w  io.Writer
	mu sync.Mutex
}

func NewWriterExporter(w io.Writer) *WriterExporter { return &WriterExporter{w: w} }

func (e *WriterExporter) Export(_ context.Context, entry LogEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := io.WriteString(e.w, entry.Timestamp.Format(time.RFC3339)+" "+
		entry.Level.String()+" "+entry.Service+" "+entry.Message+"\n")
	return err
}

func (e *WriterExporter) Flush(context.Context) error { return nil }
func (e *WriterExporter) Close() error                { return nil }

// Config controls Logger construction.
type Config struct {
	Level    Level
	LogDir   string // if set, logs also go to <LogDir>/<Service>.log
	Service  string
	JSON     bool
	Quiet    bool // suppress stderr handler entirely
	Exporter LogExporter
}

// Logger is nit's structured logger: slog underneath, plus an optional
// async exporter and file destination.
type Logger struct {
	slog     *slog.Logger
	config   Config
	file     *os.File
	exporter LogExporter
	mu       sync.Mutex
}

// New builds a Logger per config. The returned Logger owns any opened log
// file and exporter; call Close to release them.
func New(config Config) *Logger {
	if config.Exporter == nil {
		config.Exporter = NopExporter{}
	}
	if config.Service == "" {
		config.Service = "nit"
	}

	var handlers []slog.Handler
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	var file *os.File
	if !config.Quiet {
		if config.JSON {
			handlers = append(handlers, slog.NewJSONHandler(os.Stderr, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
		}
	}
	if config.LogDir != "" {
		dir := expandPath(config.LogDir)
		if err := os.MkdirAll(dir, 0o755); err == nil {
			path := filepath.Join(dir, config.Service+".log")
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				file = f
				handlers = append(handlers, slog.NewJSONHandler(f, opts))
			}
		}
	}
	if len(handlers) == 0 {
		handlers = append(handlers, slog.NewTextHandler(io.Discard, opts))
	}

	base := slog.New(&multiHandler{handlers: handlers}).With("service", config.Service)

	return &Logger{slog: base, config: config, file: file, exporter: config.Exporter}
}

var defaultOnce sync.Once
var defaultLogger *Logger

// Default returns a process-wide logger reading level from NIT_LOG_LEVEL.
func Default() *Logger {
	defaultOnce.Do(func() {
		lvl := LevelInfo
		switch strings.ToLower(os.Getenv("NIT_LOG_LEVEL")) {
		case "debug":
			lvl = LevelDebug
		case "warn":
			lvl = LevelWarn
		case "error":
			lvl = LevelError
		}
		defaultLogger = New(Config{Level: lvl})
	})
	return defaultLogger
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

func (l *Logger) log(level Level, msg string, args ...any) {
	redacted := redactArgs(args)
	l.slog.Log(context.Background(), level.toSlogLevel(), msg, redacted...)

	if l.exporter == nil {
		return
	}
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Service:   l.config.Service,
		Attrs:     argsToMap(redacted),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.exporter.Export(ctx, entry)
	}()
}

// With returns a child Logger that prepends args to every subsequent call.
func (l *Logger) With(args ...any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	child := *l
	child.slog = l.slog.With(redactArgs(args)...)
	return &child
}

// Slog exposes the underlying *slog.Logger for libraries that want one.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Close flushes the exporter and closes any open log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if l.exporter != nil {
		_ = l.exporter.Flush(ctx)
		_ = l.exporter.Close()
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func redactArgs(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		if redactedKeys[strings.ToLower(key)] {
			out[i+1] = redactedValue
		}
	}
	return out
}

func argsToMap(args []any) map[string]any {
	m := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		m[key] = args[i+1]
	}
	return m
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// multiHandler fans a slog.Record out to every wrapped handler.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
