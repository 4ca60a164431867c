package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type Logger = slog.Logger

var (
	defaultLogger *Logger

	String = slog.String
	Time   = slog.Time
)

func init() {
	InitLogger(io.Discard, false)
}

// InitLogger replaces the default logger. The CLI logs to stderr so that
// reports written to stdout stay machine-readable.
func InitLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	defaultLogger = slog.New(&prefixHandler{
		Handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
	})
}

// InitStderrLogger discards everything but debug output in quiet mode.
func InitStderrLogger(debug, quiet bool) {
	if quiet && !debug {
		InitLogger(io.Discard, false)
		return
	}
	InitLogger(os.Stderr, debug)
}

// WithPrefix returns a logger whose messages start with "[prefix] ".
func WithPrefix(prefix string) *Logger {
	return slog.New(&prefixHandler{
		prefix:  prefix,
		Handler: defaultLogger.Handler(),
	})
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Err(err error) slog.Attr {
	return slog.Any("error", err)
}

func FilePath(path string) slog.Attr {
	return slog.String("file_path", path)
}

func DirPath(path string) slog.Attr {
	return slog.String("dir_path", path)
}

type prefixHandler struct {
	slog.Handler
	prefix string
}

func (h *prefixHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.prefix != "" {
		r.Message = "[" + h.prefix + "] " + r.Message
	}
	return h.Handler.Handle(ctx, r)
}

func (h *prefixHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prefixHandler{Handler: h.Handler.WithAttrs(attrs), prefix: h.prefix}
}

func (h *prefixHandler) WithGroup(name string) slog.Handler {
	return &prefixHandler{Handler: h.Handler.WithGroup(name), prefix: h.prefix}
}
