package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"timer-sync-server/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process logger. When a log file is configured, output goes
// to both stderr and a size-rotated file; the returned func closes the file.
func New(cfg config.LoggingConfig) (*slog.Logger, func() error) {
	var (
		out     io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: 3,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stderr, rotator)
		closeFn = rotator.Close
	}

	return slog.New(newHandler(out, cfg)), closeFn
}

func newHandler(w io.Writer, cfg config.LoggingConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
