package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/dentalcare/aftercare/internal/config"
)

// SetupLogger installs the default slog logger for cfg, writing to w.
func SetupLogger(cfg config.LogConfig, w io.Writer) {
	opts := &slog.HandlerOptions{}
	switch strings.ToLower(cfg.Level) {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
