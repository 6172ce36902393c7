// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"time"
)

// Config controls logger setup.
type Config struct {
	// Verbose lowers the level to Debug and adds source locations.
	Verbose bool

	// JSON selects the JSON handler instead of the text handler.
	JSON bool
}

// Setup builds a logger writing to w, installs it as the slog default and
// returns it. Without Verbose only warnings and errors are emitted, so the
// progress lines the stages print stay the only regular output.
func Setup(w io.Writer, cfg Config) *slog.Logger {
	level := slog.LevelWarn
	addSource := false
	if cfg.Verbose {
		level = slog.LevelDebug
		addSource = true
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.JSON {
		h = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(h)
	slog.SetDefault(l)
	return l
}
