package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// NewLogger builds a slog.Logger writing to w as configured by cfg.
func NewLogger(cfg Log, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, errors.Errorf("invalid log format %q", cfg.Format)
	}
}
