// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Option configures New.
type Option func(*handlerConfig)

type handlerConfig struct {
	writer    io.Writer
	format    Format
	level     slog.Level
	addSource bool
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		writer: os.Stderr,
		format: FormatText,
		level:  slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Level) Option {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) Option {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithFormat selects text or JSON output.
func WithFormat(f Format) Option {
	return func(c *handlerConfig) {
		c.format = f
	}
}

// WithWriter redirects output, which defaults to stderr.
func WithWriter(w io.Writer) Option {
	return func(c *handlerConfig) {
		c.writer = w
	}
}

// New creates a logger with the given options.
func New(opts ...Option) *slog.Logger {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	hopts := &slog.HandlerOptions{Level: cfg.level, AddSource: cfg.addSource}
	if cfg.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(cfg.writer, hopts))
	}
	return slog.New(slog.NewTextHandler(cfg.writer, hopts))
}

// Setup builds a logger and installs it as the slog default.
func Setup(opts ...Option) *slog.Logger {
	logger := New(opts...)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel accepts debug, info, warn and error, in any case.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
	return level, nil
}

// ParseFormat accepts text or json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("logging: unknown format %q", s)
	}
}
