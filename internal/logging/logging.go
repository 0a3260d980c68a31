// Package logging builds the slog loggers used across docembed.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Formats accepted by New.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// New returns a slog.Logger writing to w through a charmbracelet/log handler.
// Empty level and format default to "info" and "text".
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl := charmlog.InfoLevel
	if level != "" {
		var err error
		lvl, err = charmlog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}

	var formatter charmlog.Formatter
	switch strings.ToLower(format) {
	case "", FormatText:
		formatter = charmlog.TextFormatter
	case FormatJSON:
		formatter = charmlog.JSONFormatter
	case FormatLogfmt:
		formatter = charmlog.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q: expected text, json or logfmt", format)
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	return slog.New(handler), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
