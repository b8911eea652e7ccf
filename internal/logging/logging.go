// Package logging builds the command line logger: human-readable text by
// default, or JSON lines for build pipelines.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/erraggy/refc"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatText writes colored, human-readable lines.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// Formats returns the accepted format names.
func Formats() []string {
	return []string{string(FormatText), string(FormatJSON)}
}

// ParseFormat parses a format name. The empty string selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("logging: unknown format %q (want one of %s)", s, strings.Join(Formats(), ", "))
	}
}

// New returns a logger writing to w. Verbose enables debug output; otherwise
// only warnings and errors are written.
func New(format Format, verbose bool, w io.Writer) (refc.Logger, error) {
	switch format {
	case FormatText, "":
		level := log.WarnLevel
		if verbose {
			level = log.DebugLevel
		}
		handler := log.NewWithOptions(w, log.Options{
			Prefix: "refc",
			Level:  level,
		})
		return refc.NewSlogAdapter(slog.New(handler)), nil

	case FormatJSON:
		level := zapcore.WarnLevel
		if verbose {
			level = zapcore.DebugLevel
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(w),
			zap.NewAtomicLevelAt(level),
		)
		return NewZapAdapter(zap.New(core)), nil

	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
}

// Sync flushes buffered log entries, if the logger buffers any.
func Sync(l refc.Logger) error {
	if s, ok := l.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}
