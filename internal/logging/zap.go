package logging

import (
	"go.uber.org/zap"

	"github.com/erraggy/refc"
)

// ZapAdapter adapts a *zap.Logger to refc.Logger. Attributes are passed as
// alternating key/value pairs, as with the sugared logger.
type ZapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter wraps logger. A nil logger discards everything.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAdapter{sugar: logger.Sugar()}
}

// Debug logs at debug level.
func (z *ZapAdapter) Debug(msg string, attrs ...any) { z.sugar.Debugw(msg, attrs...) }

// Info logs at info level.
func (z *ZapAdapter) Info(msg string, attrs ...any) { z.sugar.Infow(msg, attrs...) }

// Warn logs at warn level.
func (z *ZapAdapter) Warn(msg string, attrs ...any) { z.sugar.Warnw(msg, attrs...) }

// Error logs at error level.
func (z *ZapAdapter) Error(msg string, attrs ...any) { z.sugar.Errorw(msg, attrs...) }

// With returns a logger that adds attrs to every entry.
func (z *ZapAdapter) With(attrs ...any) refc.Logger {
	return &ZapAdapter{sugar: z.sugar.With(attrs...)}
}

// Sync flushes buffered entries.
func (z *ZapAdapter) Sync() error { return z.sugar.Sync() }

var _ refc.Logger = (*ZapAdapter)(nil)
