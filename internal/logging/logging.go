// Package logging builds the zap logger used for operator-facing messages on
// stderr. Report output never goes through it.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel keeps a normal run quiet apart from warnings.
const DefaultLevel = "warn"

// ParseLevel maps a --log-level value to a zap level.
func ParseLevel(value string) (zapcore.Level, error) {
	var lvl zapcore.Level
	value = strings.TrimSpace(value)
	if value == "" {
		value = DefaultLevel
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(value))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", value, err)
	}
	return lvl, nil
}

// New returns a console logger writing to w at the given level.
func New(w io.Writer, level zapcore.Level) *zap.Logger {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format(time.RFC3339))
	}
	config.EncodeDuration = func(d time.Duration, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(d.String())
	}
	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(config),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	))
}
