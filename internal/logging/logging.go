package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chuxorg/chux-travel/internal/requestid"
)

// New builds a zap logger writing to w. format is "json" or "console".
// A nil w writes to stderr.
func New(level, format string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	enc, err := newEncoder(strings.TrimSpace(format))
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	switch format {
	case "", "console":
		return zapcore.NewConsoleEncoder(cfg), nil
	case "json":
		return zapcore.NewJSONEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s (expected json or console)", format)
	}
}

// WithRequest adds the request id carried by ctx, if any.
func WithRequest(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	if id := requestid.FromContext(ctx); id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}
