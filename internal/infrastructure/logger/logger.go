// Package logger builds the zap loggers used across DealerDesk and carries
// request-scoped loggers through context.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string
	Service    string // added as a "service" field when set
}

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// New creates a zap logger with the given configuration. Errors and above
// carry a stack trace.
func New(cfg *Config) (*zap.Logger, error) {
	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}
	core := zapcore.NewCore(encoderFor(cfg.Format, timeFormat), sink, ParseLevel(cfg.Level))

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}
	return zap.New(core, opts...), nil
}

// ParseLevel converts a level name to a zapcore.Level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	var lvl zapcore.Level
	switch name := strings.ToLower(strings.TrimSpace(level)); name {
	case "warning":
		return zapcore.WarnLevel
	case "debug", "warn", "error", "fatal":
		_ = lvl.UnmarshalText([]byte(name))
		return lvl
	default:
		return zapcore.InfoLevel
	}
}

func encoderFor(format, timeFormat string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeFormat)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if strings.EqualFold(format, "console") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log output %q: %w", output, err)
	}
	return zapcore.AddSync(f), nil
}
