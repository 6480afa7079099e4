// Package logging provides a zap-backed implementation of the authgate
// Logger interface, with a console encoder for development and JSON for
// production.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	authgate "github.com/bizmatch/go-authgate"
)

// Config controls how the logger is built.
type Config struct {
	// Env selects the encoder: "dev" (console, colors) or "prod" (JSON).
	Env string
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string
	// Service tags every line, optional.
	Service string
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

var _ authgate.Logger = (*zapLogger)(nil)

// New builds an authgate.Logger on top of zap.
func New(cfg Config) authgate.Logger {
	level := parseLevel(cfg.Level)

	var zcfg zap.Config
	if strings.ToLower(cfg.Env) == "prod" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l, _ = zap.NewProduction()
	}

	if cfg.Service != "" {
		l = l.With(zap.String("service", cfg.Service))
	}

	return &zapLogger{sugar: l.Sugar()}
}

// Wrap adapts an existing zap logger.
func Wrap(l *zap.Logger) authgate.Logger {
	return &zapLogger{sugar: l.Sugar()}
}

func (z *zapLogger) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }
func (z *zapLogger) Info(msg string, args ...any)  { z.sugar.Infow(msg, args...) }
func (z *zapLogger) Warn(msg string, args ...any)  { z.sugar.Warnw(msg, args...) }
func (z *zapLogger) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
