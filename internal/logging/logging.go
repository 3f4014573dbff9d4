package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the application-wide structured logger.
type Logger = zap.SugaredLogger

// New builds the process logger. Verbose enables debug level and caller
// annotations; otherwise output is a terse console format on stderr.
func New(verbose bool) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
	}

	base, err := cfg.Build()
	if err != nil {
		// Config above is static; Build only fails on invalid paths.
		base = zap.NewNop()
	}
	return base.Sugar()
}

// NewNop returns a logger that discards everything. Used by tests and as
// a fallback when no logger was injected.
func NewNop() *Logger {
	return zap.NewNop().Sugar()
}

// WithComponent tags a child logger with a component name.
func WithComponent(logger *Logger, component string) *Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With("component", component)
}
