package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the process-wide base logger.
	Log *zap.Logger

	mu sync.Mutex
)

// Init builds the base logger at the given level ("debug", "info", "warn", "error").
// Unknown levels fall back to info.
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		lvl,
	)

	mu.Lock()
	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	mu.Unlock()

	return nil
}

// GetLogger returns a named sugared logger, initializing the base logger on first use.
func GetLogger(name string) *zap.SugaredLogger {
	mu.Lock()
	base := Log
	mu.Unlock()

	if base == nil {
		_ = Init("info")
		mu.Lock()
		base = Log
		mu.Unlock()
	}
	return base.Named(name).Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if Log != nil {
		_ = Log.Sync()
	}
}
