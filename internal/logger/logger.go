// Package logger holds the process-wide structured logger
package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global logger. It discards everything until Initialize
	// is called.
	Logger *zap.SugaredLogger
	// JSONOutput records whether Initialize selected JSON output
	JSONOutput bool
)

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger. Logs go to stderr so generated
// output written to stdout stays clean.
func Initialize(jsonOutput, verbose bool) error {
	JSONOutput = jsonOutput

	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	var zapLogger *zap.Logger
	var err error

	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
		zapLogger, err = config.Build()
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.TimeKey = ""
		encoderConfig.CallerKey = ""
		zapLogger = zap.New(
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(encoderConfig),
				zapcore.AddSync(os.Stderr),
				level,
			),
		)
	}

	if err != nil {
		return err
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Use replaces the global logger; tests use it with an observer core
func Use(l *zap.Logger) {
	Logger = l.Sugar()
}

// Sync flushes buffered log entries
func Sync() {
	_ = Logger.Sync()
}

func Debugw(msg string, keysAndValues ...interface{}) { Logger.Debugw(msg, keysAndValues...) }
func Infow(msg string, keysAndValues ...interface{})  { Logger.Infow(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...interface{})  { Logger.Warnw(msg, keysAndValues...) }
func Errorw(msg string, keysAndValues ...interface{}) { Logger.Errorw(msg, keysAndValues...) }

// Phase logs the start of a pipeline phase and returns a function that logs
// its completion with the elapsed time and any extra fields.
func Phase(name string) func(keysAndValues ...interface{}) {
	start := time.Now()
	Logger.Debugw("phase started", "phase", name)
	return func(keysAndValues ...interface{}) {
		fields := append([]interface{}{"phase", name, "duration", time.Since(start)}, keysAndValues...)
		Logger.Infow("phase finished", fields...)
	}
}
