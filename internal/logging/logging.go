package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	currentLevel LogLevel
	levelOnce    sync.Once

	loggerMu sync.RWMutex
	sugar    *zap.SugaredLogger
)

// initLevel initializes the log level from environment variables
func initLevel() {
	levelOnce.Do(func() {
		// DEBUG wins over LOG_LEVEL
		if debug := os.Getenv("DEBUG"); debug != "" {
			switch strings.ToLower(debug) {
			case "1", "true", "yes", "on":
				currentLevel = LevelDebug
				return
			}
		}

		currentLevel = ParseLevel(os.Getenv("LOG_LEVEL"))
	})
}

// ParseLevel converts a level name to a LogLevel. Unknown names map to info.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel overrides the level picked up from the environment.
// Used when the level comes from a flag or the config file.
func SetLevel(level LogLevel) {
	initLevel()
	loggerMu.Lock()
	currentLevel = level
	loggerMu.Unlock()
}

// SetOutput redirects all log output to w. Mostly useful in tests.
func SetOutput(w io.Writer) {
	initLevel()
	loggerMu.Lock()
	defer loggerMu.Unlock()
	sugar = build(zapcore.AddSync(w))
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return currentLevel
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// build must be called with loggerMu held.
func build(out zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encCfg.ConsoleSeparator = " "
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	// Level filtering happens in the wrappers so Printf can bypass it.
	core := zapcore.NewCore(enc, out, zapcore.DebugLevel)
	return zap.New(core).Sugar()
}

func logger() *zap.SugaredLogger {
	initLevel()
	loggerMu.RLock()
	l := sugar
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if sugar == nil {
		sugar = build(zapcore.Lock(os.Stderr))
	}
	return sugar
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	if GetLevel() <= LevelDebug {
		logger().Debugf(format, args...)
	}
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	if GetLevel() <= LevelInfo {
		logger().Infof(format, args...)
	}
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	if GetLevel() <= LevelWarn {
		logger().Warnf(format, args...)
	}
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	if GetLevel() <= LevelError {
		logger().Errorf(format, args...)
	}
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	logger().Fatalf(format, args...)
}

// Printf logs at info level regardless of the configured level
func Printf(format string, args ...interface{}) {
	logger().Infof(format, args...)
}

// Println is the fmt.Sprintln flavour of Printf
func Println(args ...interface{}) {
	Printf("%s", strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

// Sync flushes buffered log entries. Call before exit.
func Sync() {
	_ = logger().Sync()
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// KV adapts the package logger to key/value leveled logger interfaces,
// such as the one go-retryablehttp accepts.
type KV struct{}

// Error logs msg with key/value pairs at error level.
func (KV) Error(msg string, keysAndValues ...interface{}) {
	if GetLevel() <= LevelError {
		logger().Errorw(msg, keysAndValues...)
	}
}

// Warn logs msg with key/value pairs at warn level.
func (KV) Warn(msg string, keysAndValues ...interface{}) {
	if GetLevel() <= LevelWarn {
		logger().Warnw(msg, keysAndValues...)
	}
}

// Info logs msg with key/value pairs at info level.
func (KV) Info(msg string, keysAndValues ...interface{}) {
	if GetLevel() <= LevelInfo {
		logger().Infow(msg, keysAndValues...)
	}
}

// Debug logs msg with key/value pairs at debug level.
func (KV) Debug(msg string, keysAndValues ...interface{}) {
	if GetLevel() <= LevelDebug {
		logger().Debugw(msg, keysAndValues...)
	}
}
