// Package logging provides categorized structured logging for the Jota
// context engine, backed by zap. Each subsystem logs under its own category
// so a single session trace can be filtered per concern.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system.
type Category string

const (
	CategorySession   Category = "session"   // Session store lifecycle, sweeper
	CategoryContext   Category = "context"   // Compaction, assembly, gateway
	CategoryIntent    Category = "intent"    // Classifier and deep analyzer
	CategoryMonologue Category = "monologue" // Mente Maior calls and parsing
	CategoryLLM       Category = "llm"       // Provider calls, cascade routing
	CategoryConfig    Category = "config"    // Config load and hot reload
)

// Logger wraps a zap sugared logger bound to one category.
type Logger struct {
	sugar *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	root    *zap.SugaredLogger
	loggers = make(map[Category]*Logger)
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize configures the logging backend. levelStr is one of
// debug/info/warn/error; file is an optional path (empty means stderr).
// Safe to call more than once; later calls replace the backend.
func Initialize(levelStr, file string) error {
	lvl := parseLevel(levelStr)

	sink := zapcore.AddSync(os.Stderr)
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", file, err)
		}
		sink = zapcore.AddSync(f)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, level)

	mu.Lock()
	defer mu.Unlock()
	level.SetLevel(lvl)
	root = zap.New(core).Sugar()
	loggers = make(map[Category]*Logger)
	return nil
}

// SetLevel changes the minimum level at runtime (used by config hot reload).
func SetLevel(levelStr string) {
	level.SetLevel(parseLevel(levelStr))
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Get returns (or creates) the logger for a category. Works without
// Initialize: falls back to a stderr logger at info level.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	if root == nil {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stderr), level)
		root = zap.New(core).Sugar()
	}
	l := &Logger{sugar: root.Named(string(category))}
	loggers[category] = l
	return l
}

// Debug logs a printf-style debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs a printf-style info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a printf-style warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs a printf-style error.
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

// Session logs at info level under the session category.
func Session(format string, args ...interface{}) { Get(CategorySession).Info(format, args...) }

// SessionDebug logs at debug level under the session category.
func SessionDebug(format string, args ...interface{}) { Get(CategorySession).Debug(format, args...) }

// Context logs at info level under the context category.
func Context(format string, args ...interface{}) { Get(CategoryContext).Info(format, args...) }

// ContextDebug logs at debug level under the context category.
func ContextDebug(format string, args ...interface{}) { Get(CategoryContext).Debug(format, args...) }

// Intent logs at info level under the intent category.
func Intent(format string, args ...interface{}) { Get(CategoryIntent).Info(format, args...) }

// IntentDebug logs at debug level under the intent category.
func IntentDebug(format string, args ...interface{}) { Get(CategoryIntent).Debug(format, args...) }

// Monologue logs at info level under the monologue category.
func Monologue(format string, args ...interface{}) { Get(CategoryMonologue).Info(format, args...) }

// MonologueDebug logs at debug level under the monologue category.
func MonologueDebug(format string, args ...interface{}) { Get(CategoryMonologue).Debug(format, args...) }

// LLM logs at info level under the llm category.
func LLM(format string, args ...interface{}) { Get(CategoryLLM).Info(format, args...) }

// LLMDebug logs at debug level under the llm category.
func LLMDebug(format string, args ...interface{}) { Get(CategoryLLM).Debug(format, args...) }

// Config logs at info level under the config category.
func Config(format string, args ...interface{}) { Get(CategoryConfig).Info(format, args...) }
