// Package debug is the application log. The terminal belongs to the TUI, so
// everything goes to a file.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	logger  = zap.NewNop().Sugar()
	level   = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	file    *os.File
	enabled bool
)

// DefaultPath returns ~/.config/go-sustain/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-sustain", "debug.log")
}

// Enable starts logging to path at the given level ("debug", "info", "warn",
// "error"). An empty path uses DefaultPath.
func Enable(path, lvl string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}
	if lvl != "" {
		l, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		level.SetLevel(l)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(f), level)

	file = f
	logger = zap.New(core).Sugar()
	enabled = true

	logger.Named("debug").Info("=== Debug logging started ===")
	return nil
}

// Use routes log output to an existing zap logger (tests, embedding)
func Use(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l.Sugar()
	enabled = true
}

// Disable stops logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	_ = logger.Sync()
	if file != nil {
		file.Close()
		file = nil
	}
	logger = zap.NewNop().Sugar()
	enabled = false
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Log writes a debug message under category
func Log(category, format string, args ...any) {
	current().Named(category).Debugf(format, args...)
}

// Info writes an info message under category
func Info(category, format string, args ...any) {
	current().Named(category).Infof(format, args...)
}

// Warn writes a warning under category
func Warn(category, format string, args ...any) {
	current().Named(category).Warnf(format, args...)
}

// Error writes an error under category
func Error(category, format string, args ...any) {
	current().Named(category).Errorf(format, args...)
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	if n <= 0 {
		n = 1
	}
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
