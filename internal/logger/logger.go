// Package logger provides the structured logging API used across the
// NFS v3 core. It wraps log/slog behind a small set of package-level
// functions so handler code never has to carry a *slog.Logger around.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Level is the minimum severity a log record must have to be emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config configures the package-level logger.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
}

var (
	currentLevel atomic.Int32

	mu      sync.RWMutex
	slogger *slog.Logger
	output  io.Writer = os.Stdout
	format  string    = "text"
)

func init() {
	currentLevel.Store(int32(LevelInfo))
	reconfigure()
}

func toSlogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func reconfigure() {
	mu.Lock()
	defer mu.Unlock()

	levelVar := new(slog.LevelVar)
	levelVar.Set(toSlogLevel(Level(currentLevel.Load())))
	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	slogger = slog.New(handler)
}

// Init applies a Config to the package-level logger. Called once at
// process startup by whichever transport embeds the core; the core
// itself never calls this.
func Init(cfg Config) {
	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	if cfg.Format != "" {
		SetFormat(cfg.Format)
	}
}

// InitWithWriter redirects log output, primarily for tests.
func InitWithWriter(w io.Writer, level string) {
	mu.Lock()
	output = w
	mu.Unlock()
	if level != "" {
		SetLevel(level)
	} else {
		reconfigure()
	}
}

// SetLevel sets the minimum level; unknown values are ignored.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel.Store(int32(LevelDebug))
	case "INFO":
		currentLevel.Store(int32(LevelInfo))
	case "WARN":
		currentLevel.Store(int32(LevelWarn))
	case "ERROR":
		currentLevel.Store(int32(LevelError))
	default:
		return
	}
	reconfigure()
}

// SetFormat sets the output encoding ("text" or "json").
func SetFormat(f string) {
	f = strings.ToLower(f)
	if f != "text" && f != "json" {
		return
	}
	mu.Lock()
	format = f
	mu.Unlock()
	reconfigure()
}

func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at debug level: Debug("msg", "key1", v1, "key2", v2).
func Debug(msg string, args ...any) { getLogger().Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { getLogger().Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { getLogger().Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { getLogger().Error(msg, args...) }

// DebugCtx logs at debug level, attributing the record to ctx for trace
// correlation by handlers that propagate a span in the context.
func DebugCtx(ctx context.Context, msg string, args ...any) { getLogger().DebugContext(ctx, msg, args...) }

// InfoCtx logs at info level with context.
func InfoCtx(ctx context.Context, msg string, args ...any) { getLogger().InfoContext(ctx, msg, args...) }

// WarnCtx logs at warn level with context.
func WarnCtx(ctx context.Context, msg string, args ...any) { getLogger().WarnContext(ctx, msg, args...) }

// ErrorCtx logs at error level with context.
func ErrorCtx(ctx context.Context, msg string, args ...any) { getLogger().ErrorContext(ctx, msg, args...) }
