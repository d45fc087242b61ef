// Package logger provides the structured, levelled logger used across shopdesk.
//
// Every saga worker runs with a correlation ID in its context; WithCtx returns
// a logger already tagged with it, so a REQUEST, the HTTP call it triggers and
// the SUCCESS/FAILURE it produces can be followed in the logs:
//
//	log := logger.WithCtx(ctx)
//	log.Info("list fetched", "feature", "category", "items", 12)
//	// → time=... level=INFO msg="list fetched" correlation_id=4f0c... feature=category items=12
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/shashiranjanraj/shopdesk/config"
	"github.com/shashiranjanraj/shopdesk/pkg/reqid"
)

var (
	mu sync.RWMutex
	L  *slog.Logger
)

func init() {
	L = slog.New(baseHandler(config.AppEnv()))
	slog.SetDefault(L)
}

func baseHandler(env string) slog.Handler {
	switch env {
	case "production", "prod":
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "test":
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	default:
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// Attach fans every record out to h in addition to the console handler.
func Attach(h slog.Handler) {
	mu.Lock()
	defer mu.Unlock()
	L = slog.New(NewMultiHandler(baseHandler(config.AppEnv()), h))
	slog.SetDefault(L)
}

// Base returns the current process logger.
func Base() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return L
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the logger injected into ctx, or the base logger tagged
// with the correlation ID found in ctx.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	if id := reqid.FromCtx(ctx); id != "" {
		return Base().With("correlation_id", id)
	}
	return Base()
}

// InjectLogger stores a pre-tagged logger in ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

func Debug(msg string, args ...any) { Base().Debug(msg, args...) }
func Info(msg string, args ...any)  { Base().Info(msg, args...) }
func Warn(msg string, args ...any)  { Base().Warn(msg, args...) }
func Error(msg string, args ...any) { Base().Error(msg, args...) }
