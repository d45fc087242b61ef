// Package notify is the toast side channel.
//
// Workers never raise toasts themselves. A listener registered on the store
// turns mutation SUCCESS/FAILURE actions into Toasts and hands them to a
// Notifier:
//
//	n := notify.Multi(notify.Log(), notify.NewWebhook(url, pool))
//	stop := notify.Listen(st, n, slices.ToastFor)
//	defer stop()
package notify

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// Level is the toast severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toast is one user-visible notification.
type Toast struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
	// Action is the type of the action that raised the toast, if any.
	Action string `json:"action,omitempty"`
}

// Notifier delivers toasts. Notify must not block for long.
type Notifier interface {
	Notify(ctx context.Context, t Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, t Toast)

func (f NotifierFunc) Notify(ctx context.Context, t Toast) { f(ctx, t) }

// Rule maps an action to the toast it raises.
type Rule func(store.Action) (Toast, bool)

// Listen registers a listener on d that raises toasts for actions matched by
// rule. It returns a function that removes the listener.
func Listen(d store.Dispatcher, n Notifier, rule Rule) func() {
	return d.OnAction(func(a store.Action) {
		t, ok := rule(a)
		if !ok {
			return
		}
		if t.Action == "" {
			t.Action = a.Type
		}
		n.Notify(context.Background(), t)
	})
}

// ── Log ──────────────────────────────────────────────────────────────────────

type logNotifier struct{}

// Log writes toasts to the structured logger.
func Log() Notifier { return logNotifier{} }

func (logNotifier) Notify(ctx context.Context, t Toast) {
	log := logger.WithCtx(ctx)
	args := []any{"title", t.Title, "message", t.Message, "action", t.Action}
	switch t.Level {
	case LevelError:
		log.Error("toast", args...)
	case LevelWarning:
		log.Warn("toast", args...)
	default:
		log.Info("toast", args...)
	}
}

// ── Recorder ─────────────────────────────────────────────────────────────────

// Recorder keeps every toast in memory. The CLI prints them and tests assert
// on them.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(_ context.Context, t Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

// Toasts returns a copy of the recorded toasts.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Drain returns the recorded toasts and forgets them.
func (r *Recorder) Drain() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.toasts
	r.toasts = nil
	return out
}

// ── Multi ────────────────────────────────────────────────────────────────────

type multi []Notifier

// Multi fans a toast out to every non-nil notifier.
func Multi(ns ...Notifier) Notifier {
	out := make(multi, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (m multi) Notify(ctx context.Context, t Toast) {
	for _, n := range m {
		n.Notify(ctx, t)
	}
}
