// Package kernel assembles a running admin: config, logging, cache, session,
// backend clients, the store with every slice, the saga runtime and the toast
// side channel.
//
//	app, err := kernel.New(ctx, kernel.Options{})
//	if err != nil { ... }
//	defer app.Close()
//
//	res, err := app.Request(ctx, app.Slices.Categories.List(api.Query{Page: 1}))
package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/slices"
	"github.com/shashiranjanraj/shopdesk/app/transitions"
	"github.com/shashiranjanraj/shopdesk/config"
	"github.com/shashiranjanraj/shopdesk/pkg/auth"
	"github.com/shashiranjanraj/shopdesk/pkg/cache"
	"github.com/shashiranjanraj/shopdesk/pkg/crypt"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/notify"
	"github.com/shashiranjanraj/shopdesk/pkg/saga"
	"github.com/shashiranjanraj/shopdesk/pkg/storage"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
	"github.com/shashiranjanraj/shopdesk/pkg/workerpool"
)

// ErrNotRequest is returned by Request for an action that is not a REQUEST.
var ErrNotRequest = errors.New("kernel: action is not a request")

// Options override the pieces New would otherwise build from config.
type Options struct {
	Backends  *api.Backends
	Cache     cache.Store
	Tokens    auth.TokenStore
	Navigator auth.Navigator
	Notifier  notify.Notifier
	Disks     *storage.Manager
	// SkipLogSink keeps New from dialling LOG_MONGO_URI.
	SkipLogSink bool
}

// App is one assembled admin session.
type App struct {
	Store    *store.Store[slices.RootState]
	Runtime  *saga.Runtime
	Slices   *slices.Slices
	Services *api.Services
	Session  *auth.Session
	Cache    cache.Store
	Disks    *storage.Manager

	pool    *workerpool.Pool
	closers []func(context.Context) error
	once    sync.Once
}

// New builds an App. The returned App owns every resource it opened.
func New(ctx context.Context, o Options) (app *App, err error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("kernel: config: %w", err)
	}
	a := &App{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if !o.SkipLogSink && config.LogMongoURI() != "" {
		sink, err := logger.DialMongo(ctx, config.LogMongoURI(), config.LogMongoDB(), logger.MongoOptions{Level: slog.LevelDebug})
		if err != nil {
			logger.Warn("kernel: mongo log sink disabled", "error", err)
		} else {
			logger.Attach(sink.Handler())
			a.closers = append(a.closers, sink.Close)
		}
	}

	a.Cache = o.Cache
	if a.Cache == nil {
		if a.Cache, err = cache.Open(config.CacheDriver()); err != nil {
			return nil, fmt.Errorf("kernel: cache: %w", err)
		}
		if r, ok := a.Cache.(*cache.Redis); ok {
			a.closers = append(a.closers, func(context.Context) error { return r.Close() })
		}
	}

	tokens := o.Tokens
	if tokens == nil {
		if tokens, err = a.openTokens(); err != nil {
			return nil, err
		}
	}

	backends := o.Backends
	if backends == nil {
		b := api.BackendsFromConfig()
		backends = &b
	}
	nav := o.Navigator
	if nav == nil {
		nav = auth.NavigatorFunc(func(path string) {
			logger.Warn("session ended, log in again", "redirect", path)
		})
	}

	a.Session = auth.NewSession(backends.Main, tokens, nav)
	a.Services = api.NewServices(*backends, a.Session, a.Cache, config.CacheTTL())
	a.Slices = slices.NewSlices(a.Services, a.Session)
	a.Store = store.New(a.Slices.Reduce, slices.RootState{})
	a.closers = append(a.closers, a.trace())

	a.Runtime = saga.New(a.Store)
	a.Slices.Register(a.Runtime)
	a.closers = append(a.closers, func(context.Context) error {
		a.Runtime.Close()
		return nil
	})

	a.pool = workerpool.New("notify", 2)
	n := o.Notifier
	if n == nil {
		n = a.defaultNotifier()
	}
	stop := notify.Listen(a.Store, n, slices.ToastFor)
	a.closers = append(a.closers, func(context.Context) error {
		stop()
		a.pool.Shutdown()
		return nil
	})

	a.Disks = o.Disks
	if a.Disks == nil {
		a.Disks = storage.Open()
	}
	return a, nil
}

func (a *App) openTokens() (auth.TokenStore, error) {
	kind := config.TokenStore()
	if kind != "redis" {
		ts, err := auth.OpenTokenStore(kind, config.TokenFile(), nil)
		if err != nil {
			return nil, err
		}
		if f, ok := ts.(*auth.FileTokens); ok && config.TokenKey() != "" {
			if f.Sealer, err = crypt.New(config.TokenKey()); err != nil {
				return nil, fmt.Errorf("kernel: token key: %w", err)
			}
		}
		return ts, nil
	}
	if r, ok := a.Cache.(*cache.Redis); ok {
		return auth.OpenTokenStore(kind, "", r.Client())
	}
	r, err := cache.Connect(config.RedisAddr(), config.RedisPassword())
	if err != nil {
		return nil, fmt.Errorf("kernel: token store: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return r.Close() })
	return auth.OpenTokenStore(kind, "", r.Client())
}

func (a *App) defaultNotifier() notify.Notifier {
	ns := []notify.Notifier{notify.Log()}
	if url := config.SlackWebhook(); url != "" {
		ns = append(ns, notify.NewWebhook(url, a.pool))
	}
	return notify.Multi(ns...)
}

// trace logs every dispatched action. With a mongo sink attached this is the
// replayable action history of the session.
func (a *App) trace() func(context.Context) error {
	unsub := a.Store.OnAction(func(act store.Action) {
		logger.Debug("action",
			"action", act.Type,
			"seq", act.Seq,
			"request_seq", act.Meta.RequestSeq,
			"correlation_id", act.Meta.CorrelationID,
		)
	})
	return func(context.Context) error {
		unsub()
		return nil
	}
}

// State is the current store state.
func (a *App) State() slices.RootState { return a.Store.State() }

// Request dispatches req and waits for the SUCCESS or FAILURE answering it.
// A FAILURE is returned as the response together with its slices.Failed
// error. A cancelled ctx stops the wait, not the worker.
func (a *App) Request(ctx context.Context, req store.Action) (store.Action, error) {
	feature, op, phase, ok := slices.ParseType(req.Type)
	if !ok || phase != slices.Request {
		return store.Action{}, fmt.Errorf("%w: %s", ErrNotRequest, req.Type)
	}
	res, err := store.Await(ctx, a.Store, req, slices.Responses(feature, op)...)
	if err != nil {
		return store.Action{}, err
	}
	if f, ok := res.Payload.(slices.Failed); ok {
		return res, f
	}
	return res, nil
}

// SyncTransitions replaces the local order status table with the server's,
// when the server publishes one.
func (a *App) SyncTransitions(ctx context.Context) error {
	table, err := a.Services.OrderStatuses.Transitions(ctx)
	if err != nil {
		return fmt.Errorf("kernel: order transitions: %w", err)
	}
	if transitions.Orders.Replace(table) {
		logger.WithCtx(ctx).Info("order transitions loaded from server", "statuses", len(table))
	}
	return nil
}

// Close stops the runtime and releases everything New opened, newest first.
func (a *App) Close() {
	a.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](ctx); err != nil {
				logger.Warn("kernel: close", "error", err)
			}
		}
	})
}
