// Package saga runs effect workers in response to dispatched actions.
//
// A watcher is registered per action type. TakeLatest supersedes the running
// worker when a new action of the same type arrives: its context is cancelled
// and anything it still puts is dropped. TakeEvery starts an independent
// worker for every action.
//
//	rt := saga.New(st)
//	defer rt.Close()
//	rt.TakeLatest("category/LIST_REQUEST", func(ctx context.Context, a store.Action, put saga.Put) {
//	    res, err := api.Categories.List(ctx, a.Payload.(api.Query))
//	    ...
//	    put(store.Action{Type: "category/LIST_SUCCESS", Payload: res})
//	})
package saga

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/metrics"
	"github.com/shashiranjanraj/shopdesk/pkg/reqid"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// Put dispatches an action produced by a worker. The runtime stamps it with
// the triggering action's Seq and correlation ID.
type Put func(store.Action)

// Worker handles one triggering action.
type Worker func(ctx context.Context, trigger store.Action, put Put)

// Runtime owns the watchers registered against one store.
type Runtime struct {
	d      store.Dispatcher
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	latest map[string]*slot
	unsubs []func()
	closed bool
}

// slot tracks the current worker of a TakeLatest watcher.
type slot struct {
	gen    uint64
	cancel context.CancelFunc
}

// New creates a runtime dispatching into d.
func New(d store.Dispatcher) *Runtime {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{
		d:      d,
		ctx:    ctx,
		cancel: cancel,
		latest: map[string]*slot{},
	}
}

// TakeLatest runs w for every action of type actionType, cancelling the
// previous worker of the same watcher.
func (r *Runtime) TakeLatest(actionType string, w Worker) {
	r.watch(actionType, func(a store.Action) {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		s := r.latest[actionType]
		if s == nil {
			s = &slot{}
			r.latest[actionType] = s
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.gen++
		gen := s.gen
		ctx, cancel := context.WithCancel(r.ctx)
		s.cancel = cancel
		r.wg.Add(1)
		r.mu.Unlock()

		current := func() bool {
			r.mu.Lock()
			defer r.mu.Unlock()
			return s.gen == gen
		}
		go r.run(ctx, cancel, "latest", a, w, current)
	})
}

// TakeEvery runs w for every action of type actionType without cancellation.
func (r *Runtime) TakeEvery(actionType string, w Worker) {
	r.watch(actionType, func(a store.Action) {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		ctx, cancel := context.WithCancel(r.ctx)
		r.wg.Add(1)
		r.mu.Unlock()

		go r.run(ctx, cancel, "every", a, w, func() bool { return true })
	})
}

func (r *Runtime) watch(actionType string, start func(store.Action)) {
	unsub := r.d.OnAction(func(a store.Action) {
		if a.Type == actionType {
			start(a)
		}
	})
	r.mu.Lock()
	r.unsubs = append(r.unsubs, unsub)
	r.mu.Unlock()
}

func (r *Runtime) run(ctx context.Context, cancel context.CancelFunc, trigger string, a store.Action, w Worker, current func() bool) {
	defer r.wg.Done()
	defer cancel()

	id := a.Meta.CorrelationID
	if id == "" {
		id = reqid.New()
	}
	ctx = reqid.WithValue(ctx, id)
	log := logger.Base().With("correlation_id", id, "action", a.Type, "seq", a.Seq)
	ctx = logger.InjectLogger(ctx, log)

	metrics.WorkersInFlight.Inc()
	defer metrics.WorkersInFlight.Dec()

	put := func(out store.Action) {
		if ctx.Err() != nil || !current() {
			log.Debug("saga: dropped put from superseded worker", "put", out.Type)
			return
		}
		if out.Meta.RequestSeq == 0 {
			out.Meta.RequestSeq = a.Seq
		}
		if out.Meta.CorrelationID == "" {
			out.Meta.CorrelationID = id
		}
		r.d.Dispatch(out)
	}

	defer func() {
		if v := recover(); v != nil {
			metrics.WorkerOutcomes.WithLabelValues(trigger, "panic").Inc()
			log.Error("saga: worker panicked", "panic", fmt.Sprint(v), "stack", string(debug.Stack()))
		}
	}()

	w(ctx, a, put)

	outcome := "done"
	if ctx.Err() != nil || !current() {
		outcome = "cancelled"
	}
	metrics.WorkerOutcomes.WithLabelValues(trigger, outcome).Inc()
}

// Wait blocks until every running worker has returned.
func (r *Runtime) Wait() {
	r.wg.Wait()
}

// Close stops watching, cancels running workers and waits for them.
func (r *Runtime) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	r.cancel()
	r.wg.Wait()
}
