// Package store is the single-writer state container every feature slice
// lives in.
//
// State changes only through Dispatch: the action is reduced by a pure
// reducer under the write lock, then state subscribers and action listeners
// are notified outside the lock, in Seq order.
//
//	st := store.New(slices.Reduce, slices.RootState{})
//	unsub := st.Subscribe(func(s slices.RootState) { render(s) })
//	defer unsub()
//	st.Dispatch(categories.ListRequest(q))
package store

import (
	"sync"
	"sync/atomic"

	"github.com/shashiranjanraj/shopdesk/pkg/metrics"
)

// Meta carries bookkeeping that reducers and listeners may rely on.
type Meta struct {
	// RequestSeq is the Seq of the action that caused this one. Responses
	// use it to name the REQUEST they answer.
	RequestSeq uint64 `json:"requestSeq,omitempty"`
	// CorrelationID ties an action to the logs of the worker that produced it.
	CorrelationID string `json:"correlationId,omitempty"`
}

// Action is a {type, payload} descriptor.
type Action struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	// Seq is assigned by Dispatch and increases monotonically per store.
	Seq  uint64 `json:"seq"`
	Meta Meta   `json:"meta"`
}

// Reducer maps the current state and an action to the next state. It must
// not mutate its input.
type Reducer[S any] func(S, Action) S

// Dispatcher is the part of a store the saga runtime and pages need.
type Dispatcher interface {
	Dispatch(Action) Action
	OnAction(func(Action)) func()
}

// Store holds state of type S.
type Store[S any] struct {
	reduce Reducer[S]

	// mu serialises reduction; Seq order is reduction order.
	mu    sync.Mutex
	state atomic.Pointer[S]
	seq   uint64

	// pending holds reduced actions not yet delivered. One goroutine at a
	// time drains it, so notifications follow Seq order.
	pending  []delivery[S]
	draining bool

	lmu       sync.RWMutex
	nextID    int
	observers map[int]func(S)
	listeners map[int]func(Action)
}

// New creates a store with the given reducer and initial state.
func New[S any](reduce Reducer[S], initial S) *Store[S] {
	s := &Store[S]{
		reduce:    reduce,
		observers: map[int]func(S){},
		listeners: map[int]func(Action){},
	}
	s.state.Store(&initial)
	return s
}

// State returns the current state snapshot.
func (s *Store[S]) State() S {
	return *s.state.Load()
}

// Dispatch reduces a and notifies observers and listeners. It returns the
// action with its Seq assigned.
//
// Notifications are delivered in Seq order. When another goroutine is already
// delivering, including a listener dispatching from inside a notification,
// the action is queued behind the ones being delivered and Dispatch returns
// once it is reduced. Listeners must not block; the saga runtime hands work
// off to goroutines.
func (s *Store[S]) Dispatch(a Action) Action {
	s.mu.Lock()
	s.seq++
	a.Seq = s.seq
	next := s.reduce(*s.state.Load(), a)
	s.state.Store(&next)
	s.pending = append(s.pending, delivery[S]{state: next, action: a})
	if s.draining {
		s.mu.Unlock()
		metrics.ActionsDispatched.WithLabelValues(a.Type).Inc()
		return a
	}
	s.draining = true
	s.mu.Unlock()

	metrics.ActionsDispatched.WithLabelValues(a.Type).Inc()
	s.drain()
	return a
}

type delivery[S any] struct {
	state  S
	action Action
}

func (s *Store[S]) drain() {
	done := false
	defer func() {
		if !done {
			// A listener panicked; let the next Dispatch pick up the queue.
			s.mu.Lock()
			s.draining = false
			s.mu.Unlock()
		}
	}()
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.pending = nil
			s.draining = false
			s.mu.Unlock()
			done = true
			return
		}
		d := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		observers, listeners := s.snapshot()
		for _, fn := range observers {
			fn(d.state)
		}
		for _, fn := range listeners {
			fn(d.action)
		}
	}
}

func (s *Store[S]) snapshot() ([]func(S), []func(Action)) {
	s.lmu.RLock()
	defer s.lmu.RUnlock()
	obs := make([]func(S), 0, len(s.observers))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.observers[i]; ok {
			obs = append(obs, fn)
		}
	}
	ls := make([]func(Action), 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			ls = append(ls, fn)
		}
	}
	return obs, ls
}

// Subscribe registers fn to receive every new state. It returns a function
// that removes the subscription.
func (s *Store[S]) Subscribe(fn func(S)) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.observers, id)
		s.lmu.Unlock()
	}
}

// OnAction registers fn to receive every dispatched action after it has been
// reduced. It returns a function that removes the listener.
func (s *Store[S]) OnAction(fn func(Action)) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}
