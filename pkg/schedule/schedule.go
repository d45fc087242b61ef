// Package schedule runs periodic jobs until a context ends.
//
// The devtools server keeps the dashboard statistics fresh with it:
//
//	s := schedule.New()
//	s.Every(time.Minute).Name("stats-refresh").WithoutOverlapping().Immediately().
//	    Do(func(ctx context.Context) error { return refresh(ctx) })
//	go s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shashiranjanraj/shopdesk/pkg/logger"
)

// Task is one job run. A returned error is logged.
type Task func(ctx context.Context) error

type entry struct {
	name      string
	interval  time.Duration
	task      Task
	noOverlap bool
	immediate bool
	running   atomic.Bool
	runs      atomic.Int64
}

// Scheduler owns a set of jobs.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	started bool
}

func New() *Scheduler { return &Scheduler{} }

// Schedule is the builder returned by Every.
type Schedule struct {
	s *Scheduler
	e *entry
}

// Every starts a job definition running each d.
func (s *Scheduler) Every(d time.Duration) *Schedule {
	return &Schedule{s: s, e: &entry{interval: d}}
}

// Name labels the job in logs and List.
func (b *Schedule) Name(name string) *Schedule {
	b.e.name = name
	return b
}

// WithoutOverlapping skips a tick while the previous run is still going.
func (b *Schedule) WithoutOverlapping() *Schedule {
	b.e.noOverlap = true
	return b
}

// Immediately runs the job once at Start as well.
func (b *Schedule) Immediately() *Schedule {
	b.e.immediate = true
	return b
}

// Do registers the job. Jobs with a non-positive interval are ignored.
func (b *Schedule) Do(task Task) {
	if b.e.interval <= 0 {
		logger.Debug("schedule: job disabled", "job", b.e.name)
		return
	}
	if b.e.name == "" {
		b.e.name = fmt.Sprintf("job-%s", b.e.interval)
	}
	b.e.task = task
	b.s.mu.Lock()
	b.s.entries = append(b.s.entries, b.e)
	b.s.mu.Unlock()
}

// Start runs every registered job until ctx is done, then waits for running
// jobs to return. Jobs registered after Start are not picked up.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	entries := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e *entry) {
			defer wg.Done()
			s.loop(ctx, e, &wg)
		}(e)
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e *entry, wg *sync.WaitGroup) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	if e.immediate {
		s.fire(ctx, e, wg)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, e, wg)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, e *entry, wg *sync.WaitGroup) {
	if e.noOverlap && !e.running.CompareAndSwap(false, true) {
		logger.Debug("schedule: previous run still active, skipping", "job", e.name)
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if e.noOverlap {
			defer e.running.Store(false)
		}
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("schedule: job panicked", "job", e.name, "panic", rec, "stack", string(debug.Stack()))
			}
		}()
		start := time.Now()
		err := e.task(ctx)
		e.runs.Add(1)
		if err != nil {
			logger.Warn("schedule: job failed", "job", e.name, "error", err, "duration", time.Since(start).String())
			return
		}
		logger.Debug("schedule: job done", "job", e.name, "duration", time.Since(start).String())
	}()
}

// List describes the registered jobs.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = fmt.Sprintf("%s every %s (%d runs)", e.name, e.interval, e.runs.Load())
	}
	return out
}
