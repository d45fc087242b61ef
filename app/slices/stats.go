package slices

import (
	"context"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/saga"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// StatsBackend serves the dashboard statistics. *api.Stats implements it.
type StatsBackend interface {
	Summary(ctx context.Context, q api.Query) (models.Statistics, error)
}

// StatsState is the dashboard slice.
type StatsState struct {
	Data  models.Statistics `json:"data"`
	Query api.Query         `json:"query"`
	Ops   Ops               `json:"ops,omitempty"`
}

// Stats is the statistics slice.
type Stats struct {
	backend StatsBackend
}

// NewStats creates the slice.
func NewStats(b StatsBackend) *Stats { return &Stats{backend: b} }

// Request asks for the statistics filtered by q (from, to).
func (s *Stats) Request(q api.Query) store.Action {
	return store.Action{Type: Type(Statistics, OpStats, Request), Payload: q.Clean()}
}

// Reduce applies a to st.
func (s *Stats) Reduce(st StatsState, a store.Action) StatsState {
	feature, op, phase, ok := ParseType(a.Type)
	if !ok || feature != Statistics || op != OpStats {
		return st
	}
	if phase == Request {
		st.Ops = st.Ops.begin(op, a.Seq)
		if q, ok := a.Payload.(api.Query); ok {
			st.Query = q
		}
		return st
	}
	if !st.Ops.accepts(op, a.Meta.RequestSeq) {
		return st
	}
	if phase == Failure {
		f, _ := a.Payload.(Failed)
		st.Ops = st.Ops.end(op, "", f.Message)
		return st
	}
	if data, ok := a.Payload.(models.Statistics); ok {
		st.Data = data
	}
	st.Ops = st.Ops.end(op, "", "")
	return st
}

// Register starts the slice's watcher on rt.
func (s *Stats) Register(rt *saga.Runtime) {
	rt.TakeLatest(Type(Statistics, OpStats, Request), func(ctx context.Context, a store.Action, put saga.Put) {
		q, _ := a.Payload.(api.Query)
		data, err := s.backend.Summary(ctx, q)
		if err != nil {
			if ctx.Err() == nil {
				logger.WithCtx(ctx).Warn("slices: statistics failed", "error", err)
				put(store.Action{Type: Type(Statistics, OpStats, Failure), Payload: failedOf(err)})
			}
			return
		}
		put(store.Action{Type: Type(Statistics, OpStats, Success), Payload: data})
	})
}
