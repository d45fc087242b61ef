package slices

import (
	"context"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/saga"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// Register starts the slice's watchers on rt. Reads take the latest
// request; mutations take every request.
func (s *Slice[T]) Register(rt *saga.Runtime) {
	workers := map[Op]saga.Worker{
		OpList:   s.list,
		OpDetail: s.detail,
		OpCreate: s.create,
		OpUpdate: s.update,
		OpStatus: s.status,
		OpDelete: s.remove,
	}
	for _, op := range s.ops {
		w, ok := workers[op]
		if !ok {
			continue
		}
		if op.Mutates() {
			rt.TakeEvery(s.Type(op, Request), w)
		} else {
			rt.TakeLatest(s.Type(op, Request), w)
		}
	}
}

func (s *Slice[T]) fail(ctx context.Context, op Op, err error, put saga.Put) {
	if ctx.Err() != nil {
		return
	}
	logger.WithCtx(ctx).Warn("slices: request failed", "feature", s.Feature, "op", op, "error", err)
	put(store.Action{Type: s.Type(op, Failure), Payload: failedOf(err)})
}

func (s *Slice[T]) list(ctx context.Context, a store.Action, put saga.Put) {
	q, _ := a.Payload.(api.Query)
	s.remember(q)
	page, err := s.backend.List(ctx, q)
	if err != nil {
		s.fail(ctx, OpList, err, put)
		return
	}
	put(store.Action{Type: s.Type(OpList, Success), Payload: page})
}

func (s *Slice[T]) detail(ctx context.Context, a store.Action, put saga.Put) {
	p, _ := a.Payload.(IDPayload)
	item, err := s.backend.Get(ctx, p.ID)
	if err != nil {
		s.fail(ctx, OpDetail, err, put)
		return
	}
	put(store.Action{Type: s.Type(OpDetail, Success), Payload: item})
}

func (s *Slice[T]) create(ctx context.Context, a store.Action, put saga.Put) {
	p, _ := a.Payload.(WritePayload)
	m, err := s.backend.Create(ctx, p.Body)
	s.settle(ctx, OpCreate, m, err, put)
}

func (s *Slice[T]) update(ctx context.Context, a store.Action, put saga.Put) {
	p, _ := a.Payload.(WritePayload)
	m, err := s.backend.Update(ctx, p.ID, p.Body)
	s.settle(ctx, OpUpdate, m, err, put)
}

func (s *Slice[T]) status(ctx context.Context, a store.Action, put saga.Put) {
	p, _ := a.Payload.(StatusPayload)
	m, err := s.backend.SetStatus(ctx, p.ID, p.Status)
	s.settle(ctx, OpStatus, m, err, put)
}

func (s *Slice[T]) remove(ctx context.Context, a store.Action, put saga.Put) {
	p, _ := a.Payload.(IDPayload)
	msg, err := s.backend.Delete(ctx, p.ID)
	if err != nil {
		s.fail(ctx, OpDelete, err, put)
		return
	}
	put(store.Action{Type: s.Type(OpDelete, Success), Payload: Deleted{ID: p.ID, Message: msg}})
	s.refetch(ctx, put)
}

func (s *Slice[T]) settle(ctx context.Context, op Op, m api.Mutation[T], err error, put saga.Put) {
	if err != nil {
		s.fail(ctx, op, err, put)
		return
	}
	put(store.Action{Type: s.Type(op, Success), Payload: m})
	s.refetch(ctx, put)
}

// refetch asks for the last listed page again so the list reflects what the
// backend stored.
func (s *Slice[T]) refetch(ctx context.Context, put saga.Put) {
	q, ok := s.last()
	if !ok || !s.Serves(OpList) {
		return
	}
	logger.WithCtx(ctx).Debug("slices: refetching list", "feature", s.Feature)
	put(s.List(q))
}
