// Package slices holds the feature slices of the admin store: one state
// type, reducer and set of saga workers per backend collection.
//
// Every operation is an action triplet:
//
//	category/LIST_REQUEST  payload api.Query
//	category/LIST_SUCCESS  payload api.Page[models.Category]
//	category/LIST_FAILURE  payload slices.Failed
//
// Reads (LIST, DETAIL, STATS) are watched with TakeLatest and fenced in the
// reducer: a response is reduced only if it answers the op's latest REQUEST,
// so a slow stale response can never overwrite a fresher one. Mutations run
// side by side; their results are spliced into the list by id and the last
// list query is fetched again.
package slices

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/pkg/collection"
	"github.com/shashiranjanraj/shopdesk/pkg/envelope"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// Backend is the REST collection a slice talks to. *api.Resource
// implements it.
type Backend[T models.Entity] interface {
	List(ctx context.Context, q api.Query) (api.Page[T], error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, p api.Payload) (api.Mutation[T], error)
	Update(ctx context.Context, id string, p api.Payload) (api.Mutation[T], error)
	SetStatus(ctx context.Context, id string, status any) (api.Mutation[T], error)
	Delete(ctx context.Context, id string) (string, error)
}

// State is the slice of one collection.
type State[T models.Entity] struct {
	Items      []T                 `json:"items"`
	Current    *T                  `json:"current,omitempty"`
	Pagination envelope.Pagination `json:"pagination"`
	// Query is the query of the latest LIST_REQUEST.
	Query api.Query `json:"query"`
	Ops   Ops       `json:"ops,omitempty"`
}

// Op returns the state of op.
func (s State[T]) Op(op Op) OpState { return s.Ops[op] }

// Loading reports whether op is in flight.
func (s State[T]) Loading(op Op) bool { return s.Ops[op].Loading }

// Find returns the listed record with id.
func (s State[T]) Find(id string) (T, bool) {
	return collection.First(s.Items, func(item T) bool { return item.Key() == id })
}

// Slice binds a feature name to a backend collection.
type Slice[T models.Entity] struct {
	Feature string
	backend Backend[T]
	ops     []Op

	mu        sync.Mutex
	lastQuery *api.Query
}

// New creates a slice serving ops. With no ops it serves LIST, DETAIL,
// CREATE, UPDATE and DELETE.
func New[T models.Entity](feature string, b Backend[T], ops ...Op) *Slice[T] {
	if len(ops) == 0 {
		ops = []Op{OpList, OpDetail, OpCreate, OpUpdate, OpDelete}
	}
	return &Slice[T]{Feature: feature, backend: b, ops: ops}
}

// Type returns the action type of op and phase for this slice.
func (s *Slice[T]) Type(op Op, phase Phase) string { return Type(s.Feature, op, phase) }

// Serves reports whether the slice registers a worker for op.
func (s *Slice[T]) Serves(op Op) bool {
	for _, o := range s.ops {
		if o == op {
			return true
		}
	}
	return false
}

// ── Action creators ──────────────────────────────────────────────────────────

// List requests one page. Omitted filters are stripped from the payload.
func (s *Slice[T]) List(q api.Query) store.Action {
	return store.Action{Type: s.Type(OpList, Request), Payload: q.Clean()}
}

// Detail requests record id.
func (s *Slice[T]) Detail(id string) store.Action {
	return store.Action{Type: s.Type(OpDetail, Request), Payload: IDPayload{ID: id}}
}

// Create requests a new record.
func (s *Slice[T]) Create(p api.Payload) store.Action {
	return store.Action{Type: s.Type(OpCreate, Request), Payload: WritePayload{Body: p, Fields: p.FieldNames()}}
}

// Update requests a change to record id.
func (s *Slice[T]) Update(id string, p api.Payload) store.Action {
	return store.Action{Type: s.Type(OpUpdate, Request), Payload: WritePayload{ID: id, Body: p, Fields: p.FieldNames()}}
}

// SetStatus requests a status change of record id.
func (s *Slice[T]) SetStatus(id string, status any) store.Action {
	return store.Action{Type: s.Type(OpStatus, Request), Payload: StatusPayload{ID: id, Status: status}}
}

// Delete requests removal of record id.
func (s *Slice[T]) Delete(id string) store.Action {
	return store.Action{Type: s.Type(OpDelete, Request), Payload: IDPayload{ID: id}}
}

// ── Reducer ─────────────────────────────────────────────────────────────────

func key[T models.Entity](item T) string { return item.Key() }

// Reduce applies a to st. Actions of other features return st unchanged.
func (s *Slice[T]) Reduce(st State[T], a store.Action) State[T] {
	feature, op, phase, ok := ParseType(a.Type)
	if !ok || feature != s.Feature {
		return st
	}

	if phase == Request {
		// No worker answers an operation the slice does not serve.
		if !s.Serves(op) {
			return st
		}
		st.Ops = st.Ops.begin(op, a.Seq)
		if q, ok := a.Payload.(api.Query); ok && op == OpList {
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

	message := ""
	switch p := a.Payload.(type) {
	case api.Page[T]:
		st.Items = p.Items
		st.Pagination = p.Pagination
	case T:
		st.Current = &p
		st.Items = replaceListed(st.Items, p)
	case api.Mutation[T]:
		message = p.Message
		// A message-only answer carries no record; the refetch brings it.
		if p.Item.Key() == "" {
			break
		}
		if _, listed := st.Find(p.Item.Key()); !listed && op == OpCreate {
			st.Pagination.Total++
		}
		st.Items = collection.UpsertBy(st.Items, p.Item, key[T])
		if st.Current != nil && (*st.Current).Key() == p.Item.Key() {
			item := p.Item
			st.Current = &item
		}
	case Deleted:
		message = p.Message
		if _, listed := st.Find(p.ID); listed {
			st.Items = collection.RemoveBy(st.Items, p.ID, key[T])
			st.Pagination.Total = max(st.Pagination.Total-1, 0)
		}
		if st.Current != nil && (*st.Current).Key() == p.ID {
			st.Current = nil
		}
	}
	st.Ops = st.Ops.end(op, message, "")
	return st
}

// replaceListed swaps item into items if a record with its key is listed.
func replaceListed[T models.Entity](items []T, item T) []T {
	if _, ok := collection.First(items, func(x T) bool { return x.Key() == item.Key() }); !ok {
		return items
	}
	return collection.UpsertBy(items, item, key[T])
}

// remember records the query of the running list request for refetches.
func (s *Slice[T]) remember(q api.Query) {
	s.mu.Lock()
	s.lastQuery = &q
	s.mu.Unlock()
}

func (s *Slice[T]) last() (api.Query, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastQuery == nil {
		return api.Query{}, false
	}
	return *s.lastQuery, true
}
