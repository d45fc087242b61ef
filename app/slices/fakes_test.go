package slices

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/pkg/envelope"
	"github.com/shashiranjanraj/shopdesk/pkg/saga"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// categoryBackend is an in-memory category collection.
type categoryBackend struct {
	mu     sync.Mutex
	items  []models.Category
	lists  int
	nextID int
	err    error
	// block holds list calls whose keyword has a gate until it is closed.
	block map[string]chan struct{}
}

func newCategoryBackend(names ...string) *categoryBackend {
	b := &categoryBackend{block: map[string]chan struct{}{}}
	for _, n := range names {
		b.nextID++
		b.items = append(b.items, models.Category{ID: fmt.Sprintf("c%d", b.nextID), Name: n, Status: true})
	}
	return b
}

func (b *categoryBackend) List(ctx context.Context, q api.Query) (api.Page[models.Category], error) {
	b.mu.Lock()
	b.lists++
	gate := b.block[q.Filters[api.FilterKeyword]]
	err := b.err
	items := append([]models.Category(nil), b.items...)
	b.mu.Unlock()

	if gate != nil {
		// The call completes even when the worker was superseded, like an
		// HTTP request that is already on the wire.
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
	if err != nil {
		return api.Page[models.Category]{}, err
	}
	if kw := strings.ToLower(q.Filters[api.FilterKeyword]); kw != "" {
		var out []models.Category
		for _, c := range items {
			if strings.Contains(strings.ToLower(c.Name), kw) {
				out = append(out, c)
			}
		}
		items = out
	}
	if items == nil {
		items = []models.Category{}
	}
	return api.Page[models.Category]{Items: items, Pagination: envelope.Pagination{Page: max(q.Page, 1), Limit: q.Limit, Total: len(items)}}, nil
}

func (b *categoryBackend) find(id string) (int, bool) {
	for i, c := range b.items {
		if c.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (b *categoryBackend) Get(_ context.Context, id string) (models.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i, ok := b.find(id); ok {
		return b.items[i], nil
	}
	return models.Category{}, &envelope.Error{Kind: envelope.KindHTTP, StatusCode: 404, Message: "Category not found"}
}

func (b *categoryBackend) Create(_ context.Context, p api.Payload) (api.Mutation[models.Category], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return api.Mutation[models.Category]{}, b.err
	}
	b.nextID++
	name, _ := p.Fields["name"].(string)
	c := models.Category{ID: fmt.Sprintf("c%d", b.nextID), Name: name, Status: true}
	b.items = append([]models.Category{c}, b.items...)
	return api.Mutation[models.Category]{Item: c, Message: "Category created"}, nil
}

func (b *categoryBackend) Update(_ context.Context, id string, p api.Payload) (api.Mutation[models.Category], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.find(id)
	if !ok {
		return api.Mutation[models.Category]{}, &envelope.Error{Kind: envelope.KindHTTP, StatusCode: 404, Message: "Category not found"}
	}
	if name, ok := p.Fields["name"].(string); ok {
		b.items[i].Name = name
	}
	return api.Mutation[models.Category]{Item: b.items[i]}, nil
}

func (b *categoryBackend) SetStatus(_ context.Context, id string, status any) (api.Mutation[models.Category], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.find(id)
	if !ok {
		return api.Mutation[models.Category]{}, &envelope.Error{Kind: envelope.KindHTTP, StatusCode: 404, Message: "Category not found"}
	}
	on, _ := status.(bool)
	b.items[i].Status = models.Flag(on)
	return api.Mutation[models.Category]{Item: b.items[i]}, nil
}

func (b *categoryBackend) Delete(_ context.Context, id string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.find(id)
	if !ok {
		return "", &envelope.Error{Kind: envelope.KindHTTP, StatusCode: 404, Message: "Category not found"}
	}
	b.items = append(b.items[:i], b.items[i+1:]...)
	return "Category deleted", nil
}

func (b *categoryBackend) listCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists
}

// actionLog records every dispatched action.
type actionLog struct {
	mu      sync.Mutex
	actions []store.Action
}

func (l *actionLog) record(a store.Action) {
	l.mu.Lock()
	l.actions = append(l.actions, a)
	l.mu.Unlock()
}

func (l *actionLog) ofType(t string) []store.Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []store.Action
	for _, a := range l.actions {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func (l *actionLog) answering(seq uint64, types ...string) []store.Action {
	var out []store.Action
	for _, t := range types {
		for _, a := range l.ofType(t) {
			if a.Meta.RequestSeq == seq {
				out = append(out, a)
			}
		}
	}
	return out
}

type categoryHarness struct {
	st      *store.Store[State[models.Category]]
	slice   *Slice[models.Category]
	rt      *saga.Runtime
	log     *actionLog
	backend *categoryBackend
}

func newCategoryHarness(t *testing.T, b *categoryBackend) *categoryHarness {
	t.Helper()
	sl := New[models.Category](Categories, b, withStatus(crud...)...)
	st := store.New(sl.Reduce, State[models.Category]{})
	log := &actionLog{}
	st.OnAction(log.record)
	rt := saga.New(st)
	sl.Register(rt)
	t.Cleanup(rt.Close)
	require.True(t, sl.Serves(OpStatus))
	return &categoryHarness{st: st, slice: sl, rt: rt, log: log, backend: b}
}

func newRuntime(t *testing.T, d store.Dispatcher) *saga.Runtime {
	t.Helper()
	rt := saga.New(d)
	t.Cleanup(rt.Close)
	return rt
}
