// Package api holds the REST clients of the shop backends.
//
// Every call goes through auth.Session.Do, so bearer handling, the 401/403
// policy and envelope decoding happen in one place. Reads go through a
// read-through cache keyed by entity id and list query; every mutation drops
// the entity's key and bumps the list generation, so the next list read
// misses.
package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/pkg/auth"
	"github.com/shashiranjanraj/shopdesk/pkg/cache"
	"github.com/shashiranjanraj/shopdesk/pkg/envelope"
	shttp "github.com/shashiranjanraj/shopdesk/pkg/http"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
)

// Page is one page of a collection.
type Page[T any] struct {
	Items      []T                 `json:"items"`
	Pagination envelope.Pagination `json:"pagination"`
}

// Mutation is the result of CREATE, UPDATE and STATUS calls.
type Mutation[T any] struct {
	Item    T      `json:"item"`
	Message string `json:"message,omitempty"`
}

// Notice returns the backend's message about the mutation.
func (m Mutation[T]) Notice() string { return m.Message }

// Resource is a REST collection of T under one path.
type Resource[T models.Entity] struct {
	Name    string
	client  *shttp.Client
	path    string
	session *auth.Session
	cache   cache.Store
	ttl     time.Duration
}

// NewResource binds a collection at path on client.
func NewResource[T models.Entity](name string, client *shttp.Client, path string, session *auth.Session, c cache.Store, ttl time.Duration) *Resource[T] {
	if c == nil {
		c = cache.Null{}
	}
	return &Resource[T]{Name: name, client: client, path: path, session: session, cache: c, ttl: ttl}
}

func (r *Resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r *Resource[T]) do(ctx context.Context, build func() *shttp.Request) (*envelope.Result, error) {
	return r.session.Do(ctx, build)
}

// List fetches one page. A response without pagination gets one derived
// from the query.
func (r *Resource[T]) List(ctx context.Context, q Query) (Page[T], error) {
	key := fmt.Sprintf("%s:list:%d:%s", r.Name, r.generation(ctx), q.Key())
	return cache.Remember(ctx, r.cache, key, r.ttl, func() (Page[T], error) {
		res, err := r.do(ctx, func() *shttp.Request {
			return r.client.Get(r.path).Query(q.Values())
		})
		if err != nil {
			return Page[T]{}, err
		}
		res.Unwrap()

		var items []T
		if err := res.Into(&items); err != nil {
			return Page[T]{}, err
		}
		if items == nil {
			items = []T{}
		}
		p := Page[T]{Items: items}
		if res.Pagination != nil {
			p.Pagination = *res.Pagination
		} else {
			p.Pagination = envelope.Pagination{Page: max(q.Page, 1), Limit: q.Limit, Total: len(items)}
		}
		return p, nil
	})
}

// Get fetches one record by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	return cache.Remember(ctx, r.cache, r.Name+":id:"+id, r.ttl, func() (T, error) {
		var item T
		res, err := r.do(ctx, func() *shttp.Request { return r.client.Get(r.itemPath(id)) })
		if err != nil {
			return item, err
		}
		err = res.Into(&item)
		return item, err
	})
}

// Create posts a new record.
func (r *Resource[T]) Create(ctx context.Context, p Payload) (Mutation[T], error) {
	b, err := p.encode()
	if err != nil {
		return Mutation[T]{}, err
	}
	return r.mutate(ctx, "", func() *shttp.Request { return b.apply(r.client.Post(r.path)) })
}

// Update replaces the fields of record id.
func (r *Resource[T]) Update(ctx context.Context, id string, p Payload) (Mutation[T], error) {
	b, err := p.encode()
	if err != nil {
		return Mutation[T]{}, err
	}
	return r.mutate(ctx, id, func() *shttp.Request { return b.apply(r.client.Put(r.itemPath(id))) })
}

// SetStatus changes the status of record id.
func (r *Resource[T]) SetStatus(ctx context.Context, id string, status any) (Mutation[T], error) {
	return r.mutate(ctx, id, func() *shttp.Request {
		return r.client.Patch(r.itemPath(id) + "/status").Body(map[string]any{"status": status})
	})
}

// Delete removes record id and returns the backend's message.
func (r *Resource[T]) Delete(ctx context.Context, id string) (string, error) {
	res, err := r.do(ctx, func() *shttp.Request { return r.client.Delete(r.itemPath(id)) })
	r.Invalidate(ctx, id)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func (r *Resource[T]) mutate(ctx context.Context, id string, build func() *shttp.Request) (Mutation[T], error) {
	var out Mutation[T]
	res, err := r.do(ctx, build)
	// Invalidate even on failure: the backend may have applied it.
	r.Invalidate(ctx, id)
	if err != nil {
		return out, err
	}
	if err := res.Into(&out.Item); err != nil {
		return out, err
	}
	out.Message = res.Message
	return out, nil
}

// Invalidate drops the cached record id (if any) and every cached list.
func (r *Resource[T]) Invalidate(ctx context.Context, id string) {
	if id != "" {
		_ = r.cache.Del(ctx, r.Name+":id:"+id)
	}
	if _, err := r.cache.Incr(ctx, r.Name+":gen"); err != nil {
		logger.WithCtx(ctx).Warn("api: cache invalidation failed", "resource", r.Name, "error", err)
	}
}

func (r *Resource[T]) generation(ctx context.Context) int64 {
	var gen int64
	r.cache.Get(ctx, r.Name+":gen", &gen)
	return gen
}
