package store

import (
	"context"
	"slices"
	"sync"
)

// Await dispatches req and waits for the first action answering it whose type
// is one of types:
//
//	resp, err := store.Await(ctx, st, categories.ListRequest(q), categories.Responses(slices.OpList)...)
//
// A response can be put by a worker before Dispatch returns the request's
// Seq; such early actions are held until the Seq is known.
func Await(ctx context.Context, d Dispatcher, req Action, types ...string) (Action, error) {
	var (
		mu    sync.Mutex
		seq   uint64
		early []Action
		ch    = make(chan Action, 1)
	)
	deliver := func(a Action) {
		if a.Meta.RequestSeq != seq {
			return
		}
		select {
		case ch <- a:
		default:
		}
	}

	unsub := d.OnAction(func(a Action) {
		if !slices.Contains(types, a.Type) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if seq == 0 {
			early = append(early, a)
			return
		}
		deliver(a)
	})
	defer unsub()

	out := d.Dispatch(req)

	mu.Lock()
	seq = out.Seq
	for _, a := range early {
		deliver(a)
	}
	early = nil
	mu.Unlock()

	select {
	case a := <-ch:
		return a, nil
	case <-ctx.Done():
		return Action{}, ctx.Err()
	}
}
