package main

import (
	"context"

	"github.com/shashiranjanraj/shopdesk/app/slices"
	"github.com/shashiranjanraj/shopdesk/internal/kernel"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// awaiting lets the pages drive a one-shot command: every REQUEST it
// dispatches is waited for, and the answer is kept for the caller.
type awaiting struct {
	ctx context.Context
	app *kernel.App

	res store.Action
	err error
}

func (a *awaiting) Dispatch(act store.Action) store.Action {
	if _, _, phase, ok := slices.ParseType(act.Type); !ok || phase != slices.Request {
		return a.app.Store.Dispatch(act)
	}
	a.res, a.err = a.app.Request(a.ctx, act)
	act.Seq = a.res.Meta.RequestSeq
	return act
}

func (a *awaiting) OnAction(fn func(store.Action)) func() {
	return a.app.Store.OnAction(fn)
}

// result is the answer to the last REQUEST, or err when the page refused to
// dispatch one.
func (a *awaiting) result(_ store.Action, err error) (store.Action, error) {
	if err != nil {
		return store.Action{}, err
	}
	return a.res, a.err
}
