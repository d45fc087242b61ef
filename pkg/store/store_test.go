package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	N    int
	Last string
}

func reduceCounter(s counter, a Action) counter {
	switch a.Type {
	case "inc":
		s.N++
	case "set":
		s.Last, _ = a.Payload.(string)
	}
	return s
}

func TestDispatchAssignsSeqAndReduces(t *testing.T) {
	st := New(reduceCounter, counter{})

	a1 := st.Dispatch(Action{Type: "inc"})
	a2 := st.Dispatch(Action{Type: "set", Payload: "x"})

	assert.Equal(t, uint64(1), a1.Seq)
	assert.Equal(t, uint64(2), a2.Seq)
	assert.Equal(t, counter{N: 1, Last: "x"}, st.State())
}

func TestSubscribersSeeEveryStateInOrder(t *testing.T) {
	st := New(reduceCounter, counter{})

	var seen []int
	unsub := st.Subscribe(func(s counter) { seen = append(seen, s.N) })

	st.Dispatch(Action{Type: "inc"})
	st.Dispatch(Action{Type: "inc"})
	unsub()
	st.Dispatch(Action{Type: "inc"})

	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, 3, st.State().N)
}

func TestListenersRunOutsideTheLock(t *testing.T) {
	st := New(reduceCounter, counter{})

	// A listener that dispatches must not deadlock.
	st.OnAction(func(a Action) {
		if a.Type == "set" {
			st.Dispatch(Action{Type: "inc"})
		}
	})
	st.Dispatch(Action{Type: "set", Payload: "go"})

	assert.Equal(t, counter{N: 1, Last: "go"}, st.State())
}

func TestConcurrentDispatch(t *testing.T) {
	st := New(reduceCounter, counter{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(Action{Type: "inc"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, st.State().N)
}

func TestNotificationsFollowSeqUnderConcurrentDispatch(t *testing.T) {
	st := New(reduceCounter, counter{})

	var (
		mu    sync.Mutex
		seen  []int
		seqs  []uint64
		first = make(chan struct{})
	)
	st.Subscribe(func(c counter) {
		if c.N == 1 {
			close(first)
			// A slow render while a second goroutine dispatches.
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		seen = append(seen, c.N)
		mu.Unlock()
	})
	st.OnAction(func(a Action) {
		mu.Lock()
		seqs = append(seqs, a.Seq)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		st.Dispatch(Action{Type: "inc"})
	}()
	go func() {
		defer wg.Done()
		<-first
		st.Dispatch(Action{Type: "inc"})
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, []uint64{1, 2}, seqs)
}

func TestAwaitMatchesResponseByRequestSeq(t *testing.T) {
	st := New(reduceCounter, counter{})

	st.OnAction(func(a Action) {
		if a.Type != "ping" {
			return
		}
		go func() {
			// An unrelated answer first, then the real one.
			st.Dispatch(Action{Type: "pong", Meta: Meta{RequestSeq: a.Seq + 100}})
			st.Dispatch(Action{Type: "pong", Payload: "ok", Meta: Meta{RequestSeq: a.Seq}})
		}()
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := Await(ctx, st, Action{Type: "ping"}, "pong")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Payload)
}

func TestAwaitSeesSynchronousResponse(t *testing.T) {
	st := New(reduceCounter, counter{})
	st.OnAction(func(a Action) {
		if a.Type == "ping" {
			st.Dispatch(Action{Type: "pong", Meta: Meta{RequestSeq: a.Seq}})
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := Await(ctx, st, Action{Type: "ping"}, "pong")
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Type)
}

func TestAwaitHonoursContext(t *testing.T) {
	st := New(reduceCounter, counter{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Await(ctx, st, Action{Type: "ping"}, "pong")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
