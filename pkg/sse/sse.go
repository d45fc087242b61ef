// Package sse writes Server-Sent Events.
//
// The devtools server streams state snapshots and dispatched actions to the
// browser panel with it:
//
//	stream, err := sse.New(w, r)
//	if err != nil { ... }
//	stream.Retry(2 * time.Second)
//	stream.Send(sse.Event{ID: a.Seq, Name: "action", Data: a})
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ErrUnsupported is returned when the response writer cannot flush.
var ErrUnsupported = errors.New("sse: streaming unsupported")

// ErrClosed is returned by writes after the client went away.
var ErrClosed = errors.New("sse: stream closed")

// Event is one message. Data is JSON-encoded; an ID of zero is omitted.
type Event struct {
	ID   uint64
	Name string
	Data any
}

// Stream is an open event stream to one client. It is safe for concurrent
// use.
type Stream struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	done    <-chan struct{}
}

// New sets the event-stream headers and returns the stream. It writes
// nothing on failure so the caller can still answer with an error.
func New(w http.ResponseWriter, r *http.Request) (*Stream, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &Stream{w: w, flusher: f, done: r.Context().Done()}, nil
}

// Done is closed when the client disconnects.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Send writes e and flushes.
func (s *Stream) Send(e Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("sse: marshal %s: %w", e.Name, err)
	}
	var buf []byte
	if e.ID != 0 {
		buf = append(buf, "id: "...)
		buf = strconv.AppendUint(buf, e.ID, 10)
		buf = append(buf, '\n')
	}
	if e.Name != "" {
		buf = append(buf, "event: "...)
		buf = append(buf, e.Name...)
		buf = append(buf, '\n')
	}
	buf = append(buf, "data: "...)
	buf = append(buf, data...)
	buf = append(buf, '\n', '\n')
	return s.write(buf)
}

// Comment writes a comment line, used as a heartbeat.
func (s *Stream) Comment(msg string) error {
	return s.write([]byte(": " + msg + "\n\n"))
}

// Retry tells the client how long to wait before reconnecting.
func (s *Stream) Retry(d time.Duration) error {
	return s.write([]byte("retry: " + strconv.FormatInt(d.Milliseconds(), 10) + "\n\n"))
}

func (s *Stream) write(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	if _, err := s.w.Write(b); err != nil {
		return fmt.Errorf("sse: write: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// LastEventID is the Last-Event-ID a reconnecting client sent, or 0.
func LastEventID(r *http.Request) uint64 {
	id, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
