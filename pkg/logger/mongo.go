package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LogDocument is one log record as stored in MongoDB. Records written by the
// action tracer carry the action type and sequence in their own fields so the
// history of a session can be replayed with a single sorted query.
type LogDocument struct {
	Time          time.Time `bson:"time"`
	Level         string    `bson:"level"`
	Group         string    `bson:"group,omitempty"`
	Msg           string    `bson:"msg"`
	CorrelationID string    `bson:"correlation_id,omitempty"`
	Action        string    `bson:"action,omitempty"`
	Seq           uint64    `bson:"seq,omitempty"`
	Attrs         bson.M    `bson:"attrs,omitempty"`
}

// Inserter is the part of a collection the sink writes through.
type Inserter interface {
	InsertMany(ctx context.Context, docs []any) error
}

type collection struct{ col *mongo.Collection }

func (c collection) InsertMany(ctx context.Context, docs []any) error {
	_, err := c.col.InsertMany(ctx, docs)
	return err
}

// MongoOptions tunes a MongoSink. Zero values select the defaults.
type MongoOptions struct {
	Level     slog.Level
	QueueSize int           // default 4096
	BatchSize int           // default 50
	Flush     time.Duration // default 2s
}

// MongoSink batches records into a collection from one goroutine. A full
// queue drops the record and counts it.
type MongoSink struct {
	ins     Inserter
	opts    MongoOptions
	queue   chan LogDocument
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	dropped atomic.Int64
	client  *mongo.Client
}

// DialMongo connects to uri and returns a sink writing to db.logs.
func DialMongo(ctx context.Context, uri, db string, o MongoOptions) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(4))
	if err != nil {
		return nil, fmt.Errorf("logger: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("logger: mongo ping: %w", err)
	}

	col := client.Database(db).Collection("logs")
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "time", Value: -1}}},
		{Keys: bson.D{{Key: "correlation_id", Value: 1}, {Key: "seq", Value: 1}}},
	})

	s := NewMongoSink(collection{col}, o)
	s.client = client
	return s, nil
}

// NewMongoSink starts a sink writing through ins.
func NewMongoSink(ins Inserter, o MongoOptions) *MongoSink {
	if o.QueueSize <= 0 {
		o.QueueSize = 4096
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.Flush <= 0 {
		o.Flush = 2 * time.Second
	}
	s := &MongoSink{
		ins:     ins,
		opts:    o,
		queue:   make(chan LogDocument, o.QueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.loop()
	return s
}

// Handler returns an slog.Handler feeding the sink.
func (s *MongoSink) Handler() slog.Handler {
	return &mongoHandler{sink: s}
}

// Dropped is the number of records lost to a full queue.
func (s *MongoSink) Dropped() int64 { return s.dropped.Load() }

func (s *MongoSink) enqueue(doc LogDocument) {
	select {
	case <-s.done:
		s.dropped.Add(1)
		return
	default:
	}
	select {
	case s.queue <- doc:
	default:
		s.dropped.Add(1)
	}
}

func (s *MongoSink) loop() {
	defer close(s.stopped)
	ticker := time.NewTicker(s.opts.Flush)
	defer ticker.Stop()

	batch := make([]any, 0, s.opts.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.ins.InsertMany(ctx, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case doc := <-s.queue:
			batch = append(batch, doc)
			if len(batch) >= s.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			for {
				select {
				case doc := <-s.queue:
					batch = append(batch, doc)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close flushes queued records and disconnects. It may be called more than
// once.
func (s *MongoSink) Close(ctx context.Context) error {
	s.once.Do(func() { close(s.done) })
	select {
	case <-s.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}
	if s.client != nil {
		return s.client.Disconnect(ctx)
	}
	return nil
}

type mongoHandler struct {
	sink   *MongoSink
	attrs  []slog.Attr
	groups []string
}

func (h *mongoHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.sink.opts.Level
}

func (h *mongoHandler) Handle(_ context.Context, r slog.Record) error {
	doc := LogDocument{
		Time:  r.Time,
		Level: r.Level.String(),
		Msg:   r.Message,
		Group: strings.Join(h.groups, "."),
		Attrs: bson.M{},
	}
	for _, a := range h.attrs {
		doc.set(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		doc.set(a)
		return true
	})
	if len(doc.Attrs) == 0 {
		doc.Attrs = nil
	}
	h.sink.enqueue(doc)
	return nil
}

func (d *LogDocument) set(a slog.Attr) {
	v := a.Value.Resolve()
	switch a.Key {
	case "correlation_id":
		d.CorrelationID = v.String()
	case "action":
		d.Action = v.String()
	case "seq":
		if v.Kind() == slog.KindUint64 {
			d.Seq = v.Uint64()
		} else if v.Kind() == slog.KindInt64 && v.Int64() >= 0 {
			d.Seq = uint64(v.Int64())
		}
	default:
		d.Attrs[a.Key] = v.Any()
	}
}

func (h *mongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *mongoHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}
