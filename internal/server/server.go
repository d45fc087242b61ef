// Package server is the devtools server: a read-mostly window onto a running
// admin store for the browser devtools panel.
//
//	GET  /healthz        liveness
//	GET  /metrics        Prometheus
//	GET  /state          current state, or one feature with ?feature=
//	GET  /state/stream   server-sent action and state events
//	GET  /actions/ws     websocket: every action out, commands in
//	POST /actions        dispatch one command and wait for its answer
//	GET  /jobs           scheduled jobs
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/slices"
	"github.com/shashiranjanraj/shopdesk/config"
	"github.com/shashiranjanraj/shopdesk/internal/kernel"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/metrics"
	"github.com/shashiranjanraj/shopdesk/pkg/middleware"
	"github.com/shashiranjanraj/shopdesk/pkg/reqid"
	"github.com/shashiranjanraj/shopdesk/pkg/schedule"
	"github.com/shashiranjanraj/shopdesk/pkg/sse"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
	"github.com/shashiranjanraj/shopdesk/pkg/ws"
)

// Options configure a Server. Zero values are read from config.
type Options struct {
	Token        string
	Origins      []string
	RatePerMin   int
	StatsRefresh time.Duration
	// StateInterval is the minimum gap between two state events on a stream.
	StateInterval time.Duration
	Heartbeat     time.Duration
	// RequestTimeout bounds POST /actions.
	RequestTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Token == "" {
		o.Token = config.DevtoolsToken()
	}
	if o.StatsRefresh == 0 {
		o.StatsRefresh = config.StatsRefresh()
	}
	if o.Origins == nil {
		o.Origins = config.DevtoolsOrigins()
	}
	if o.RatePerMin <= 0 {
		o.RatePerMin = config.DevtoolsRate()
	}
	if o.StateInterval <= 0 {
		o.StateInterval = 250 * time.Millisecond
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = 15 * time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = config.HTTPTimeout()
	}
	return o
}

// Server serves one kernel.App.
type Server struct {
	app     *kernel.App
	opts    Options
	hub     *ws.Hub
	limiter *middleware.Limiter
	jobs    *schedule.Scheduler
	router  chi.Router

	unsub func()
}

// New builds the server and starts broadcasting the app's actions to
// websocket clients. Close stops the broadcast.
func New(app *kernel.App, o Options) *Server {
	s := &Server{
		app:  app,
		opts: o.withDefaults(),
		jobs: schedule.New(),
	}
	s.limiter = middleware.NewLimiter(s.opts.RatePerMin, time.Minute)
	s.hub = ws.NewHub(s.onSocketMessage)
	s.unsub = app.Store.OnAction(s.broadcast)

	s.jobs.Every(s.opts.StatsRefresh).Name("stats-refresh").WithoutOverlapping().Immediately().
		Do(func(ctx context.Context) error {
			_, err := app.Request(ctx, app.Slices.Stats.Request(api.Query{}))
			return err
		})

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(reqid.Middleware())
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DevtoolsCORS(s.opts.Origins)))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "clients": s.hub.ClientCount()})
	})
	r.Get("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerToken(s.opts.Token))
		r.Get("/state", s.state)
		r.Get("/state/stream", s.stream)
		r.Get("/actions/ws", func(w http.ResponseWriter, r *http.Request) {
			_, _ = s.hub.Upgrade(w, r)
		})
		r.With(s.limiter.Middleware).Post("/actions", s.dispatch)
		r.Get("/jobs", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"jobs": s.jobs.List()})
		})
	})
	return r
}

// Handler is the router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.jobs.Start(ctx)
	}()

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	logger.Info("devtools server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		cancel()
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	err := srv.Shutdown(shutdownCtx)
	wg.Wait()
	logger.Info("devtools server stopped")
	return err
}

// Close stops broadcasting and disconnects websocket clients.
func (s *Server) Close() {
	s.unsub()
	s.hub.Close()
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	st := s.app.State()
	feature := r.URL.Query().Get("feature")
	if feature == "" {
		writeJSON(w, http.StatusOK, st)
		return
	}
	sel, ok := slices.Select(st, feature)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("unknown feature %q", feature))
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// stream sends a "state" event at once, then every action as an "action"
// event and a coalesced "state" event at most every StateInterval.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	stream, err := sse.New(w, r)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	actions := make(chan store.Action, 256)
	var dropped bool
	var mu sync.Mutex
	unsub := s.app.Store.OnAction(func(a store.Action) {
		select {
		case actions <- a:
		default:
			mu.Lock()
			dropped = true
			mu.Unlock()
		}
	})
	defer unsub()

	_ = stream.Retry(2 * time.Second)
	if err := stream.Send(sse.Event{Name: "state", Data: s.app.State()}); err != nil {
		return
	}

	heartbeat := time.NewTicker(s.opts.Heartbeat)
	defer heartbeat.Stop()
	throttle := time.NewTicker(s.opts.StateInterval)
	defer throttle.Stop()
	dirty := false

	for {
		select {
		case <-stream.Done():
			return
		case a := <-actions:
			if err := stream.Send(sse.Event{ID: a.Seq, Name: "action", Data: a}); err != nil {
				return
			}
			dirty = true
		case <-throttle.C:
			mu.Lock()
			lost := dropped
			dropped = false
			mu.Unlock()
			if lost {
				_ = stream.Comment("actions dropped")
				dirty = true
			}
			if !dirty {
				continue
			}
			dirty = false
			if err := stream.Send(sse.Event{Name: "state", Data: s.app.State()}); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := stream.Comment("ping"); err != nil {
				return
			}
		}
	}
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid command: "+err.Error())
		return
	}
	req, err := cmd.Action(s.app.Slices)
	if err != nil {
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()
	res, err := s.app.Request(ctx, req)
	var failed slices.Failed
	switch {
	case errors.As(err, &failed):
		status := failed.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, res)
	case err != nil:
		middleware.WriteError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) broadcast(a store.Action) {
	if s.hub.ClientCount() == 0 {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		logger.Warn("devtools: action not encodable", "action", a.Type, "error", err)
		return
	}
	s.hub.Broadcast(data)
}

// onSocketMessage dispatches a command sent over the websocket. The answer
// reaches the client through the broadcast like any other action.
func (s *Server) onSocketMessage(c *ws.Client, msg []byte) {
	reply := func(text string) {
		data, _ := json.Marshal(map[string]any{"success": false, "message": text})
		c.Send(data)
	}
	host, _, err := net.SplitHostPort(c.Remote())
	if err != nil {
		host = c.Remote()
	}
	if !s.limiter.Allow(host) {
		reply("too many requests")
		return
	}
	var cmd Command
	if err := json.Unmarshal(msg, &cmd); err != nil {
		reply("invalid command: " + err.Error())
		return
	}
	req, err := cmd.Action(s.app.Slices)
	if err != nil {
		reply(err.Error())
		return
	}
	s.app.Store.Dispatch(req)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("devtools: encode response", "error", err)
	}
}
