package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/internal/kernel"
	"github.com/shashiranjanraj/shopdesk/pkg/auth"
	"github.com/shashiranjanraj/shopdesk/pkg/cache"
	shttp "github.com/shashiranjanraj/shopdesk/pkg/http"
	"github.com/shashiranjanraj/shopdesk/pkg/notify"
	"github.com/shashiranjanraj/shopdesk/pkg/storage"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
	"github.com/shashiranjanraj/shopdesk/pkg/testkit"
)

var categoriesPage = testkit.OKPage([]map[string]any{
	{"_id": "c1", "name": "Laptops", "status": true},
}, 1, 10, 1)

func newApp(t *testing.T) (*kernel.App, *testkit.MockTransport) {
	t.Helper()
	mt := testkit.NewMockTransport()
	mk := func(base string) *shttp.Client {
		c := shttp.NewClient(base)
		c.HTTP = mt.Client()
		return c
	}
	tokens := &auth.MemoryTokens{}
	require.NoError(t, tokens.Save(context.Background(), auth.Tokens{AccessToken: "tok"}))

	app, err := kernel.New(context.Background(), kernel.Options{
		Backends: &api.Backends{
			Main:     mk("http://main.test"),
			Product:  mk("http://product.test/api"),
			Category: mk("http://category.test/api"),
		},
		Cache:       cache.NewMemory(),
		Tokens:      tokens,
		Notifier:    &notify.Recorder{},
		Disks:       &storage.Manager{},
		SkipLogSink: true,
	})
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app, mt
}

func newServer(t *testing.T, o Options) (*Server, *kernel.App, *testkit.MockTransport) {
	t.Helper()
	app, mt := newApp(t)
	if o.Origins == nil {
		o.Origins = []string{"*"}
	}
	if o.Heartbeat == 0 {
		o.Heartbeat = time.Hour
	}
	if o.StatsRefresh == 0 {
		o.StatsRefresh = -1
	}
	s := New(app, o)
	t.Cleanup(s.Close)
	return s, app, mt
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _, _ := newServer(t, Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","clients":0}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestStateAndFeatureSelection(t *testing.T) {
	s, app, mt := newServer(t, Options{})
	mt.On("GET", "/api/categories").Reply(http.StatusOK, categoriesPage)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := app.Request(ctx, app.Slices.Categories.List(api.Query{Page: 1}))
	require.NoError(t, err)

	rec := do(t, s.Handler(), http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var root map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
	assert.Contains(t, root, "categories")
	assert.Contains(t, root, "session")

	rec = do(t, s.Handler(), http.MethodGet, "/state?feature=category", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var raw struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw.Items, 1)
	assert.Equal(t, "Laptops", raw.Items[0]["name"])

	rec = do(t, s.Handler(), http.MethodGet, "/state?feature=nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokenGuardsStateButNotHealth(t *testing.T) {
	s, _, _ := newServer(t, Options{Token: "panel"})

	assert.Equal(t, http.StatusOK, do(t, s.Handler(), http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, s.Handler(), http.MethodGet, "/state", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s.Handler(), http.MethodGet, "/state?token=panel", "").Code)
}

func TestPostActionsWaitsForAnswer(t *testing.T) {
	s, _, mt := newServer(t, Options{RequestTimeout: 2 * time.Second})
	mt.On("GET", "/api/categories").Reply(http.StatusOK, categoriesPage)
	mt.On("DELETE", "/api/orders/o1").Reply(http.StatusNotFound, testkit.Message("Order not found"))

	rec := do(t, s.Handler(), http.MethodPost, "/actions", `{"feature":"category","op":"list","query":{"page":1}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res store.Action
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "category/LIST_SUCCESS", res.Type)
	assert.NotZero(t, res.Meta.RequestSeq)

	rec = do(t, s.Handler(), http.MethodPost, "/actions", `{"feature":"order","op":"DELETE","id":"o1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "order/DELETE_FAILURE")

	rec = do(t, s.Handler(), http.MethodPost, "/actions", `{"feature":"order","op":"CREATE"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s.Handler(), http.MethodPost, "/actions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostActionsRateLimited(t *testing.T) {
	s, _, _ := newServer(t, Options{RatePerMin: 1})
	cmd := `{"feature":"nope","op":"LIST"}`
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, s.Handler(), http.MethodPost, "/actions", cmd).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, s.Handler(), http.MethodPost, "/actions", cmd).Code)
}

func TestStateStreamSendsActions(t *testing.T) {
	s, app, mt := newServer(t, Options{StateInterval: 20 * time.Millisecond})
	mt.On("GET", "/api/categories").Reply(http.StatusOK, categoriesPage)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/state/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 64)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	waitFor := func(want string) {
		t.Helper()
		for {
			select {
			case l, ok := <-lines:
				require.True(t, ok, "stream ended before %q", want)
				if strings.Contains(l, want) {
					return
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %q", want)
			}
		}
	}

	waitFor("event: state")
	app.Store.Dispatch(app.Slices.Categories.List(api.Query{Page: 1}))
	waitFor("event: action")
	waitFor("category/LIST_SUCCESS")
	waitFor("event: state")
}

func TestWebsocketBroadcastsAndAcceptsCommands(t *testing.T) {
	s, _, mt := newServer(t, Options{})
	mt.On("GET", "/api/categories").Reply(http.StatusOK, categoriesPage)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/actions/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"feature":"category","op":"LIST"}`)))

	var seen []string
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for len(seen) < 2 {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var a store.Action
		require.NoError(t, json.Unmarshal(msg, &a))
		seen = append(seen, a.Type)
	}
	// The worker's answer may overtake the request on another goroutine.
	assert.ElementsMatch(t, []string{"category/LIST_REQUEST", "category/LIST_SUCCESS"}, seen)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"feature":"ghost","op":"LIST"}`)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "unknown feature")
}

func TestServeRefreshesStatsAndStops(t *testing.T) {
	s, _, mt := newServer(t, Options{StatsRefresh: 20 * time.Millisecond})
	mt.On("GET", "/api/statistics").Reply(http.StatusOK, testkit.OK(map[string]any{"totalOrders": 3}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool { return mt.CallCount("GET", "/api/statistics") >= 2 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + ln.Addr().String() + "/jobs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
