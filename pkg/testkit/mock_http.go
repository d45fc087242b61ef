// Package testkit fakes the shop backends for tests.
//
// MockTransport implements http.RoundTripper and answers requests from a
// route table instead of the network:
//
//	mt := testkit.NewMockTransport()
//	mt.On("GET", "/categories").Reply(200, testkit.OKPage([]any{cat}, 1, 10, 1))
//	client := shttp.NewClient("http://category.test/api")
//	client.HTTP = mt.Client()
//	...
//	mt.AssertAllCalled(t)
package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Call is one request seen by the transport.
type Call struct {
	Method string
	URL    string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

// JSON decodes the call's body into dest.
func (c Call) JSON(dest any) error { return json.Unmarshal(c.Body, dest) }

// Responder builds the reply for one request.
type Responder func(c Call) (status int, body string)

// Route is one entry of the route table.
type Route struct {
	method string
	path   string
	prefix bool
	reply  Responder
	calls  int
}

// Reply answers with a fixed status and body.
func (r *Route) Reply(status int, body string) *Route {
	r.reply = func(Call) (int, string) { return status, body }
	return r
}

// ReplyFunc answers with fn. fn may block, e.g. on a channel the test
// controls, to hold a response in flight.
func (r *Route) ReplyFunc(fn Responder) *Route {
	r.reply = fn
	return r
}

// Prefix makes the route match every path starting with its path.
func (r *Route) Prefix() *Route {
	r.prefix = true
	return r
}

// MockTransport is a route-table RoundTripper.
type MockTransport struct {
	mu     sync.Mutex
	routes []*Route
	calls  []Call
}

// NewMockTransport returns an empty transport. Unmatched requests get 404.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// On adds a route for method and URL path. Later routes win over earlier
// ones for the same request.
func (mt *MockTransport) On(method, path string) *Route {
	r := &Route{method: method, path: path}
	r.Reply(http.StatusOK, `{"status":"OK"}`)
	mt.mu.Lock()
	mt.routes = append(mt.routes, r)
	mt.mu.Unlock()
	return r
}

// Client returns an http.Client using the transport.
func (mt *MockTransport) Client() *http.Client {
	return &http.Client{Transport: mt}
}

// RoundTrip records the request and answers it from the route table.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}
	c := Call{
		Method: req.Method,
		URL:    req.URL.String(),
		Path:   req.URL.Path,
		Query:  map[string]string{},
		Header: req.Header.Clone(),
		Body:   body,
	}
	for k := range req.URL.Query() {
		c.Query[k] = req.URL.Query().Get(k)
	}

	mt.mu.Lock()
	mt.calls = append(mt.calls, c)
	route := mt.match(req.Method, req.URL.Path)
	if route != nil {
		route.calls++
	}
	mt.mu.Unlock()

	if route == nil {
		return respond(req, http.StatusNotFound, `{"message":"no mock configured"}`), nil
	}

	// The reply may block; never hold the lock here.
	status, out := route.reply(c)
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	return respond(req, status, out), nil
}

func (mt *MockTransport) match(method, path string) *Route {
	for i := len(mt.routes) - 1; i >= 0; i-- {
		r := mt.routes[i]
		if r.method != method {
			continue
		}
		if r.path == path || (r.prefix && strings.HasPrefix(path, r.path)) {
			return r
		}
	}
	return nil
}

// Calls returns the recorded calls for method and path, or every call when
// both are empty.
func (mt *MockTransport) Calls(method, path string) []Call {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	var out []Call
	for _, c := range mt.calls {
		if (method == "" || c.Method == method) && (path == "" || c.Path == path) {
			out = append(out, c)
		}
	}
	return out
}

// CallCount is len(Calls(method, path)).
func (mt *MockTransport) CallCount(method, path string) int {
	return len(mt.Calls(method, path))
}

// AssertAllCalled fails t for every route that was never hit.
func (mt *MockTransport) AssertAllCalled(t *testing.T) {
	t.Helper()
	mt.mu.Lock()
	defer mt.mu.Unlock()
	for _, r := range mt.routes {
		assert.NotZero(t, r.calls, "testkit: route %s %s was never called", r.method, r.path)
	}
}

func respond(req *http.Request, code int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Request:    req,
	}
}
