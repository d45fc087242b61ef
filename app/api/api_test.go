package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/pkg/auth"
	"github.com/shashiranjanraj/shopdesk/pkg/cache"
	"github.com/shashiranjanraj/shopdesk/pkg/envelope"
	shttp "github.com/shashiranjanraj/shopdesk/pkg/http"
	"github.com/shashiranjanraj/shopdesk/pkg/testkit"
)

func newServices(t *testing.T, mt *testkit.MockTransport, c cache.Store) *Services {
	t.Helper()
	mk := func(base string) *shttp.Client {
		cl := shttp.NewClient(base)
		cl.HTTP = mt.Client()
		return cl
	}
	b := Backends{
		Main:     mk("http://main.test"),
		Product:  mk("http://product.test/api"),
		Category: mk("http://category.test/api"),
	}
	tokens := &auth.MemoryTokens{}
	require.NoError(t, tokens.Save(context.Background(), auth.Tokens{AccessToken: "tok"}))
	return NewServices(b, auth.NewSession(b.Main, tokens, nil), c, time.Minute)
}

func TestQueryValuesOmitEmptyAndAll(t *testing.T) {
	q := Query{
		Filters:   map[string]string{FilterStatus: StatusAll, FilterKeyword: " laptop ", FilterCategoryName: ""},
		Page:      2,
		Limit:     10,
		SortBy:    "createdAt",
		SortOrder: "desc",
	}

	v := q.Values()
	assert.Equal(t, "laptop", v.Get("keyword"))
	assert.False(t, v.Has("status"))
	assert.False(t, v.Has("categoryName"))
	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "desc", v.Get("sortOrder"))

	assert.Equal(t, map[string]string{FilterKeyword: "laptop"}, q.Clean().Filters)
	assert.Equal(t, "keyword=laptop&limit=10&page=2&sortBy=createdAt&sortOrder=desc", q.Key())
}

func TestListDecodesPageAndSendsBearer(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "/api/categories").Reply(200, testkit.OKPage([]map[string]any{
		{"_id": "c1", "name": "Laptops", "status": true},
	}, 1, 10, 31))
	svc := newServices(t, mt, cache.Null{})

	page, err := svc.Categories.List(context.Background(), Query{Filters: map[string]string{"status": "active"}, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Laptops", page.Items[0].Name)
	assert.Equal(t, 31, page.Pagination.Total)

	calls := mt.Calls("GET", "/api/categories")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer tok", calls[0].Header.Get("Authorization"))
	assert.Equal(t, "active", calls[0].Query["status"])
	mt.AssertAllCalled(t)
}

func TestListDerivesPaginationForBareArrays(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "/api/repair-services").Reply(200, `[{"_id":"s1","name":"Screen"},{"_id":"s2","name":"Battery"}]`)
	svc := newServices(t, mt, cache.Null{})

	page, err := svc.RepairServices.List(context.Background(), Query{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, envelope.Pagination{Page: 1, Limit: 20, Total: 2}, page.Pagination)
}

func TestReadThroughCacheInvalidatedOnMutation(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "/api/products").Reply(200, testkit.OK([]map[string]any{{"_id": "p1", "name": "Mouse"}}))
	mt.On("POST", "/api/products").Reply(201, testkit.OKMessage(map[string]any{"_id": "p2", "name": "Keyboard"}, "Product created"))
	mt.On("GET", "/api/products/p1").Reply(200, testkit.OK(map[string]any{"_id": "p1", "name": "Mouse"}))
	mt.On("DELETE", "/api/products/p1").Reply(200, `{"status":"OK","message":"Deleted"}`)
	svc := newServices(t, mt, cache.NewMemory())
	ctx := context.Background()
	q := Query{Page: 1, Limit: 10}

	_, err := svc.Products.List(ctx, q)
	require.NoError(t, err)
	_, err = svc.Products.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, mt.CallCount("GET", "/api/products"), "second read served from cache")

	m, err := svc.Products.Create(ctx, Fields(map[string]any{"name": "Keyboard"}))
	require.NoError(t, err)
	assert.Equal(t, "p2", m.Item.ID)
	assert.Equal(t, "Product created", m.Message)

	_, err = svc.Products.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, mt.CallCount("GET", "/api/products"), "mutation drops cached lists")

	_, _ = svc.Products.Get(ctx, "p1")
	_, _ = svc.Products.Get(ctx, "p1")
	assert.Equal(t, 1, mt.CallCount("GET", "/api/products/p1"))

	msg, err := svc.Products.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted", msg)
	_, _ = svc.Products.Get(ctx, "p1")
	assert.Equal(t, 2, mt.CallCount("GET", "/api/products/p1"))
}

func TestCreateWithFileIsMultipart(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("POST", "/api/categories").Reply(200, testkit.OK(map[string]any{"_id": "c9", "name": "Phones"}))
	svc := newServices(t, mt, cache.Null{})

	_, err := svc.Categories.Create(context.Background(), Payload{
		Fields: map[string]any{"name": "Phones", "status": true, "tags": []string{"a", "b"}},
		Files:  []File{{Field: "image", Name: "phones.png", Content: []byte("\x89PNG")}},
	})
	require.NoError(t, err)

	call := mt.Calls("POST", "/api/categories")[0]
	assert.True(t, strings.HasPrefix(call.Header.Get("Content-Type"), "multipart/form-data"))
	body := string(call.Body)
	assert.Contains(t, body, `name="name"`)
	assert.Contains(t, body, `["a","b"]`)
	assert.Contains(t, body, `filename="phones.png"`)
}

func TestUpdateAndStatusAreJSON(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("PUT", "/api/news/n1").Reply(200, testkit.OK(map[string]any{"_id": "n1", "title": "Hello", "status": "draft"}))
	mt.On("PATCH", "/api/orders/o1/status").Reply(200, testkit.OK(map[string]any{
		"_id": "o1", "orderStatusId": map[string]any{"_id": "s2", "name": "confirmed"},
	}))
	svc := newServices(t, mt, cache.Null{})
	ctx := context.Background()

	n, err := svc.News.Update(ctx, "n1", Fields(map[string]any{"title": "Hello"}))
	require.NoError(t, err)
	assert.Equal(t, "draft", n.Item.Status)
	assert.Equal(t, "application/json", mt.Calls("PUT", "/api/news/n1")[0].Header.Get("Content-Type"))

	o, err := svc.Orders.SetStatus(ctx, "o1", "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", o.Item.Status())
	assert.Equal(t, map[string]any{"status": "confirmed"}, testkit.DecodeBody(t, mt.Calls("PATCH", "/api/orders/o1/status")[0]))
}

func TestErrorsAreNormalised(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("POST", "/api/reviews").Reply(200, testkit.Fail("You already reviewed this product"))
	mt.On("DELETE", "/api/staff/s1").Reply(http.StatusNotFound, testkit.Message("Staff not found"))
	svc := newServices(t, mt, cache.Null{})
	ctx := context.Background()

	_, err := svc.Reviews.Create(ctx, Fields(map[string]any{"rating": 5}))
	require.Error(t, err)
	assert.Equal(t, "You already reviewed this product", envelope.Message(err))

	_, err = svc.Staff.Delete(ctx, "s1")
	require.Error(t, err)
	assert.True(t, envelope.IsStatus(err, http.StatusNotFound))
	assert.Equal(t, "Staff not found", envelope.Message(err))
}

func TestAboutCurrentShapes(t *testing.T) {
	cases := map[string]struct {
		body string
		want *models.AboutUs
	}{
		"null":   {`{"status":"OK","data":null}`, nil},
		"empty":  {`{"status":"OK","data":[]}`, nil},
		"object": {testkit.OK(map[string]any{"_id": "a1", "storeName": "Shop"}), &models.AboutUs{ID: "a1", StoreName: "Shop"}},
		"list":   {testkit.OK([]map[string]any{{"_id": "a1", "storeName": "Shop"}}), &models.AboutUs{ID: "a1", StoreName: "Shop"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			mt := testkit.NewMockTransport()
			mt.On("GET", "/api/about").Reply(200, tc.body)
			svc := newServices(t, mt, cache.Null{})

			got, err := svc.About.Current(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStatsAndTransitions(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "/api/statistics").Reply(200, testkit.OK(map[string]any{"totalRevenue": 1250.5, "totalOrders": 12}))
	mt.On("GET", "/api/orders/status-transitions").Reply(200, testkit.OK(map[string][]string{"pending": {"confirmed"}}))
	svc := newServices(t, mt, cache.Null{})
	ctx := context.Background()

	s, err := svc.Stats.Summary(ctx, Query{Filters: map[string]string{"from": "2026-01-01"}})
	require.NoError(t, err)
	assert.Equal(t, 1250.5, s.TotalRevenue)
	assert.Equal(t, "2026-01-01", mt.Calls("GET", "/api/statistics")[0].Query["from"])

	table, err := svc.OrderStatuses.Transitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirmed"}, table["pending"])
}
