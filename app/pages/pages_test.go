package pages

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/app/slices"
	"github.com/shashiranjanraj/shopdesk/app/transitions"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
	"github.com/shashiranjanraj/shopdesk/pkg/validate"
)

// recorder is a Dispatcher that only records.
type recorder struct {
	mu      sync.Mutex
	seq     uint64
	actions []store.Action
	fired   chan store.Action
}

func newRecorder() *recorder { return &recorder{fired: make(chan store.Action, 64)} }

func (r *recorder) Dispatch(a store.Action) store.Action {
	r.mu.Lock()
	r.seq++
	a.Seq = r.seq
	r.actions = append(r.actions, a)
	r.mu.Unlock()
	r.fired <- a
	return a
}

func (r *recorder) OnAction(func(store.Action)) func() { return func() {} }

func (r *recorder) all() []store.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.Action(nil), r.actions...)
}

func (r *recorder) next(t *testing.T) store.Action {
	t.Helper()
	select {
	case a := <-r.fired:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("no action dispatched")
		return store.Action{}
	}
}

func categoryList() func(api.Query) store.Action {
	return slices.New[models.Category](slices.Categories, nil).List
}

func TestSearchIsDebounced(t *testing.T) {
	rec := newRecorder()
	page := NewListPage(rec, categoryList(), Options{Debounce: 80 * time.Millisecond})
	defer page.Close()

	for _, text := range []string{"l", "la", "lap", "lapt", "lapto", "laptop"} {
		page.SetSearchText(text)
		time.Sleep(2 * time.Millisecond)
	}
	assert.True(t, page.Pending())

	a := rec.next(t)
	time.Sleep(200 * time.Millisecond)

	require.Len(t, rec.all(), 1, "one request for the whole burst")
	q := a.Payload.(api.Query)
	assert.Equal(t, map[string]string{api.FilterKeyword: "laptop"}, q.Filters)
	assert.Equal(t, a, page.Last())
}

func TestEmptySearchDispatchesRightAway(t *testing.T) {
	rec := newRecorder()
	page := NewListPage(rec, categoryList(), Options{Debounce: time.Hour})
	defer page.Close()

	page.SetStatusFilter("active")
	a := rec.next(t)
	assert.Equal(t, map[string]string{api.FilterStatus: "active"}, a.Payload.(api.Query).Filters)
}

func TestFilterChangeResetsPage(t *testing.T) {
	rec := newRecorder()
	page := NewListPage(rec, categoryList(), Options{Debounce: 20 * time.Millisecond, PageSize: 20})
	defer page.Close()

	page.SetPage(3, 20)
	rec.next(t)

	page.SetStatusFilter("active")
	page.SetSearchText("laptop")

	var last store.Action
	for {
		last = rec.next(t)
		if last.Payload.(api.Query).Filters[api.FilterKeyword] == "laptop" {
			break
		}
	}
	q := last.Payload.(api.Query)
	assert.Equal(t, map[string]string{api.FilterStatus: "active", api.FilterKeyword: "laptop"}, q.Filters)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.Limit)
}

func TestSortAndPaginationKeepPage(t *testing.T) {
	rec := newRecorder()
	page := NewListPage(rec, categoryList(), Options{})
	defer page.Close()

	page.SetPage(4, 10)
	rec.next(t)
	page.SetSort("name", "asc")
	a := rec.next(t)

	q := a.Payload.(api.Query)
	assert.Equal(t, 4, q.Page)
	assert.Equal(t, "name", q.SortBy)
	assert.Equal(t, "asc", q.SortOrder)
}

func TestResetPageOnSort(t *testing.T) {
	rec := newRecorder()
	page := NewListPage(rec, categoryList(), Options{ResetPageOnSort: true, SortBy: "createdAt", SortOrder: "desc"})
	defer page.Close()

	assert.Equal(t, "createdAt", page.Query().SortBy)
	page.SetPage(4, 10)
	rec.next(t)
	page.SetSort("title", "asc")
	a := rec.next(t)

	assert.Equal(t, 1, a.Payload.(api.Query).Page)
	current, size := page.Current()
	assert.Equal(t, 1, current)
	assert.Equal(t, 10, size)
}

func TestExtraFilters(t *testing.T) {
	rec := newRecorder()
	page := NewListPage(rec, slices.New[models.Product](slices.Products, nil).List, Options{})
	defer page.Close()

	page.SetFilter(api.FilterCategoryName, "Laptops")
	a := rec.next(t)
	assert.Equal(t, "product/LIST_REQUEST", a.Type)
	assert.Equal(t, "Laptops", a.Payload.(api.Query).Filters[api.FilterCategoryName])

	page.SetFilter(api.FilterCategoryName, "")
	a = rec.next(t)
	assert.Empty(t, a.Payload.(api.Query).Filters)
}

func TestRepairStatusNeedsConfirmation(t *testing.T) {
	rec := newRecorder()
	sl := slices.New[models.RepairRequest](slices.RepairRequests, nil)
	var prompts []string
	answer := false
	page := NewRepairPage(rec, sl, ConfirmFunc(func(p string) bool {
		prompts = append(prompts, p)
		return answer
	}))

	r := models.RepairRequest{ID: "r1", Status: transitions.RepairInProgress}
	assert.Equal(t, []string{transitions.RepairInProgress, transitions.RepairCompleted}, page.Options(r))

	_, err := page.ChangeStatus(r, transitions.RepairCompleted)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Len(t, prompts, 1)
	assert.Empty(t, rec.all())

	answer = true
	a, err := page.ChangeStatus(r, transitions.RepairCompleted)
	require.NoError(t, err)
	assert.Equal(t, "repairRequest/STATUS_REQUEST", a.Type)
	assert.Equal(t, slices.StatusPayload{ID: "r1", Status: transitions.RepairCompleted, From: transitions.RepairInProgress}, a.Payload)
}

func TestRepairStatusGuards(t *testing.T) {
	rec := newRecorder()
	page := NewRepairPage(rec, slices.New[models.RepairRequest](slices.RepairRequests, nil), nil)

	done := models.RepairRequest{ID: "r1", Status: transitions.RepairCompleted}
	assert.Equal(t, []string{transitions.RepairCompleted}, page.Options(done))
	_, err := page.ChangeStatus(done, transitions.RepairWaiting)
	assert.ErrorIs(t, err, ErrLocked)

	waiting := models.RepairRequest{ID: "r2", Status: transitions.RepairWaiting}
	_, err = page.ChangeStatus(waiting, transitions.RepairCompleted)
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, err = page.ChangeStatus(waiting, transitions.RepairWaiting)
	assert.ErrorIs(t, err, ErrNoChange)

	_, err = page.ChangeStatus(waiting, transitions.RepairInProgress)
	require.NoError(t, err)
	assert.Len(t, rec.all(), 1)
}

func TestOrderPage(t *testing.T) {
	rec := newRecorder()
	page := NewOrderPage(rec, slices.New[models.Order](slices.Orders, nil))
	o := models.Order{ID: "o1", OrderStatus: models.Ref{ID: "s1", Name: transitions.OrderPending}}

	assert.Equal(t, []string{transitions.OrderPending, transitions.OrderConfirmed, transitions.OrderCancelled}, page.Options(o))
	_, err := page.ChangeStatus(o, transitions.OrderPending)
	assert.ErrorIs(t, err, ErrNoChange)

	a, err := page.ChangeStatus(o, transitions.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, "order/STATUS_REQUEST", a.Type)
}

func TestAboutPageSingleton(t *testing.T) {
	rec := newRecorder()
	about := slices.NewAbout(nil)
	state := slices.AboutState{Data: &models.AboutUs{ID: "a1", StoreName: "Shop"}}
	page := NewAboutPage(rec, about, func() slices.AboutState { return state }, nil)

	_, err := page.Create(context.Background(), models.AboutInput{StoreName: "Other"})
	assert.ErrorIs(t, err, slices.ErrSingletonExists)
	actions := rec.all()
	require.Len(t, actions, 1)
	assert.Equal(t, slices.AboutCreateRejected, actions[0].Type)

	state = slices.AboutState{}
	_, err = page.Create(context.Background(), models.AboutInput{StoreName: "S"})
	var fe validate.Errors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "storeName")
	assert.Len(t, rec.all(), 1, "invalid input dispatches nothing")

	a, err := page.Create(context.Background(), models.AboutInput{StoreName: "Shop"})
	require.NoError(t, err)
	assert.Equal(t, "about/CREATE_REQUEST", a.Type)

	_, err = page.Update(context.Background(), models.AboutInput{StoreName: "Shop"})
	assert.ErrorIs(t, err, slices.ErrAboutMissing)
}
