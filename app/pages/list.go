// Package pages holds the page-level state of the admin screens: filters,
// sorting and pagination of list pages, and the guarded status and singleton
// actions.
//
// A ListPage turns every change into a debounced LIST_REQUEST:
//
//	page := pages.NewListPage(st, sl.Categories.List, pages.Options{PageSize: 10})
//	defer page.Close()
//	page.SetStatusFilter("active")
//	page.SetSearchText("lap")
//	page.SetSearchText("laptop") // one request, 500ms after the last keystroke
package pages

import (
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/config"
	"github.com/shashiranjanraj/shopdesk/pkg/debounce"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// Options configures a ListPage.
type Options struct {
	// Name identifies the page in logs.
	Name     string
	PageSize int
	// Debounce is the delay applied while search text is non-empty.
	// Zero means config.SearchDebounce().
	Debounce time.Duration
	// ResetPageOnSort sends sort changes back to the first page.
	ResetPageOnSort bool
	SortBy          string
	SortOrder       string
}

// ListPage is the filter, sort and pagination state of one list screen.
type ListPage struct {
	d    store.Dispatcher
	list func(api.Query) store.Action
	opts Options
	deb  debounce.Debouncer

	mu        sync.Mutex
	search    string
	status    string
	filters   map[string]string
	sortBy    string
	sortOrder string
	current   int
	pageSize  int
	last      store.Action
}

// NewListPage creates a page dispatching list(query) into d.
func NewListPage(d store.Dispatcher, list func(api.Query) store.Action, opts Options) *ListPage {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.Debounce <= 0 {
		opts.Debounce = config.SearchDebounce()
	}
	return &ListPage{
		d:         d,
		list:      list,
		opts:      opts,
		status:    api.StatusAll,
		filters:   map[string]string{},
		sortBy:    opts.SortBy,
		sortOrder: opts.SortOrder,
		current:   1,
		pageSize:  opts.PageSize,
	}
}

// SetSearchText changes the keyword filter.
func (p *ListPage) SetSearchText(text string) {
	p.change(func() { p.search = text; p.current = 1 })
}

// SetStatusFilter changes the status filter; "all" disables it.
func (p *ListPage) SetStatusFilter(status string) {
	p.change(func() { p.status = status; p.current = 1 })
}

// SetFilter sets an extra filter such as categoryName. An empty value
// removes it.
func (p *ListPage) SetFilter(key, value string) {
	p.change(func() {
		if value == "" {
			delete(p.filters, key)
		} else {
			p.filters[key] = value
		}
		p.current = 1
	})
}

// SetSort changes the sort column and order.
func (p *ListPage) SetSort(by, order string) {
	p.change(func() {
		p.sortBy, p.sortOrder = by, order
		if p.opts.ResetPageOnSort {
			p.current = 1
		}
	})
}

// SetPage moves to page current with pageSize rows.
func (p *ListPage) SetPage(current, pageSize int) {
	p.change(func() {
		if current < 1 {
			current = 1
		}
		if pageSize > 0 {
			p.pageSize = pageSize
		}
		p.current = current
	})
}

// Refresh requests the current query again.
func (p *ListPage) Refresh() { p.change(func() {}) }

// Current returns the page number and size.
func (p *ListPage) Current() (current, pageSize int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.pageSize
}

// Query builds the query of the current state.
func (p *ListPage) Query() api.Query {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query()
}

func (p *ListPage) query() api.Query {
	filters := maps.Clone(p.filters)
	filters[api.FilterKeyword] = strings.TrimSpace(p.search)
	filters[api.FilterStatus] = p.status
	return api.Query{
		Filters:   filters,
		Page:      p.current,
		Limit:     p.pageSize,
		SortBy:    p.sortBy,
		SortOrder: p.sortOrder,
	}
}

// Last returns the most recently dispatched request.
func (p *ListPage) Last() store.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Pending reports whether a request is waiting out the debounce delay.
func (p *ListPage) Pending() bool { return p.deb.Pending() }

// Close drops any pending request.
func (p *ListPage) Close() { p.deb.Cancel() }

// change applies mutate and reschedules the request: after the debounce
// delay while there is search text, right away otherwise.
func (p *ListPage) change(mutate func()) {
	p.mu.Lock()
	mutate()
	delay := time.Duration(0)
	if strings.TrimSpace(p.search) != "" {
		delay = p.opts.Debounce
	}
	p.mu.Unlock()

	p.deb.Schedule(delay, p.fire)
}

func (p *ListPage) fire() {
	p.mu.Lock()
	q := p.query()
	p.mu.Unlock()

	a := p.d.Dispatch(p.list(q))
	logger.Debug("pages: list requested", "page", p.opts.Name, "seq", a.Seq, "query", q.Key())

	p.mu.Lock()
	p.last = a
	p.mu.Unlock()
}
