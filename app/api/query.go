package api

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Filter keys understood by the list endpoints.
const (
	FilterStatus       = "status"
	FilterKeyword      = "keyword"
	FilterCategoryName = "categoryName"
)

// StatusAll is the "no status filter" option of the list pages.
const StatusAll = "all"

// Query is the input of a LIST request.
type Query struct {
	Filters   map[string]string `json:"filters,omitempty"`
	Page      int               `json:"page,omitempty"`
	Limit     int               `json:"limit,omitempty"`
	SortBy    string            `json:"sortBy,omitempty"`
	SortOrder string            `json:"sortOrder,omitempty"` // asc | desc
}

// Values encodes q as a query string. Empty filters and status "all" are
// omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	for k, val := range q.Filters {
		val = strings.TrimSpace(val)
		if val == "" || (k == FilterStatus && val == StatusAll) {
			continue
		}
		v.Set(k, val)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
		if q.SortOrder != "" {
			v.Set("sortOrder", q.SortOrder)
		}
	}
	return v
}

// Key is a canonical encoding of q; equal queries have equal keys.
func (q Query) Key() string {
	v := q.Values()
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v.Get(k)))
	}
	return b.String()
}

// Clean returns q with the omitted filters removed, so the REQUEST payload
// shows exactly what is sent.
func (q Query) Clean() Query {
	out := q
	out.Filters = nil
	for k, val := range q.Filters {
		val = strings.TrimSpace(val)
		if val == "" || (k == FilterStatus && val == StatusAll) {
			continue
		}
		if out.Filters == nil {
			out.Filters = map[string]string{}
		}
		out.Filters[k] = val
	}
	return out
}
