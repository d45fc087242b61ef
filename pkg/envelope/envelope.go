// Package envelope turns every backend's response shape into one result.
//
// The backends disagree on how they report success:
//
//	{"status": "OK", "data": ..., "pagination": {...}, "message": "..."}
//	{"success": true, "data": ...}
//	{"status": 200, "data": ...}
//	[...] or {...} with no wrapper at all
//
// Decode accepts all of them and returns either a *Result or an *Error whose
// Kind says where the failure happened.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	// KindTransport means no response arrived.
	KindTransport Kind = "transport"
	// KindHTTP means a non-2xx status.
	KindHTTP Kind = "http"
	// KindApplication means a 2xx response whose envelope reports failure.
	KindApplication Kind = "application"
)

// Pagination is the list metadata returned next to collection payloads.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages,omitempty"`
}

// Result is a successful response.
type Result struct {
	Data       json.RawMessage
	Pagination *Pagination
	Message    string
}

// Into unmarshals Data into dest.
func (r *Result) Into(dest any) error {
	if len(r.Data) == 0 || bytes.Equal(r.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(r.Data, dest); err != nil {
		return fmt.Errorf("envelope: decode data: %w", err)
	}
	return nil
}

// Error is a normalized failure.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Transport wraps a failure that produced no response.
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

// Message returns the human-readable text for any error: the backend's
// message when there was one, the error text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// IsStatus reports whether err is an HTTP failure with the given status.
func IsStatus(err error, status int) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindHTTP && e.StatusCode == status
}

type raw struct {
	Status     json.RawMessage `json:"status"`
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	// Some list endpoints put these at the top level.
	Total *int `json:"total"`
	Page  *int `json:"page"`
	Limit *int `json:"limit"`
}

// Decode translates an HTTP status and body into a Result or an *Error.
func Decode(status int, body []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(body)

	if status < 200 || status >= 300 {
		return nil, &Error{Kind: KindHTTP, StatusCode: status, Message: failureMessage(status, trimmed)}
	}

	if len(trimmed) == 0 {
		return &Result{}, nil
	}
	if trimmed[0] != '{' {
		// Bare array or scalar.
		return &Result{Data: json.RawMessage(trimmed)}, nil
	}

	var env raw
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &Error{Kind: KindApplication, StatusCode: status, Message: "malformed response body", Err: err}
	}

	st := classify(env.Status)
	hasData := len(env.Data) > 0
	failed := false
	switch {
	case env.Success != nil:
		failed = !*env.Success
	case st == statusNumericFail:
		failed = true
	case st == statusOther:
		// {status: "draft", ...} is an entity, not an envelope, unless it
		// carries the envelope's data or message fields.
		failed = hasData || env.Message != ""
	}
	if failed {
		return nil, &Error{Kind: KindApplication, StatusCode: status, Message: pick(env.Message, env.Error, "request failed")}
	}

	wrapped := env.Success != nil || hasData || st == statusOK || st == statusNumericOK
	res := &Result{Message: env.Message, Pagination: env.Pagination}
	if !wrapped {
		res.Data = json.RawMessage(trimmed)
		res.Message = ""
		return res, nil
	}
	res.Data = env.Data

	if res.Pagination == nil {
		res.Pagination = topLevelPagination(env)
	}
	return res, nil
}

type statusKind int

const (
	statusAbsent statusKind = iota
	statusOK
	statusNumericOK
	statusNumericFail
	statusOther
)

// classify interprets the "status" field. Booleans belong to entities
// (category.status, review.status) and count as absent.
func classify(rawStatus json.RawMessage) statusKind {
	if len(rawStatus) == 0 || string(rawStatus) == "null" {
		return statusAbsent
	}
	var s string
	if err := json.Unmarshal(rawStatus, &s); err == nil {
		switch strings.ToUpper(s) {
		case "OK", "SUCCESS":
			return statusOK
		default:
			return statusOther
		}
	}
	var n int
	if err := json.Unmarshal(rawStatus, &n); err == nil {
		if n >= 200 && n < 300 {
			return statusNumericOK
		}
		return statusNumericFail
	}
	return statusAbsent
}

// topLevelPagination reads total/page/limit placed beside data.
func topLevelPagination(env raw) *Pagination {
	if env.Total != nil {
		p := &Pagination{Total: *env.Total}
		if env.Page != nil {
			p.Page = *env.Page
		}
		if env.Limit != nil {
			p.Limit = *env.Limit
		}
		return p
	}
	return nil
}

// Unwrap narrows a {items|docs|data: [...], pagination: {...}} object held in
// Data to its collection and picks up the nested pagination.
func (r *Result) Unwrap() {
	trimmed := bytes.TrimSpace(r.Data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return
	}
	var inner struct {
		Items      json.RawMessage `json:"items"`
		Docs       json.RawMessage `json:"docs"`
		Data       json.RawMessage `json:"data"`
		Pagination *Pagination     `json:"pagination"`
		Total      *int            `json:"total"`
		Page       *int            `json:"page"`
		Limit      *int            `json:"limit"`
	}
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return
	}
	switch {
	case isArray(inner.Items):
		r.Data = inner.Items
	case isArray(inner.Docs):
		r.Data = inner.Docs
	case isArray(inner.Data):
		r.Data = inner.Data
	default:
		return
	}
	if r.Pagination == nil {
		switch {
		case inner.Pagination != nil:
			r.Pagination = inner.Pagination
		case inner.Total != nil:
			r.Pagination = &Pagination{Total: *inner.Total}
			if inner.Page != nil {
				r.Pagination.Page = *inner.Page
			}
			if inner.Limit != nil {
				r.Pagination.Limit = *inner.Limit
			}
		}
	}
}

func isArray(b json.RawMessage) bool {
	t := bytes.TrimSpace(b)
	return len(t) > 0 && t[0] == '['
}

func failureMessage(status int, body []byte) string {
	if len(body) > 0 && body[0] == '{' {
		var env raw
		if err := json.Unmarshal(body, &env); err == nil {
			if m := pick(env.Message, env.Error, ""); m != "" {
				return m
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("request failed with status %d (%s)", status, text)
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func pick(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
