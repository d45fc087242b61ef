package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	shttp "github.com/shashiranjanraj/shopdesk/pkg/http"
)

// File is an attachment sent with a mutation.
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// Payload is the body of CREATE and UPDATE requests. It is sent as JSON
// unless it carries at least one file, in which case it becomes
// multipart/form-data.
type Payload struct {
	Fields map[string]any
	Files  []File
}

// Fields builds a file-less payload.
func Fields(fields map[string]any) Payload { return Payload{Fields: fields} }

// Multipart reports whether p is sent as multipart/form-data.
func (p Payload) Multipart() bool { return len(p.Files) > 0 }

// body is a payload encoded once and applied to every attempt.
type body struct {
	json  map[string]any
	form  map[string]string
	files []shttp.FilePart
}

func (p Payload) encode() (body, error) {
	if !p.Multipart() {
		fields := p.Fields
		if fields == nil {
			fields = map[string]any{}
		}
		return body{json: fields}, nil
	}

	b := body{form: make(map[string]string, len(p.Fields))}
	for k, v := range p.Fields {
		s, err := formValue(v)
		if err != nil {
			return body{}, fmt.Errorf("api: field %s: %w", k, err)
		}
		b.form[k] = s
	}
	b.files = make([]shttp.FilePart, len(p.Files))
	for i, f := range p.Files {
		b.files[i] = shttp.FilePart{Field: f.Field, Filename: f.Name, ContentType: f.ContentType, Content: f.Content}
	}
	return b, nil
}

func (b body) apply(r *shttp.Request) *shttp.Request {
	if b.json != nil {
		return r.Body(b.json)
	}
	return r.Multipart(b.form, b.files)
}

// formValue renders scalars as text and everything else as JSON.
func formValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case *bool:
		if t == nil {
			return "", nil
		}
		return strconv.FormatBool(*t), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// FieldNames lists the payload's field names in order; used in logs.
func (p Payload) FieldNames() []string {
	names := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
