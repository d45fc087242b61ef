package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ref is a reference to another record. The backend sends it either as a
// bare id or as the populated record; both decode to the same Ref.
type Ref struct {
	ID string
	// Name is a display label taken from the populated record, if any.
	Name string
	// Doc is the populated record as received, nil for a bare id.
	Doc json.RawMessage
}

// RefTo builds a bare reference.
func RefTo(id string) Ref { return Ref{ID: id} }

// Populated reports whether the reference arrived as a full record.
func (r Ref) Populated() bool { return len(r.Doc) > 0 }

// Label returns the display name, falling back to the id.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Decode unmarshals the populated record into dest. It is a no-op for a
// bare id.
func (r Ref) Decode(dest any) error {
	if !r.Populated() {
		return nil
	}
	return json.Unmarshal(r.Doc, dest)
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = Ref{}
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	switch b[0] {
	case '"':
		return json.Unmarshal(b, &r.ID)
	case '{':
		var doc struct {
			MongoID  string `json:"_id"`
			ID       any    `json:"id"`
			Name     string `json:"name"`
			Title    string `json:"title"`
			UserName string `json:"user_name"`
			FullName string `json:"fullName"`
			Email    string `json:"email"`
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("models: decode reference: %w", err)
		}
		r.ID = doc.MongoID
		if r.ID == "" && doc.ID != nil {
			r.ID = scalar(doc.ID)
		}
		r.Name = firstNonEmpty(doc.Name, doc.Title, doc.UserName, doc.FullName, doc.Email)
		r.Doc = append(json.RawMessage(nil), b...)
		return nil
	default:
		// Numeric ids.
		var v any
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("models: decode reference: %w", err)
		}
		r.ID = scalar(v)
		return nil
	}
}

// MarshalJSON sends the id only; the backend populates references itself.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// Flag is a boolean status. Some backends send it as a bool, others as
// "true"/"false", "active"/"inactive" or 1/0.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("models: decode flag: %w", err)
	}
	switch t := v.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(t)
	case float64:
		*f = t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "active", "visible", "published", "show":
			*f = true
		default:
			*f = false
		}
	default:
		return fmt.Errorf("models: decode flag: unexpected %T", v)
	}
	return nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
