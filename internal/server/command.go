package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/slices"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// ErrBadCommand is wrapped by every Command.Action error.
var ErrBadCommand = errors.New("bad command")

// Command is what a devtools client may ask for. Writes that carry a form
// body (CREATE, UPDATE) are left to the CLI.
//
//	{"feature": "product", "op": "LIST", "query": {"filters": {"keyword": "mouse"}}}
//	{"feature": "order", "op": "STATUS", "id": "o1", "status": "shipped"}
type Command struct {
	Feature string    `json:"feature"`
	Op      string    `json:"op"`
	ID      string    `json:"id,omitempty"`
	Status  any       `json:"status,omitempty"`
	Query   api.Query `json:"query"`
}

// Action builds the REQUEST action for c.
func (c Command) Action(sl *slices.Slices) (store.Action, error) {
	op := slices.Op(strings.ToUpper(strings.TrimSpace(c.Op)))

	switch c.Feature {
	case slices.Statistics:
		if op == slices.OpStats || op == slices.OpList {
			return sl.Stats.Request(c.Query), nil
		}
	case slices.AboutUs:
		switch op {
		case slices.OpDetail:
			return sl.About.Fetch(), nil
		case slices.OpDelete:
			if c.ID == "" {
				return store.Action{}, fmt.Errorf("%w: about DELETE needs an id", ErrBadCommand)
			}
			return sl.About.Delete(c.ID), nil
		}
	case slices.SessionFeature:
		switch op {
		case slices.OpDetail:
			return sl.Session.WhoAmI(), nil
		case slices.OpLogout:
			return sl.Session.Logout(), nil
		}
	default:
		col, ok := sl.Collection(c.Feature)
		if !ok {
			return store.Action{}, fmt.Errorf("%w: unknown feature %q", ErrBadCommand, c.Feature)
		}
		if !col.Serves(op) {
			break
		}
		switch op {
		case slices.OpList:
			return col.List(c.Query), nil
		case slices.OpDetail, slices.OpDelete, slices.OpStatus:
			if c.ID == "" {
				return store.Action{}, fmt.Errorf("%w: %s %s needs an id", ErrBadCommand, c.Feature, op)
			}
		}
		switch op {
		case slices.OpDetail:
			return col.Detail(c.ID), nil
		case slices.OpDelete:
			return col.Delete(c.ID), nil
		case slices.OpStatus:
			if c.Status == nil {
				return store.Action{}, fmt.Errorf("%w: %s STATUS needs a status", ErrBadCommand, c.Feature)
			}
			return col.SetStatus(c.ID, c.Status), nil
		}
	}
	return store.Action{}, fmt.Errorf("%w: %s does not support %q", ErrBadCommand, c.Feature, c.Op)
}
