package slices

import (
	"errors"
	"strings"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/pkg/auth"
	"github.com/shashiranjanraj/shopdesk/pkg/envelope"
	"github.com/shashiranjanraj/shopdesk/pkg/validate"
)

// Op names an operation of a feature.
type Op string

const (
	OpList   Op = "LIST"
	OpDetail Op = "DETAIL"
	OpCreate Op = "CREATE"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
	OpStatus Op = "STATUS"
	OpStats  Op = "STATS"
	OpLogin  Op = "LOGIN"
	OpLogout Op = "LOGOUT"
)

// Mutates reports whether op changes backend data.
func (op Op) Mutates() bool {
	switch op {
	case OpCreate, OpUpdate, OpDelete, OpStatus:
		return true
	}
	return false
}

// Phase is the REQUEST, SUCCESS or FAILURE leg of an operation.
type Phase string

const (
	Request Phase = "_REQUEST"
	Success Phase = "_SUCCESS"
	Failure Phase = "_FAILURE"
)

// Type builds an action type: Type("category", OpList, Request) is
// "category/LIST_REQUEST".
func Type(feature string, op Op, phase Phase) string {
	return feature + "/" + string(op) + string(phase)
}

// ParseType splits an action type built by Type.
func ParseType(t string) (feature string, op Op, phase Phase, ok bool) {
	feature, rest, found := strings.Cut(t, "/")
	if !found {
		return "", "", "", false
	}
	for _, p := range []Phase{Request, Success, Failure} {
		if name, cut := strings.CutSuffix(rest, string(p)); cut && name != "" {
			return feature, Op(name), p, true
		}
	}
	return "", "", "", false
}

// Responses lists the SUCCESS and FAILURE types of op, for store.Await.
func Responses(feature string, op Op) []string {
	return []string{Type(feature, op, Success), Type(feature, op, Failure)}
}

// OpState tracks one operation of a slice.
type OpState struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	// Seq is the Seq of the latest REQUEST.
	Seq uint64 `json:"seq,omitempty"`
	// Pending counts mutation requests still in flight.
	Pending int `json:"pending,omitempty"`
}

// Ops is the per-operation state of a slice. It is copied on write.
type Ops map[Op]OpState

func (o Ops) with(op Op, st OpState) Ops {
	out := make(Ops, len(o)+1)
	for k, v := range o {
		out[k] = v
	}
	out[op] = st
	return out
}

// begin records a REQUEST.
func (o Ops) begin(op Op, seq uint64) Ops {
	cur := o[op]
	next := OpState{Loading: true, Seq: seq}
	if op.Mutates() {
		next.Pending = cur.Pending + 1
	}
	return o.with(op, next)
}

// accepts reports whether a response to request seq should be reduced.
// Reads only accept the answer to their latest request; mutations run
// side by side and all count.
func (o Ops) accepts(op Op, requestSeq uint64) bool {
	if op.Mutates() || requestSeq == 0 {
		return true
	}
	return requestSeq == o[op].Seq
}

// end records a SUCCESS or FAILURE.
func (o Ops) end(op Op, message, errMsg string) Ops {
	cur := o[op]
	next := OpState{Seq: cur.Seq, Message: message, Error: errMsg}
	if op.Mutates() {
		next.Pending = max(cur.Pending-1, 0)
		next.Loading = next.Pending > 0
	}
	return o.with(op, next)
}

// IDPayload targets one record.
type IDPayload struct {
	ID string `json:"id"`
}

// WritePayload is the payload of CREATE and UPDATE requests.
type WritePayload struct {
	ID   string      `json:"id,omitempty"`
	Body api.Payload `json:"-"`
	// Fields mirrors Body's field names for the action log.
	Fields []string `json:"fields,omitempty"`
}

// StatusPayload is the payload of STATUS requests.
type StatusPayload struct {
	ID     string `json:"id"`
	Status any    `json:"status"`
	// From is the status the record had when the change was requested.
	From string `json:"from,omitempty"`
}

// Deleted is the payload of DELETE_SUCCESS.
type Deleted struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// Failed is the payload of every FAILURE action.
type Failed struct {
	Message string          `json:"message"`
	Status  int             `json:"status,omitempty"`
	Fields  validate.Errors `json:"fields,omitempty"`
	// Expired is set when the failure ended the session.
	Expired bool `json:"expired,omitempty"`
}

// Error lets a FAILURE payload travel as an error.
func (f Failed) Error() string { return f.Message }

const (
	msgSessionExpired = "Your session has expired. Please log in again."
	msgForbidden      = "You do not have permission to do that."
)

func failedOf(err error) Failed {
	f := Failed{Message: envelope.Message(err)}
	var e *envelope.Error
	if errors.As(err, &e) {
		f.Status = e.StatusCode
	}
	var fe validate.Errors
	if errors.As(err, &fe) {
		f.Fields = fe
	}
	switch {
	case errors.Is(err, auth.ErrSessionExpired):
		f.Expired = true
		f.Message = msgSessionExpired
	case errors.Is(err, auth.ErrForbidden):
		f.Expired = true
		f.Message = msgForbidden
	}
	return f
}
