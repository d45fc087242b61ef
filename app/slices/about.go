package slices

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/saga"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// ErrSingletonExists is returned when creating the about document while one
// already exists.
var ErrSingletonExists = errors.New("store information already exists, update it instead")

// ErrAboutMissing is returned when updating before a document exists.
var ErrAboutMissing = errors.New("store information has not been created yet")

// AboutCreateRejected is dispatched instead of a CREATE_REQUEST when the
// about document is already loaded.
const AboutCreateRejected = AboutUs + "/CREATE_REJECTED"

// AboutBackend is the singleton about document. *api.About implements it.
type AboutBackend interface {
	Current(ctx context.Context) (*models.AboutUs, error)
	Create(ctx context.Context, p api.Payload) (api.Mutation[models.AboutUs], error)
	Update(ctx context.Context, id string, p api.Payload) (api.Mutation[models.AboutUs], error)
	Delete(ctx context.Context, id string) (string, error)
}

// AboutState holds the document, nil until one exists.
type AboutState struct {
	Data *models.AboutUs `json:"data"`
	Ops  Ops             `json:"ops,omitempty"`
}

// About is the about-us slice.
type About struct {
	backend AboutBackend
}

// NewAbout creates the slice.
func NewAbout(b AboutBackend) *About { return &About{backend: b} }

// Fetch requests the current document.
func (s *About) Fetch() store.Action {
	return store.Action{Type: Type(AboutUs, OpDetail, Request)}
}

// CreateRequest builds the CREATE request without the singleton guard.
func (s *About) CreateRequest(p api.Payload) store.Action {
	return store.Action{Type: Type(AboutUs, OpCreate, Request), Payload: WritePayload{Body: p, Fields: p.FieldNames()}}
}

// Create dispatches a CREATE request unless st already holds a document. In
// that case nothing is requested: a CREATE_REJECTED warning is dispatched and
// ErrSingletonExists returned.
func (s *About) Create(d store.Dispatcher, st AboutState, p api.Payload) (store.Action, error) {
	if st.Data != nil {
		d.Dispatch(store.Action{Type: AboutCreateRejected, Payload: Failed{Message: ErrSingletonExists.Error()}})
		return store.Action{}, ErrSingletonExists
	}
	return d.Dispatch(s.CreateRequest(p)), nil
}

// Update requests a change to the document.
func (s *About) Update(id string, p api.Payload) store.Action {
	return store.Action{Type: Type(AboutUs, OpUpdate, Request), Payload: WritePayload{ID: id, Body: p, Fields: p.FieldNames()}}
}

// Delete requests removal of the document.
func (s *About) Delete(id string) store.Action {
	return store.Action{Type: Type(AboutUs, OpDelete, Request), Payload: IDPayload{ID: id}}
}

// Reduce applies a to st.
func (s *About) Reduce(st AboutState, a store.Action) AboutState {
	feature, op, phase, ok := ParseType(a.Type)
	if !ok || feature != AboutUs {
		return st
	}
	switch phase {
	case Request:
		st.Ops = st.Ops.begin(op, a.Seq)
		return st
	case Failure:
		if st.Ops.accepts(op, a.Meta.RequestSeq) {
			f, _ := a.Payload.(Failed)
			st.Ops = st.Ops.end(op, "", f.Message)
		}
		return st
	}
	if !st.Ops.accepts(op, a.Meta.RequestSeq) {
		return st
	}

	message := ""
	switch p := a.Payload.(type) {
	case *models.AboutUs:
		st.Data = p
	case api.Mutation[models.AboutUs]:
		doc := p.Item
		st.Data = &doc
		message = p.Message
	case Deleted:
		st.Data = nil
		message = p.Message
	}
	st.Ops = st.Ops.end(op, message, "")
	return st
}

// Register starts the slice's watchers on rt.
func (s *About) Register(rt *saga.Runtime) {
	rt.TakeLatest(Type(AboutUs, OpDetail, Request), s.fetch)
	rt.TakeEvery(Type(AboutUs, OpCreate, Request), s.create)
	rt.TakeEvery(Type(AboutUs, OpUpdate, Request), s.update)
	rt.TakeEvery(Type(AboutUs, OpDelete, Request), s.remove)
}

func (s *About) fail(ctx context.Context, op Op, err error, put saga.Put) {
	if ctx.Err() != nil {
		return
	}
	logger.WithCtx(ctx).Warn("slices: request failed", "feature", AboutUs, "op", op, "error", err)
	put(store.Action{Type: Type(AboutUs, op, Failure), Payload: failedOf(err)})
}

func (s *About) fetch(ctx context.Context, _ store.Action, put saga.Put) {
	doc, err := s.backend.Current(ctx)
	if err != nil {
		s.fail(ctx, OpDetail, err, put)
		return
	}
	put(store.Action{Type: Type(AboutUs, OpDetail, Success), Payload: doc})
}

// create checks the backend too: another admin may have created the
// document since it was last fetched.
func (s *About) create(ctx context.Context, a store.Action, put saga.Put) {
	existing, err := s.backend.Current(ctx)
	if err != nil {
		s.fail(ctx, OpCreate, err, put)
		return
	}
	if existing != nil {
		s.fail(ctx, OpCreate, ErrSingletonExists, put)
		put(s.Fetch())
		return
	}
	p, _ := a.Payload.(WritePayload)
	m, err := s.backend.Create(ctx, p.Body)
	if err != nil {
		s.fail(ctx, OpCreate, err, put)
		return
	}
	put(store.Action{Type: Type(AboutUs, OpCreate, Success), Payload: m})
}

func (s *About) update(ctx context.Context, a store.Action, put saga.Put) {
	p, _ := a.Payload.(WritePayload)
	m, err := s.backend.Update(ctx, p.ID, p.Body)
	if err != nil {
		s.fail(ctx, OpUpdate, err, put)
		return
	}
	put(store.Action{Type: Type(AboutUs, OpUpdate, Success), Payload: m})
}

func (s *About) remove(ctx context.Context, a store.Action, put saga.Put) {
	p, _ := a.Payload.(IDPayload)
	msg, err := s.backend.Delete(ctx, p.ID)
	if err != nil {
		s.fail(ctx, OpDelete, err, put)
		return
	}
	put(store.Action{Type: Type(AboutUs, OpDelete, Success), Payload: Deleted{ID: p.ID, Message: msg}})
}
