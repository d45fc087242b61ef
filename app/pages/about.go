package pages

import (
	"context"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/forms"
	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/app/slices"
	"github.com/shashiranjanraj/shopdesk/pkg/storage"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// AboutPage edits the singleton about document.
type AboutPage struct {
	d     store.Dispatcher
	about *slices.About
	state func() slices.AboutState
	disks *storage.Manager
}

// NewAboutPage creates the page. state reads the about slice of the store.
func NewAboutPage(d store.Dispatcher, about *slices.About, state func() slices.AboutState, disks *storage.Manager) *AboutPage {
	return &AboutPage{d: d, about: about, state: state, disks: disks}
}

// Create submits in as the new document. While a document is loaded nothing
// is requested and slices.ErrSingletonExists is returned; an invalid input
// returns validate.Errors.
func (p *AboutPage) Create(ctx context.Context, in models.AboutInput) (store.Action, error) {
	st := p.state()
	if st.Data != nil {
		return p.about.Create(p.d, st, api.Payload{})
	}
	payload, err := forms.Build(ctx, p.disks, in)
	if err != nil {
		return store.Action{}, err
	}
	return p.about.Create(p.d, st, payload)
}

// Update submits in as a change to the loaded document.
func (p *AboutPage) Update(ctx context.Context, in models.AboutInput) (store.Action, error) {
	st := p.state()
	if st.Data == nil {
		return store.Action{}, slices.ErrAboutMissing
	}
	payload, err := forms.Build(ctx, p.disks, in)
	if err != nil {
		return store.Action{}, err
	}
	return p.d.Dispatch(p.about.Update(st.Data.ID, payload)), nil
}
