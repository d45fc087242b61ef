package slices

import (
	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/pkg/saga"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// RootState is the whole store.
type RootState struct {
	Categories     State[models.Category]      `json:"categories"`
	Products       State[models.Product]       `json:"products"`
	Orders         State[models.Order]         `json:"orders"`
	News           State[models.News]          `json:"news"`
	Reviews        State[models.Review]        `json:"reviews"`
	RepairServices State[models.RepairService] `json:"repairServices"`
	RepairRequests State[models.RepairRequest] `json:"repairRequests"`
	Staff          State[models.Staff]         `json:"staff"`
	About          AboutState                  `json:"about"`
	Stats          StatsState                  `json:"stats"`
	Session        SessionState                `json:"session"`
}

// Slices is every feature slice of the admin.
type Slices struct {
	Categories     *Slice[models.Category]
	Products       *Slice[models.Product]
	Orders         *Slice[models.Order]
	News           *Slice[models.News]
	Reviews        *Slice[models.Review]
	RepairServices *Slice[models.RepairService]
	RepairRequests *Slice[models.RepairRequest]
	Staff          *Slice[models.Staff]
	About          *About
	Stats          *Stats
	Session        *Session
}

// NewSlices binds every slice to its backend.
func NewSlices(svc *api.Services, a Authenticator) *Slices {
	return &Slices{
		Categories:     New[models.Category](Categories, svc.Categories, crud...),
		Products:       New[models.Product](Products, svc.Products, crud...),
		Orders:         New[models.Order](Orders, svc.Orders, OpList, OpDetail, OpStatus, OpDelete),
		News:           New[models.News](News, svc.News, withStatus(crud...)...),
		Reviews:        New[models.Review](Reviews, svc.Reviews, OpList, OpDetail, OpCreate, OpStatus, OpDelete),
		RepairServices: New[models.RepairService](RepairServices, svc.RepairServices, crud...),
		RepairRequests: New[models.RepairRequest](RepairRequests, svc.RepairRequests, withStatus(crud...)...),
		Staff:          New[models.Staff](StaffMembers, svc.Staff, withStatus(crud...)...),
		About:          NewAbout(svc.About),
		Stats:          NewStats(svc.Stats),
		Session:        NewSession(a),
	}
}

// Reduce is the root reducer.
func (s *Slices) Reduce(st RootState, a store.Action) RootState {
	st.Categories = s.Categories.Reduce(st.Categories, a)
	st.Products = s.Products.Reduce(st.Products, a)
	st.Orders = s.Orders.Reduce(st.Orders, a)
	st.News = s.News.Reduce(st.News, a)
	st.Reviews = s.Reviews.Reduce(st.Reviews, a)
	st.RepairServices = s.RepairServices.Reduce(st.RepairServices, a)
	st.RepairRequests = s.RepairRequests.Reduce(st.RepairRequests, a)
	st.Staff = s.Staff.Reduce(st.Staff, a)
	st.About = s.About.Reduce(st.About, a)
	st.Stats = s.Stats.Reduce(st.Stats, a)
	st.Session = s.Session.Reduce(st.Session, a)

	// Products may reference categories by id only.
	st.Products.Items = normalizeProducts(st.Products.Items, st.Categories.Items)
	return st
}

// Register starts every slice's watchers on rt.
func (s *Slices) Register(rt *saga.Runtime) {
	s.Categories.Register(rt)
	s.Products.Register(rt)
	s.Orders.Register(rt)
	s.News.Register(rt)
	s.Reviews.Register(rt)
	s.RepairServices.Register(rt)
	s.RepairRequests.Register(rt)
	s.Staff.Register(rt)
	s.About.Register(rt)
	s.Stats.Register(rt)
	s.Session.Register(rt)
}

// Collection is the feature-agnostic face of a Slice, used by the CLI and
// the devtools server to address a collection by name.
type Collection interface {
	Type(op Op, phase Phase) string
	Serves(op Op) bool
	List(q api.Query) store.Action
	Detail(id string) store.Action
	Create(p api.Payload) store.Action
	Update(id string, p api.Payload) store.Action
	SetStatus(id string, status any) store.Action
	Delete(id string) store.Action
}

// Collections lists the collection features in display order.
var Collections = []string{
	Categories, Products, Orders, News, Reviews,
	RepairServices, RepairRequests, StaffMembers,
}

// Collection returns the slice of feature.
func (s *Slices) Collection(feature string) (Collection, bool) {
	switch feature {
	case Categories:
		return s.Categories, true
	case Products:
		return s.Products, true
	case Orders:
		return s.Orders, true
	case News:
		return s.News, true
	case Reviews:
		return s.Reviews, true
	case RepairServices:
		return s.RepairServices, true
	case RepairRequests:
		return s.RepairRequests, true
	case StaffMembers:
		return s.Staff, true
	}
	return nil, false
}

// Lister returns the LIST request builder of a feature, or nil for an
// unknown feature.
func (s *Slices) Lister(feature string) func(api.Query) store.Action {
	c, ok := s.Collection(feature)
	if !ok {
		return nil
	}
	return c.List
}

// Select returns the state of feature within st.
func Select(st RootState, feature string) (any, bool) {
	switch feature {
	case Categories:
		return st.Categories, true
	case Products:
		return st.Products, true
	case Orders:
		return st.Orders, true
	case News:
		return st.News, true
	case Reviews:
		return st.Reviews, true
	case RepairServices:
		return st.RepairServices, true
	case RepairRequests:
		return st.RepairRequests, true
	case StaffMembers:
		return st.Staff, true
	case AboutUs:
		return st.About, true
	case Statistics:
		return st.Stats, true
	case SessionFeature:
		return st.Session, true
	}
	return nil, false
}
