package api

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/config"
	"github.com/shashiranjanraj/shopdesk/pkg/auth"
	"github.com/shashiranjanraj/shopdesk/pkg/cache"
	shttp "github.com/shashiranjanraj/shopdesk/pkg/http"
)

// Services is every backend client the slices use.
type Services struct {
	Categories     *Resource[models.Category]
	Products       *Resource[models.Product]
	Orders         *Resource[models.Order]
	News           *Resource[models.News]
	Reviews        *Resource[models.Review]
	RepairServices *Resource[models.RepairService]
	RepairRequests *Resource[models.RepairRequest]
	Staff          *Resource[models.Staff]
	About          *About
	Stats          *Stats
	OrderStatuses  *OrderStatuses
}

// Backends are the three base URLs.
type Backends struct {
	Main     *shttp.Client // auth, orders, news, reviews, repairs, staff, about, statistics
	Product  *shttp.Client
	Category *shttp.Client
}

// BackendsFromConfig builds the clients from config.
func BackendsFromConfig() Backends {
	mk := func(base string) *shttp.Client {
		c := shttp.NewClient(base)
		c.Timeout = config.HTTPTimeout()
		return c
	}
	return Backends{
		Main:     mk(config.MainAPIURL()),
		Product:  mk(config.ProductAPIURL()),
		Category: mk(config.CategoryAPIURL()),
	}
}

// NewServices wires every client to the session and cache.
func NewServices(b Backends, s *auth.Session, c cache.Store, ttl time.Duration) *Services {
	return &Services{
		Categories:     NewResource[models.Category]("category", b.Category, "/categories", s, c, ttl),
		Products:       NewResource[models.Product]("product", b.Product, "/products", s, c, ttl),
		Orders:         NewResource[models.Order]("order", b.Main, "/api/orders", s, c, ttl),
		News:           NewResource[models.News]("news", b.Main, "/api/news", s, c, ttl),
		Reviews:        NewResource[models.Review]("review", b.Main, "/api/reviews", s, c, ttl),
		RepairServices: NewResource[models.RepairService]("repairService", b.Main, "/api/repair-services", s, c, ttl),
		RepairRequests: NewResource[models.RepairRequest]("repairRequest", b.Main, "/api/repair-requests", s, c, ttl),
		Staff:          NewResource[models.Staff]("staff", b.Main, "/api/staff", s, c, ttl),
		About:          &About{NewResource[models.AboutUs]("about", b.Main, "/api/about", s, c, ttl)},
		Stats:          &Stats{client: b.Main, session: s},
		OrderStatuses:  &OrderStatuses{client: b.Main, session: s},
	}
}

// About is the singleton "about us" document.
type About struct {
	*Resource[models.AboutUs]
}

// Current returns the document, or nil when none has been created. The
// backend answers with an object, a one-element list or null.
func (a *About) Current(ctx context.Context) (*models.AboutUs, error) {
	res, err := a.do(ctx, func() *shttp.Request { return a.client.Get(a.path) })
	if err != nil {
		return nil, err
	}
	data := bytes.TrimSpace(res.Data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	if data[0] == '[' {
		var list []models.AboutUs
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, nil
		}
		return &list[0], nil
	}
	var doc models.AboutUs
	if err := res.Into(&doc); err != nil {
		return nil, err
	}
	if doc.ID == "" && doc.StoreName == "" {
		return nil, nil
	}
	return &doc, nil
}

// Stats is the dashboard statistics endpoint.
type Stats struct {
	client  *shttp.Client
	session *auth.Session
}

// Summary fetches the statistics for the filters in q (from, to, ...).
func (s *Stats) Summary(ctx context.Context, q Query) (models.Statistics, error) {
	var out models.Statistics
	res, err := s.session.Do(ctx, func() *shttp.Request {
		return s.client.Get("/api/statistics").Query(q.Values())
	})
	if err != nil {
		return out, err
	}
	err = res.Into(&out)
	return out, err
}

// OrderStatuses serves the backend's canonical order transition table.
type OrderStatuses struct {
	client  *shttp.Client
	session *auth.Session
}

// Transitions fetches status → allowed next statuses.
func (o *OrderStatuses) Transitions(ctx context.Context) (map[string][]string, error) {
	res, err := o.session.Do(ctx, func() *shttp.Request {
		return o.client.Get("/api/orders/status-transitions")
	})
	if err != nil {
		return nil, err
	}
	var table map[string][]string
	if err := res.Into(&table); err != nil {
		return nil, err
	}
	return table, nil
}
