package slices

import (
	"strings"

	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/app/transitions"
	"github.com/shashiranjanraj/shopdesk/pkg/collection"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

// Feature names; they prefix every action type.
const (
	Categories     = "category"
	Products       = "product"
	Orders         = "order"
	News           = "news"
	Reviews        = "review"
	RepairServices = "repairService"
	RepairRequests = "repairRequest"
	StaffMembers   = "staff"
	AboutUs        = "about"
	Statistics     = "stats"
	SessionFeature = "session"
)

var crud = []Op{OpList, OpDetail, OpCreate, OpUpdate, OpDelete}

func withStatus(ops ...Op) []Op { return append(append([]Op{}, ops...), OpStatus) }

// ── Categories ──────────────────────────────────────────────────────────────

// ActiveCategories returns the categories whose status is on, for pickers.
func ActiveCategories(st State[models.Category]) []models.Category {
	return collection.Filter(st.Items, func(c models.Category) bool { return bool(c.Status) })
}

// ── Products ────────────────────────────────────────────────────────────────

// normalizeProducts fills in the category name of products whose category
// arrived as a bare id, from the categories already loaded.
func normalizeProducts(products []models.Product, categories []models.Category) []models.Product {
	if len(categories) == 0 {
		return products
	}
	byID := collection.KeyBy(categories, func(c models.Category) string { return c.ID })
	changed := false
	out := collection.Map(products, func(p models.Product) models.Product {
		if p.Category.Name != "" || p.Category.ID == "" {
			return p
		}
		if c, ok := byID[p.Category.ID]; ok {
			p.Category.Name = c.Name
			changed = true
		}
		return p
	})
	if !changed {
		return products
	}
	return out
}

// ProductsInCategory filters products by category name, case-insensitively.
func ProductsInCategory(st State[models.Product], name string) []models.Product {
	return collection.Filter(st.Items, func(p models.Product) bool {
		return strings.EqualFold(p.CategoryName(), name)
	})
}

// ── Orders ──────────────────────────────────────────────────────────────────

// OrderStatus builds the STATUS request moving o to target. A target outside
// the transition table is still sent, since the backend has the final say,
// but it is logged.
func OrderStatus(s *Slice[models.Order], o models.Order, target string) store.Action {
	from := o.Status()
	if !transitions.Orders.Allowed(from, target) {
		logger.Warn("slices: order status change outside the transition table",
			"order", o.ID, "from", from, "to", target)
	}
	a := s.SetStatus(o.ID, target)
	a.Payload = StatusPayload{ID: o.ID, Status: target, From: from}
	return a
}

// OrdersWithStatus filters the listed orders by status name.
func OrdersWithStatus(st State[models.Order], status string) []models.Order {
	return collection.Filter(st.Items, func(o models.Order) bool { return o.Status() == status })
}

// ── Reviews ─────────────────────────────────────────────────────────────────

// ReviewVisibility builds the STATUS request showing or hiding review id.
func ReviewVisibility(s *Slice[models.Review], id string, visible bool) store.Action {
	return s.SetStatus(id, visible)
}

// ── Repair requests ─────────────────────────────────────────────────────────

// RepairStatus builds the STATUS request moving r to target.
func RepairStatus(s *Slice[models.RepairRequest], r models.RepairRequest, target string) store.Action {
	a := s.SetStatus(r.ID, target)
	a.Payload = StatusPayload{ID: r.ID, Status: target, From: r.Status}
	return a
}

// ── Staff ───────────────────────────────────────────────────────────────────

// StaffByRole filters the listed staff by role.
func StaffByRole(st State[models.Staff], role string) []models.Staff {
	return collection.Filter(st.Items, func(s models.Staff) bool { return s.Role == role })
}

// StaffActivation builds the STATUS request enabling or disabling a member.
func StaffActivation(s *Slice[models.Staff], id string, active bool) store.Action {
	status := "inactive"
	if active {
		status = "active"
	}
	return s.SetStatus(id, status)
}
