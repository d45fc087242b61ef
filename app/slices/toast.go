package slices

import (
	"github.com/shashiranjanraj/shopdesk/pkg/notify"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

var featureTitles = map[string]string{
	Categories:     "Category",
	Products:       "Product",
	Orders:         "Order",
	News:           "News",
	Reviews:        "Review",
	RepairServices: "Repair service",
	RepairRequests: "Repair request",
	StaffMembers:   "Staff",
	AboutUs:        "About us",
	Statistics:     "Statistics",
	SessionFeature: "Session",
}

var defaultSuccess = map[Op]string{
	OpCreate: "Created successfully",
	OpUpdate: "Updated successfully",
	OpDelete: "Deleted successfully",
	OpStatus: "Status updated",
	OpLogin:  "Logged in",
	OpLogout: "Logged out",
}

// ToastFor is the notify.Rule of the admin: mutation and session results
// raise toasts, reads fail silently into their slice's error field, and a
// rejected about-us create raises a warning.
func ToastFor(a store.Action) (notify.Toast, bool) {
	if a.Type == AboutCreateRejected {
		f, _ := a.Payload.(Failed)
		return notify.Toast{Level: notify.LevelWarning, Title: featureTitles[AboutUs], Message: f.Message}, true
	}

	feature, op, phase, ok := ParseType(a.Type)
	if !ok || phase == Request {
		return notify.Toast{}, false
	}
	title := featureTitles[feature]

	if phase == Failure {
		f, _ := a.Payload.(Failed)
		if !op.Mutates() && op != OpLogin && !f.Expired {
			return notify.Toast{}, false
		}
		return notify.Toast{Level: notify.LevelError, Title: title, Message: f.Message}, true
	}

	fallback, ok := defaultSuccess[op]
	if !ok {
		return notify.Toast{}, false
	}
	msg := fallback
	switch p := a.Payload.(type) {
	case Deleted:
		msg = pick(p.Message, fallback)
	case interface{ Notice() string }:
		msg = pick(p.Notice(), fallback)
	}
	return notify.Toast{Level: notify.LevelSuccess, Title: title, Message: msg}, true
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
