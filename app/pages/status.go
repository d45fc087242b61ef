package pages

import (
	"errors"
	"fmt"

	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/app/slices"
	"github.com/shashiranjanraj/shopdesk/app/transitions"
	"github.com/shashiranjanraj/shopdesk/pkg/store"
)

var (
	ErrNoChange     = errors.New("status is unchanged")
	ErrLocked       = errors.New("status can no longer be changed")
	ErrNotAllowed   = errors.New("status change is not offered")
	ErrNotConfirmed = errors.New("status change was not confirmed")
)

// Confirmer asks the user to confirm a step that cannot be undone.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// RepairPage changes repair request statuses along the repair table.
type RepairPage struct {
	d       store.Dispatcher
	slice   *slices.Slice[models.RepairRequest]
	table   *transitions.Table
	confirm Confirmer
}

// NewRepairPage creates the page. A nil confirm declines every
// confirmation.
func NewRepairPage(d store.Dispatcher, s *slices.Slice[models.RepairRequest], confirm Confirmer) *RepairPage {
	if confirm == nil {
		confirm = ConfirmFunc(func(string) bool { return false })
	}
	return &RepairPage{d: d, slice: s, table: transitions.Repairs, confirm: confirm}
}

// Options returns the dropdown entries for r.
func (p *RepairPage) Options(r models.RepairRequest) []string {
	return p.table.NextStatuses(r.Status)
}

// ChangeStatus dispatches the STATUS request moving r to target. Moves the
// table does not offer are refused, and a move to completed needs
// confirmation since completed requests are locked.
func (p *RepairPage) ChangeStatus(r models.RepairRequest, target string) (store.Action, error) {
	switch {
	case target == r.Status:
		return store.Action{}, ErrNoChange
	case p.table.Locked(r.Status):
		return store.Action{}, ErrLocked
	case !p.table.Allowed(r.Status, target):
		return store.Action{}, fmt.Errorf("%w: %s to %s", ErrNotAllowed, r.Status, target)
	}
	if p.table.RequiresConfirm(target) {
		prompt := fmt.Sprintf("Mark repair request %s as %s? It cannot be changed afterwards.", r.ID, target)
		if !p.confirm.Confirm(prompt) {
			return store.Action{}, ErrNotConfirmed
		}
	}
	return p.d.Dispatch(slices.RepairStatus(p.slice, r, target)), nil
}

// OrderPage changes order statuses. The order table only filters the
// dropdown; the backend enforces the rules.
type OrderPage struct {
	d     store.Dispatcher
	slice *slices.Slice[models.Order]
	table *transitions.Table
}

// NewOrderPage creates the page.
func NewOrderPage(d store.Dispatcher, s *slices.Slice[models.Order]) *OrderPage {
	return &OrderPage{d: d, slice: s, table: transitions.Orders}
}

// Options returns the dropdown entries for o.
func (p *OrderPage) Options(o models.Order) []string {
	return p.table.NextStatuses(o.Status())
}

// ChangeStatus dispatches the STATUS request moving o to target.
func (p *OrderPage) ChangeStatus(o models.Order, target string) (store.Action, error) {
	if target == o.Status() {
		return store.Action{}, ErrNoChange
	}
	return p.d.Dispatch(slices.OrderStatus(p.slice, o, target)), nil
}
