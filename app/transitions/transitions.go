// Package transitions holds the status tables the order and repair pages use
// to decide which status changes to offer.
//
// The tables are display hints. The backend enforces the real rules, so a
// Table can be replaced at runtime with the server's canonical copy.
package transitions

import (
	"slices"
	"sync"
)

// Order statuses.
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
	OrderReturned   = "returned"
)

// Repair statuses.
const (
	RepairWaiting    = "waiting"
	RepairInProgress = "in-progress"
	RepairCompleted  = "completed"
	RepairCanceled   = "canceled"
)

// Table maps a status to the statuses it may move to.
type Table struct {
	mu      sync.RWMutex
	name    string
	next    map[string][]string
	locked  map[string]bool
	confirm map[string]bool
}

// Orders is the order status table.
var Orders = New("order", map[string][]string{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing},
	OrderProcessing: {OrderShipped},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {OrderReturned},
	OrderCancelled:  {},
	OrderReturned:   {},
})

// Repairs is the repair request status table. Completed requests are
// locked, and moving to completed needs confirmation.
var Repairs = New("repair", map[string][]string{
	RepairWaiting:    {RepairInProgress, RepairCanceled},
	RepairInProgress: {RepairCompleted},
	RepairCompleted:  {},
	RepairCanceled:   {},
}).Lock(RepairCompleted).Confirm(RepairCompleted)

// New builds a table from an adjacency map.
func New(name string, next map[string][]string) *Table {
	return &Table{name: name, next: clone(next), locked: map[string]bool{}, confirm: map[string]bool{}}
}

// Lock marks statuses from which no change is offered at all.
func (t *Table) Lock(statuses ...string) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range statuses {
		t.locked[s] = true
	}
	return t
}

// Confirm marks target statuses that need an explicit confirmation.
func (t *Table) Confirm(statuses ...string) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range statuses {
		t.confirm[s] = true
	}
	return t
}

// Name identifies the table in logs.
func (t *Table) Name() string { return t.name }

// Transitions returns the statuses current may move to. Locked and unknown
// statuses have none.
func (t *Table) Transitions(current string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.locked[current] {
		return []string{}
	}
	return slices.Clone(t.next[current])
}

// NextStatuses returns the dropdown options for current: current itself
// followed by its transitions.
func (t *Table) NextStatuses(current string) []string {
	return append([]string{current}, t.Transitions(current)...)
}

// Allowed reports whether current may move to target. Staying put is
// always allowed.
func (t *Table) Allowed(current, target string) bool {
	return current == target || slices.Contains(t.Transitions(current), target)
}

// Locked reports whether status accepts no changes.
func (t *Table) Locked(status string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.locked[status]
}

// Terminal reports whether status has no outgoing transitions.
func (t *Table) Terminal(status string) bool {
	return len(t.Transitions(status)) == 0
}

// RequiresConfirm reports whether moving to target needs confirmation.
func (t *Table) RequiresConfirm(target string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.confirm[target]
}

// Statuses lists every known status.
func (t *Table) Statuses() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.next))
	for s := range t.next {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Replace swaps in a canonical table fetched from the server. An empty
// table leaves the current one in place. Lock and confirm marks survive.
func (t *Table) Replace(next map[string][]string) bool {
	if len(next) == 0 {
		return false
	}
	t.mu.Lock()
	t.next = clone(next)
	t.mu.Unlock()
	return true
}

func clone(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
		if out[k] == nil {
			out[k] = []string{}
		}
	}
	return out
}
