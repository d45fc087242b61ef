package transitions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderNextStatuses(t *testing.T) {
	assert.ElementsMatch(t, []string{OrderPending, OrderConfirmed, OrderCancelled}, Orders.NextStatuses(OrderPending))
	assert.Equal(t, []string{OrderShipped}, Orders.NextStatuses(OrderShipped)[:1])
	assert.Equal(t, []string{OrderCancelled}, Orders.NextStatuses(OrderCancelled))
	assert.True(t, Orders.Terminal(OrderReturned))
	assert.False(t, Orders.Allowed(OrderPending, OrderShipped))
	assert.True(t, Orders.Allowed(OrderPending, OrderPending))
}

func TestRepairCompletedIsLocked(t *testing.T) {
	assert.Empty(t, Repairs.Transitions(RepairCompleted))
	assert.True(t, Repairs.Locked(RepairCompleted))
	assert.True(t, Repairs.RequiresConfirm(RepairCompleted))
	assert.False(t, Repairs.RequiresConfirm(RepairInProgress))
	assert.Equal(t, []string{RepairInProgress, RepairCanceled}, Repairs.Transitions(RepairWaiting))
}

func TestUnknownStatusHasNoTransitions(t *testing.T) {
	assert.Empty(t, Orders.Transitions("lost"))
	assert.Equal(t, []string{"lost"}, Orders.NextStatuses("lost"))
}

func TestReplaceFromServer(t *testing.T) {
	tbl := New("test", map[string][]string{"a": {"b"}}).Lock("c")

	assert.False(t, tbl.Replace(nil))
	assert.Equal(t, []string{"b"}, tbl.Transitions("a"))

	assert.True(t, tbl.Replace(map[string][]string{"a": {"b", "c"}, "c": {"a"}}))
	assert.Equal(t, []string{"b", "c"}, tbl.Transitions("a"))
	assert.Empty(t, tbl.Transitions("c"), "lock survives replacement")
	assert.Equal(t, []string{"a", "c"}, tbl.Statuses())
}

func TestTransitionsReturnsCopy(t *testing.T) {
	got := Orders.Transitions(OrderPending)
	got[0] = "tampered"
	assert.Equal(t, OrderConfirmed, Orders.Transitions(OrderPending)[0])
}
