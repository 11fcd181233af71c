package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainDueSleepersOrdersByTickThenPriority(t *testing.T) {
	k, _ := newTestKernel(t)

	t1 := NewTask("t1", 5, func(any) {}, nil, 64)
	t2 := NewTask("t2", 4, func(any) {}, nil, 64)

	k.mu.Lock()
	t1.state = TaskSuspended
	t2.state = TaskSuspended
	k.sleepAddLocked(t1, 100)
	k.sleepAddLocked(t2, 100)
	k.mu.Unlock()

	for i := 0; i < 100; i++ {
		k.tick.advance()
	}

	woke := k.drainDueSleepers()
	require.True(t, woke)

	var order []string
	k.ready.Each(func(n *Task) { order = append(order, n.Name) })
	assert.Equal(t, []string{"t2", "t1"}, order, "lower priority value (t2) must be woken first on a tie")
}

func TestSleepTimeoutUnlinksFromCondition(t *testing.T) {
	k, _ := newTestKernel(t)
	waiter := NewTask("waiter", 5, func(any) {}, nil, 64)

	var cond Condition
	suspend := &Suspend{Priority: 5, TimeoutEnabled: true, Deadline: 50}

	k.mu.Lock()
	suspend.task, suspend.cond = waiter, &cond
	cond.waiters.InsertSorted(suspend, suspendLess)
	waiter.waitSuspends = []*Suspend{suspend}
	waiter.state = TaskSuspended
	k.sleepAddLocked(waiter, 50)
	k.mu.Unlock()

	for i := 0; i < 50; i++ {
		k.tick.advance()
	}

	woke := k.drainDueSleepers()
	require.True(t, woke)

	assert.Nil(t, cond.waiters.Head())
	assert.Equal(t, StatusConditionTimeout, suspend.Status)
	assert.Nil(t, waiter.waitSuspends)
	assert.Equal(t, TaskSleepResume, waiter.State())
}
