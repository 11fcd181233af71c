package kernel

func sleepLess(existing, n *Task) bool {
	if n.wakeTick != existing.wakeTick {
		return tickCmp(n.wakeTick, existing.wakeTick) < 0
	}
	return n.Priority < existing.Priority
}

// sleepAddLocked is sleep_add_to_list: sets the wake tick and inserts
// into the sleep queue, sorted ascending by wake tick with priority as
// tie-break. Caller must hold k.mu.
func (k *Kernel) sleepAddLocked(t *Task, ticks uint32) {
	t.wakeTick = k.tick.Current() + ticks
	k.sleep.InsertSorted(t, sleepLess)
}

// sleepRemoveLocked is sleep_remove_from_list: unlinks t and clears its
// wake tick. Safe to call even if t is not currently linked.
func (k *Kernel) sleepRemoveLocked(t *Task) {
	k.sleep.Remove(t)
	t.wakeTick = 0
}

// drainDueSleepersLocked walks the sleep queue from the head, moving
// every due, still-SUSPENDED task back to the ready queue with reason
// SLEEP. Iteration stops at the first not-yet-due entry since the list
// is sorted. Caller must hold k.mu.
func (k *Kernel) drainDueSleepersLocked() bool {
	now := k.tick.Current()
	woke := false
	for {
		head := k.sleep.Head()
		if head == nil || !tickDue(now, head.wakeTick) {
			break
		}
		k.sleep.PopHead()
		if head.state != TaskSuspended {
			// Already resumed by a condition producer racing the
			// deadline; the sleep-queue entry was stale bookkeeping.
			continue
		}
		if head.waitSuspends != nil {
			// This sleeper is really a timed suspend_condition: unlink
			// it from every condition it was still waiting on and mark
			// the timeout status before requeuing.
			for _, s := range head.waitSuspends {
				if s.cond != nil {
					s.cond.waiters.Remove(s)
				}
				s.Status = StatusConditionTimeout
			}
			head.waitSuspends = nil
		}
		head.wakeTick = 0
		head.state = TaskSleepResume
		head.readySince = now
		k.ready.InsertSorted(head, taskLess)
		if k.checkPreemptLocked() {
			// noteDriftLocked already applied if the current task
			// holds the scheduler lock; nothing further to do here —
			// the actual switch happens at the next ControlToSystem.
		}
		woke = true
	}
	return woke
}

// drainDueSleepers acquires the kernel lock and drains the sleep queue.
// Used by ProcessTick, outside of any call already holding k.mu.
func (k *Kernel) drainDueSleepers() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.drainDueSleepersLocked()
}

// SleepTicks is sleep_ticks(n): suspends the current task until at
// least n ticks have elapsed.
func (k *Kernel) SleepTicks(n uint32) {
	k.Lock()
	cur := k.CurrentTask()

	k.mu.Lock()
	k.sleepAddLocked(cur, n)
	// Hosted collapse of TO_BE_SUSPENDED -> SUSPENDED: nothing can
	// observe this task between releasing k.mu and calling
	// ControlToSystem, so the transient state has no externally
	// visible window worth modelling separately.
	cur.state = TaskSuspended
	k.mu.Unlock()

	k.port.ControlToSystem()
	k.Unlock()
}

// SleepMS is sleep_ms(ms) = sleep_ticks(ms_to_ticks(ms)), converting
// with the caller-supplied tick rate (ticksPerSecond).
func (k *Kernel) SleepMS(ms uint32, ticksPerSecond uint32) {
	ticks := (ms * ticksPerSecond) / 1000
	if ticks == 0 {
		ticks = 1
	}
	k.SleepTicks(ticks)
}
