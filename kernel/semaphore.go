package kernel

import "math"

// TimeoutInfinite is MAX_WAIT: pass it to Obtain, GetLock, Read, or
// Write to wait with no deadline. A wait of 0 means "don't wait at
// all" (try once, fail immediately), matching the original's
// "wait > 0" branch in semaphore_obtain.
const TimeoutInfinite uint32 = math.MaxUint32

// Semaphore is a counting semaphore built directly on Condition:
// Obtain suspends until count > 0, Release wakes up to count waiters,
// highest priority first. Owner tracking and the interrupt-protected mode are only
// meaningful when maxCount == 1 (a binary/mutex-style semaphore),
// mirroring the original kernel's semaphore_obtain/semaphore_release.
type Semaphore struct {
	Condition

	count, maxCount uint32
	owner           *Task

	interruptProtected bool
	interruptLock      func()
	interruptUnlock    func()
	interruptData      any
}

// NewSemaphore is semaphore_create(count, max_count).
func NewSemaphore(count, maxCount uint32) *Semaphore {
	assertf(maxCount > 0, "semaphore_create: max_count must be > 0")
	assertf(count <= maxCount, "semaphore_create: count exceeds max_count")
	s := &Semaphore{count: count, maxCount: maxCount}
	s.Condition.Data = s
	s.Condition.DoSuspend = func(data, _ any) bool {
		return data.(*Semaphore).count == 0
	}
	return s
}

// SetInterruptData is semaphore_set_interrupt_data: wires an
// ISR-protection pair used to guard the count/owner fields when the
// semaphore is also touched from interrupt context outside of the
// scheduler lock. Only valid for binary semaphores.
func (s *Semaphore) SetInterruptData(data any, lock, unlock func()) {
	assertf(s.maxCount == 1, "semaphore_set_interrupt_data: only valid for binary semaphores")
	s.interruptData = data
	s.interruptLock = lock
	s.interruptUnlock = unlock
	s.interruptProtected = true
}

func (s *Semaphore) lockInterrupt() {
	if s.interruptProtected {
		s.interruptLock()
	}
}

func (s *Semaphore) unlockInterrupt() {
	if s.interruptProtected {
		s.interruptUnlock()
	}
}

// Owner reports the task currently holding this semaphore, if any.
// Supplemented introspection beyond the original C API, used for
// priority-inheritance diagnostics.
func (s *Semaphore) Owner() (*Task, bool) {
	if s.owner == nil {
		return nil, false
	}
	return s.owner, true
}

// Obtain is semaphore_obtain(semaphore, wait): blocks up to wait ticks
// (TimeoutInfinite for no limit) until a unit is available, then takes
// it and records ownership. A wait of 0 never suspends: it returns
// StatusSemaphoreBusy immediately if the semaphore isn't free.
func (k *Kernel) Obtain(s *Semaphore, wait uint32) Status {
	k.Lock()
	defer k.Unlock()

	cur := k.CurrentTask()

	if s.count == 0 {
		if wait == 0 {
			return StatusSemaphoreBusy
		}

		suspend := &Suspend{Param: s, Priority: cur.Priority}
		if wait != TimeoutInfinite {
			suspend.TimeoutEnabled = true
			suspend.Deadline = k.CurrentTick() + wait
		}

		_, status := k.SuspendCondition([]*Condition{&s.Condition}, []*Suspend{suspend}, true)
		if status != StatusSuccess {
			return status
		}
	}

	s.lockInterrupt()
	s.owner = cur
	s.count--
	s.unlockInterrupt()

	return StatusSuccess
}

// TryObtain is semaphore_obtain with wait == 0: never blocks.
func (k *Kernel) TryObtain(s *Semaphore) Status {
	return k.Obtain(s, 0)
}

// semaphoreDoResume is semaphore_do_resume: wakes waiters one at a
// time while count remains available, decrementing a private counter
// captured in Resume.Param (initialised by Release to the count after
// its increment) so a Release call wakes at most that many waiters,
// while Destroy's "wake everyone" path supplies no predicate at all.
func semaphoreDoResume(paramResume, _ any) bool {
	n := paramResume.(*int)
	if *n <= 0 {
		return false
	}
	*n--
	return true
}

// Release is semaphore_release(semaphore): returns a unit and wakes
// up to count waiters (count taken after the increment), highest
// priority first.
func (k *Kernel) Release(s *Semaphore) {
	k.Lock()
	defer k.Unlock()

	assertf(s.count < s.maxCount, "semaphore_release: release exceeds max_count")

	s.lockInterrupt()
	s.owner = nil
	s.count++
	budget := int(s.count)
	s.unlockInterrupt()

	// Each waiter semaphoreDoResume wakes goes on to decrement s.count
	// itself once Obtain's SuspendCondition call returns (see below),
	// same as the increment here is the only place that bumps it.
	k.ResumeCondition(&s.Condition, &Resume{
		Status:   StatusSuccess,
		DoResume: semaphoreDoResume,
		Param:    &budget,
	}, true)
}

// Destroy is semaphore_destroy: wakes every waiter with
// StatusSemaphoreDeleted, then zeroes the semaphore's memory. Unlike
// Obtain/Release, which run under the per-task scheduler lock, destroy
// runs with global interrupts disabled — it has no current-task
// requirement and may legitimately be called from outside any task
// context (e.g. by the code that owns the semaphore during teardown).
func (k *Kernel) DestroySemaphore(s *Semaphore) {
	lvl := k.port.DisableInterrupts()
	defer k.port.RestoreInterrupts(lvl)

	// lockedByCaller=true: DisableInterrupts above is the protection for
	// this call, not the per-task scheduler lock ResumeCondition would
	// otherwise take (and which requires a current task that destroy,
	// called from outside task context, does not have).
	k.ResumeCondition(&s.Condition, &Resume{Status: StatusSemaphoreDeleted}, true)

	k.log.Info("semaphore destroyed", map[string]any{"max_count": s.maxCount})

	s.count = 0
	s.maxCount = 0
	s.owner = nil
	s.interruptProtected = false
	s.interruptLock = nil
	s.interruptUnlock = nil
	s.interruptData = nil
}
