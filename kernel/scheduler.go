package kernel

import "sync"

// Kernel is the kernel core: the scheduler, sleep queue, tick source,
// and idle registry, wired to a target through a Port. Every exported
// method here is safe to call from any goroutine; the internal mutex
// stands in for the interrupt mask the embedded core uses to protect
// the same data structures.
type Kernel struct {
	opts *kernelOptions
	port Port
	log  *Logger

	mu      sync.Mutex
	tick    Tick
	ready   List[Task, *Task]
	sleep   List[Task, *Task]
	current *Task
	idle    *Task
	started bool
	nTasks  int

	idleReg idleRegistry
}

// New constructs a Kernel. The Port is wired in afterwards with
// SetPort, mirroring the two-phase construction the hosted port needs
// (it must hold a reference back to the Kernel to call NextTask).
func New(opts ...Option) *Kernel {
	cfg := resolveOptions(opts)
	k := &Kernel{opts: cfg, log: cfg.logger}
	k.idleReg.init(cfg.idleWorkMax, cfg.idleRuntimeUpdate)
	return k
}

// SetPort wires the target port. Must be called before KernelRun.
func (k *Kernel) SetPort(p Port) {
	k.port = p
}

// Logger returns the kernel's diagnostic logger (possibly nil).
func (k *Kernel) Logger() *Logger { return k.log }

// MaxPriority returns the configured SCHEDULER_MAX_PRI.
func (k *Kernel) MaxPriority() uint8 { return k.opts.maxPriority }

func taskLess(existing, n *Task) bool {
	return n.Priority < existing.Priority
}

// AddTask is scheduler_task_add(task, priority): installs a task into
// the ready queue. May be called before or after KernelRun.
func (k *Kernel) AddTask(t *Task, priority uint8) {
	assertf(priority <= k.opts.maxPriority, "priority %d exceeds max %d", priority, k.opts.maxPriority)

	lvl := k.port.DisableInterrupts()
	defer k.port.RestoreInterrupts(lvl)

	k.mu.Lock()
	t.Priority = priority
	t.state = TaskResume
	t.readySince = k.tick.Current()
	k.ready.InsertSorted(t, taskLess)
	k.nTasks++
	k.mu.Unlock()

	k.log.Info("task added", map[string]any{"task": t.Name, "priority": priority})

	k.port.StackInit(t)
}

// addIdleTask installs the permanent idle task at maxPriority+1,
// bypassing the user-priority assertion in AddTask.
func (k *Kernel) addIdleTask(t *Task) {
	t.Priority = k.opts.maxPriority + 1
	t.state = TaskResume
	k.mu.Lock()
	t.readySince = k.tick.Current()
	k.ready.InsertSorted(t, taskLess)
	k.idle = t
	k.mu.Unlock()
	k.port.StackInit(t)
}

// RemoveTask is scheduler_task_remove: unlinks a finished task from
// whichever list it terminated in. It is only valid once the task has
// reached TaskFinished.
func (k *Kernel) RemoveTask(t *Task) {
	k.mu.Lock()
	defer k.mu.Unlock()
	assertf(t.state == TaskFinished, "scheduler_task_remove: task %q not finished", t.Name)
	k.ready.Remove(t)
	k.sleep.Remove(t)
	k.log.Info("task removed", map[string]any{"task": t.Name})
}

// Finish is task_exit(): marks the current task terminated and removes
// it from every scheduling queue. The caller never resumes after this
// call on a real port (the stack is gone); on the hosted port, the
// calling goroutine is expected to return immediately afterwards.
func (k *Kernel) Finish(t *Task) {
	k.mu.Lock()
	t.state = TaskFinished
	k.mu.Unlock()
	k.RemoveTask(t)
}

// NextTask is scheduler_get_next_task: drain due sleepers, then pop the
// head of the ready queue. Never returns nil once the idle task exists.
func (k *Kernel) NextTask() *Task {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.drainDueSleepersLocked()
	t := k.ready.PopHead()
	assertf(t != nil, "scheduler_get_next_task: ready queue empty (idle task missing)")
	t.state = TaskRunning
	if k.opts.statsEnabled {
		t.stats.SwitchCount++
		t.stats.ReadyResidency += uint64(k.tick.Current() - t.readySince)
	}
	return t
}

// CurrentTask returns whichever task the scheduler last dispatched.
func (k *Kernel) CurrentTask() *Task {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current
}

// SetCurrentTask records the task the port is about to transfer control to.
func (k *Kernel) SetCurrentTask(t *Task) {
	k.mu.Lock()
	k.current = t
	k.mu.Unlock()
}

// Yield is scheduler_task_yield(task, reason): requeues a task after a
// preemption, a voluntary yield, or a tick wake.
func (k *Kernel) Yield(t *Task, reason YieldReason) {
	k.mu.Lock()
	switch reason {
	case YieldSystem:
		t.state = TaskResume
	case YieldSleep:
		t.wakeTick = 0
		t.state = TaskSleepResume
	}
	t.readySince = k.tick.Current()
	k.ready.InsertSorted(t, taskLess)
	k.mu.Unlock()
}

// TaskYield is task_yield(): the current task voluntarily gives up the
// CPU. It must be called from task context.
func (k *Kernel) TaskYield() {
	cur := k.CurrentTask()
	assertf(cur != nil, "task_yield: no current task")
	k.Yield(cur, YieldSystem)
	k.port.ControlToSystem()
}

// Lock is scheduler_lock(): increments the current task's nesting
// counter. Preemption is deferred while any count is non-zero.
func (k *Kernel) Lock() {
	cur := k.CurrentTask()
	assertf(cur != nil, "scheduler_lock: no current task")
	k.mu.Lock()
	cur.lockCount++
	assertf(cur.lockCount <= k.opts.maxLock, "scheduler_lock: nesting exceeds SCHEDULER_MAX_LOCK")
	k.mu.Unlock()
}

// Unlock is scheduler_unlock(): decrements the nesting counter; if it
// reaches zero and SCHED_DRIFT was set, yields before returning.
func (k *Kernel) Unlock() {
	cur := k.CurrentTask()
	assertf(cur != nil, "scheduler_unlock: no current task")

	k.mu.Lock()
	assertf(cur.lockCount > 0, "scheduler_unlock: not locked")
	cur.lockCount--
	mustYield := cur.lockCount == 0 && cur.flags&flagSchedDrift != 0
	if mustYield {
		cur.flags &^= flagSchedDrift
	}
	k.mu.Unlock()

	if mustYield {
		k.TaskYield()
	}
}

// noteDriftLocked marks that a preemption was owed to t while it held
// the scheduler lock (lockCount > 0). Called with k.mu held, from
// checkPreemptLocked on the sleep-queue drain path, when a
// higher-priority task became ready but cannot preempt immediately.
func (k *Kernel) noteDriftLocked(t *Task) {
	if t != nil && t.lockCount > 0 {
		if t.flags&flagSchedDrift == 0 {
			k.log.Warn("scheduler drift", map[string]any{"task": t.Name, "lock_count": t.lockCount})
		}
		t.flags |= flagSchedDrift
	}
}

// checkPreemptLocked is the ISR-return preemption check of §4.5(a): if
// the ready queue's head outranks the current task and the current task
// isn't holding the scheduler lock, the caller should request a switch.
// It returns whether a switch is warranted; it never performs the
// switch itself (only task-context code may call ControlToSystem).
func (k *Kernel) checkPreemptLocked() bool {
	if k.current == nil || k.ready.Len() == 0 {
		return false
	}
	head := k.ready.Head()
	if head.Priority >= k.current.Priority {
		return false
	}
	if k.current.lockCount > 0 {
		k.noteDriftLocked(k.current)
		return false
	}
	return true
}
