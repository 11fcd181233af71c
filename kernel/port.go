package kernel

// IntLevel is an opaque saved interrupt mask level, returned by
// DisableInterrupts and handed back to RestoreInterrupts. Ports nest
// disable/enable by saving and restoring this value rather than by a
// boolean, exactly as §4.5 requires.
type IntLevel uint32

// Port is the narrow set of architecture-specific primitives the core
// requires from a target (§4.5, C5). The core never touches hardware
// directly; every side effect on real state outside its own data
// structures goes through this interface. A hosted Port implements it
// with goroutines and a mutex in place of interrupt masking and a real
// context switch (see the hostport package).
type Port interface {
	// DisableInterrupts masks interrupts and returns a level so nested
	// callers can restore it precisely. The hosted port only counts
	// nesting depth here; the kernel's own mutex serialises its data
	// structures.
	DisableInterrupts() IntLevel
	// RestoreInterrupts restores a previously saved level.
	RestoreInterrupts(level IntLevel)

	// StackInit prepares a newly created task so that the first
	// context restore transfers control to task.Entry(task.Arg) with
	// interrupts enabled. Ports that cannot pre-format a stack (the
	// hosted port) instead spawn the task's goroutine, parked until the
	// scheduler first selects it.
	StackInit(task *Task)

	// ControlToSystem is called from task context to request the
	// scheduler run: on return, NextTask() has been invoked and the
	// current task may have changed. It must not return until this
	// task has been selected to run again (or will never be called
	// again, for a finished task).
	ControlToSystem()

	// RunFirstTask is a one-shot bootstrap: select the first task,
	// transfer control to it, and never return (on a hosted port,
	// "never return" means block the calling goroutine until the
	// kernel is shut down).
	RunFirstTask()

	// CurrentHardwareTick is a free-running counter for microsecond
	// polling waits; it is independent of the scheduling tick.
	CurrentHardwareTick() uint64
}

// Scheduler is the callback surface a Port uses to integrate with task
// selection; it is implemented by *Kernel and names the narrow set of
// Kernel methods a port calls back into. The hostport package holds a
// concrete *Kernel rather than this interface.
type Scheduler interface {
	// NextTask is scheduler_get_next_task(): drain due sleepers, then
	// pop and return the highest-priority ready task. Never returns nil
	// once the idle task has been installed.
	NextTask() *Task
	// CurrentTask returns whichever task the scheduler last dispatched.
	CurrentTask() *Task
	// SetCurrentTask records which task is now running; called by the
	// port immediately before transferring control.
	SetCurrentTask(*Task)
}
