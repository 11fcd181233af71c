package kernel

// TaskState is the per-task position in the scheduler's state machine
// (see the FSM in the kernel core's scheduler design): RESUME, RUNNING,
// TO_BE_SUSPENDED, SUSPENDED, plus the SLEEP_RESUME variant used when a
// tick wakes a sleeper rather than a condition producer.
type TaskState uint32

const (
	TaskResume TaskState = iota
	TaskRunning
	TaskToBeSuspended
	TaskSuspended
	TaskSleepResume
	TaskFinished
)

func (s TaskState) String() string {
	switch s {
	case TaskResume:
		return "RESUME"
	case TaskRunning:
		return "RUNNING"
	case TaskToBeSuspended:
		return "TO_BE_SUSPENDED"
	case TaskSuspended:
		return "SUSPENDED"
	case TaskSleepResume:
		return "SLEEP_RESUME"
	case TaskFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// YieldReason distinguishes why scheduler_task_yield is requeuing a task.
type YieldReason uint8

const (
	// YieldSystem is a preemption or voluntary yield: state -> RESUME.
	YieldSystem YieldReason = iota
	// YieldSleep is a tick-driven wake: clears wake tick, state -> SLEEP_RESUME.
	YieldSleep
)

// taskFlags bits.
const (
	// flagSchedDrift marks that a preemption was owed to this task while
	// it held the scheduler lock; scheduler_unlock must yield once the
	// lock count returns to zero.
	flagSchedDrift uint8 = 1 << iota
)

// Task is the TCB: one schedulable thread of control. Every field below
// is touched only while the kernel's critical section is held (the
// hosted port's mutex standing in for disabling interrupts), except
// Entry/Arg/Name/StackSize, which are fixed at creation and read-only
// thereafter.
type Task struct {
	Name      string
	Priority  uint8
	Entry     func(arg any)
	Arg       any
	StackSize int // logical budget only; the hosted port has no raw stack to size

	state    TaskState
	flags    uint8
	lockCount int
	wakeTick  uint32

	// readySince is the tick at which this task last entered the ready
	// queue; NextTask uses it to accumulate ReadyResidency when stats
	// are enabled. Meaningless while the task isn't ready.
	readySince uint32

	schedNext *Task // shared link: ready queue XOR sleep queue membership

	// waitSuspends holds the Suspend entries this task is currently
	// parked on via SuspendCondition, so a sleep-queue timeout can find
	// and unlink them from their conditions too. nil outside a
	// suspend_condition call.
	waitSuspends []*Suspend

	stats TaskStats
}

func (t *Task) next() *Task     { return t.schedNext }
func (t *Task) setNext(n *Task) { t.schedNext = n }

// State returns the task's current scheduler state.
func (t *Task) State() TaskState { return t.state }

// Drifted reports whether this task owes a deferred preemption.
func (t *Task) Drifted() bool { return t.flags&flagSchedDrift != 0 }

// TaskStats holds the optional TASK_STATS counters (see SPEC_FULL.md's
// ambient/supplemented TASK_STATS section); zero-cost when WithStats is
// not enabled since nothing increments them.
type TaskStats struct {
	SwitchCount    uint64
	ReadyResidency uint64 // ticks spent ready-but-not-running, best-effort
}

// Stats returns a copy of this task's accumulated statistics.
func (t *Task) Stats() TaskStats { return t.stats }

// NewTask builds a TCB. entry receives arg when the task is first
// dispatched by the port. The task is not schedulable until AddTask.
func NewTask(name string, priority uint8, entry func(arg any), arg any, stackSize int) *Task {
	return &Task{
		Name:      name,
		Priority:  priority,
		Entry:     entry,
		Arg:       arg,
		StackSize: stackSize,
		state:     TaskResume,
	}
}
