package kernel

// kernelOptions holds the compile-time-equivalent configuration knobs
// named in SPEC_FULL.md's Configuration section. Go has no preprocessor,
// so the knobs that are genuinely constant for the life of a kernel
// instance are resolved once, here, at construction — the functional
// options idiom the teacher uses for its own Loop construction.
type kernelOptions struct {
	maxPriority        uint8
	maxLock            int
	idleWorkMax        int
	idleRuntimeUpdate  bool
	idleStackSize      int
	statsEnabled       bool
	logger             *Logger
}

// Option configures a Kernel at construction time.
type Option interface {
	apply(*kernelOptions)
}

type optionFunc func(*kernelOptions)

func (f optionFunc) apply(o *kernelOptions) { f(o) }

// WithMaxPriority sets SCHEDULER_MAX_PRI: the lowest-urgency priority a
// user task may request. The idle task always runs at maxPriority+1.
func WithMaxPriority(p uint8) Option {
	return optionFunc(func(o *kernelOptions) { o.maxPriority = p })
}

// WithMaxLock sets SCHEDULER_MAX_LOCK: the scheduler-lock nesting depth
// beyond which scheduler_lock is a fatal assertion instead of a counter
// increment.
func WithMaxLock(n int) Option {
	return optionFunc(func(o *kernelOptions) { o.maxLock = n })
}

// WithIdleWorkCapacity sets IDLE_WORK_MAX: the fixed number of (fn,
// data) deferred-work slots the idle task can hold.
func WithIdleWorkCapacity(n int) Option {
	return optionFunc(func(o *kernelOptions) { o.idleWorkMax = n })
}

// WithIdleRuntimeUpdate selects IDLE_RUNTIME_UPDATE mode: idle work may
// be registered/removed after KernelRun, guarded by an interlocked bit
// instead of the scheduler lock. Without this option, registration
// after boot fails with StatusIdleCannotUpdate.
func WithIdleRuntimeUpdate(enabled bool) Option {
	return optionFunc(func(o *kernelOptions) { o.idleRuntimeUpdate = enabled })
}

// WithIdleStackSize sets the idle task's logical stack budget (see
// Task.StackSize).
func WithIdleStackSize(n int) Option {
	return optionFunc(func(o *kernelOptions) { o.idleStackSize = n })
}

// WithStats enables the supplemented TASK_STATS counters.
func WithStats(enabled bool) Option {
	return optionFunc(func(o *kernelOptions) { o.statsEnabled = enabled })
}

// WithLogger attaches a diagnostic logger. A nil Kernel.log is valid
// and logs nothing — see kernel/logging.go.
func WithLogger(l *Logger) Option {
	return optionFunc(func(o *kernelOptions) { o.logger = l })
}

func resolveOptions(opts []Option) *kernelOptions {
	cfg := &kernelOptions{
		maxPriority:   31,
		maxLock:       255,
		idleWorkMax:   8,
		idleStackSize: 256,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
