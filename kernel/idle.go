package kernel

import (
	"reflect"
	"sync/atomic"
)

// idleWork is one (fn, data) hook slot.
type idleWork struct {
	fn   func(data any)
	data any
}

// idleRegistry is the fixed-capacity deferred-work table the idle task
// walks on every iteration. Registration is guarded one of two ways,
// chosen at construction time (mirroring IDLE_RUNTIME_UPDATE being a
// compile-time #define rather than a runtime flag):
//
//   - scheduler-lock guarded: AddWork/RemoveWork check the kernel's
//     started flag under k.mu and are rejected with
//     StatusIdleCannotUpdate once the
//     kernel has started (mutating the table in place would race the
//     idle task's own unsynchronised scan).
//   - runtime-update guarded: a tiny interlocked "busy" bit lets
//     AddWork/RemoveWork mutate the table at any time, at the cost of
//     the idle task's scan needing the same bit.
type idleRegistry struct {
	slots         []idleWork
	runtimeUpdate bool
	busy          atomic.Bool
}

func (r *idleRegistry) init(capacity int, runtimeUpdate bool) {
	r.slots = make([]idleWork, capacity)
	r.runtimeUpdate = runtimeUpdate
}

func (r *idleRegistry) withGuard(fn func()) {
	if r.runtimeUpdate {
		for !r.busy.CompareAndSwap(false, true) {
			// Tiny spin: the idle task's own scan holds this only for
			// the duration of one table walk.
		}
		defer r.busy.Store(false)
	}
	fn()
}

func (r *idleRegistry) add(fn func(data any), data any) Status {
	status := StatusIdleNoSpace
	r.withGuard(func() {
		for i := range r.slots {
			if r.slots[i].fn == nil {
				r.slots[i] = idleWork{fn: fn, data: data}
				status = StatusSuccess
				return
			}
		}
	})
	return status
}

func (r *idleRegistry) remove(fn func(data any), data any) Status {
	status := StatusIdleNotFound
	r.withGuard(func() {
		for i := range r.slots {
			s := &r.slots[i]
			if s.fn != nil && sameIdleFunc(s.fn, fn) && s.data == data {
				*s = idleWork{}
				status = StatusSuccess
				return
			}
		}
	})
	return status
}

func (r *idleRegistry) run() {
	r.withGuard(func() {
		for _, s := range r.slots {
			if s.fn != nil {
				s.fn(s.data)
			}
		}
	})
}

// AddWork is idle_add_work(fn, data): installs a hook the idle task
// invokes every pass. If the registry is scheduler-lock guarded (the
// default) and the kernel has already started, the call is rejected:
// mutating the table in place past that point would race the idle
// task's own unsynchronised scan. A runtime-update registry has no
// such restriction and may be called from any context, including from
// inside a running task.
func (k *Kernel) AddWork(fn func(data any), data any) Status {
	if !k.idleReg.runtimeUpdate {
		k.mu.Lock()
		started := k.started
		k.mu.Unlock()
		if started {
			return StatusIdleCannotUpdate
		}
	}
	return k.idleReg.add(fn, data)
}

// RemoveWork is idle_remove_work(fn, data).
func (k *Kernel) RemoveWork(fn func(data any), data any) Status {
	if !k.idleReg.runtimeUpdate {
		k.mu.Lock()
		started := k.started
		k.mu.Unlock()
		if started {
			return StatusIdleCannotUpdate
		}
	}
	return k.idleReg.remove(fn, data)
}

// idleTaskBody is the permanent idle task's entry function: an
// infinite loop that runs every registered hook, then yields so the
// port's cooperative scheduling can service the next task.
func idleTaskBody(k *Kernel) func(arg any) {
	return func(arg any) {
		for {
			k.idleReg.run()
			k.TaskYield()
		}
	}
}

// sameIdleFunc compares two func(any) values by code pointer; Go
// forbids == on func values directly, so this compares
// reflect.ValueOf(fn).Pointer() instead — callers are expected to pass
// the exact same fn value to RemoveWork that they passed to AddWork.
func sameIdleFunc(a, b func(data any)) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
