package kernel

import "sync/atomic"

// Tick is the monotonic 32-bit scheduling counter, advanced from a
// hardware timer interrupt (or, on the hosted port, a goroutine driven
// by a time.Ticker). It wraps silently at 2^32 ticks; every comparison
// against it must use tickCmp/tickDue rather than raw arithmetic.
type Tick struct {
	v atomic.Uint32
}

// Current returns the tick counter. Safe to call from any goroutine,
// including the tick source itself.
func (t *Tick) Current() uint32 {
	return t.v.Load()
}

// advance increments the counter by one and returns the new value. Only
// the kernel's own tick-processing path calls this.
func (t *Tick) advance() uint32 {
	return t.v.Add(1)
}

// tickCmp implements the source's INT32CMP(a,b) = (int32)(a-b): negative
// if a is before b, zero if equal, positive if a is after b. This is
// what makes wrap-around at 2^32 transparent to ordering comparisons.
func tickCmp(a, b uint32) int32 {
	return int32(a - b)
}

// tickDue reports whether a wake-tick `at` is due at the current tick
// `now`, i.e. now has reached or passed at.
func tickDue(now, at uint32) bool {
	return tickCmp(now, at) >= 0
}

// ProcessTick is process_tick(): called exactly once per hardware timer
// interrupt. It advances the counter and drains due sleepers into the
// ready queue, returning true iff at least one task was woken by this
// tick (the port uses this to decide whether a preemption check is
// worthwhile at ISR return).
func (k *Kernel) ProcessTick() bool {
	lvl := k.port.DisableInterrupts()
	defer k.port.RestoreInterrupts(lvl)

	k.tick.advance()
	return k.drainDueSleepers()
}

// CurrentTick is current_system_tick().
func (k *Kernel) CurrentTick() uint32 {
	return k.tick.Current()
}
