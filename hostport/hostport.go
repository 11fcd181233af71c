// Package hostport is a Port implementation for running rtcore on an
// ordinary Go runtime instead of a microcontroller: one goroutine per
// task, cooperative baton-passing over per-task channels in place of a
// real context switch, and a time.Ticker in place of a hardware timer.
//
// Only one task goroutine ever runs at a time — ControlToSystem hands
// the baton to whichever task the scheduler selects next and then
// blocks the caller until it is handed back. This gives exact
// scheduling-order semantics (useful for tests) at the cost of true
// preemption: a running task that never calls back into the kernel
// (TaskYield, SleepTicks, Obtain, Read/Write) cannot be interrupted
// from another goroutine. A tick that wakes a higher-priority task
// therefore only takes effect the next time the current task yields.
package hostport

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wrtos/rtcore/kernel"
)

// Port wires a *kernel.Kernel to goroutines.
type Port struct {
	k *kernel.Kernel

	mu       sync.Mutex
	resumeCh map[*kernel.Task]chan struct{}
	intDepth int32

	ticker   *time.Ticker
	tickStop chan struct{}
	tickDone chan struct{}

	started  chan struct{}
	shutdown chan struct{}
	epoch    time.Time
}

// New builds a Port bound to k. Call k.SetPort(p) before KernelRun.
func New(k *kernel.Kernel) *Port {
	return &Port{
		k:        k,
		resumeCh: make(map[*kernel.Task]chan struct{}),
		started:  make(chan struct{}),
		shutdown: make(chan struct{}),
		epoch:    time.Now(),
	}
}

func (p *Port) channelFor(t *kernel.Task) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.resumeCh[t]
	if !ok {
		ch = make(chan struct{}, 1)
		p.resumeCh[t] = ch
	}
	return ch
}

// DisableInterrupts counts IRQ-mask nesting depth and returns the new
// depth as the level; nothing reads the count back. It does not take
// any lock of its own since the kernel's internal mutex already
// serialises every data structure DisableInterrupts would otherwise
// protect.
func (p *Port) DisableInterrupts() kernel.IntLevel {
	return kernel.IntLevel(atomic.AddInt32(&p.intDepth, 1))
}

// RestoreInterrupts unwinds one level of nesting.
func (p *Port) RestoreInterrupts(kernel.IntLevel) {
	atomic.AddInt32(&p.intDepth, -1)
}

// StackInit spawns the task's goroutine, parked until the scheduler
// first selects it.
func (p *Port) StackInit(t *kernel.Task) {
	ch := p.channelFor(t)
	go func() {
		<-ch
		t.Entry(t.Arg)
		p.k.Finish(t)
		p.dispatch()
	}()
}

// dispatch picks the next task via the scheduler and wakes its
// goroutine; it never blocks.
func (p *Port) dispatch() {
	next := p.k.NextTask()
	p.k.SetCurrentTask(next)
	ch := p.channelFor(next)
	select {
	case ch <- struct{}{}:
	default:
		// Already signalled (RunFirstTask racing a StackInit goroutine
		// that hasn't reached its receive yet); the buffered slot
		// already carries the wakeup.
	}
}

// ControlToSystem hands the baton to the next scheduled task and
// blocks the caller until it is handed back.
func (p *Port) ControlToSystem() {
	cur := p.k.CurrentTask()
	p.dispatch()
	<-p.channelFor(cur)
}

// RunFirstTask dispatches the first task and then blocks the calling
// goroutine until Shutdown is called, standing in for "never returns".
func (p *Port) RunFirstTask() {
	p.dispatch()
	close(p.started)
	p.k.Logger().Info("hostport running", nil)
	<-p.shutdown
}

// Shutdown releases the goroutine blocked in RunFirstTask and stops
// the tick source, if one was started. Intended for tests and for the
// hosted demo's clean exit; a real target never calls anything
// equivalent.
func (p *Port) Shutdown() {
	p.StopTicking()
	p.k.Logger().Info("hostport shutting down", nil)
	select {
	case <-p.shutdown:
	default:
		close(p.shutdown)
	}
}

// Started blocks until RunFirstTask has dispatched the first task.
func (p *Port) Started() <-chan struct{} {
	return p.started
}

// CurrentHardwareTick is a free-running nanosecond counter independent
// of the scheduling tick, for microsecond polling waits.
func (p *Port) CurrentHardwareTick() uint64 {
	return uint64(time.Since(p.epoch))
}

// StartTicking spawns a goroutine that calls k.ProcessTick() once per
// interval, standing in for a hardware timer interrupt.
func (p *Port) StartTicking(interval time.Duration) {
	p.ticker = time.NewTicker(interval)
	p.tickStop = make(chan struct{})
	p.tickDone = make(chan struct{})
	go func() {
		defer close(p.tickDone)
		for {
			select {
			case <-p.ticker.C:
				p.k.ProcessTick()
			case <-p.tickStop:
				return
			}
		}
	}()
}

// StopTicking stops a previously started tick source; a no-op if none
// is running.
func (p *Port) StopTicking() {
	if p.ticker == nil {
		return
	}
	p.ticker.Stop()
	close(p.tickStop)
	<-p.tickDone
	p.ticker = nil
}
