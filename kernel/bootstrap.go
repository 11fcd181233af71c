package kernel

// KernelRun is the non-returning kernel entry point: adds the
// permanent idle task, hands control to the port's first dispatch, and
// never returns in the embedded target (the hosted port's RunFirstTask
// blocks the calling goroutine for the lifetime of the run instead).
func (k *Kernel) KernelRun() {
	assertf(k.port != nil, "kernel_run: no port wired, call SetPort first")
	assertf(k.nTasks > 0, "kernel_run: no tasks added")

	idle := NewTask("idle", k.opts.maxPriority+1, func(arg any) {}, nil, k.opts.idleStackSize)
	idle.Entry = idleTaskBody(k)
	k.addIdleTask(idle)

	k.mu.Lock()
	k.started = true
	k.mu.Unlock()

	k.log.Info("kernel starting", map[string]any{"tasks": k.nTasks})

	k.port.RunFirstTask()
}
