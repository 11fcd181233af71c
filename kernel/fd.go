package kernel

// FD readiness bits.
const (
	// FDSpaceAvailable means a write can make progress.
	FDSpaceAvailable uint32 = 1 << iota
	// FDDataAvailable means a read can make progress.
	FDDataAvailable
	// FDBlock requests blocking semantics from Read/Write; without it
	// they behave like TryRead/TryWrite.
	FDBlock
)

// FD is the uniform I/O handle: an opaque lock plus a readiness
// condition carrying two independent bits. Concrete devices supply
// ReadFunc/WriteFunc; the kernel never interprets them, only the
// readiness bits and the lock.
type FD struct {
	Condition

	flags uint32
	lock  *Semaphore

	ReadFunc  func(buf []byte) (int, Status)
	WriteFunc func(buf []byte) (int, Status)
}

// NewFD builds a readiness-tracked handle. blocking sets FDBlock,
// matching a device opened without O_NONBLOCK.
func NewFD(blocking bool) *FD {
	fd := &FD{lock: NewSemaphore(1, 1)}
	if blocking {
		fd.flags |= FDBlock
	}
	fd.Condition.Data = fd
	fd.Condition.DoSuspend = func(data, param any) bool {
		f := data.(*FD)
		bit := param.(uint32)
		return f.flags&bit == 0
	}
	return fd
}

// GetLock is fd_get_lock(fd, timeout).
func (k *Kernel) GetLock(fd *FD, timeout uint32) Status {
	return k.Obtain(fd.lock, timeout)
}

// ReleaseLock is fd_release_lock(fd).
func (k *Kernel) ReleaseLock(fd *FD) {
	k.Release(fd.lock)
}

func (k *Kernel) fdSetBit(fd *FD, bit uint32) {
	k.Lock()
	defer k.Unlock()
	fd.flags |= bit
	k.ResumeCondition(&fd.Condition, &Resume{
		Status: StatusSuccess,
		DoResume: func(_, paramSuspend any) bool {
			return fd.flags&paramSuspend.(uint32) != 0
		},
	}, true)
}

func (k *Kernel) fdClearBit(fd *FD, bit uint32) {
	k.Lock()
	fd.flags &^= bit
	k.Unlock()
}

// DataAvailable is fd_data_available(fd): marks data ready and wakes
// any blocked readers.
func (k *Kernel) DataAvailable(fd *FD) { k.fdSetBit(fd, FDDataAvailable) }

// DataFlushed is fd_data_flushed(fd): clears the data-ready bit once a
// reader has drained everything available.
func (k *Kernel) DataFlushed(fd *FD) { k.fdClearBit(fd, FDDataAvailable) }

// SpaceAvailable is fd_space_available(fd): marks room ready and wakes
// any blocked writers.
func (k *Kernel) SpaceAvailable(fd *FD) { k.fdSetBit(fd, FDSpaceAvailable) }

// SpaceConsumed is fd_space_consumed(fd): clears the space-ready bit
// once a writer has filled everything available.
func (k *Kernel) SpaceConsumed(fd *FD) { k.fdClearBit(fd, FDSpaceAvailable) }

// HandleCriteria is fd_handle_criteria(fd, param, status): used by fd
// teardown to resume every waiter (of either readiness bit) with a
// distinguished status, matching FS_NODE_DELETED semantics.
func (k *Kernel) HandleCriteria(fd *FD, status Status) {
	k.Lock()
	defer k.Unlock()
	k.ResumeCondition(&fd.Condition, &Resume{Status: status}, true)
	k.log.Warn("fd teardown", map[string]any{"status": status.String()})
}

func (k *Kernel) fdWait(fd *FD, bit uint32, timeout uint32) Status {
	cur := k.CurrentTask()
	suspend := &Suspend{Param: bit, Priority: cur.Priority}
	if timeout != TimeoutInfinite {
		suspend.TimeoutEnabled = true
		suspend.Deadline = k.CurrentTick() + timeout
	}
	_, status := k.SuspendCondition([]*Condition{&fd.Condition}, []*Suspend{suspend}, false)
	return status
}

// Read is fd's blocking read: take the lock, then either service the
// read immediately (DATA_AVAILABLE set) or, if FDBlock is set, wait for
// the bit and retry; a non-blocking fd returns StatusWouldBlock
// instead of waiting.
func (k *Kernel) Read(fd *FD, buf []byte, timeout uint32) (int, Status) {
	if st := k.GetLock(fd, timeout); st != StatusSuccess {
		return 0, st
	}
	defer k.ReleaseLock(fd)

	for {
		if fd.flags&FDDataAvailable != 0 {
			return fd.ReadFunc(buf)
		}
		if fd.flags&FDBlock == 0 {
			return 0, StatusWouldBlock
		}
		if st := k.fdWait(fd, FDDataAvailable, timeout); st != StatusSuccess {
			return 0, st
		}
	}
}

// Write is fd's blocking write, symmetric with Read on SPACE_AVAILABLE.
func (k *Kernel) Write(fd *FD, buf []byte, timeout uint32) (int, Status) {
	if st := k.GetLock(fd, timeout); st != StatusSuccess {
		return 0, st
	}
	defer k.ReleaseLock(fd)

	for {
		if fd.flags&FDSpaceAvailable != 0 {
			return fd.WriteFunc(buf)
		}
		if fd.flags&FDBlock == 0 {
			return 0, StatusWouldBlock
		}
		if st := k.fdWait(fd, FDSpaceAvailable, timeout); st != StatusSuccess {
			return 0, st
		}
	}
}

// TryRead is a supplemented per-call override: never waits regardless
// of FDBlock, for callers that want to poll a blocking-mode fd once.
func (k *Kernel) TryRead(fd *FD, buf []byte) (int, Status) {
	if st := k.GetLock(fd, 0); st != StatusSuccess {
		return 0, st
	}
	defer k.ReleaseLock(fd)
	if fd.flags&FDDataAvailable == 0 {
		return 0, StatusWouldBlock
	}
	return fd.ReadFunc(buf)
}

// TryWrite is TryRead's write-side counterpart.
func (k *Kernel) TryWrite(fd *FD, buf []byte) (int, Status) {
	if st := k.GetLock(fd, 0); st != StatusSuccess {
		return 0, st
	}
	defer k.ReleaseLock(fd)
	if fd.flags&FDSpaceAvailable == 0 {
		return 0, StatusWouldBlock
	}
	return fd.WriteFunc(buf)
}
