//go:build linux

package hostport

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/wrtos/rtcore/kernel"
)

// EpollBridge drives a kernel.FD's readiness bits from epoll
// notifications on a real OS file descriptor, so a hosted demo can
// exercise DATA_AVAILABLE/SPACE_AVAILABLE signalling against sockets
// and pipes instead of only synthetic producers. It is deliberately
// simpler than a production multiplexer (a map keyed by fd rather than
// a direct-indexed array): a hosted demo registers a handful of
// descriptors, not tens of thousands.
type EpollBridge struct {
	k    *kernel.Kernel
	epfd int

	mu   sync.Mutex
	regs map[int32]*epollReg

	stop chan struct{}
	done chan struct{}
}

type epollReg struct {
	fd      *kernel.FD
	onRead  bool
	onWrite bool
}

// NewEpollBridge creates the underlying epoll instance.
func NewEpollBridge(k *kernel.Kernel) (*EpollBridge, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &EpollBridge{
		k:    k,
		epfd: epfd,
		regs: make(map[int32]*epollReg),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}, nil
}

// Register arranges for readiness on osFD to drive fd's readiness
// bits: readable sets DATA_AVAILABLE, writable sets SPACE_AVAILABLE.
func (b *EpollBridge) Register(osFD int, fd *kernel.FD, onRead, onWrite bool) error {
	var events uint32
	if onRead {
		events |= unix.EPOLLIN
	}
	if onWrite {
		events |= unix.EPOLLOUT
	}

	b.mu.Lock()
	b.regs[int32(osFD)] = &epollReg{fd: fd, onRead: onRead, onWrite: onWrite}
	b.mu.Unlock()

	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, osFD, &unix.EpollEvent{
		Events: events,
		Fd:     int32(osFD),
	})
}

// Unregister stops tracking osFD.
func (b *EpollBridge) Unregister(osFD int) error {
	b.mu.Lock()
	delete(b.regs, int32(osFD))
	b.mu.Unlock()
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, osFD, nil)
}

// Run polls until Close is called, translating readiness events into
// DataAvailable/SpaceAvailable calls on the bound kernel. Intended to
// run on its own goroutine.
func (b *EpollBridge) Run() {
	defer close(b.done)
	var buf [64]unix.EpollEvent
	for {
		select {
		case <-b.stop:
			return
		default:
		}

		n, err := unix.EpollWait(b.epfd, buf[:], 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}

		for i := 0; i < n; i++ {
			b.mu.Lock()
			reg := b.regs[buf[i].Fd]
			b.mu.Unlock()
			if reg == nil {
				continue
			}
			if reg.onRead && buf[i].Events&unix.EPOLLIN != 0 {
				b.k.DataAvailable(reg.fd)
			}
			if reg.onWrite && buf[i].Events&unix.EPOLLOUT != 0 {
				b.k.SpaceAvailable(reg.fd)
			}
		}
	}
}

// Close stops Run and releases the epoll instance.
func (b *EpollBridge) Close() error {
	close(b.stop)
	<-b.done
	return unix.Close(b.epfd)
}
