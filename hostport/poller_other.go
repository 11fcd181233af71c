//go:build !linux

package hostport

import (
	"errors"

	"github.com/wrtos/rtcore/kernel"
)

// ErrPollerUnsupported is returned by NewEpollBridge on platforms
// without an epoll-compatible multiplexer wired in.
var ErrPollerUnsupported = errors.New("hostport: epoll bridge is only available on linux")

// EpollBridge is a non-functional stand-in outside of linux; fd
// readiness on other platforms must be driven by synthetic producers
// calling kernel.DataAvailable/SpaceAvailable directly.
type EpollBridge struct{}

// NewEpollBridge always fails outside of linux.
func NewEpollBridge(*kernel.Kernel) (*EpollBridge, error) {
	return nil, ErrPollerUnsupported
}

func (b *EpollBridge) Register(int, *kernel.FD, bool, bool) error { return ErrPollerUnsupported }
func (b *EpollBridge) Unregister(int) error                       { return ErrPollerUnsupported }
func (b *EpollBridge) Run()                                       {}
func (b *EpollBridge) Close() error                                { return nil }
