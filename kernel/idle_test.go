package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdleRegistryRuntimeUpdateGuard(t *testing.T) {
	var r idleRegistry
	r.init(1, true)

	assert.Equal(t, StatusSuccess, r.add(func(any) {}, nil))
	assert.Equal(t, StatusIdleNoSpace, r.add(func(any) {}, nil))
}

func TestSameIdleFuncComparesByIdentity(t *testing.T) {
	f1 := func(data any) {}
	f2 := func(data any) {}
	assert.True(t, sameIdleFunc(f1, f1))
	assert.False(t, sameIdleFunc(f1, f2))
}

func TestAddWorkAllowedBeforeStart(t *testing.T) {
	k, _ := newTestKernel(t)
	status := k.AddWork(func(any) {}, nil)
	assert.Equal(t, StatusSuccess, status)
}

func TestAddWorkAllowedAfterStartWithRuntimeUpdate(t *testing.T) {
	k, _ := newTestKernel(t, WithIdleRuntimeUpdate(true))
	a := NewTask("a", 0, func(any) {}, nil, 64)
	k.AddTask(a, 5)
	k.SetCurrentTask(a)

	k.mu.Lock()
	k.started = true
	k.mu.Unlock()

	assert.Equal(t, StatusSuccess, k.AddWork(func(any) {}, nil))
}
