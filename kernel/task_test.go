package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStateString(t *testing.T) {
	cases := map[TaskState]string{
		TaskResume:        "RESUME",
		TaskRunning:       "RUNNING",
		TaskToBeSuspended: "TO_BE_SUSPENDED",
		TaskSuspended:     "SUSPENDED",
		TaskSleepResume:   "SLEEP_RESUME",
		TaskFinished:      "FINISHED",
		TaskState(99):     "UNKNOWN",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}

func TestNewTaskDefaults(t *testing.T) {
	called := false
	entry := func(arg any) { called = true; _ = arg }

	task := NewTask("worker", 7, entry, "payload", 512)

	assert.Equal(t, "worker", task.Name)
	assert.Equal(t, uint8(7), task.Priority)
	assert.Equal(t, "payload", task.Arg)
	assert.Equal(t, 512, task.StackSize)
	assert.Equal(t, TaskResume, task.State())
	assert.False(t, task.Drifted())
	assert.Equal(t, TaskStats{}, task.Stats())

	task.Entry(task.Arg)
	assert.True(t, called)
}

func TestTaskDriftedReflectsFlag(t *testing.T) {
	task := NewTask("t", 0, func(any) {}, nil, 64)
	assert.False(t, task.Drifted())
	task.flags |= flagSchedDrift
	assert.True(t, task.Drifted())
}

func TestTaskStatsIsACopy(t *testing.T) {
	task := NewTask("t", 0, func(any) {}, nil, 64)
	task.stats.SwitchCount = 3
	task.stats.ReadyResidency = 9

	snap := task.Stats()
	assert.Equal(t, uint64(3), snap.SwitchCount)
	assert.Equal(t, uint64(9), snap.ReadyResidency)

	snap.SwitchCount = 100
	assert.Equal(t, uint64(3), task.stats.SwitchCount, "Stats() must return a copy, not a live reference")
}
