package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickCmpWraparound(t *testing.T) {
	assert.True(t, tickCmp(1, 0) > 0)
	assert.True(t, tickCmp(0, 1) < 0)
	assert.Equal(t, int32(0), tickCmp(42, 42))

	// Wraparound: 0 is "after" math.MaxUint32 by the modular distance.
	assert.True(t, tickCmp(0, math.MaxUint32) > 0)
	assert.True(t, tickCmp(math.MaxUint32, 0) < 0)
}

func TestTickDue(t *testing.T) {
	assert.True(t, tickDue(100, 100))
	assert.True(t, tickDue(101, 100))
	assert.False(t, tickDue(99, 100))
}

func TestTickAdvanceIsMonotonic(t *testing.T) {
	var tk Tick
	assert.Equal(t, uint32(0), tk.Current())
	tk.advance()
	tk.advance()
	assert.Equal(t, uint32(2), tk.Current())
}
