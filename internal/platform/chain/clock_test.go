package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	clock := NewManual(5)
	assert.Equal(t, uint64(5), clock.Height())

	clock.Advance(3)
	assert.Equal(t, uint64(8), clock.Height())

	clock.SetHeight(8)
	assert.Equal(t, uint64(8), clock.Height())

	clock.SetHeight(100)
	assert.Equal(t, uint64(100), clock.Height())

	assert.Panics(t, func() { clock.SetHeight(99) }, "heights are monotonic")
}

func TestIntervalClock(t *testing.T) {
	t.Run("derives height from elapsed time", func(t *testing.T) {
		genesis := time.Now().Add(-time.Minute)
		clock := NewInterval(genesis, 12*time.Second)
		assert.Equal(t, uint64(5), clock.Height())
	})

	t.Run("pre-genesis reads as height zero", func(t *testing.T) {
		clock := NewInterval(time.Now().Add(time.Hour), time.Second)
		assert.Equal(t, uint64(0), clock.Height())
	})

	t.Run("non-positive interval defaults", func(t *testing.T) {
		genesis := time.Now().Add(-time.Minute)
		clock := NewInterval(genesis, 0)
		assert.Equal(t, uint64(5), clock.Height())
	})
}
