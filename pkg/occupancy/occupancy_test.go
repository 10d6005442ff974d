package occupancy

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncFiresNonZeroOnce(t *testing.T) {
	var nonZero, zero int32
	tr := New(20*time.Millisecond,
		func() { atomic.AddInt32(&zero, 1) },
		func() { atomic.AddInt32(&nonZero, 1) },
	)

	tr.Inc()
	tr.Inc()
	assert.Equal(t, int32(1), atomic.LoadInt32(&nonZero))
	assert.Equal(t, 2, tr.Count())
}

func TestDecToZeroDebouncesBeforeFiring(t *testing.T) {
	var zero int32
	tr := New(30*time.Millisecond, func() { atomic.AddInt32(&zero, 1) }, nil)

	tr.Inc()
	tr.Dec()
	assert.Equal(t, int32(0), atomic.LoadInt32(&zero), "must not fire before debounce elapses")

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&zero) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestReconnectBurstCancelsPendingZero(t *testing.T) {
	var zero int32
	tr := New(30*time.Millisecond, func() { atomic.AddInt32(&zero, 1) }, nil)

	tr.Inc()
	tr.Dec() // arms debounce
	tr.Inc() // cancels it
	tr.Dec() // re-arms

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&zero))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&zero) == 1
	}, time.Second, 5*time.Millisecond)
}
