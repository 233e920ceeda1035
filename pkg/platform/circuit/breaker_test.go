package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The breaker guards the register bridge: repeated 5xx responses open it so
// mutating calls fail fast, and probe reads close it again.

func TestBreaker_StartsClosed(t *testing.T) {
	b := New("register-bridge")
	assert.Equal(t, "register-bridge", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
}

func TestBreaker_ConsecutiveBridgeFailuresOpen(t *testing.T) {
	b := New("register-bridge", WithFailureThreshold(3))

	for i := 0; i < 2; i++ {
		useFallback, change := b.RecordFailure()
		assert.False(t, useFallback, "failure %d is below the threshold", i+1)
		assert.False(t, change.Opened)
	}

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened, "the threshold failure reports the transition")
	assert.True(t, b.IsOpen())

	// Further failures keep it open without reporting another transition.
	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)
}

func TestBreaker_ProbeReadsClose(t *testing.T) {
	b := New("register-bridge", WithFailureThreshold(1), WithSuccessThreshold(2))

	_, change := b.RecordFailure()
	require.True(t, change.Opened)

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary, "one probe is below the close threshold")
	assert.False(t, change.Closed)
	assert.True(t, b.IsOpen())

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreaker_CountersResetOnOppositeOutcome(t *testing.T) {
	t.Run("a success wipes accumulated failures", func(t *testing.T) {
		b := New("register-bridge", WithFailureThreshold(3))
		b.RecordFailure()
		b.RecordFailure()
		b.RecordSuccess()

		b.RecordFailure()
		b.RecordFailure()
		assert.False(t, b.IsOpen(), "the streak restarted after the success")
		b.RecordFailure()
		assert.True(t, b.IsOpen())
	})

	t.Run("a failed probe wipes accumulated successes", func(t *testing.T) {
		b := New("register-bridge", WithFailureThreshold(1), WithSuccessThreshold(3))
		b.RecordFailure()
		require.True(t, b.IsOpen())

		b.RecordSuccess()
		b.RecordSuccess()
		b.RecordFailure()

		b.RecordSuccess()
		b.RecordSuccess()
		assert.True(t, b.IsOpen(), "the probe streak restarted after the failure")
		b.RecordSuccess()
		assert.False(t, b.IsOpen())
	})
}

func TestBreaker_ResetForcesClosed(t *testing.T) {
	b := New("register-bridge", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
}
