package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("mid session", func(t *testing.T) {
		now := start.Add(4 * time.Minute)
		assert.Equal(t, 6*time.Minute, Remaining(start, 600, now))
		assert.Equal(t, 360, RemainingSeconds(start, 600, now))
		assert.False(t, Expired(start, 600, now))
	})

	t.Run("exactly at deadline", func(t *testing.T) {
		now := start.Add(10 * time.Minute)
		assert.Equal(t, time.Duration(0), Remaining(start, 600, now))
		assert.True(t, Expired(start, 600, now))
	})

	t.Run("long past deadline clamps to zero", func(t *testing.T) {
		now := start.Add(24 * time.Hour)
		assert.Equal(t, 0, RemainingSeconds(start, 600, now))
		assert.True(t, Expired(start, 600, now))
	})

	t.Run("clock skew before start clamps elapsed", func(t *testing.T) {
		now := start.Add(-30 * time.Second)
		assert.Equal(t, time.Duration(0), Elapsed(start, now))
		assert.Equal(t, 600, RemainingSeconds(start, 600, now))
	})
}
