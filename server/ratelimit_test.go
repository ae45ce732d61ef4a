package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIPRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(10, 10)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("10.0.0.1"))
	now = now.Add(20 * time.Minute)
	require.True(t, l.Allow("10.0.0.2"))
	require.Equal(t, 2, l.Len())

	now = now.Add(15 * time.Minute)
	require.Equal(t, 1, l.Sweep(30*time.Minute))
	require.Equal(t, 1, l.Len())

	t.Run("recent activity keeps an entry", func(t *testing.T) {
		require.True(t, l.Allow("10.0.0.2"))
		now = now.Add(29 * time.Minute)
		require.Zero(t, l.Sweep(30*time.Minute))
		require.Equal(t, 1, l.Len())
	})

	t.Run("swept client starts with a fresh bucket", func(t *testing.T) {
		strict := newIPRateLimiter(0.001, 1)
		strict.now = func() time.Time { return now }
		require.True(t, strict.Allow("10.0.0.3"))
		require.False(t, strict.Allow("10.0.0.3"))

		now = now.Add(time.Hour)
		require.Equal(t, 1, strict.Sweep(30*time.Minute))
		require.True(t, strict.Allow("10.0.0.3"))
	})
}
