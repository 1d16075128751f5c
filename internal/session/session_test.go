package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGuardStart(t *testing.T) {
	t.Run("released in time", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var aborted atomic.Int32
		release := guardStart(ctx, time.Hour, func() { aborted.Add(1) })
		require.True(t, release())

		// the browser has to outlive the context it was acquired with
		cancel()
		time.Sleep(20 * time.Millisecond)
		require.Zero(t, aborted.Load())
	})

	t.Run("timeout", func(t *testing.T) {
		var aborted atomic.Int32
		release := guardStart(context.Background(), 10*time.Millisecond, func() { aborted.Add(1) })
		require.Eventually(t, func() bool { return aborted.Load() == 1 }, time.Second, 5*time.Millisecond)
		require.False(t, release())
	})

	t.Run("caller cancels", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var aborted atomic.Int32
		release := guardStart(ctx, time.Hour, func() { aborted.Add(1) })
		cancel()
		require.Eventually(t, func() bool { return aborted.Load() == 1 }, time.Second, 5*time.Millisecond)
		require.False(t, release())
	})
}
