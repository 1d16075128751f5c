//go:build integration

package runlock

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"teetimes-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisLock(t *testing.T) {
	testcontainers.Logger = log.New(io.Discard, "", 0)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	tel := telemetry.NewTestingAPI(t)
	first := NewRedis(client, DefaultKey, 300*time.Millisecond, tel)
	second := NewRedis(client, DefaultKey, 300*time.Millisecond, tel)

	lease, err := first.TryLock(ctx)
	require.NoError(t, err)

	_, err = second.TryLock(ctx)
	require.ErrorIs(t, err, ErrLocked)

	// the holder keeps the key alive past its ttl
	time.Sleep(time.Second)
	_, err = second.TryLock(ctx)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx))

	secondLease, err := second.TryLock(ctx)
	require.NoError(t, err)
	require.NoError(t, secondLease.Release(ctx))
	require.Empty(t, tel.Broken())

	// someone else takes the key over while a run holds it
	lease, err = first.TryLock(ctx)
	require.NoError(t, err)
	require.NoError(t, client.Set(ctx, DefaultKey, "intruder", time.Minute).Err())
	select {
	case <-lease.Lost:
	case <-time.After(5 * time.Second):
		t.Fatal("lost lock was not noticed")
	}
	require.Contains(t, tel.Broken(), "runlock: redis.extend")
	require.NoError(t, lease.Release(ctx))
	// release leaves the new holder's key alone
	holder, err := client.Get(ctx, DefaultKey).Result()
	require.NoError(t, err)
	require.Equal(t, "intruder", holder)
}
