//go:build integration

package store

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

func TestPostgresStore(t *testing.T) {
	testcontainers.Logger = log.New(io.Discard, "", 0)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "teetimes",
				"POSTGRES_PASSWORD": "teetimes",
				"POSTGRES_DB":       "teetimes",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://teetimes:teetimes@%s:%s/teetimes?sslmode=disable", host, port.Port())
	s, err := OpenPostgres(ctx, dsn, telemetry.NewTestingAPI(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	runStoreSuite(t, s)
}
