package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	inner := NewTestingAPI(t)
	scoped := NewScopedAPI("store", inner)

	scoped.ReportBroken("store.refresh", "boom")
	scoped.ReportWarning("store.insert")
	scoped.ReportCount("store.rows", 3)

	require.Equal(t, []string{"store: store.refresh"}, inner.Broken())
	require.Equal(t, []string{"store: store.insert"}, inner.Warnings())
	require.Equal(t, int64(3), inner.Count("store: store.rows"))
}

func TestSetupWithoutEndpoints(t *testing.T) {
	o, err := Setup(context.Background(), "teetimes-test", Config{})
	require.NoError(t, err)
	require.Nil(t, o.TracerProvider)
	require.Nil(t, o.MeterProvider)
	require.NoError(t, o.Shutdown(context.Background()))
}
