package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"teetimes-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStaticNavigateAndDocument(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("user-agent")
		fmt.Fprint(w, `<html><body><p class="time">7:30 AM</p></body></html>`)
	}))
	defer server.Close()

	s, err := NewStatic(StaticConfig{RequestsPerSecond: 100, Burst: 10}, telemetry.NewTestingAPI(t))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Document(context.Background())
	var evalErr *EvaluationError
	require.True(t, errors.As(err, &evalErr))

	require.NoError(t, s.Navigate(context.Background(), server.URL+"/tee-times", time.Second*5))
	require.Equal(t, server.URL+"/tee-times", s.Location())
	require.Equal(t, DefaultUserAgent, userAgent)

	doc, err := s.Document(context.Background())
	require.NoError(t, err)
	require.Equal(t, "7:30 AM", doc.Find("p.time").Text())
}

func TestStaticEvaluateUnsupported(t *testing.T) {
	s, err := NewStatic(StaticConfig{}, telemetry.NewTestingAPI(t))
	require.NoError(t, err)
	defer s.Close()

	err = s.Evaluate(context.Background(), "document.title", nil)
	var evalErr *EvaluationError
	require.True(t, errors.As(err, &evalErr))
	require.ErrorIs(t, err, ErrScriptUnsupported)
}

func TestStaticNavigationTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	s, err := NewStatic(StaticConfig{RequestsPerSecond: 100, Burst: 10}, telemetry.NewTestingAPI(t))
	require.NoError(t, err)
	defer s.Close()

	err = s.Navigate(context.Background(), server.URL, 100*time.Millisecond)
	require.ErrorIs(t, err, ErrNavigationTimeout)
}

func TestStaticNavigateCancelled(t *testing.T) {
	s, err := NewStatic(StaticConfig{}, telemetry.NewTestingAPI(t))
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Navigate(ctx, "http://127.0.0.1:1", time.Second)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrNavigationTimeout)
}

func TestStaticErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s, err := NewStatic(StaticConfig{RequestsPerSecond: 100, Burst: 10}, telemetry.NewTestingAPI(t))
	require.NoError(t, err)
	defer s.Close()

	err = s.Navigate(context.Background(), server.URL, time.Second)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNavigationTimeout)
	require.Empty(t, s.Location())
}

func TestCloseIdempotent(t *testing.T) {
	s, err := NewStatic(StaticConfig{}, telemetry.NewTestingAPI(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("static")
	require.NoError(t, err)
	require.Equal(t, KindStatic, kind)

	_, err = ParseKind("carrier-pigeon")
	require.Error(t, err)
}

func TestSameDocument(t *testing.T) {
	require.False(t, sameDocument("", "https://a.test/search#date=1"))
	require.True(t, sameDocument("https://a.test/search#date=1", "https://a.test/search#date=2"))
	require.True(t, sameDocument("https://a.test/search", "https://a.test/search#x"))
	require.False(t, sameDocument("https://a.test/search?d=1", "https://a.test/search?d=2"))
}
