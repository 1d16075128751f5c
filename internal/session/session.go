// Package session owns the connections adapters drive to reach a booking
// page. A Driver is acquired once per course, reused for every date of that
// course and closed before the next course starts.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teetimes-backend/internal/components/assert"
	"teetimes-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("teetimes/session")

const (
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultNavigationTimeout = 45 * time.Second
)

var (
	// ErrNavigationTimeout means the page did not settle within the
	// navigation timeout.
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrAcquire means no session could be started at all.
	ErrAcquire = errors.New("failed to acquire session")
	// ErrScriptUnsupported is returned by drivers that cannot run page scripts.
	ErrScriptUnsupported = errors.New("driver cannot evaluate scripts")
)

// EvaluationError wraps a failure that happened while running code against
// the loaded page.
type EvaluationError struct {
	Op  string
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %s: %s", e.Op, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Driver is one page session. Calls are strictly sequential.
type Driver interface {
	// Navigate loads url and waits until the page is stable.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// Evaluate runs script in the loaded page and decodes its result into out.
	// out may be nil when the result does not matter.
	Evaluate(ctx context.Context, script string, out any) error
	// Document snapshots the current page.
	Document(ctx context.Context) (*goquery.Document, error)
	// Location is the url of the last successful navigation.
	Location() string
	// Close releases the session, it is safe to call more than once.
	Close() error
}

type Kind string

const (
	KindBrowser Kind = "browser"
	KindStatic  Kind = "static"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBrowser, KindStatic:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown driver kind %q", s)
}

// Launcher hands out fresh sessions.
type Launcher interface {
	Acquire(ctx context.Context, kind Kind) (Driver, error)
}

type Config struct {
	Browser BrowserConfig `json:"browser"`
	Static  StaticConfig  `json:"static"`
}

// Factory is the production Launcher.
type Factory struct {
	config Config
	tel    telemetry.API
}

func NewFactory(config Config, tel telemetry.API) Factory {
	assert.NotNil(tel)
	return Factory{config: config, tel: tel}
}

func (f Factory) Acquire(ctx context.Context, kind Kind) (Driver, error) {
	switch kind {
	case KindStatic:
		return NewStatic(f.config.Static, f.tel)
	case KindBrowser, "":
		return NewBrowser(ctx, f.config.Browser, f.tel)
	}
	return nil, fmt.Errorf("%w: unknown driver kind %q", ErrAcquire, kind)
}

// bound derives a context for one driver call. It is done when the
// session's own context is done, when timeout elapses, or when the caller's
// ctx is done.
func bound(session, caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(session, timeout)
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// classify turns a failed call into the session error taxonomy.
func classify(caller, call context.Context, err error) error {
	if caller.Err() != nil {
		return caller.Err()
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrNavigationTimeout, err)
	}
	return err
}
