// Package sessiontest provides a scripted session.Driver for tests that must
// not start chrome.
package sessiontest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"teetimes-backend/internal/session"

	"github.com/PuerkitoBio/goquery"
)

// Driver serves canned html. Page is asked for the html of every navigated
// url, an error from it fails the navigation.
type Driver struct {
	Page func(url string) (string, error)
	// Eval answers Evaluate calls. When nil, Evaluate fails with
	// session.ErrScriptUnsupported like the static driver.
	Eval func(script string) (any, error)

	mutex     sync.Mutex
	html      string
	location  string
	navigated []string
	scripts   []string
	closed    int
}

func (d *Driver) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mutex.Lock()
	d.navigated = append(d.navigated, url)
	d.mutex.Unlock()

	html, err := d.Page(url)
	if err != nil {
		return err
	}

	d.mutex.Lock()
	d.html = html
	d.location = url
	d.mutex.Unlock()
	return nil
}

func (d *Driver) Evaluate(ctx context.Context, script string, out any) error {
	d.mutex.Lock()
	d.scripts = append(d.scripts, script)
	d.mutex.Unlock()

	if d.Eval == nil {
		return &session.EvaluationError{Op: "script", Err: session.ErrScriptUnsupported}
	}
	result, err := d.Eval(script)
	if err != nil {
		return &session.EvaluationError{Op: "script", Err: err}
	}
	switch out := out.(type) {
	case nil:
	case *bool:
		*out, _ = result.(bool)
	case *string:
		*out = fmt.Sprint(result)
	case *any:
		*out = result
	default:
		return fmt.Errorf("sessiontest: unsupported out type %T", out)
	}
	return nil
}

func (d *Driver) Document(ctx context.Context) (*goquery.Document, error) {
	d.mutex.Lock()
	html := d.html
	d.mutex.Unlock()
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (d *Driver) Location() string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.location
}

func (d *Driver) Close() error {
	d.mutex.Lock()
	d.closed++
	d.mutex.Unlock()
	return nil
}

func (d *Driver) Navigated() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]string(nil), d.navigated...)
}

func (d *Driver) Scripts() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]string(nil), d.scripts...)
}

func (d *Driver) Closed() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.closed
}

// Launcher hands out drivers built by New and keeps every one of them.
type Launcher struct {
	New func(kind session.Kind) (*Driver, error)

	mutex    sync.Mutex
	acquired []*Driver
}

func (l *Launcher) Acquire(ctx context.Context, kind session.Kind) (session.Driver, error) {
	d, err := l.New(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrAcquire, err)
	}
	l.mutex.Lock()
	l.acquired = append(l.acquired, d)
	l.mutex.Unlock()
	return d, nil
}

func (l *Launcher) Acquired() []*Driver {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]*Driver(nil), l.acquired...)
}
