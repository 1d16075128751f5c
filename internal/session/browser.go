package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"teetimes-backend/internal/components/assert"
	"teetimes-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_browser_start    = "browser.start"
	report_browser_navigate = "browser.navigate"
	report_browser_close    = "browser.close"
)

type BrowserConfig struct {
	Headless  bool   `json:"headless"`
	UserAgent string `json:"user_agent"`
	ExecPath  string `json:"exec_path"`
	// EvaluateTimeout bounds Evaluate and Document calls, defaults to 15s.
	EvaluateTimeout time.Duration `json:"-"`
}

// Browser is a Driver backed by one headless chrome process.
type Browser struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	evalTimeout   time.Duration
	location      string
	closeOnce     sync.Once
	closeErr      error

	tel telemetry.API
}

// NewBrowser starts a chrome process. The process outlives ctx and is only
// torn down by Close.
func NewBrowser(ctx context.Context, config BrowserConfig, tel telemetry.API) (*Browser, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("session", tel)

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	evalTimeout := config.EvaluateTimeout
	if evalTimeout <= 0 {
		evalTimeout = 15 * time.Second
	}
	b := &Browser{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		evalTimeout:   evalTimeout,
		tel:           tel,
	}

	// the first Run starts chrome and ties the process to its context, so it
	// gets the session's own context and the start limit closes the browser
	release := guardStart(ctx, browserStartTimeout, func() { b.Close() })
	err := chromedp.Run(browserCtx, page.SetLifecycleEventsEnabled(true))
	if !release() && err == nil {
		err = ctx.Err()
		if err == nil {
			err = fmt.Errorf("browser did not start within %s", browserStartTimeout)
		}
	}
	if err != nil {
		b.Close()
		tel.ReportBroken(report_browser_start, err)
		return nil, fmt.Errorf("%w: %w", ErrAcquire, err)
	}
	return b, nil
}

const browserStartTimeout = 30 * time.Second

// guardStart calls abort once ctx is done or timeout elapses, unless the
// returned release is called first. release reports whether abort was
// avoided.
func guardStart(ctx context.Context, timeout time.Duration, abort func()) (release func() bool) {
	timer := time.AfterFunc(timeout, abort)
	stop := context.AfterFunc(ctx, abort)
	return func() bool {
		timerStopped := timer.Stop()
		ctxStopped := stop()
		return timerStopped && ctxStopped
	}
}

func (b *Browser) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, "Browser.Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	if timeout <= 0 {
		timeout = DefaultNavigationTimeout
	}
	runCtx, cancel := bound(b.ctx, ctx, timeout)
	defer cancel()

	idle := make(chan struct{}, 1)
	listenCtx, stopListening := context.WithCancel(runCtx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch e.Name {
		case "init":
			// a new document started loading, forget idles of the previous one
			select {
			case <-idle:
			default:
			}
		case "networkIdle":
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	var err error
	if sameDocument(b.location, url) {
		// a fragment-only change never fires load, start from a blank page
		err = chromedp.Run(runCtx, chromedp.Navigate("about:blank"))
	}
	if err == nil {
		err = chromedp.Run(runCtx, chromedp.Navigate(url))
	}
	if err == nil {
		select {
		case <-idle:
		case <-runCtx.Done():
			err = runCtx.Err()
		}
	}
	if err != nil {
		err = classify(ctx, runCtx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		b.tel.ReportWarning(report_browser_navigate, fmt.Errorf("navigate %s: %w", url, err))
		return err
	}

	b.location = url
	return nil
}

func sameDocument(current, next string) bool {
	if current == "" {
		return false
	}
	a, _, _ := strings.Cut(current, "#")
	b, _, _ := strings.Cut(next, "#")
	return a == b
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func scriptName(script string) string {
	script = strings.Join(strings.Fields(script), " ")
	if len(script) > 48 {
		return script[:48] + "..."
	}
	return script
}

func (b *Browser) Evaluate(ctx context.Context, script string, out any) error {
	ctx, span := tracer.Start(ctx, "Browser.Evaluate")
	defer span.End()

	runCtx, cancel := bound(b.ctx, ctx, b.evalTimeout)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.Evaluate(script, out, awaitPromise))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return &EvaluationError{Op: scriptName(script), Err: err}
	}
	return nil
}

func (b *Browser) Document(ctx context.Context) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "Browser.Document")
	defer span.End()

	runCtx, cancel := bound(b.ctx, ctx, b.evalTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		return nil, &EvaluationError{Op: "outer html", Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &EvaluationError{Op: "parse html", Err: err}
	}
	return doc, nil
}

func (b *Browser) Location() string {
	return b.location
}

// Close shuts chrome down gracefully and then kills the allocator, which
// removes the process even when the graceful close fails.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.ctx)
		b.cancelBrowser()
		b.cancelAlloc()
		if b.closeErr != nil {
			b.tel.ReportWarning(report_browser_close, b.closeErr)
		}
	})
	return b.closeErr
}
