package session

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"sync"
	"time"

	"teetimes-backend/internal/components/assert"
	"teetimes-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const report_static_navigate = "static.navigate"

type StaticConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	UserAgent         string  `json:"user_agent"`
}

// Static is a Driver for server-rendered booking pages. It fetches html over
// plain http and never runs page scripts.
type Static struct {
	http *resty.Client

	mutex    sync.Mutex
	body     []byte
	location string
	closed   bool

	tel telemetry.API
}

func NewStatic(config StaticConfig, tel telemetry.API) (*Static, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("session", tel)

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAcquire, err)
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(rps), burst)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel)

	return &Static{http: client, tel: tel}, nil
}

func (s *Static) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, "Static.Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	if timeout <= 0 {
		timeout = DefaultNavigationTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.http.R().
		SetContext(reqCtx).
		Get(url)
	if err == nil && res.IsError() {
		err = fmt.Errorf("unexpected status %s", res.Status())
	}
	if err != nil {
		err = classify(ctx, reqCtx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		s.tel.ReportWarning(report_static_navigate, fmt.Errorf("navigate %s: %w", url, err))
		return err
	}

	s.mutex.Lock()
	s.body = res.Body()
	s.location = url
	s.mutex.Unlock()
	return nil
}

func (s *Static) Evaluate(ctx context.Context, script string, out any) error {
	return &EvaluationError{Op: scriptName(script), Err: ErrScriptUnsupported}
}

func (s *Static) Document(ctx context.Context) (*goquery.Document, error) {
	s.mutex.Lock()
	body := s.body
	s.mutex.Unlock()

	if body == nil {
		return nil, &EvaluationError{Op: "document", Err: fmt.Errorf("no page loaded")}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &EvaluationError{Op: "parse html", Err: err}
	}
	return doc, nil
}

func (s *Static) Location() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.location
}

func (s *Static) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.closed {
		s.closed = true
		s.body = nil
		s.http.GetClient().CloseIdleConnections()
	}
	return nil
}
