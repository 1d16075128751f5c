// Package adapters turns a (course, date) pair into a rendered booking page
// and runs the extraction engine against it. There is one adapter per
// booking platform family.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"teetimes-backend/internal/catalog"
	"teetimes-backend/internal/components/assert"
	"teetimes-backend/internal/components/chrono"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/extract"
	"teetimes-backend/internal/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("teetimes/adapters")

const (
	report_adapter_prepare      = "adapter.prepare"
	report_adapter_disambiguate = "adapter.disambiguate"
)

// Adapter is the unit of pluggability: everything platform specific about
// reaching and reading a booking page.
type Adapter interface {
	Source() string
	// Driver is the session kind the platform needs unless a course overrides it.
	Driver() session.Kind
	// Scrape loads the page for course on date (YYYY-MM-DD) and extracts rows.
	Scrape(ctx context.Context, sess session.Driver, course catalog.Course, date string) (extract.Result, error)
}

type Options struct {
	NavigationTimeout time.Duration
	// Settle is how long to wait after an in-page interaction for the page
	// to re-render.
	Settle time.Duration
}

func (o Options) withDefaults() Options {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = session.DefaultNavigationTimeout
	}
	if o.Settle <= 0 {
		o.Settle = 1500 * time.Millisecond
	}
	return o
}

// platform is the shared shape of every adapter. Platforms only differ in
// how they address a page, what they do on it before extraction and which
// containers hold their tee times.
type platform struct {
	source string
	driver session.Kind
	// address builds the page url for course on date.
	address func(course catalog.Course, date time.Time) (string, error)
	// prepare drives the live page to the right date or schedule, optional.
	prepare func(ctx context.Context, sess session.Driver, course catalog.Course, date time.Time) error
	// selectable reports whether the platform can pick one course out of a
	// shared page with an in-page control.
	selectable bool
	structured extract.StructuredExtractor
	minPrice   int
	maxPrice   int

	opts Options
	tel  telemetry.API
}

func (p platform) Source() string {
	return p.source
}

func (p platform) Driver() session.Kind {
	return p.driver
}

// PriceBound is the fallback price bound for course, course overrides win.
func (p platform) PriceBound(course catalog.Course) (int, int) {
	min, max := p.minPrice, p.maxPrice
	if course.PriceMin > 0 {
		min = course.PriceMin
	}
	if course.PriceMax > 0 {
		max = course.PriceMax
	}
	return min, max
}

func (p platform) Scrape(ctx context.Context, sess session.Driver, course catalog.Course, date string) (extract.Result, error) {
	ctx, span := tracer.Start(ctx, p.source+".Scrape")
	defer span.End()
	span.SetAttributes(
		attribute.String("course", course.ID),
		attribute.String("date", date),
	)

	day, err := time.Parse(chrono.DateLayout, date)
	if err != nil {
		return extract.Result{}, fmt.Errorf("parse date: %w", err)
	}
	url, err := p.address(course, day)
	if err != nil {
		return extract.Result{}, fmt.Errorf("address %s: %w", course.ID, err)
	}

	err = sess.Navigate(ctx, url, p.opts.NavigationTimeout)
	if err != nil {
		span.SetStatus(codes.Error, "navigation failed")
		return extract.Result{}, err
	}

	if p.prepare != nil {
		err = p.prepare(ctx, sess, course, day)
		if ctx.Err() != nil {
			return extract.Result{}, ctx.Err()
		}
		if err != nil && !errors.Is(err, session.ErrScriptUnsupported) {
			p.tel.ReportWarning(report_adapter_prepare, fmt.Errorf("%s %s: %w", course.ID, date, err))
		}
	}

	if p.selectable && course.Filter != "" {
		err = p.disambiguate(ctx, sess, course)
		if ctx.Err() != nil {
			return extract.Result{}, ctx.Err()
		}
		if err != nil && !errors.Is(err, session.ErrScriptUnsupported) {
			p.tel.ReportWarning(report_adapter_disambiguate, fmt.Errorf("%s %s: %w", course.ID, date, err))
		}
	}

	doc, err := sess.Document(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "snapshot failed")
		return extract.Result{}, err
	}

	min, max := p.PriceBound(course)
	result := extract.Run(
		doc,
		course.Filter,
		p.structured,
		extract.FallbackTextExtractor{MinPrice: min, MaxPrice: max},
	)
	span.SetAttributes(
		attribute.String("pass", string(result.Pass)),
		attribute.Int("rows", len(result.Rows)),
	)
	return result, nil
}

// disambiguate selects the course's entry in an in-page control and waits
// for the page to re-render. Not finding one is fine, the row filter in the
// extraction pass still applies.
func (p platform) disambiguate(ctx context.Context, sess session.Driver, course catalog.Course) error {
	script, err := selectCourseScript(course.Filter)
	if err != nil {
		return err
	}
	var selected bool
	err = sess.Evaluate(ctx, script, &selected)
	if err != nil {
		return err
	}
	if !selected {
		p.tel.ReportDebug("no in-page control matched filter", course.ID, course.Filter)
		return nil
	}
	return chrono.Sleep(ctx, p.opts.Settle)
}

// Registry maps a source tag to its adapter.
type Registry map[string]Adapter

// NewRegistry returns every supported platform.
func NewRegistry(opts Options, tel telemetry.API) Registry {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("adapters", tel)
	opts = opts.withDefaults()

	r := Registry{}
	for _, a := range []Adapter{
		newGolfNow(opts, tel),
		newForeUp(opts, tel),
		newEZLinks(opts, tel),
		newTeesnap(opts, tel),
		newTeeOn(opts, tel),
	} {
		r[a.Source()] = a
	}
	return r
}

func (r Registry) Get(source string) (Adapter, bool) {
	a, ok := r[source]
	return a, ok
}

func (r Registry) Sources() []string {
	sources := make([]string, 0, len(r))
	for s := range r {
		sources = append(sources, s)
	}
	slices.Sort(sources)
	return sources
}

// DriverFor resolves the session kind for course, honoring its override.
func (r Registry) DriverFor(course catalog.Course) (session.Kind, error) {
	if course.Driver != "" {
		return session.ParseKind(course.Driver)
	}
	a, ok := r.Get(course.Source)
	if !ok {
		return "", fmt.Errorf("no adapter for source %q", course.Source)
	}
	return a.Driver(), nil
}
