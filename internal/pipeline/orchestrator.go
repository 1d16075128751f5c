// Package pipeline drives refresh runs: every configured course, every date
// of the window, scraped through the course's adapter and written to the
// store one (course, date, source) unit at a time.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"teetimes-backend/internal/adapters"
	"teetimes-backend/internal/catalog"
	"teetimes-backend/internal/components/assert"
	"teetimes-backend/internal/components/chrono"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/extract"
	"teetimes-backend/internal/session"
	"teetimes-backend/internal/teetime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

var (
	tracer = otel.Tracer("teetimes/pipeline")
	meter  = otel.Meter("teetimes/pipeline")
)

const (
	report_orchestrator_course = "orchestrator.course"
	report_orchestrator_unit   = "orchestrator.unit"
)

type Options struct {
	// Days is the size of the date window.
	Days        int
	// Workers bounds how many courses run at once, each with its own
	// session. 1 runs courses sequentially.
	Workers     int
	// DatePause is waited between the dates of one course.
	DatePause   time.Duration
	// CoursePause is waited by a worker after it finishes a course.
	CoursePause time.Duration
}

func (o Options) withDefaults() Options {
	if o.Days <= 0 {
		o.Days = 7
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

type Orchestrator struct {
	registry adapters.Registry
	launcher session.Launcher
	writer   Writer
	clock    chrono.API
	opts     Options
	tel      telemetry.API

	written     metric.Int64Counter
	unitsFailed metric.Int64Counter
}

func NewOrchestrator(
	registry adapters.Registry,
	launcher session.Launcher,
	writer Writer,
	clock chrono.API,
	opts Options,
	tel telemetry.API,
) (*Orchestrator, error) {
	assert.NotNil(registry)
	assert.NotNil(launcher)
	assert.NotNil(clock)
	assert.NotNil(tel)

	written, err := meter.Int64Counter(
		"teetimes.written",
		metric.WithDescription("tee time records written to the store"),
	)
	if err != nil {
		return nil, err
	}
	unitsFailed, err := meter.Int64Counter(
		"teetimes.units_failed",
		metric.WithDescription("(course, date) units whose scrape failed"),
	)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		registry:    registry,
		launcher:    launcher,
		writer:      writer,
		clock:       clock,
		opts:        opts.withDefaults(),
		tel:         telemetry.NewScopedAPI("pipeline", tel),
		written:     written,
		unitsFailed: unitsFailed,
	}, nil
}

// Run refreshes every course over the date window. A failing course or unit
// never stops the run. The returned statistics are complete even when ctx is
// cancelled, in which case ctx's error is returned alongside them.
func (o *Orchestrator) Run(ctx context.Context, courses []catalog.Course) (*RunStatistics, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.Run")
	defer span.End()

	now := o.clock.Now()
	dates := chrono.ResolveWindow(now, o.opts.Days)
	stats := newRunStatistics(now, dates)
	span.SetAttributes(
		attribute.Int("courses", len(courses)),
		attribute.StringSlice("dates", dates),
	)

	if o.opts.Workers <= 1 {
		for i, course := range courses {
			if ctx.Err() != nil {
				break
			}
			o.runCourse(ctx, course, dates, stats)
			if i < len(courses)-1 {
				_ = chrono.Sleep(ctx, o.opts.CoursePause)
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(o.opts.Workers)
		for i, course := range courses {
			if ctx.Err() != nil {
				break
			}
			last := i == len(courses)-1
			g.Go(func() error {
				o.runCourse(ctx, course, dates, stats)
				if !last {
					_ = chrono.Sleep(ctx, o.opts.CoursePause)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	stats.finish(o.clock.Now())
	stats.Report(o.tel)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return stats, err
	}
	return stats, nil
}

// runCourse owns one session for the whole date loop of course.
func (o *Orchestrator) runCourse(ctx context.Context, course catalog.Course, dates []string, stats *RunStatistics) {
	ctx, span := tracer.Start(ctx, "Orchestrator.runCourse")
	defer span.End()
	span.SetAttributes(
		attribute.String("course", course.ID),
		attribute.String("source", course.Source),
	)
	stats.courseStarted(course.ID)

	adapter, ok := o.registry.Get(course.Source)
	if !ok {
		o.tel.ReportBroken(report_orchestrator_course, fmt.Errorf("%s: no adapter for source %q", course.ID, course.Source))
		stats.courseDone(true)
		return
	}
	kind, err := o.registry.DriverFor(course)
	if err != nil {
		o.tel.ReportBroken(report_orchestrator_course, fmt.Errorf("%s: %w", course.ID, err))
		stats.courseDone(true)
		return
	}

	sess, err := o.acquire(ctx, kind)
	if err != nil {
		span.SetStatus(codes.Error, "acquire failed")
		o.tel.ReportBroken(report_orchestrator_course, fmt.Errorf("%s: %w", course.ID, err))
		stats.courseDone(true)
		return
	}
	defer func() {
		err := sess.Close()
		if err != nil {
			o.tel.ReportWarning(report_orchestrator_course, fmt.Errorf("%s: close session: %w", course.ID, err))
		}
	}()

	for i, date := range dates {
		if i > 0 {
			_ = chrono.Sleep(ctx, o.opts.DatePause)
		}
		if ctx.Err() != nil {
			break
		}
		o.runUnit(ctx, sess, adapter, course, date, stats)
	}
	if ctx.Err() != nil {
		span.SetStatus(codes.Error, "interrupted")
		stats.courseInterrupted()
		return
	}
	stats.courseDone(false)
}

func (o *Orchestrator) acquire(ctx context.Context, kind session.Kind) (sess session.Driver, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", session.ErrAcquire, r)
		}
	}()
	return o.launcher.Acquire(ctx, kind)
}

// runUnit scrapes and writes one (course, date, source) unit.
func (o *Orchestrator) runUnit(
	ctx context.Context,
	sess session.Driver,
	adapter adapters.Adapter,
	course catalog.Course,
	date string,
	stats *RunStatistics,
) {
	key := teetime.Key{CourseID: course.ID, Date: date, Source: adapter.Source()}
	attrs := metric.WithAttributes(
		attribute.String("course", course.ID),
		attribute.String("source", key.Source),
	)

	ctx, span := tracer.Start(ctx, "Orchestrator.runUnit")
	defer span.End()
	span.SetAttributes(attribute.String("key", key.String()))

	result, scrapeErr := o.scrape(ctx, sess, adapter, course, date)
	if ctx.Err() != nil {
		// a cancelled scrape says nothing about the unit, leave it alone
		return
	}

	failed := scrapeErr != nil
	if failed {
		span.SetStatus(codes.Error, "scrape failed")
		o.tel.ReportWarning(report_orchestrator_unit, fmt.Errorf("%s: %w", key, scrapeErr))
		o.unitsFailed.Add(ctx, 1, attrs)
	}

	bookingURL := course.BookingURL
	if bookingURL == "" {
		bookingURL = sess.Location()
	}

	outcome, err := o.writer.Write(ctx, key, result, bookingURL, failed)
	if err != nil {
		if !failed {
			o.unitsFailed.Add(ctx, 1, attrs)
		}
		failed = true
	}
	if outcome.Failed > 0 {
		o.tel.ReportWarning(report_orchestrator_unit, key.String(), "rows rejected by store", outcome.Failed)
	}
	o.written.Add(ctx, int64(outcome.Written), attrs)
	o.tel.ReportDebug("unit refreshed", key.String(), "pass", result.Pass, "written", outcome.Written)

	stats.unitDone(key, outcome.Written, failed, outcome.Skipped)
}

// scrape runs the adapter, turning a panic into an error so it stays inside
// the unit.
func (o *Orchestrator) scrape(
	ctx context.Context,
	sess session.Driver,
	adapter adapters.Adapter,
	course catalog.Course,
	date string,
) (result extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.tel.ReportBroken(report_orchestrator_unit, fmt.Errorf("panic: %v", r), string(debug.Stack()))
			result = extract.Result{Pass: extract.PassNone}
			err = fmt.Errorf("adapter panicked: %v", r)
		}
	}()
	return adapter.Scrape(ctx, sess, course, date)
}
