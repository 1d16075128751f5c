package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"teetimes-backend/internal/adapters"
	"teetimes-backend/internal/catalog"
	"teetimes-backend/internal/components/chrono"
	"teetimes-backend/internal/pipeline"
	"teetimes-backend/internal/runlock"
	"teetimes-backend/internal/session"
)

func newRegistry() adapters.Registry {
	return adapters.NewRegistry(adapters.Options{NavigationTimeout: cfg.navigationTimeout()}, tel)
}

// loadCatalog reads the configured catalog and rejects it when it has
// errors. Warnings are only reported.
func loadCatalog(registry adapters.Registry) (catalog.Catalog, catalog.Problems, error) {
	c, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return catalog.Catalog{}, catalog.Problems{}, err
	}
	problems := c.Validate(registry.Sources())
	for _, w := range problems.Warnings {
		tel.ReportWarning("catalog.validate", w)
	}
	err = problems.Err()
	if err != nil {
		return catalog.Catalog{}, problems, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, problems, nil
}

func newLock(ctx context.Context) (runlock.Lock, func(), error) {
	if cfg.Redis.Url == "" {
		return &runlock.Local{}, func() {}, nil
	}
	client, err := runlock.NewRedisClient(ctx, cfg.Redis.Url)
	if err != nil {
		return nil, nil, err
	}
	ttl := time.Duration(cfg.Redis.LockTtlSeconds) * time.Second
	return runlock.NewRedis(client, runlock.DefaultKey, ttl, tel), func() { client.Close() }, nil
}

// refresher is everything a refresh run needs, wired from the config.
type refresher struct {
	orchestrator *pipeline.Orchestrator
	lock         runlock.Lock
	courses      []catalog.Course
	closers      []func()
}

func newRefresher(ctx context.Context, courseIDs []string, days int) (*refresher, error) {
	r := &refresher{}

	registry := newRegistry()
	cat, _, err := loadCatalog(registry)
	if err != nil {
		return nil, err
	}
	r.courses, err = cat.Select(courseIDs)
	if err != nil {
		return nil, err
	}

	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	s, err := cfg.Database.Open(ctx, tel)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	r.closers = append(r.closers, func() { s.Close() })

	lock, closeLock, err := newLock(ctx)
	if err != nil {
		r.close()
		return nil, fmt.Errorf("setup run lock: %w", err)
	}
	r.lock = lock
	r.closers = append(r.closers, closeLock)

	r.orchestrator, err = pipeline.NewOrchestrator(
		registry,
		session.NewFactory(cfg.sessionConfig(), tel),
		pipeline.NewWriter(s, cfg.KeepStaleOnError, tel),
		clock,
		pipeline.Options{
			Days:        days,
			Workers:     cfg.Workers,
			DatePause:   time.Duration(cfg.Pacing.DateMs) * time.Millisecond,
			CoursePause: time.Duration(cfg.Pacing.CourseMs) * time.Millisecond,
		},
		tel,
	)
	if err != nil {
		r.close()
		return nil, err
	}
	return r, nil
}

// run performs one refresh run under the run lock.
func (r *refresher) run(ctx context.Context) (*pipeline.RunStatistics, error) {
	var stats *pipeline.RunStatistics
	err := runlock.Do(ctx, r.lock, func(ctx context.Context) error {
		slog.Info("refresh started", "courses", len(r.courses))
		var err error
		stats, err = r.orchestrator.Run(ctx, r.courses)
		return err
	})
	if stats != nil {
		logStats(stats)
	}
	return stats, err
}

func (r *refresher) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}
