package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"teetimes-backend/internal/components/configutil"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/session"
	"teetimes-backend/internal/store"

	"github.com/robfig/cron/v3"
)

type PacingConfig struct {
	DateMs   int `json:"date_ms"`
	CourseMs int `json:"course_ms"`
}

type BrowserConfig struct {
	// Headless defaults to true.
	Headless  *bool  `json:"headless"`
	UserAgent string `json:"user_agent"`
	ExecPath  string `json:"exec_path"`
}

type RedisConfig struct {
	// Url enables the shared run lock, runs are only serialized within
	// this process when it is empty.
	Url            string `json:"url"`
	LockTtlSeconds int    `json:"lock_ttl_seconds"`
}

type Config struct {
	Timezone                 string               `json:"timezone"`
	Days                     int                  `json:"days"`
	Workers                  int                  `json:"workers"`
	Schedule                 string               `json:"schedule"`
	Pacing                   PacingConfig         `json:"pacing"`
	NavigationTimeoutSeconds int                  `json:"navigation_timeout_seconds"`
	KeepStaleOnError         bool                 `json:"keep_stale_on_error"`
	Browser                  BrowserConfig        `json:"browser"`
	Static                   session.StaticConfig `json:"static"`
	Database                 store.Config         `json:"database"`
	Redis                    RedisConfig          `json:"redis"`
	CatalogFile              string               `json:"catalog_file"`
	Telemetry                telemetry.Config     `json:"telemetry"`
}

func (c Config) withDefaults() Config {
	if c.Timezone == "" {
		c.Timezone = "America/Los_Angeles"
	}
	if c.Days == 0 {
		c.Days = 7
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Schedule == "" {
		c.Schedule = "@every 30m"
	}
	if c.Pacing.DateMs == 0 {
		c.Pacing.DateMs = 1500
	}
	if c.Pacing.CourseMs == 0 {
		c.Pacing.CourseMs = 2500
	}
	if c.NavigationTimeoutSeconds == 0 {
		c.NavigationTimeoutSeconds = int(session.DefaultNavigationTimeout / time.Second)
	}
	if c.Browser.Headless == nil {
		headless := true
		c.Browser.Headless = &headless
	}
	if c.Static.RequestsPerSecond == 0 {
		c.Static.RequestsPerSecond = 1
	}
	if c.Static.Burst == 0 {
		c.Static.Burst = 1
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.File == "" {
		c.Database.File = "teetimes.db"
	}
	if c.Redis.LockTtlSeconds == 0 {
		c.Redis.LockTtlSeconds = 600
	}
	return c
}

func (c Config) validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.Days < 1 {
		errs = append(errs, fmt.Errorf("days must be at least 1, got %d", c.Days))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if c.Pacing.DateMs < 0 || c.Pacing.CourseMs < 0 {
		errs = append(errs, errors.New("pacing must not be negative"))
	}
	if c.NavigationTimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("navigation_timeout_seconds must be positive, got %d", c.NavigationTimeoutSeconds))
	}
	if c.Static.RequestsPerSecond < 0 || c.Static.Burst < 0 {
		errs = append(errs, errors.New("static rate limit must not be negative"))
	}
	switch c.Database.Driver {
	case "sqlite", "libsql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite, libsql or postgres, got %q", c.Database.Driver))
	}
	if c.Redis.LockTtlSeconds < 1 {
		errs = append(errs, fmt.Errorf("redis.lock_ttl_seconds must be positive, got %d", c.Redis.LockTtlSeconds))
	}
	return errors.Join(errs...)
}

func (c Config) sessionConfig() session.Config {
	return session.Config{
		Browser: session.BrowserConfig{
			Headless:  *c.Browser.Headless,
			UserAgent: c.Browser.UserAgent,
			ExecPath:  c.Browser.ExecPath,
		},
		Static: c.Static,
	}
}

func (c Config) navigationTimeout() time.Duration {
	return time.Duration(c.NavigationTimeoutSeconds) * time.Second
}

// readConfig reads path (and its .local override) and applies defaults. A
// missing file is not an error, every setting has a default.
func readConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Config{}
	} else if err != nil {
		return Config{}, err
	}
	cfg = cfg.withDefaults()
	err = cfg.validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
