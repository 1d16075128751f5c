package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := readConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)

	require.Equal(t, "America/Los_Angeles", cfg.Timezone)
	require.Equal(t, 7, cfg.Days)
	require.Equal(t, 1, cfg.Workers)
	require.Equal(t, "@every 30m", cfg.Schedule)
	require.Equal(t, PacingConfig{DateMs: 1500, CourseMs: 2500}, cfg.Pacing)
	require.Equal(t, 45*time.Second, cfg.navigationTimeout())
	require.False(t, cfg.KeepStaleOnError)
	require.True(t, cfg.sessionConfig().Browser.Headless)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "teetimes.db", cfg.Database.File)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// shared settings
		days: 3,
		browser: { headless: false },
		database: { driver: "postgres", dsn: "postgres://localhost/teetimes" },
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		days: 5,
		keep_stale_on_error: true,
	}`), 0644))

	cfg, err := readConfig(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Days)
	require.True(t, cfg.KeepStaleOnError)
	require.False(t, cfg.sessionConfig().Browser.Headless)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Empty(t, cfg.Database.File)
}

func TestReadConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		name   string
		config string
	}{
		{name: "timezone", config: `{timezone: "Mars/Olympus_Mons"}`},
		{name: "workers", config: `{workers: -2}`},
		{name: "schedule", config: `{schedule: "whenever"}`},
		{name: "driver", config: `{database: {driver: "mysql"}}`},
		{name: "pacing", config: `{pacing: {date_ms: -1}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json5")
			require.NoError(t, os.WriteFile(path, []byte(c.config), 0644))
			_, err := readConfig(path)
			require.Error(t, err)
		})
	}
}
