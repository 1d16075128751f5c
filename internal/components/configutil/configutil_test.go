package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Timezone string `json:"timezone"`
	Days     int    `json:"days"`
	Database struct {
		Driver string `json:"driver"`
		Dsn    string `json:"dsn"`
	} `json:"database"`
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		// comments are fine in json5
		timezone: "America/Los_Angeles",
		days: 7,
		database: { driver: "sqlite", dsn: "teetimes.db" },
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		days: 3,
		database: { dsn: "local.db" },
	}`), 0644))

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "America/Los_Angeles", config.Timezone)
	require.Equal(t, 3, config.Days)
	require.Equal(t, "sqlite", config.Database.Driver)
	require.Equal(t, "local.db", config.Database.Dsn)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}
