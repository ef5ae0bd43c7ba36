package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data/pf_result", cfg.Paths.InputDir)
	assert.Equal(t, "data/results", cfg.Paths.OutputDir)
	assert.Equal(t, "data/city_list", cfg.Paths.CityListDir)
	assert.Equal(t, "data/precip_csv", cfg.Paths.PrecipDir)
	assert.Equal(t, "data/all_points_dhs_prep.csv", cfg.Paths.StatsFile)
	assert.Equal(t, 99.9, cfg.Pipeline.Percentile)
	assert.Equal(t, 1.0, cfg.Pipeline.WetDayThreshold)
	assert.Equal(t, 1981, cfg.Pipeline.MinYear)
	assert.Equal(t, 12, cfg.Pipeline.LookbackMonths)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 1980, cfg.Pipeline.HistFromYear)
	assert.Equal(t, 2020, cfg.Pipeline.HistToYear)
	assert.Equal(t, MissFailFile, cfg.Pipeline.OnLookupMiss)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exposure.yaml")
	content := `
paths:
  input_dir: /srv/dhs/in
  output_dir: /srv/dhs/out
pipeline:
  wet_day_threshold: 0.5
  workers: 16
  on_lookup_miss: skip-record
logging:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/dhs/in", cfg.Paths.InputDir)
	assert.Equal(t, "/srv/dhs/out", cfg.Paths.OutputDir)
	// Untouched values keep their defaults.
	assert.Equal(t, "data/city_list", cfg.Paths.CityListDir)
	assert.Equal(t, 0.5, cfg.Pipeline.WetDayThreshold)
	assert.Equal(t, 16, cfg.Pipeline.Workers)
	assert.Equal(t, MissSkipRecord, cfg.Pipeline.OnLookupMiss)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exposure.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  workers: 4\n"), 0o644))

	t.Setenv("EXPOSURE_PIPELINE_WORKERS", "32")
	t.Setenv("EXPOSURE_PIPELINE_WET_DAY_THRESHOLD", "2.0")
	t.Setenv("EXPOSURE_PATHS_INPUT_DIR", "/env/in")
	t.Setenv("EXPOSURE_METRICS_ADDR", ":9108")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Pipeline.Workers)
	assert.Equal(t, 2.0, cfg.Pipeline.WetDayThreshold)
	assert.Equal(t, "/env/in", cfg.Paths.InputDir)
	assert.Equal(t, ":9108", cfg.Metrics.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }, "workers"},
		{"negative wet-day threshold", func(c *Config) { c.Pipeline.WetDayThreshold = -1 }, "wet_day_threshold"},
		{"zero lookback", func(c *Config) { c.Pipeline.LookbackMonths = 0 }, "lookback_months"},
		{"inverted historical period", func(c *Config) { c.Pipeline.HistFromYear = 2021 }, "hist_from_year"},
		{"percentile out of range", func(c *Config) { c.Pipeline.Percentile = 100 }, "percentile"},
		{"unknown miss policy", func(c *Config) { c.Pipeline.OnLookupMiss = "ignore" }, "on_lookup_miss"},
		{"unknown log format", func(c *Config) { c.Logging.Format = "logfmt" }, "logging.format"},
		{"empty input dir", func(c *Config) { c.Paths.InputDir = "" }, "input_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
