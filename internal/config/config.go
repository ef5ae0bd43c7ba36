package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// MissPolicy decides what happens when a record's mapping or
// reference-statistics row is absent from its table.
type MissPolicy string

const (
	// MissFailFile aborts the whole input file, matching the historical
	// behavior of the pipeline.
	MissFailFile MissPolicy = "fail-file"
	// MissSkipRecord drops only the affected record and keeps going.
	MissSkipRecord MissPolicy = "skip-record"
)

// Config holds all pipeline settings. Values come from the built-in
// defaults, overridden by an optional YAML file, overridden by EXPOSURE_*
// environment variables.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
}

// PathsConfig locates the input tables, reference tables, and outputs.
type PathsConfig struct {
	// InputDir holds the per-survey mortality tables to augment.
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DIR"`
	// OutputDir is the base directory; each pipeline writes into its own
	// subdirectory beneath it, mirroring input file names.
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	// CityListDir holds one mapping table per survey (DHSID → city id).
	CityListDir string `yaml:"city_list_dir" envconfig:"CITY_LIST_DIR"`
	// PrecipDir holds per-location daily precipitation tables, grouped in
	// one subdirectory per survey.
	PrecipDir string `yaml:"precip_dir" envconfig:"PRECIP_DIR"`
	// StatsFile is the global reference-statistics table keyed by DHSID.
	StatsFile string `yaml:"stats_file" envconfig:"STATS_FILE"`
}

// PipelineConfig carries the aggregation parameters.
type PipelineConfig struct {
	Percentile      float64    `yaml:"percentile" envconfig:"PERCENTILE"`
	WetDayThreshold float64    `yaml:"wet_day_threshold" envconfig:"WET_DAY_THRESHOLD"`
	MinYear         int        `yaml:"min_year" envconfig:"MIN_YEAR"`
	LookbackMonths  int        `yaml:"lookback_months" envconfig:"LOOKBACK_MONTHS"`
	Workers         int        `yaml:"workers" envconfig:"WORKERS"`
	HistFromYear    int        `yaml:"hist_from_year" envconfig:"HIST_FROM_YEAR"`
	HistToYear      int        `yaml:"hist_to_year" envconfig:"HIST_TO_YEAR"`
	OnLookupMiss    MissPolicy `yaml:"on_lookup_miss" envconfig:"ON_LOOKUP_MISS"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// MetricsConfig controls the optional metrics/health endpoint. An empty
// address leaves it disabled, which is the normal mode for batch runs.
type MetricsConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// Default returns the built-in configuration, mirroring the layout and
// parameters of the reference pipeline.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			InputDir:    "data/pf_result",
			OutputDir:   "data/results",
			CityListDir: "data/city_list",
			PrecipDir:   "data/precip_csv",
			StatsFile:   "data/all_points_dhs_prep.csv",
		},
		Pipeline: PipelineConfig{
			Percentile:      99.9,
			WetDayThreshold: 1.0,
			MinYear:         1981,
			LookbackMonths:  12,
			Workers:         8,
			HistFromYear:    1980,
			HistToYear:      2020,
			OnLookupMiss:    MissFailFile,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path if one
// is given and exists, then EXPOSURE_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("EXPOSURE", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the pipelines cannot run with.
func (c *Config) Validate() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir is required")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir is required")
	}
	if c.Paths.CityListDir == "" {
		return errors.New("paths.city_list_dir is required")
	}
	if c.Paths.PrecipDir == "" {
		return errors.New("paths.precip_dir is required")
	}
	if c.Pipeline.Percentile <= 0 || c.Pipeline.Percentile >= 100 {
		return fmt.Errorf("pipeline.percentile must be in (0, 100), got %g", c.Pipeline.Percentile)
	}
	if c.Pipeline.WetDayThreshold < 0 {
		return fmt.Errorf("pipeline.wet_day_threshold must be non-negative, got %g", c.Pipeline.WetDayThreshold)
	}
	if c.Pipeline.MinYear < 1 {
		return fmt.Errorf("pipeline.min_year must be positive, got %d", c.Pipeline.MinYear)
	}
	if c.Pipeline.LookbackMonths < 1 {
		return fmt.Errorf("pipeline.lookback_months must be positive, got %d", c.Pipeline.LookbackMonths)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.HistFromYear > c.Pipeline.HistToYear {
		return fmt.Errorf("pipeline.hist_from_year %d is after hist_to_year %d",
			c.Pipeline.HistFromYear, c.Pipeline.HistToYear)
	}
	switch c.Pipeline.OnLookupMiss {
	case MissFailFile, MissSkipRecord:
	default:
		return fmt.Errorf("pipeline.on_lookup_miss must be %q or %q, got %q",
			MissFailFile, MissSkipRecord, c.Pipeline.OnLookupMiss)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}
