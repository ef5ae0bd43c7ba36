package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/rainfall-exposure-etl/internal/config"
	"github.com/couchcryptid/rainfall-exposure-etl/internal/loader"
	"github.com/couchcryptid/rainfall-exposure-etl/internal/observability"
)

// Kind names one of the three exposure pipelines.
type Kind string

const (
	KindExtreme Kind = "extreme"
	KindRSD     Kind = "rsd"
	KindWetDays Kind = "wetdays"
)

// Kinds lists every pipeline in canonical run order.
func Kinds() []Kind {
	return []Kind{KindExtreme, KindRSD, KindWetDays}
}

// ParseKind validates a pipeline name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindExtreme, KindRSD, KindWetDays:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown pipeline %q (want extreme, rsd, or wetdays)", s)
}

func (k Kind) String() string { return string(k) }

// OutputSubdir names the pipeline's directory under the base output
// directory, mirroring the layout of the reference implementation.
func (k Kind) OutputSubdir() string {
	switch k {
	case KindExtreme:
		return "pf_p999_results"
	case KindRSD:
		return "pf_rsd_results"
	case KindWetDays:
		return "pf_wetdays_results"
	}
	return string(k)
}

// NewKindRunner builds the Runner for one pipeline kind. The returned
// runner's driver factory re-reads the reference tables per file, matching
// the share-nothing worker model.
func NewKindRunner(kind Kind, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	newDriver := func() (*Driver, error) {
		resolver := loader.NewResolver(cfg.Paths.CityListDir, cfg.Paths.PrecipDir)

		var stats *loader.StatsTable
		var augmenter Augmenter

		thresholdCol := loader.ThresholdColumn(cfg.Pipeline.Percentile)

		switch kind {
		case KindExtreme:
			// The extreme pipeline has no fallback: thresholds exist only in
			// the reference table.
			table, err := loader.LoadStatsTable(cfg.Paths.StatsFile, thresholdCol)
			if err != nil {
				return nil, err
			}
			stats = table
			augmenter = &ExtremeAugmenter{Lookback: cfg.Pipeline.LookbackMonths}

		case KindRSD:
			// RSD computes climatology from the raw series when the table is
			// unavailable, so a missing table degrades instead of failing.
			table, err := loader.LoadStatsTable(cfg.Paths.StatsFile, thresholdCol)
			if err != nil {
				logger.Warn("reference statistics unavailable, computing climatology from series",
					"stats_file", cfg.Paths.StatsFile, "error", err)
			} else {
				stats = table
			}
			augmenter = &RSDAugmenter{
				Lookback:     cfg.Pipeline.LookbackMonths,
				HistFromYear: cfg.Pipeline.HistFromYear,
				HistToYear:   cfg.Pipeline.HistToYear,
			}

		case KindWetDays:
			augmenter = &WetDaysAugmenter{
				Lookback:  cfg.Pipeline.LookbackMonths,
				Threshold: cfg.Pipeline.WetDayThreshold,
			}
		}

		driver := NewDriver(resolver, stats, augmenter,
			cfg.Pipeline.MinYear, cfg.Pipeline.OnLookupMiss,
			logger.With("pipeline", kind.String()), metrics)
		return driver, nil
	}

	return NewRunner(cfg.Pipeline.Workers, newDriver, logger.With("pipeline", kind.String()), metrics)
}
