package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/rainfall-exposure-etl/internal/domain"
	"github.com/couchcryptid/rainfall-exposure-etl/internal/loader"
)

// Augmenter computes the derived columns one pipeline appends to a record.
// Implementations are used by a single file driver at a time and need no
// locking.
type Augmenter interface {
	// Columns returns the derived column headers in output order.
	Columns() []string
	// Augment computes the derived values for one record, aligned with
	// Columns. stats is the record's reference-statistics row and found
	// reports whether the table had one.
	Augment(ref time.Time, series *domain.DailySeries, stats loader.RefStats, found bool) ([]string, error)
}

// ExtremeAugmenter appends the 99.9th-percentile extreme-precipitation
// metrics: per-month exceeding-day counts, excess sums, relative intensity,
// and the annual day and excess totals.
type ExtremeAugmenter struct {
	Lookback int
}

func (a *ExtremeAugmenter) Columns() []string {
	cols := make([]string, 0, 3*a.Lookback+2)
	for _, metric := range []string{"days", "excess", "intensity"} {
		for m := 1; m <= a.Lookback; m++ {
			cols = append(cols, fmt.Sprintf("p999_%s_%d", metric, m))
		}
	}
	return append(cols, "p999_annual_days", "p999_annual_excess")
}

func (a *ExtremeAugmenter) Augment(ref time.Time, series *domain.DailySeries, stats loader.RefStats, found bool) ([]string, error) {
	if !found || !stats.HasThreshold {
		return nil, fmt.Errorf("extreme threshold: %w", loader.ErrStatsNotFound)
	}

	avgPrecip := series.WetMean()
	months := make([]domain.ExtremeMonth, a.Lookback)
	var annualDays int
	var annualExcess float64
	for m := 1; m <= a.Lookback; m++ {
		em := domain.ExtremePrecip(series, domain.MonthsBefore(ref, m), stats.Threshold, avgPrecip)
		months[m-1] = em
		annualDays += em.Days
		annualExcess += em.Excess
	}

	values := make([]string, 0, 3*a.Lookback+2)
	for _, em := range months {
		values = append(values, strconv.Itoa(em.Days))
	}
	for _, em := range months {
		values = append(values, formatFloat(em.Excess))
	}
	for _, em := range months {
		values = append(values, formatFloat(em.Intensity))
	}
	return append(values, strconv.Itoa(annualDays), formatFloat(annualExcess)), nil
}

// RSDAugmenter appends standardized rainfall deviations: per-month RSD,
// running cumulative sums, the annual (12-month) value, and its positive and
// negative parts. Locations absent from the reference-statistics table fall
// back to climatology computed from their own series over the historical
// period; the computed statistics are cached per series so every record
// sharing the location pays the cost once.
type RSDAugmenter struct {
	Lookback     int
	HistFromYear int
	HistToYear   int

	computed map[*domain.DailySeries]domain.HistStats
}

func (a *RSDAugmenter) Columns() []string {
	cols := make([]string, 0, 2*a.Lookback+3)
	for m := 1; m <= a.Lookback; m++ {
		cols = append(cols, fmt.Sprintf("rsd_month_%d", m))
	}
	for m := 1; m <= a.Lookback; m++ {
		cols = append(cols, fmt.Sprintf("rsd_cumulative_%d", m))
	}
	return append(cols, "rsd_annual", "rsd_positive", "rsd_negative")
}

func (a *RSDAugmenter) Augment(ref time.Time, series *domain.DailySeries, stats loader.RefStats, found bool) ([]string, error) {
	hist := a.histStats(series, stats, found)
	monthly, cumulative := domain.LookbackRSD(series, ref, a.Lookback, hist)

	annual := cumulative[a.Lookback-1]
	var positive, negative float64
	if annual > 0 {
		positive = annual
	}
	if annual < 0 {
		negative = annual
	}

	values := make([]string, 0, 2*a.Lookback+3)
	for _, v := range monthly {
		values = append(values, formatFloat(v))
	}
	for _, v := range cumulative {
		values = append(values, formatFloat(v))
	}
	return append(values, formatFloat(annual), formatFloat(positive), formatFloat(negative)), nil
}

func (a *RSDAugmenter) histStats(series *domain.DailySeries, stats loader.RefStats, found bool) domain.HistStats {
	if found && stats.HasHist {
		return stats.Hist
	}
	if hist, ok := a.computed[series]; ok {
		return hist
	}
	hist := domain.ComputeHistStats(series, a.HistFromYear, a.HistToYear)
	if a.computed == nil {
		a.computed = make(map[*domain.DailySeries]domain.HistStats)
	}
	a.computed[series] = hist
	return hist
}

// WetDaysAugmenter appends per-month wet-day counts and their annual sum.
// It needs no reference statistics.
type WetDaysAugmenter struct {
	Lookback  int
	Threshold float64
}

func (a *WetDaysAugmenter) Columns() []string {
	cols := make([]string, 0, a.Lookback+1)
	for m := 1; m <= a.Lookback; m++ {
		cols = append(cols, fmt.Sprintf("wet_days_%d", m))
	}
	return append(cols, "wet_days_annual")
}

func (a *WetDaysAugmenter) Augment(ref time.Time, series *domain.DailySeries, _ loader.RefStats, _ bool) ([]string, error) {
	values := make([]string, 0, a.Lookback+1)
	var annual int
	for m := 1; m <= a.Lookback; m++ {
		n := domain.WetDays(series, domain.MonthsBefore(ref, m), a.Threshold)
		annual += n
		values = append(values, strconv.Itoa(n))
	}
	return append(values, strconv.Itoa(annual)), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
