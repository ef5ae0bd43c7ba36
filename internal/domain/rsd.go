package domain

import "time"

// MonthlyRSD computes the standardized rainfall deviation for one calendar
// month:
//
//	((monthly_total − hist_mean[month]) / pooled_std) × (hist_mean[month] / annual_mean)
//
// Degenerate statistics yield 0.0. A calendar month without a historical
// mean (no data in the historical period) contributes a mean of 0.
func MonthlyRSD(s *DailySeries, k MonthKey, stats HistStats) float64 {
	if stats.Degenerate() {
		return 0
	}
	mean := stats.MonthlyMean[k.Month]
	total := s.MonthTotal(k)
	return ((total - mean) / stats.MonthlyStd) * (mean / stats.AnnualMean)
}

// LookbackRSD computes the monthly RSD for each of the n calendar months
// before ref (offset 1 first) together with the running cumulative sums, so
// cumulative[k-1] is the k-month cumulative RSD counted backward from ref.
func LookbackRSD(s *DailySeries, ref time.Time, n int, stats HistStats) (monthly, cumulative []float64) {
	monthly = make([]float64, n)
	cumulative = make([]float64, n)

	var sum float64
	for m := 1; m <= n; m++ {
		rsd := MonthlyRSD(s, MonthsBefore(ref, m), stats)
		sum += rsd
		monthly[m-1] = rsd
		cumulative[m-1] = sum
	}
	return monthly, cumulative
}
