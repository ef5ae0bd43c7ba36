package domain

import (
	"math"
	"time"
)

// HistStats is the historical climatology the RSD aggregator requires:
// mean monthly totals per calendar month, the sample standard deviation of
// monthly totals pooled across all calendar months, and the mean yearly
// total. Values are usually loaded from the precomputed reference table and
// computed from the raw series only when a location is missing there.
type HistStats struct {
	MonthlyMean map[time.Month]float64
	MonthlyStd  float64
	AnnualMean  float64
}

// ComputeHistStats derives climatology from a daily series restricted to the
// historical period [fromYear, toYear], both inclusive. Monthly totals are
// grouped by (year, month); only months actually present in the series form
// groups. The pooled standard deviation is the sample (n−1) deviation of all
// monthly totals and is 0 when fewer than two months of history exist.
func ComputeHistStats(s *DailySeries, fromYear, toYear int) HistStats {
	monthSums := make(map[time.Month]float64)
	monthCounts := make(map[time.Month]int)
	yearTotals := make(map[int]float64)

	var all []float64
	s.monthKeys(fromYear, toYear, func(k MonthKey, total float64) {
		monthSums[k.Month] += total
		monthCounts[k.Month]++
		yearTotals[k.Year] += total
		all = append(all, total)
	})

	stats := HistStats{MonthlyMean: make(map[time.Month]float64, 12)}
	for m := time.January; m <= time.December; m++ {
		if n := monthCounts[m]; n > 0 {
			stats.MonthlyMean[m] = monthSums[m] / float64(n)
		}
	}

	stats.MonthlyStd = sampleStd(all)

	if len(yearTotals) > 0 {
		var sum float64
		for _, t := range yearTotals {
			sum += t
		}
		stats.AnnualMean = sum / float64(len(yearTotals))
	}

	return stats
}

// Degenerate reports whether the statistics cannot support an RSD
// computation. Dependent metrics are defined as 0 in that case.
func (h HistStats) Degenerate() bool {
	return h.MonthlyStd == 0 || h.AnnualMean == 0
}

// sampleStd is the n−1 standard deviation, 0 for fewer than two values.
func sampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
