package domain

// ExtremeMonth holds the extreme-precipitation metrics for one calendar month.
type ExtremeMonth struct {
	Days      int     // days strictly above the threshold
	Excess    float64 // Σ exceeding values − threshold × Days
	Intensity float64 // Excess / mean wet-day precipitation
}

// ExtremePrecip computes the extreme-precipitation metrics for one calendar
// month of the series. threshold is the location's percentile threshold
// (99.9th by convention) and avgPrecip the mean wet-day precipitation used
// as the intensity denominator, normally series.WetMean(). A month with no
// exceeding days returns the zero value, and an avgPrecip of 0 or less
// defines the intensity as 0.
func ExtremePrecip(s *DailySeries, k MonthKey, threshold, avgPrecip float64) ExtremeMonth {
	var days int
	var sum float64
	for _, v := range s.Month(k) {
		if v > threshold {
			days++
			sum += v
		}
	}
	if days == 0 {
		return ExtremeMonth{}
	}

	excess := sum - threshold*float64(days)
	var intensity float64
	if avgPrecip > 0 {
		intensity = excess / avgPrecip
	}
	return ExtremeMonth{Days: days, Excess: excess, Intensity: intensity}
}
