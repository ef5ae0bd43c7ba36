package domain

import "time"

// DailyObservation is a single day of precipitation at one location.
type DailyObservation struct {
	Date   time.Time
	Precip float64 // mm
}

// MonthKey identifies one calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthsBefore returns the calendar month exactly m months before t.
// Only the year and month of t participate, so end-of-month dates never
// shift the result the way day-preserving date arithmetic would
// (2020-03-31 minus one month is February 2020, not early March).
func MonthsBefore(t time.Time, m int) MonthKey {
	idx := t.Year()*12 + int(t.Month()) - 1 - m
	return MonthKey{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// DailySeries is a read-only daily precipitation series for one location,
// indexed by calendar month at construction. The index lets the 12 lookback
// aggregations, and every record sharing the location, reuse the same
// grouping instead of rescanning the full multi-decade series per call.
type DailySeries struct {
	byMonth map[MonthKey][]float64
	totals  map[MonthKey]float64
	wetMean float64
	days    int
}

// NewDailySeries builds the month index over the given observations.
func NewDailySeries(obs []DailyObservation) *DailySeries {
	s := &DailySeries{
		byMonth: make(map[MonthKey][]float64),
		totals:  make(map[MonthKey]float64),
		days:    len(obs),
	}

	var wetSum float64
	var wetDays int
	for _, o := range obs {
		k := MonthKey{Year: o.Date.Year(), Month: o.Date.Month()}
		s.byMonth[k] = append(s.byMonth[k], o.Precip)
		s.totals[k] += o.Precip
		if o.Precip > 0 {
			wetSum += o.Precip
			wetDays++
		}
	}
	if wetDays > 0 {
		s.wetMean = wetSum / float64(wetDays)
	}
	return s
}

// Month returns the daily precipitation values recorded in the given
// calendar month, or nil when the series has no data for it.
func (s *DailySeries) Month(k MonthKey) []float64 {
	return s.byMonth[k]
}

// MonthTotal returns the total precipitation for the given calendar month.
// Months absent from the series total 0.
func (s *DailySeries) MonthTotal(k MonthKey) float64 {
	return s.totals[k]
}

// WetMean is the mean precipitation over all strictly positive days of the
// whole series. It is the denominator of the extreme-precipitation relative
// intensity. Returns 0 for a series with no wet days.
func (s *DailySeries) WetMean() float64 {
	return s.wetMean
}

// Len reports the number of daily observations in the series.
func (s *DailySeries) Len() int {
	return s.days
}

// monthKeys iterates the indexed months whose year falls inside
// [fromYear, toYear], calling fn with each month and its total.
func (s *DailySeries) monthKeys(fromYear, toYear int, fn func(k MonthKey, total float64)) {
	for k, total := range s.totals {
		if k.Year >= fromYear && k.Year <= toYear {
			fn(k, total)
		}
	}
}
