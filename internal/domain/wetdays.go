package domain

// WetDays counts the days in one calendar month whose precipitation strictly
// exceeds threshold. The conventional threshold is 1.0 mm.
func WetDays(s *DailySeries, k MonthKey, threshold float64) int {
	var n int
	for _, v := range s.Month(k) {
		if v > threshold {
			n++
		}
	}
	return n
}
