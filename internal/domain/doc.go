// Package domain models daily precipitation series and the three
// climate-exposure aggregations computed for DHS child-mortality records.
//
// # Data Source
//
// Each DHS survey cluster is matched to the nearest cell of a gridded daily
// precipitation product. Series are distributed as per-location CSV files
// with a "time" column (calendar date) and a "tp" column (total daily
// precipitation in millimetres), spanning 1980 to the present. Series are
// read-only once loaded.
//
// # Lookback Months
//
// Every derived metric is computed per lookback month: the calendar month
// exactly m months (m = 1..12) before a record's reference date. Month
// arithmetic is calendar arithmetic over (year, month) only, never a fixed
// 30-day shift: a reference date of 2020-03-15 at m=1 targets February 2020
// and at m=12 targets March 2019. See [MonthsBefore].
//
// # Extreme Precipitation
//
// Days strictly above the location's 99.9th-percentile daily precipitation
// threshold. Per month: the exceeding-day count, the excess above the
// threshold (Σ exceeding values − threshold × count), and the relative
// intensity (excess divided by the location's mean wet-day precipitation).
// A month with no exceeding days yields exactly (0, 0.0, 0.0).
//
// # Standardized Rainfall Deviation (RSD)
//
//	RSD = ((monthly_total − hist_mean[month]) / pooled_std) × (hist_mean[month] / annual_mean)
//
// hist_mean is the historical mean total for that calendar month, pooled_std
// the sample standard deviation of all historical monthly totals, and
// annual_mean the mean historical yearly total. Degenerate statistics
// (pooled_std == 0 or annual_mean == 0) define the RSD as 0 rather than NaN.
// Historical statistics cover 1980–2020 unless configured otherwise.
//
// # Wet Days
//
// The count of days strictly above a wet-day threshold, 1.0 mm by default.
// The threshold is a tunable sensitivity parameter (0.5 or 2.0 mm are common
// alternatives in the literature).
//
// Reference: He, C., Zhu, Y., Guo, Y., et al. (2025). Rainfall variability
// and under-five child mortality in 59 low- and middle-income countries.
// Nature Water, 3, 881-889. https://doi.org/10.1038/s44221-025-00478-9
package domain
