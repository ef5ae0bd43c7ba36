package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyRSD(t *testing.T) {
	s := NewDailySeries([]DailyObservation{
		day(2020, time.January, 5, 10),
		day(2020, time.January, 6, 20),
	})
	jan := MonthKey{Year: 2020, Month: time.January}

	t.Run("hand-computed value", func(t *testing.T) {
		stats := HistStats{
			MonthlyMean: map[time.Month]float64{time.January: 20},
			MonthlyStd:  10,
			AnnualMean:  100,
		}
		// ((30 - 20) / 10) * (20 / 100) = 0.2
		assert.InDelta(t, 0.2, MonthlyRSD(s, jan, stats), 1e-12)
	})

	t.Run("zero pooled std", func(t *testing.T) {
		stats := HistStats{
			MonthlyMean: map[time.Month]float64{time.January: 20},
			MonthlyStd:  0,
			AnnualMean:  100,
		}
		assert.Equal(t, 0.0, MonthlyRSD(s, jan, stats))
	})

	t.Run("zero annual mean", func(t *testing.T) {
		stats := HistStats{
			MonthlyMean: map[time.Month]float64{time.January: 20},
			MonthlyStd:  10,
			AnnualMean:  0,
		}
		assert.Equal(t, 0.0, MonthlyRSD(s, jan, stats))
	})

	t.Run("missing monthly mean contributes zero mean", func(t *testing.T) {
		stats := HistStats{
			MonthlyMean: map[time.Month]float64{},
			MonthlyStd:  10,
			AnnualMean:  100,
		}
		// ((30 - 0) / 10) * (0 / 100) = 0
		assert.Equal(t, 0.0, MonthlyRSD(s, jan, stats))
	})
}

func TestLookbackRSD_CumulativeConsistency(t *testing.T) {
	var obs []DailyObservation
	for y := 2018; y <= 2020; y++ {
		for m := time.January; m <= time.December; m++ {
			obs = append(obs, day(y, m, 10, float64(int(m))*3.5))
			obs = append(obs, day(y, m, 20, float64(y-2017)))
		}
	}
	s := NewDailySeries(obs)
	stats := ComputeHistStats(s, 2018, 2020)
	require.False(t, stats.Degenerate())

	ref := time.Date(2020, 9, 14, 0, 0, 0, 0, time.UTC)
	monthly, cumulative := LookbackRSD(s, ref, 12, stats)
	require.Len(t, monthly, 12)
	require.Len(t, cumulative, 12)

	// Cumulative RSD at offset k must equal the sum of the k individually
	// computed monthly values.
	var sum float64
	for k := 0; k < 12; k++ {
		got := MonthlyRSD(s, MonthsBefore(ref, k+1), stats)
		assert.Equal(t, got, monthly[k])
		sum += got
		assert.InDelta(t, sum, cumulative[k], 1e-12)
	}
}

func TestLookbackRSD_DegenerateStats(t *testing.T) {
	s := NewDailySeries([]DailyObservation{day(2020, time.January, 5, 10)})
	monthly, cumulative := LookbackRSD(s, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), 12, HistStats{})

	for i := 0; i < 12; i++ {
		assert.Equal(t, 0.0, monthly[i])
		assert.Equal(t, 0.0, cumulative[i])
	}
}

func TestComputeHistStats(t *testing.T) {
	obs := []DailyObservation{
		// 1980: Jan 10, Feb 20.
		day(1980, time.January, 5, 4),
		day(1980, time.January, 6, 6),
		day(1980, time.February, 5, 20),
		// 1981: Jan 30, Feb 40.
		day(1981, time.January, 5, 30),
		day(1981, time.February, 5, 40),
		// Outside the historical period, must be ignored.
		day(1979, time.December, 1, 999),
		day(2021, time.March, 1, 999),
	}
	stats := ComputeHistStats(NewDailySeries(obs), 1980, 2020)

	wantMeans := map[time.Month]float64{
		time.January:  20,
		time.February: 30,
	}
	if diff := cmp.Diff(wantMeans, stats.MonthlyMean); diff != "" {
		t.Errorf("monthly means mismatch (-want +got):\n%s", diff)
	}

	// Monthly totals pooled: [10, 20, 30, 40] → sample std sqrt(500/3).
	assert.InDelta(t, 12.909944487358056, stats.MonthlyStd, 1e-9)
	// Annual totals: 30 (1980) and 70 (1981) → mean 50.
	assert.InDelta(t, 50.0, stats.AnnualMean, 1e-12)
	assert.False(t, stats.Degenerate())
}

func TestComputeHistStats_SingleMonth(t *testing.T) {
	stats := ComputeHistStats(NewDailySeries([]DailyObservation{
		day(1990, time.June, 1, 12),
	}), 1980, 2020)

	// One monthly total cannot produce a sample deviation.
	assert.Equal(t, 0.0, stats.MonthlyStd)
	assert.True(t, stats.Degenerate())
}
