package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int, mm float64) DailyObservation {
	return DailyObservation{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Precip: mm}
}

func TestMonthsBefore(t *testing.T) {
	tests := []struct {
		name      string
		ref       time.Time
		m         int
		wantYear  int
		wantMonth time.Month
	}{
		{"one month back", time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC), 1, 2020, time.February},
		{"twelve months back", time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC), 12, 2019, time.March},
		{"across year boundary", time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), 1, 2019, time.December},
		{"end of month does not shift", time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC), 1, 2020, time.February},
		{"six months back", time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC), 6, 2014, time.August},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthsBefore(tt.ref, tt.m)
			assert.Equal(t, tt.wantYear, got.Year)
			assert.Equal(t, tt.wantMonth, got.Month)
		})
	}
}

func TestDailySeries_MonthIndex(t *testing.T) {
	s := NewDailySeries([]DailyObservation{
		day(2020, time.January, 5, 15),
		day(2020, time.January, 20, 2),
		day(2020, time.February, 1, 7),
	})

	jan := MonthKey{Year: 2020, Month: time.January}
	require.Len(t, s.Month(jan), 2)
	assert.Equal(t, 17.0, s.MonthTotal(jan))
	assert.Equal(t, 7.0, s.MonthTotal(MonthKey{Year: 2020, Month: time.February}))
	assert.Nil(t, s.Month(MonthKey{Year: 2020, Month: time.March}))
	assert.Equal(t, 0.0, s.MonthTotal(MonthKey{Year: 2020, Month: time.March}))
	assert.Equal(t, 3, s.Len())
}

func TestDailySeries_WetMean(t *testing.T) {
	s := NewDailySeries([]DailyObservation{
		day(2020, time.January, 1, 0),
		day(2020, time.January, 2, 10),
		day(2020, time.January, 3, 30),
	})
	// Dry days are excluded from the mean.
	assert.Equal(t, 20.0, s.WetMean())
}

func TestDailySeries_WetMean_AllDry(t *testing.T) {
	s := NewDailySeries([]DailyObservation{
		day(2020, time.January, 1, 0),
		day(2020, time.January, 2, 0),
	})
	assert.Equal(t, 0.0, s.WetMean())
}
