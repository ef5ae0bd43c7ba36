package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWetDays(t *testing.T) {
	jan := MonthKey{Year: 2020, Month: time.January}

	t.Run("counts days above threshold", func(t *testing.T) {
		s := NewDailySeries([]DailyObservation{
			day(2020, time.January, 5, 15),
			day(2020, time.January, 20, 2),
		})
		assert.Equal(t, 2, WetDays(s, jan, 1.0))
	})

	t.Run("threshold is strict", func(t *testing.T) {
		s := NewDailySeries([]DailyObservation{
			day(2020, time.January, 5, 1.0),
			day(2020, time.January, 6, 1.1),
		})
		assert.Equal(t, 1, WetDays(s, jan, 1.0))
	})

	t.Run("sensitivity threshold", func(t *testing.T) {
		s := NewDailySeries([]DailyObservation{
			day(2020, time.January, 5, 0.7),
			day(2020, time.January, 6, 1.5),
			day(2020, time.January, 7, 3.0),
		})
		assert.Equal(t, 3, WetDays(s, jan, 0.5))
		assert.Equal(t, 1, WetDays(s, jan, 2.0))
	})

	t.Run("empty month", func(t *testing.T) {
		s := NewDailySeries(nil)
		assert.Equal(t, 0, WetDays(s, jan, 1.0))
	})
}
