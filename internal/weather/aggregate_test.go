package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func reading(date string, temp float64, cond string) ForecastReading {
	return ForecastReading{Date: date, TemperatureC: temp, Condition: cond}
}

func TestAggregateDailyMinMaxAndMajority(t *testing.T) {
	got := AggregateDaily([]ForecastReading{
		reading("2026-10-15", 14, "clouds"),
		reading("2026-10-15", 9, "rain"),
		reading("2026-10-15", 17, "rain"),
		reading("2026-10-16", 11, "clear sky"),
		reading("2026-10-16", 13, "snow"),
	}, ForecastDays)

	assert.Equal(t, []DailyForecast{
		{Date: "2026-10-15", TempMin: 9, TempMax: 17, Condition: "rain"},
		// tie: the first condition seen wins
		{Date: "2026-10-16", TempMin: 11, TempMax: 13, Condition: "clear sky"},
	}, got)
}

func TestAggregateDailyCapsDays(t *testing.T) {
	var readings []ForecastReading
	base := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	for i := range 8 {
		readings = append(readings, reading(base.AddDate(0, 0, i).Format("2006-01-02"), float64(i), "clouds"))
	}

	got := AggregateDaily(readings, ForecastDays)

	assert.Len(t, got, ForecastDays)
	assert.Equal(t, "2026-10-15", got[0].Date)
	assert.Equal(t, "2026-10-19", got[ForecastDays-1].Date)
}

func TestAggregateDailyFallsBackToUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	got := AggregateDaily([]ForecastReading{
		{Timestamp: time.Date(2026, 10, 16, 1, 0, 0, 0, loc), TemperatureC: 5, Condition: "fog"},
	}, ForecastDays)

	assert.Equal(t, []DailyForecast{{Date: "2026-10-15", TempMin: 5, TempMax: 5, Condition: "fog"}}, got)
}

func TestAggregateDailyEmpty(t *testing.T) {
	assert.Empty(t, AggregateDaily(nil, ForecastDays))
	assert.Empty(t, AggregateDaily([]ForecastReading{reading("2026-10-15", 1, "x")}, 0))
}
