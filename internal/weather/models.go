package weather

import (
	"time"
)

// ForecastDays is the number of daily entries a Forecast carries at most.
const ForecastDays = 5

// CurrentSnapshot is the normalized view of current conditions for a city.
type CurrentSnapshot struct {
	City        string    `json:"city"`
	Country     string    `json:"country,omitempty"`
	Temperature float64   `json:"temperatureC"`
	FeelsLike   float64   `json:"feelsLikeC"`
	Condition   string    `json:"condition"`
	Humidity    float64   `json:"humidityPercent"`
	WindSpeed   float64   `json:"windSpeedMs"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
}

// DailyForecast summarizes one calendar day of a forecast.
type DailyForecast struct {
	Date      string  `json:"date"` // 2006-01-02
	TempMin   float64 `json:"temperatureMinC"`
	TempMax   float64 `json:"temperatureMaxC"`
	Condition string  `json:"condition"`
}

// Forecast is a multi-day forecast. Days are ordered by date ascending.
type Forecast struct {
	City    string          `json:"city"`
	Country string          `json:"country,omitempty"`
	Days    []DailyForecast `json:"days"`
}

// ForecastReading is a single point-in-time entry of a provider forecast
// that can be aggregated into a DailyForecast.
type ForecastReading struct {
	Timestamp    time.Time
	Date         string // provider-local calendar date, may be empty
	TemperatureC float64
	Condition    string
}
