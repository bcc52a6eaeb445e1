// Package testutil provides test helpers shared across packages.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/mcp-weather-server/internal/weather"
)

var _ weather.Client = (*FakeWeather)(nil)

// FakeWeather is a scriptable weather.Client that records every call.
// Nil hooks answer with CurrentFor / ForecastFor.
type FakeWeather struct {
	Current  func(ctx context.Context, city string) (weather.CurrentSnapshot, error)
	Forecast func(ctx context.Context, city string) (weather.Forecast, error)

	mu    sync.Mutex
	calls []string
}

func (f *FakeWeather) FetchCurrent(ctx context.Context, city string) (weather.CurrentSnapshot, error) {
	f.record("current:" + city)
	if f.Current != nil {
		return f.Current(ctx, city)
	}
	return CurrentFor(city), nil
}

func (f *FakeWeather) FetchForecast(ctx context.Context, city string) (weather.Forecast, error) {
	f.record("forecast:" + city)
	if f.Forecast != nil {
		return f.Forecast(ctx, city)
	}
	return ForecastFor(city), nil
}

// Calls returns the recorded calls as "current:<city>" / "forecast:<city>".
func (f *FakeWeather) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeWeather) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// CurrentFor returns a fixed snapshot for city.
func CurrentFor(city string) weather.CurrentSnapshot {
	return weather.CurrentSnapshot{
		City:        city,
		Country:     "XX",
		Temperature: 21.5,
		FeelsLike:   20.9,
		Condition:   "scattered clouds",
		Humidity:    48,
		WindSpeed:   3.6,
		Timestamp:   time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}
}

// ForecastFor returns a fixed five-day forecast for city.
func ForecastFor(city string) weather.Forecast {
	days := make([]weather.DailyForecast, 0, weather.ForecastDays)
	base := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < weather.ForecastDays; i++ {
		days = append(days, weather.DailyForecast{
			Date:      base.AddDate(0, 0, i).Format("2006-01-02"),
			TempMin:   10 + float64(i),
			TempMax:   18 + float64(i),
			Condition: "light rain",
		})
	}
	return weather.Forecast{City: city, Country: "XX", Days: days}
}

// CityNotFound answers every call with an UpstreamCityNotFound error.
func CityNotFound() *FakeWeather {
	return &FakeWeather{
		Current: func(_ context.Context, city string) (weather.CurrentSnapshot, error) {
			return weather.CurrentSnapshot{}, &weather.UpstreamError{Kind: weather.UpstreamCityNotFound, City: city}
		},
		Forecast: func(_ context.Context, city string) (weather.Forecast, error) {
			return weather.Forecast{}, &weather.UpstreamError{Kind: weather.UpstreamCityNotFound, City: city}
		},
	}
}
