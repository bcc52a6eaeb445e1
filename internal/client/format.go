package client

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/i474232898/mcp-weather-server/internal/weather"
)

// Render writes a human-readable report for a weather payload, either a
// current snapshot or a forecast (recognised by its "days" field).
func Render(w io.Writer, data []byte) error {
	var probe struct {
		Days json.RawMessage `json:"days"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode weather data: %w", err)
	}

	if probe.Days != nil {
		var fc weather.Forecast
		if err := json.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("decode forecast: %w", err)
		}
		return FormatForecast(w, fc)
	}

	var snap weather.CurrentSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode current weather: %w", err)
	}
	return FormatCurrent(w, snap)
}

func FormatCurrent(w io.Writer, s weather.CurrentSnapshot) error {
	_, err := fmt.Fprintf(w,
		"Current weather in %s:\nTemperature: %.1f°C\nFeels like: %.1f°C\nHumidity: %.0f%%\nWind speed: %.1f m/s\nConditions: %s\n",
		place(s.City, s.Country), s.Temperature, s.FeelsLike, s.Humidity, s.WindSpeed, s.Condition)
	return err
}

func FormatForecast(w io.Writer, f weather.Forecast) error {
	if _, err := fmt.Fprintf(w, "%d-day forecast for %s:\n", len(f.Days), place(f.City, f.Country)); err != nil {
		return err
	}
	for _, d := range f.Days {
		_, err := fmt.Fprintf(w, "\nDate: %s\nTemperature: %.1f°C to %.1f°C\nConditions: %s\n",
			d.Date, d.TempMin, d.TempMax, d.Condition)
		if err != nil {
			return err
		}
	}
	return nil
}

func place(city, country string) string {
	if country == "" {
		return city
	}
	return city + ", " + country
}
