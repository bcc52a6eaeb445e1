package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/i474232898/mcp-weather-server/internal/weather"
)

const (
	// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	// DefaultTimeout bounds every upstream call unless overridden.
	DefaultTimeout = 5 * time.Second
	// DefaultBreakerThreshold leaves the breaker closed: every call reaches the
	// provider and a slow one reports a timeout. A positive threshold makes
	// calls fail fast as unreachable once that many consecutive calls failed.
	DefaultBreakerThreshold = 0
)

var _ weather.Client = (*OpenWeatherProvider)(nil)

// OpenWeatherProvider implements weather.Client for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

type openWeatherOptions struct {
	baseURL          string
	timeout          time.Duration
	breakerThreshold int
}

// Option configures an OpenWeatherProvider.
type Option func(*openWeatherOptions)

// WithBaseURL points the provider at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(o *openWeatherOptions) {
		o.baseURL = baseURL
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(o *openWeatherOptions) {
		o.timeout = timeout
	}
}

// WithBreakerThreshold sets how many consecutive failures open the circuit
// breaker. Zero disables tripping.
func WithBreakerThreshold(n int) Option {
	return func(o *openWeatherOptions) {
		o.breakerThreshold = n
	}
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, options ...Option) *OpenWeatherProvider {
	opts := &openWeatherOptions{
		baseURL:          DefaultOpenWeatherBaseURL,
		timeout:          DefaultTimeout,
		breakerThreshold: DefaultBreakerThreshold,
	}
	for _, opt := range options {
		opt(opts)
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Timeout: opts.timeout,
		},
		circuit: newCircuitBreaker("openweather", opts.breakerThreshold),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// FetchCurrent returns the current conditions for city.
func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, city string) (weather.CurrentSnapshot, error) {
	var payload struct {
		Name string `json:"name"`
		Dt   int64  `json:"dt"`
		Sys  struct {
			Country string `json:"country"`
		} `json:"sys"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := p.get(ctx, "weather", city, &payload); err != nil {
		return weather.CurrentSnapshot{}, err
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	name := payload.Name
	if name == "" {
		name = city
	}

	var cond string
	if len(payload.Weather) > 0 {
		cond = payload.Weather[0].Description
	}

	return weather.CurrentSnapshot{
		City:        name,
		Country:     payload.Sys.Country,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Condition:   cond,
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
		Timestamp:   ts,
	}, nil
}

// FetchForecast returns up to weather.ForecastDays daily entries for city.
func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, city string) (weather.Forecast, error) {
	var payload struct {
		City struct {
			Name    string `json:"name"`
			Country string `json:"country"`
		} `json:"city"`
		List []struct {
			Dt    int64  `json:"dt"`
			DtTxt string `json:"dt_txt"`
			Main  struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Weather []struct {
				Description string `json:"description"`
			} `json:"weather"`
		} `json:"list"`
	}

	if err := p.get(ctx, "forecast", city, &payload); err != nil {
		return weather.Forecast{}, err
	}

	readings := make([]weather.ForecastReading, 0, len(payload.List))
	for _, item := range payload.List {
		r := weather.ForecastReading{
			Timestamp:    time.Unix(item.Dt, 0).UTC(),
			TemperatureC: item.Main.Temp,
		}
		// dt_txt is "2006-01-02 15:04:05"; the date part is the day bucket.
		if date, _, ok := strings.Cut(item.DtTxt, " "); ok {
			r.Date = date
		}
		if len(item.Weather) > 0 {
			r.Condition = item.Weather[0].Description
		}
		readings = append(readings, r)
	}

	name := payload.City.Name
	if name == "" {
		name = city
	}

	return weather.Forecast{
		City:    name,
		Country: payload.City.Country,
		Days:    weather.AggregateDaily(readings, weather.ForecastDays),
	}, nil
}

func (p *OpenWeatherProvider) get(ctx context.Context, endpoint, city string, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	body, err := doRequest(ctx, p.httpCfg, p.circuit, city, buildRequest)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode openweather %s response: %w", endpoint, err)
	}
	return nil
}
