// Package tools defines the two weather tools an interpreted query resolves to.
package tools

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/i474232898/mcp-weather-server/internal/query"
	"github.com/i474232898/mcp-weather-server/internal/weather"
)

const (
	CurrentWeather  = "get_current_weather"
	WeatherForecast = "get_weather_forecast"
)

// CityArgs are the arguments both tools accept. Units are always metric.
type CityArgs struct {
	City        string `json:"city" jsonschema:"required,minLength=1,description=The city to get weather for"`
	CountryCode string `json:"country_code,omitempty" jsonschema:"minLength=2,maxLength=2,description=Optional ISO 3166 country code to disambiguate the city"`
}

// Location is the provider query for the arguments: "city" or "city,cc".
func (a CityArgs) Location() string {
	if a.CountryCode == "" {
		return a.City
	}
	return a.City + "," + a.CountryCode
}

// Definition describes a tool and the JSON Schema of its arguments.
type Definition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// Definitions lists the tools in a stable order.
func Definitions() []Definition {
	schema := argsSchema()
	return []Definition{
		{
			Name:        CurrentWeather,
			Description: "Get current weather information for a city.",
			InputSchema: schema,
		},
		{
			Name:        WeatherForecast,
			Description: "Get a 5-day weather forecast for a city.",
			InputSchema: schema,
		},
	}
}

func argsSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	return r.Reflect(&CityArgs{})
}

// Call is a resolved tool invocation.
type Call struct {
	Tool string
	Args CityArgs
}

// Resolve maps an interpreted query to its tool call.
func Resolve(q query.Interpreted) Call {
	tool := CurrentWeather
	if q.Intent == query.IntentForecast {
		tool = WeatherForecast
	}
	return Call{Tool: tool, Args: CityArgs{City: q.City}}
}

// Invoke runs call against client and returns the weather result
// (weather.CurrentSnapshot or weather.Forecast).
func Invoke(ctx context.Context, client weather.Client, call Call) (any, error) {
	switch call.Tool {
	case CurrentWeather:
		return client.FetchCurrent(ctx, call.Args.Location())
	case WeatherForecast:
		return client.FetchForecast(ctx, call.Args.Location())
	default:
		return nil, fmt.Errorf("unknown tool %q", call.Tool)
	}
}
