package tools

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/mcp-weather-server/internal/query"
	"github.com/i474232898/mcp-weather-server/internal/testutil"
	"github.com/i474232898/mcp-weather-server/internal/weather"
)

func TestResolve(t *testing.T) {
	assert.Equal(t,
		Call{Tool: CurrentWeather, Args: CityArgs{City: "Lima"}},
		Resolve(query.Interpreted{City: "Lima", Intent: query.IntentCurrent}))
	assert.Equal(t,
		Call{Tool: WeatherForecast, Args: CityArgs{City: "Lima"}},
		Resolve(query.Interpreted{City: "Lima", Intent: query.IntentForecast}))
}

func TestInvokeRoutesToClient(t *testing.T) {
	fake := &testutil.FakeWeather{}

	got, err := Invoke(context.Background(), fake, Call{Tool: CurrentWeather, Args: CityArgs{City: "Lima"}})
	require.NoError(t, err)
	assert.Equal(t, testutil.CurrentFor("Lima"), got)

	got, err = Invoke(context.Background(), fake, Call{Tool: WeatherForecast, Args: CityArgs{City: "Quito"}})
	require.NoError(t, err)
	assert.IsType(t, weather.Forecast{}, got)

	_, err = Invoke(context.Background(), fake, Call{Tool: "get_tides"})
	assert.Error(t, err)

	assert.Equal(t, []string{"current:Lima", "forecast:Quito"}, fake.Calls())
}

func TestInvokePassesCountryCode(t *testing.T) {
	fake := &testutil.FakeWeather{}

	_, err := Invoke(context.Background(), fake, Call{Tool: CurrentWeather, Args: CityArgs{City: "Paris", CountryCode: "US"}})
	require.NoError(t, err)
	_, err = Invoke(context.Background(), fake, Call{Tool: WeatherForecast, Args: CityArgs{City: "Paris", CountryCode: "FR"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"current:Paris,US", "forecast:Paris,FR"}, fake.Calls())
}

func TestDefinitionsSchema(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, CurrentWeather, defs[0].Name)
	assert.Equal(t, WeatherForecast, defs[1].Name)

	raw, err := json.Marshal(defs[0].InputSchema)
	require.NoError(t, err)

	var schema struct {
		Type       string                    `json:"type"`
		Required   []string                  `json:"required"`
		Properties map[string]map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"city"}, schema.Required)
	assert.Equal(t, "string", schema.Properties["city"]["type"])
	require.Contains(t, schema.Properties, "country_code")
	assert.Equal(t, "string", schema.Properties["country_code"]["type"])
}
