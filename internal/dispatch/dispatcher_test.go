package dispatch

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/mcp-weather-server/internal/protocol"
	"github.com/i474232898/mcp-weather-server/internal/query"
	"github.com/i474232898/mcp-weather-server/internal/session"
	"github.com/i474232898/mcp-weather-server/internal/testutil"
	"github.com/i474232898/mcp-weather-server/internal/weather"
)

func boolPtr(b bool) *bool { return &b }

func newDispatcher(client weather.Client) (*Dispatcher, *session.Registry) {
	reg := session.NewRegistry(time.Minute, 5*time.Minute)
	return New(reg, client), reg
}

func TestDispatchSyncCurrent(t *testing.T) {
	fake := &testutil.FakeWeather{}
	d, _ := newDispatcher(fake)

	env := d.Dispatch(context.Background(), protocol.Request{Query: "New York", Stream: boolPtr(false)})

	assert.Equal(t, protocol.StatusOK, env.Status)
	assert.Equal(t, "current", env.Intent)
	assert.Equal(t, "New York", env.City)
	assert.Equal(t, testutil.CurrentFor("New York"), env.Data)
	assert.Equal(t, []string{"current:New York"}, fake.Calls())
}

func TestDispatchSyncForecast(t *testing.T) {
	fake := &testutil.FakeWeather{}
	d, _ := newDispatcher(fake)

	env := d.Dispatch(context.Background(), protocol.Request{Query: "forecast for London", Stream: boolPtr(false)})

	assert.Equal(t, protocol.StatusOK, env.Status)
	assert.Equal(t, "forecast", env.Intent)
	assert.Equal(t, "London", env.City)
	forecast, ok := env.Data.(weather.Forecast)
	require.True(t, ok)
	assert.Len(t, forecast.Days, weather.ForecastDays)
}

func TestDispatchCityNotFound(t *testing.T) {
	d, _ := newDispatcher(testutil.CityNotFound())

	env := d.Dispatch(context.Background(), protocol.Request{Query: "forecast for Atlantis", Stream: boolPtr(false)})

	assert.Equal(t, protocol.StatusError, env.Status)
	assert.Equal(t, protocol.KindCityNotFound, env.Kind)
	assert.Contains(t, env.Message, "Atlantis")
}

func TestDispatchBadRequest(t *testing.T) {
	fake := &testutil.FakeWeather{}
	d, _ := newDispatcher(fake)

	for _, q := range []string{"", "forecast for", "  ?? "} {
		env := d.Dispatch(context.Background(), protocol.Request{Query: q, Stream: boolPtr(false)})
		assert.Equal(t, protocol.StatusError, env.Status, q)
		assert.Equal(t, protocol.KindBadRequest, env.Kind, q)
	}
	// Streaming requests are interpreted before any session exists.
	env := d.Dispatch(context.Background(), protocol.Request{Query: "forecast for", Stream: boolPtr(true)})
	assert.Equal(t, protocol.KindBadRequest, env.Kind)

	assert.Empty(t, fake.Calls())
}

func TestDispatchUpstreamTimeout(t *testing.T) {
	fake := &testutil.FakeWeather{
		Current: func(_ context.Context, city string) (weather.CurrentSnapshot, error) {
			return weather.CurrentSnapshot{}, &weather.UpstreamError{Kind: weather.UpstreamTimeout, City: city, Err: context.DeadlineExceeded}
		},
	}
	d, _ := newDispatcher(fake)

	env := d.Dispatch(context.Background(), protocol.Request{Query: "Paris", Stream: boolPtr(false)})
	assert.Equal(t, protocol.KindUpstreamTimeout, env.Kind)
}

func TestDispatchStreamRegistersWithoutFetching(t *testing.T) {
	fake := &testutil.FakeWeather{}
	d, reg := newDispatcher(fake)

	env := d.Dispatch(context.Background(), protocol.Request{Query: "Paris", Stream: boolPtr(true)})

	assert.Equal(t, protocol.StatusPending, env.Status)
	require.NotEmpty(t, env.SessionID)
	require.NotNil(t, env.ExpiresAt)
	assert.True(t, strings.HasPrefix(env.StreamPath, DefaultStreamPath+"?"))

	u, err := url.Parse(env.StreamPath)
	require.NoError(t, err)
	assert.Equal(t, env.SessionID, u.Query().Get("session_id"))

	s, ok := reg.Lookup(env.SessionID)
	require.True(t, ok)
	assert.Equal(t, session.StatusPending, s.Status)
	assert.Equal(t, query.Interpreted{City: "Paris", Intent: query.IntentCurrent}, s.Query)
	assert.Equal(t, s.ExpiresAt, *env.ExpiresAt)

	assert.Empty(t, fake.Calls())
}

func TestDispatchStreamIsDefault(t *testing.T) {
	d, _ := newDispatcher(&testutil.FakeWeather{})

	env := d.Dispatch(context.Background(), protocol.Request{
		Messages: []protocol.Message{{Role: "user", Content: "weather forecast for Madrid"}},
	})
	assert.Equal(t, protocol.StatusPending, env.Status)
}

type exhaustedRegistry struct{}

func (exhaustedRegistry) Create(query.Interpreted) (string, error) {
	return "", session.ErrIDSpaceExhausted
}

func (exhaustedRegistry) Lookup(string) (session.Session, bool) { return session.Session{}, false }

func TestDispatchRegistryFailureIsInternal(t *testing.T) {
	d := New(exhaustedRegistry{}, &testutil.FakeWeather{}, WithStreamPath("/stream"))

	env := d.Dispatch(context.Background(), protocol.Request{Query: "Paris"})
	assert.Equal(t, protocol.KindInternalError, env.Kind)
	assert.Equal(t, "internal error", env.Message)
}
