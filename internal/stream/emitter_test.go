package stream

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/mcp-weather-server/internal/protocol"
	"github.com/i474232898/mcp-weather-server/internal/query"
	"github.com/i474232898/mcp-weather-server/internal/session"
	"github.com/i474232898/mcp-weather-server/internal/testutil"
	"github.com/i474232898/mcp-weather-server/internal/weather"
)

func errorKind(t *testing.T, f protocol.Frame) protocol.Kind {
	t.Helper()
	e, err := f.Err()
	require.NoError(t, err)
	return e.Kind
}

func TestConnectEmitsDataThenEnd(t *testing.T) {
	reg := session.NewRegistry(time.Minute, time.Minute)
	fake := &testutil.FakeWeather{}
	e := NewEmitter(reg, fake)

	id, err := reg.Create(query.Interpreted{City: "Paris", Intent: query.IntentCurrent})
	require.NoError(t, err)

	frames := slices.Collect(e.Connect(context.Background(), id))
	require.Len(t, frames, 2)
	assert.Equal(t, protocol.FrameMessage, frames[0].Kind)
	assert.Equal(t, protocol.FrameEnd, frames[1].Kind)

	var got weather.CurrentSnapshot
	require.NoError(t, json.Unmarshal(frames[0].Data, &got))
	assert.Equal(t, testutil.CurrentFor("Paris"), got)

	// Not restartable.
	frames = slices.Collect(e.Connect(context.Background(), id))
	require.Len(t, frames, 1)
	assert.Equal(t, protocol.KindSessionAlreadyConsumed, errorKind(t, frames[0]))

	assert.Equal(t, []string{"current:Paris"}, fake.Calls())
}

func TestConnectForecast(t *testing.T) {
	reg := session.NewRegistry(time.Minute, time.Minute)
	fake := &testutil.FakeWeather{}
	e := NewEmitter(reg, fake)

	id, err := reg.Create(query.Interpreted{City: "Rome", Intent: query.IntentForecast})
	require.NoError(t, err)

	frames := slices.Collect(e.Connect(context.Background(), id))
	require.Len(t, frames, 2)

	var got weather.Forecast
	require.NoError(t, json.Unmarshal(frames[0].Data, &got))
	assert.Equal(t, "Rome", got.City)
	assert.Len(t, got.Days, weather.ForecastDays)
}

func TestConnectUnknownSession(t *testing.T) {
	e := NewEmitter(session.NewRegistry(time.Minute, time.Minute), &testutil.FakeWeather{})

	frames := slices.Collect(e.Connect(context.Background(), "missing"))
	require.Len(t, frames, 1)
	assert.Equal(t, protocol.KindSessionNotFound, errorKind(t, frames[0]))
}

func TestConnectExpiredSession(t *testing.T) {
	now := time.Now()
	reg := session.NewRegistry(time.Minute, time.Hour, session.WithClock(func() time.Time { return now }))
	e := NewEmitter(reg, &testutil.FakeWeather{})

	id, err := reg.Create(query.Interpreted{City: "Paris"})
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)

	frames := slices.Collect(e.Connect(context.Background(), id))
	require.Len(t, frames, 1)
	assert.Equal(t, protocol.KindSessionExpired, errorKind(t, frames[0]))
}

func TestConnectUpstreamFailureStillEnds(t *testing.T) {
	reg := session.NewRegistry(time.Minute, time.Minute)
	e := NewEmitter(reg, testutil.CityNotFound())

	id, err := reg.Create(query.Interpreted{City: "Atlantis", Intent: query.IntentForecast})
	require.NoError(t, err)

	frames := slices.Collect(e.Connect(context.Background(), id))
	require.Len(t, frames, 2)
	assert.Equal(t, protocol.KindCityNotFound, errorKind(t, frames[0]))
	assert.Equal(t, protocol.FrameEnd, frames[1].Kind)
}

func TestConnectIsLazyAndStopsEarly(t *testing.T) {
	reg := session.NewRegistry(time.Minute, time.Minute)
	fake := &testutil.FakeWeather{}
	e := NewEmitter(reg, fake)

	id, err := reg.Create(query.Interpreted{City: "Paris"})
	require.NoError(t, err)

	seq := e.Connect(context.Background(), id)
	s, _ := reg.Lookup(id)
	assert.Equal(t, session.StatusPending, s.Status, "claim must wait for iteration")

	var seen []protocol.FrameKind
	for f := range seq {
		seen = append(seen, f.Kind)
		break
	}
	assert.Equal(t, []protocol.FrameKind{protocol.FrameMessage}, seen)

	s, _ = reg.Lookup(id)
	assert.Equal(t, session.StatusConsumed, s.Status)
}
