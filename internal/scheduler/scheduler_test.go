package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/mcp-weather-server/internal/query"
	"github.com/i474232898/mcp-weather-server/internal/session"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep(time.Time) session.SweepStats {
	c.calls.Add(1)
	return session.SweepStats{}
}

func TestSchedulerSweepsPeriodically(t *testing.T) {
	sweeper := &countingSweeper{}
	s := New(sweeper, time.Second)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
}

func TestSchedulerExpiresSessions(t *testing.T) {
	reg := session.NewRegistry(time.Millisecond, time.Hour)
	id, err := reg.Create(query.Interpreted{City: "Paris"})
	require.NoError(t, err)

	s := New(reg, time.Second)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		got, ok := reg.Lookup(id)
		return ok && got.Status == session.StatusExpired
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(&countingSweeper{}, 0)
	assert.Equal(t, DefaultInterval, s.interval)
}
