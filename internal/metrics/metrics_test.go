package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlfq/internal/sched"
)

func TestCollectorObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, sched.DefaultBands())

	c.Observe(sched.StatusEvent{Kind: sched.StatusEnqueue, Tick: 1, Tier: sched.L1})
	c.Observe(sched.StatusEvent{Kind: sched.StatusEnqueue, Tick: 1, Tier: sched.L1})
	c.Observe(sched.StatusEvent{Kind: sched.StatusEnqueue, Tick: 1, Tier: sched.L3})
	c.Observe(sched.StatusEvent{Kind: sched.StatusDequeue, Tick: 2, Tier: sched.L1})
	c.Observe(sched.StatusEvent{Kind: sched.StatusPriority, Tick: 1500, OldPriority: 95, NewPriority: 105})
	c.Observe(sched.StatusEvent{Kind: sched.StatusBurstUpdate, Tick: 1600, RanTicks: 20})
	c.Observe(sched.StatusEvent{Kind: sched.StatusDispatch, Tick: 1700, RanTicks: 3})
	c.Observe(sched.StatusEvent{Kind: sched.StatusTick, Tick: 1800})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.QueueDepth.WithLabelValues("L1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.QueueDepth.WithLabelValues("L3")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Events.WithLabelValues("Enqueued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Promotions.WithLabelValues("L1")))
	assert.Equal(t, 1800.0, testutil.ToFloat64(c.Tick))
	assert.Equal(t, 1, testutil.CollectAndCount(c.BurstTicks))
	assert.Equal(t, 1, testutil.CollectAndCount(c.SliceTicks))
	assert.Equal(t, 5, testutil.CollectAndCount(c.Events), "one series per kind, ticks excluded")
}

func TestCollectorRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, sched.DefaultBands())
	assert.Panics(t, func() { New(reg, sched.DefaultBands()) })
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, sched.DefaultBands())
	c.Observe(sched.StatusEvent{Kind: sched.StatusFinish, Tick: 10})

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `mlfq_events_total{kind="Finish"} 1`)
	assert.Contains(t, string(body), "mlfq_tick 10")
}
