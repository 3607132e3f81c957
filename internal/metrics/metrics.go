package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mlfq/internal/sched"
)

// Collector turns the scheduler event stream into Prometheus metrics.
type Collector struct {
	// Events counts scheduler events by kind.
	Events *prometheus.CounterVec

	// QueueDepth tracks the number of READY tasks in each tier.
	QueueDepth *prometheus.GaugeVec

	// Promotions counts aging steps by the tier the task lands in.
	Promotions *prometheus.CounterVec

	// BurstTicks is the distribution of completed CPU bursts.
	BurstTicks prometheus.Histogram

	// SliceTicks is the distribution of ticks run before each hand-off.
	SliceTicks prometheus.Histogram

	// Tick is the tick of the last event seen.
	Tick prometheus.Gauge

	bands sched.Bands
}

// New registers the collector's metrics with reg.
func New(reg prometheus.Registerer, bands sched.Bands) *Collector {
	f := promauto.With(reg)
	return &Collector{
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mlfq_events_total",
			Help: "Total number of scheduler events",
		}, []string{"kind"}),

		QueueDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mlfq_queue_depth",
			Help: "Current number of ready tasks per tier",
		}, []string{"tier"}),

		Promotions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mlfq_priority_promotions_total",
			Help: "Priority increases from aging by destination tier",
		}, []string{"tier"}),

		BurstTicks: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mlfq_burst_ticks",
			Help:    "Length of completed CPU bursts in ticks",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),

		SliceTicks: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mlfq_slice_ticks",
			Help:    "Ticks executed by the outgoing task at each dispatch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),

		Tick: f.NewGauge(prometheus.GaugeOpts{
			Name: "mlfq_tick",
			Help: "Simulated clock at the last scheduler event",
		}),

		bands: bands,
	}
}

func (c *Collector) Observe(ev sched.StatusEvent) {
	if ev.Kind == sched.StatusTick {
		c.Tick.Set(float64(ev.Tick))
		return
	}
	c.Events.WithLabelValues(ev.Kind.String()).Inc()
	c.Tick.Set(float64(ev.Tick))

	switch ev.Kind {
	case sched.StatusEnqueue:
		c.QueueDepth.WithLabelValues(ev.Tier.String()).Inc()
	case sched.StatusDequeue:
		c.QueueDepth.WithLabelValues(ev.Tier.String()).Dec()
	case sched.StatusPriority:
		c.Promotions.WithLabelValues(c.bands.TierOf(ev.NewPriority).String()).Inc()
	case sched.StatusBurstUpdate:
		c.BurstTicks.Observe(ev.RanTicks)
	case sched.StatusDispatch:
		c.SliceTicks.Observe(ev.RanTicks)
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
