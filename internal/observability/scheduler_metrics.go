package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerCollector exposes scheduler-specific Prometheus metrics.
type SchedulerCollector struct {
	gatherer prometheus.Gatherer

	QueueDepth     prometheus.Gauge
	FiredTotal     prometheus.Counter
	CancelledTotal prometheus.Counter
}

// NewSchedulerCollector registers scheduler metrics against the provided registerer.
func NewSchedulerCollector(reg prometheus.Registerer) (*SchedulerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	queueGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_queue_depth",
		Help: "Number of items currently pending in the scheduler.",
	})
	queueGauge, err := registerGauge(reg, queueGauge, "scheduler_queue_depth")
	if err != nil {
		return nil, err
	}

	fired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_fired_total",
		Help: "Cumulative number of items handed to the dispatch function.",
	})
	fired, err = registerCounter(reg, fired, "scheduler_fired_total")
	if err != nil {
		return nil, err
	}

	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_cancelled_total",
		Help: "Cumulative number of items cancelled before they fired.",
	})
	cancelled, err = registerCounter(reg, cancelled, "scheduler_cancelled_total")
	if err != nil {
		return nil, err
	}

	return &SchedulerCollector{
		gatherer:       gatherer,
		QueueDepth:     queueGauge,
		FiredTotal:     fired,
		CancelledTotal: cancelled,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SchedulerCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// SetQueueDepth updates the queue depth gauge.
func (c *SchedulerCollector) SetQueueDepth(n int) {
	if c == nil || c.QueueDepth == nil {
		return
	}
	c.QueueDepth.Set(float64(n))
}

// IncFired increments the fired counter.
func (c *SchedulerCollector) IncFired() {
	if c == nil || c.FiredTotal == nil {
		return
	}
	c.FiredTotal.Inc()
}

// IncCancelled increments the cancellation counter.
func (c *SchedulerCollector) IncCancelled() {
	if c == nil || c.CancelledTotal == nil {
		return
	}
	c.CancelledTotal.Inc()
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
