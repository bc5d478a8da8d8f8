// Package metrics exposes Prometheus metrics for the executors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Callback outcomes used as the "outcome" label.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomePanic    = "panic"
	OutcomeCanceled = "canceled"
)

// Collector records executor activity. A nil *Collector is valid and
// discards everything, so executors never need to check for it.
type Collector struct {
	// Counters
	callbacksTotal *prometheus.CounterVec

	// Gauges
	executorsRunning *prometheus.GaugeVec

	// Histograms
	callbackDuration *prometheus.HistogramVec
	stopWait         *prometheus.HistogramVec
}

// NewCollector creates the executor metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		callbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timer_callbacks_total",
				Help: "Total number of executor callbacks by outcome",
			},
			[]string{"kind", "outcome"}, // ok, error, panic, canceled
		),

		executorsRunning: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "timer_executors_running",
				Help: "Number of executors with a live background goroutine",
			},
			[]string{"kind"},
		),

		callbackDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timer_callback_duration_seconds",
				Help:    "Duration of executor callbacks in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
			},
			[]string{"kind"},
		),

		stopWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timer_stop_wait_seconds",
				Help:    "Time callers spent blocked in a stop call waiting for the executor to exit",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(
		c.callbacksTotal,
		c.executorsRunning,
		c.callbackDuration,
		c.stopWait,
	)

	return c
}

// ObserveCallback records one callback invocation of an executor kind.
func (c *Collector) ObserveCallback(kind, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.callbacksTotal.WithLabelValues(kind, outcome).Inc()
	c.callbackDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// CallbackSkipped records a callback that was canceled before it ran.
func (c *Collector) CallbackSkipped(kind string) {
	if c == nil {
		return
	}
	c.callbacksTotal.WithLabelValues(kind, OutcomeCanceled).Inc()
}

// ExecutorStarted marks a background goroutine of kind as running.
func (c *Collector) ExecutorStarted(kind string) {
	if c == nil {
		return
	}
	c.executorsRunning.WithLabelValues(kind).Inc()
}

// ExecutorExited marks a background goroutine of kind as gone.
func (c *Collector) ExecutorExited(kind string) {
	if c == nil {
		return
	}
	c.executorsRunning.WithLabelValues(kind).Dec()
}

// ObserveStop records how long a stop call blocked.
func (c *Collector) ObserveStop(kind string, d time.Duration) {
	if c == nil {
		return
	}
	c.stopWait.WithLabelValues(kind).Observe(d.Seconds())
}

// CallbacksTotal returns the callback counter for kind and outcome.
// On a nil Collector it returns a fresh counter that is not registered anywhere.
func (c *Collector) CallbacksTotal(kind, outcome string) prometheus.Counter {
	if c == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: "timer_callbacks_total"})
	}
	return c.callbacksTotal.WithLabelValues(kind, outcome)
}

// ExecutorsRunning returns the running-executor gauge for kind.
// On a nil Collector it returns a fresh gauge that is not registered anywhere.
func (c *Collector) ExecutorsRunning(kind string) prometheus.Gauge {
	if c == nil {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: "timer_executors_running"})
	}
	return c.executorsRunning.WithLabelValues(kind)
}
