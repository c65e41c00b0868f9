// Package metrics exposes invitation acceptance counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service layer reports into.
type Recorder interface {
	// RecordValidation counts a lookup by outcome (found, not_found, integrity).
	RecordValidation(outcome string)

	// RecordAcceptance counts a terminal acceptance result, by state or
	// error label, and how long it took.
	RecordAcceptance(result string, d time.Duration)

	// RecordGrant counts entitlements written by one successful grant.
	RecordGrant(products int)

	// RecordProvisioning counts provider outcomes by failure kind, or "created".
	RecordProvisioning(outcome string)

	// RecordSweep counts invitations moved to expired by one sweep.
	RecordSweep(expired int64, err error)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	validations     *prometheus.CounterVec
	acceptances     *prometheus.CounterVec
	acceptLatency   prometheus.Histogram
	entitlements    prometheus.Counter
	provisioning    *prometheus.CounterVec
	sweptExpired    prometheus.Counter
	sweepFailures   prometheus.Counter
	lastSweepUnixTS prometheus.Gauge
}

// NewCollector builds a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "muster_validations_total",
			Help: "Invitation code lookups by outcome.",
		}, []string{"outcome"}),
		acceptances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "muster_acceptances_total",
			Help: "Acceptance attempts by terminal result.",
		}, []string{"result"}),
		acceptLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "muster_acceptance_duration_seconds",
			Help:    "Time spent in one acceptance attempt.",
			Buckets: prometheus.DefBuckets,
		}),
		entitlements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "muster_entitlements_granted_total",
			Help: "Entitlement rows written or reactivated.",
		}),
		provisioning: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "muster_provisioning_total",
			Help: "Identity provider account creation outcomes.",
		}, []string{"outcome"}),
		sweptExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "muster_invitations_expired_total",
			Help: "Invitations moved to expired by the sweeper.",
		}),
		sweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "muster_sweep_failures_total",
			Help: "Sweeps that failed.",
		}),
		lastSweepUnixTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "muster_last_sweep_timestamp_seconds",
			Help: "Unix time of the last successful sweep.",
		}),
	}

	reg.MustRegister(
		c.validations,
		c.acceptances,
		c.acceptLatency,
		c.entitlements,
		c.provisioning,
		c.sweptExpired,
		c.sweepFailures,
		c.lastSweepUnixTS,
	)
	return c
}

func (c *Collector) RecordValidation(outcome string) {
	c.validations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordAcceptance(result string, d time.Duration) {
	c.acceptances.WithLabelValues(result).Inc()
	c.acceptLatency.Observe(d.Seconds())
}

func (c *Collector) RecordGrant(products int) {
	c.entitlements.Add(float64(products))
}

func (c *Collector) RecordProvisioning(outcome string) {
	c.provisioning.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordSweep(expired int64, err error) {
	if err != nil {
		c.sweepFailures.Inc()
		return
	}
	c.sweptExpired.Add(float64(expired))
	c.lastSweepUnixTS.SetToCurrentTime()
}

// Noop discards everything. Services fall back to it when no Recorder is set.
type Noop struct{}

func (Noop) RecordValidation(string)                {}
func (Noop) RecordAcceptance(string, time.Duration) {}
func (Noop) RecordGrant(int)                        {}
func (Noop) RecordProvisioning(string)              {}
func (Noop) RecordSweep(int64, error)               {}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
