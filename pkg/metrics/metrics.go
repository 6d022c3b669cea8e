// Package metrics records the outcome of an update run. The updater is a
// batch job, so metrics live in their own registry and may be pushed to a
// Pushgateway once the run is over.
package metrics

import (
	"context"
	"time"

	"github.com/giantswarm/microerror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "aws_ip_ranges"

	// JobName groups pushed metrics on the Pushgateway.
	JobName = "aws_ip_ranges_updater"
)

// Recorder is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	unitsTotal   *prometheus.CounterVec
	runDuration  prometheus.Gauge
	lastRun      prometheus.Gauge
	desiredCIDRs *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		unitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "units_total",
				Help:      "Reconciled units by resource kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		runDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of the last run in seconds",
			},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished",
			},
		),
		desiredCIDRs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "desired_cidrs",
				Help:      "Number of desired CIDRs per managed resource",
			},
			[]string{"resource"},
		),
	}

	r.registry.MustRegister(
		r.unitsTotal,
		r.runDuration,
		r.lastRun,
		r.desiredCIDRs,
	)

	return r
}

// Registry exposes the registry, e.g. for a metrics handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordUnit counts one reconciled unit.
func (r *Recorder) RecordUnit(kind, outcome string) {
	r.unitsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordDesired sets the desired CIDR count of a managed resource.
func (r *Recorder) RecordDesired(resource string, count int) {
	r.desiredCIDRs.WithLabelValues(resource).Set(float64(count))
}

// RecordRun records a finished run.
func (r *Recorder) RecordRun(finishedAt time.Time, duration time.Duration) {
	r.runDuration.Set(duration.Seconds())
	r.lastRun.Set(float64(finishedAt.Unix()))
}

// Push replaces the metrics of JobName on the Pushgateway at url.
func (r *Recorder) Push(ctx context.Context, url string) error {
	err := push.New(url, JobName).Gatherer(r.registry).PushContext(ctx)
	if err != nil {
		return microerror.Mask(err)
	}

	return nil
}
