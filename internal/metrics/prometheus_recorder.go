package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	driverOpDuration *prom.HistogramVec
	driverOpResults  *prom.CounterVec
	stepDuration     *prom.HistogramVec
	stepResults      *prom.CounterVec
	pollChanges      *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry is created when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		driverOpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "cibuilder",
			Name:      "vcs_operation_duration_seconds",
			Help:      "Duration of VCS driver operations",
			Buckets:   prom.DefBuckets,
		}, []string{"vcs_type", "op"}),
		driverOpResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "cibuilder",
			Name:      "vcs_operation_results_total",
			Help:      "VCS driver operation counts by outcome",
		}, []string{"vcs_type", "op", "result"}),
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "cibuilder",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual build steps",
			Buckets:   prom.DefBuckets,
		}, []string{"step"}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "cibuilder",
			Name:      "step_results_total",
			Help:      "Build step result counts by outcome",
		}, []string{"step", "result"}),
		pollChanges: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "cibuilder",
			Name:      "poll_changes_total",
			Help:      "New changes detected by the poll role",
		}, []string{"vcs_type"}),
	}
	reg.MustRegister(pr.driverOpDuration, pr.driverOpResults, pr.stepDuration, pr.stepResults, pr.pollChanges)
	return pr
}

func (p *PrometheusRecorder) ObserveDriverOp(vcsType, op string, d time.Duration, result ResultLabel) {
	p.driverOpDuration.WithLabelValues(vcsType, op).Observe(d.Seconds())
	p.driverOpResults.WithLabelValues(vcsType, op, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) AddPollChanges(vcsType string, n int) {
	if n <= 0 {
		return
	}
	p.pollChanges.WithLabelValues(vcsType).Add(float64(n))
}

// HTTPHandler returns an http.Handler serving Prometheus metrics for reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
