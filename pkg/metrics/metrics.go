package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder tracks position engine operations. A nil *Recorder records nothing.
type Recorder struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	gatherer prometheus.Gatherer
}

// NewRecorder registers the engine collectors on reg
func NewRecorder(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lessonlines_position_ops_total",
			Help: "Timeline position operations by outcome.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lessonlines_position_op_duration_seconds",
			Help:    "Time spent in timeline position operations, including the transaction.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		gatherer: reg,
	}
	reg.MustRegister(r.ops, r.duration)
	return r
}

// Observe records one operation that started at start
func (r *Recorder) Observe(op string, start time.Time, err error) {
	if r == nil {
		return
	}
	r.ops.WithLabelValues(op, Result(err)).Inc()
	r.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// OpsCounter exposes the operation counter, mainly for tests
func (r *Recorder) OpsCounter() *prometheus.CounterVec { return r.ops }

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Result maps an operation error to a metric label
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidPermutation), errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrConstraintViolation):
		return "constraint_violation"
	default:
		return "error"
	}
}
