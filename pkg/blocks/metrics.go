package blocks

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors fed by the metrics interceptors.
type Metrics struct {
	AttemptsTotal   *prometheus.CounterVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics registers the SDK collectors with reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocks_request_attempts_total",
				Help: "Total number of physical request attempts",
			},
			[]string{"method"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocks_requests_total",
				Help: "Total number of logical calls by final status",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blocks_request_duration_seconds",
				Help:    "Duration of successful requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocks_request_errors_total",
				Help: "Total number of failed calls by error code",
			},
			[]string{"method", "code"},
		),
	}
}

// Interceptors returns a chain that records attempts, calls, latencies and
// failures. Each call lands in blocks_requests_total exactly once.
func (m *Metrics) Interceptors() *InterceptorChain {
	return NewInterceptorChain().
		AddRequestInterceptor(func(ctx context.Context, req *RequestContext) error {
			m.AttemptsTotal.WithLabelValues(req.Method).Inc()

			return nil
		}).
		AddResponseInterceptor(func(ctx context.Context, req *RequestContext, resp *Response) (*Response, error) {
			m.RequestsTotal.WithLabelValues(req.Method, statusLabel(req.Status)).Inc()
			m.RequestDuration.WithLabelValues(req.Method).Observe(req.Duration.Seconds())

			return resp, nil
		}).
		AddErrorInterceptor(func(ctx context.Context, req *RequestContext, err *Error) {
			m.RequestsTotal.WithLabelValues(req.Method, statusLabel(err.Status)).Inc()
			m.ErrorsTotal.WithLabelValues(req.Method, err.Code).Inc()
		})
}

func statusLabel(status int) string {
	if status == 0 {
		return "none"
	}

	return strconv.Itoa(status)
}
