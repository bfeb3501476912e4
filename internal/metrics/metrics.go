// Package metrics define las métricas Prometheus del bridge. Vive aparte para
// que http y cmd puedan compartirlas sin ciclos de import.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	RateLimitedTotal  prometheus.Counter
}

// New registra las métricas en reg. Con reg == nil usa un registry propio
// (tests y procesos one-shot que no exponen /metrics).
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{gatherer: reg}

	var err error
	if m.OperationsTotal, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idpbridge_operations_total",
		Help: "Operaciones del bridge por resultado",
	}, []string{"op", "outcome", "error_code"})); err != nil {
		return nil, err
	}
	if m.OperationDuration, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "idpbridge_operation_duration_seconds",
		Help:    "Duración de cada operación, llamada al proveedor incluida",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op"})); err != nil {
		return nil, err
	}
	if m.HTTPRequestsTotal, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idpbridge_http_requests_total",
		Help: "Número total de requests HTTP procesadas",
	}, []string{"method", "path", "status"})); err != nil {
		return nil, err
	}
	if m.HTTPDuration, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "idpbridge_http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})); err != nil {
		return nil, err
	}
	rl := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idpbridge_rate_limited_total",
		Help: "Requests rechazadas por rate limit",
	})
	if err := reg.Register(rl); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		rl = are.ExistingCollector.(prometheus.Counter)
	}
	m.RateLimitedTotal = rl
	return m, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		return are.ExistingCollector.(*prometheus.CounterVec), nil
	}
	return c, nil
}

func registerHistogramVec(reg prometheus.Registerer, h *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		return are.ExistingCollector.(*prometheus.HistogramVec), nil
	}
	return h, nil
}

// ObserveOperation registra el resultado de una operación del bridge.
// errorCode va vacío cuando outcome es "ok".
func (m *Metrics) ObserveOperation(op, outcome, errorCode string, d time.Duration) {
	if op == "" {
		op = "-"
	}
	m.OperationsTotal.WithLabelValues(op, outcome, errorCode).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveHTTP registra un request HTTP. path debe ser el patrón de ruta, no
// el path crudo, para acotar la cardinalidad.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler expone el registry para /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
