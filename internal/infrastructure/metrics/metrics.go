// Package metrics expone contadores e histogramas Prometheus del servicio:
// peticiones HTTP, consultas al almacén y construcción de árboles.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ateco"

// Registry agrupa los colectores en un registro propio (no el global).
type Registry struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	lookupTotal    *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec

	treeTotal    *prometheus.CounterVec
	treeDuration prometheus.Histogram
	treeNodes    prometheus.Histogram
}

// New registra todos los colectores. service se fija como etiqueta constante.
func New(service string) *Registry {
	labels := prometheus.Labels{"service": service}
	r := &Registry{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total HTTP requests processed.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method", "route"}),
		requestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: labels,
		}),
		lookupTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "store",
			Name:        "lookups_total",
			Help:        "Store lookups by operation and outcome.",
			ConstLabels: labels,
		}, []string{"op", "outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "store",
			Name:        "lookup_duration_seconds",
			Help:        "Store lookup latency in seconds.",
			Buckets:     []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: labels,
		}, []string{"op"}),
		treeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "tree",
			Name:        "builds_total",
			Help:        "Annotated tree builds by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		treeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "tree",
			Name:        "build_duration_seconds",
			Help:        "Annotated tree build duration in seconds.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			ConstLabels: labels,
		}),
		treeNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "tree",
			Name:        "nodes",
			Help:        "Nodes per annotated tree.",
			Buckets:     prometheus.ExponentialBuckets(1, 4, 8),
			ConstLabels: labels,
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.requestTotal,
		r.requestDuration,
		r.requestInFlight,
		r.lookupTotal,
		r.lookupDuration,
		r.treeTotal,
		r.treeDuration,
		r.treeNodes,
	)
	return r
}

// Gatherer acceso al registro (tests).
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveLookup implementa postgres.LookupObserver.
func (r *Registry) ObserveLookup(op string, elapsed time.Duration, err error) {
	r.lookupTotal.WithLabelValues(op, outcome(err)).Inc()
	r.lookupDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveTree implementa ateco.TreeObserver.
func (r *Registry) ObserveTree(nodes int, elapsed time.Duration, err error) {
	r.treeTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return
	}
	r.treeDuration.Observe(elapsed.Seconds())
	r.treeNodes.Observe(float64(nodes))
}

// Middleware mide cada petición. La etiqueta route es el patrón de Fiber, no la URL.
func (r *Registry) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		r.requestInFlight.Inc()
		defer r.requestInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		route := c.Route().Path
		method := c.Method()
		r.requestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		r.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler expone el registro en formato texto de Prometheus.
func (r *Registry) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
