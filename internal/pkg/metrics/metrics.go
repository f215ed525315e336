package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obliquemerc",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "obliquemerc",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "obliquemerc",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Projection pipeline metrics
	ProjectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "obliquemerc",
		Subsystem: "projection",
		Name:      "duration_seconds",
		Help:      "Time spent rotating, normalizing and projecting one grid",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	GridPoints = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "obliquemerc",
		Subsystem: "projection",
		Name:      "grid_points_total",
		Help:      "Total grid points pushed through the pipeline",
	})

	InvalidPoints = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "obliquemerc",
		Subsystem: "projection",
		Name:      "invalid_points_total",
		Help:      "Projected points that came out NaN or infinite",
	})

	UndefinedPoles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "obliquemerc",
		Subsystem: "projection",
		Name:      "undefined_poles_total",
		Help:      "Pole solutions that were NaN (coincident or antipodal reference points)",
	})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "obliquemerc",
		Subsystem: "render",
		Name:      "duration_seconds",
		Help:      "Time spent encoding a projected mesh",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
	}, []string{"format"})

	RenderBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "obliquemerc",
		Subsystem: "render",
		Name:      "output_bytes",
		Help:      "Size of rendered outputs",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 7),
	}, []string{"format"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obliquemerc",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obliquemerc",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "obliquemerc",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of render feed WebSocket connections",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// fiber resolves the route pattern, which keeps label cardinality low
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
