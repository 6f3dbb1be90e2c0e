package metrics

import (
	"errors"
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
		Namespace: "poimap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "poimap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "poimap",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Point-of-interest metrics
	POIOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poimap",
		Subsystem: "poi",
		Name:      "operations_total",
		Help:      "Point-of-interest use case calls by operation and outcome",
	}, []string{"operation", "status"})

	POIQueryResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "poimap",
		Subsystem: "poi",
		Name:      "query_results",
		Help:      "Number of points of interest returned per list query",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"query"})

	MapSearchRadius = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "poimap",
		Subsystem: "map",
		Name:      "search_radius_meters",
		Help:      "Search radius derived from the map zoom level",
		Buckets:   []float64{1000, 2000, 3000, 10000, 20000, 30000, 50000},
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poimap",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Point-of-interest events published to NATS",
	}, []string{"action", "status"})

	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poimap",
		Subsystem: "events",
		Name:      "received_total",
		Help:      "Point-of-interest events received from other instances",
	}, []string{"action"})

	ImportedPOIs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poimap",
		Subsystem: "import",
		Name:      "pois_total",
		Help:      "Points of interest read by the GPX importer",
	}, []string{"category"})

	ImportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poimap",
		Subsystem: "import",
		Name:      "errors_total",
		Help:      "GPX files that failed to import",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poimap",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poimap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poimap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poimap",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poimap",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poimap",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})

	DBPoolEmptyAcquires = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poimap",
		Subsystem: "db",
		Name:      "pool_empty_acquires_total",
		Help:      "Total times a connection had to be established when acquiring from pool",
	})

)

// Middleware records request count, latency and size per route pattern.
// Requests that match no route share the "unmatched" label.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		code := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		route := c.Route().Path
		if route == "" || (route == "/" && c.Path() != "/") {
			route = "unmatched"
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		httpResponseSize.WithLabelValues(method, route).Observe(float64(len(c.Response().Body())))
		return err
	}
}

// Handler serves the default Prometheus registry.
func Handler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}

var lastEmptyAcquires int64

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	// Matches *pgxpool.Stat without importing pgx here.
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
		EmptyAcquireCount() int64
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
		if n := s.EmptyAcquireCount(); n > lastEmptyAcquires {
			DBPoolEmptyAcquires.Add(float64(n - lastEmptyAcquires))
			lastEmptyAcquires = n
		}
	}
}
