package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataservice_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dataservice_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	searchRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataservice_search_rows_total",
		Help: "Rows returned by search and query endpoints, per table.",
	}, []string{"schema", "table"})
)

func observeRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func observeSearch(schema, table string, rows int) {
	searchRowsTotal.WithLabelValues(schema, table).Add(float64(rows))
}

// routeLabel collapses paths onto their route pattern so metric
// cardinality stays bounded no matter what prefixes clients search.
func routeLabel(path string) string {
	switch {
	case path == "/":
		return "home"
	case path == "/healthz":
		return "healthz"
	case path == "/metrics":
		return "metrics"
	case strings.HasPrefix(path, "/static/"):
		return "static"
	case strings.HasPrefix(path, "/imdb/artists/"):
		return "artists"
	case strings.HasPrefix(path, "/api/"):
		return "template_query"
	default:
		return "prefix_search"
	}
}
