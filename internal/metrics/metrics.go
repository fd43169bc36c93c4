package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k2fov_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "k2fov_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k2fov_queries_total",
			Help: "Total number of single-target queries by kind and outcome.",
		},
		[]string{"kind", "result"},
	)

	batchTargetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k2fov_batch_targets_total",
			Help: "Total number of catalog targets classified, by silicon flag.",
		},
		[]string{"flag"},
	)

	batchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "k2fov_batch_duration_seconds",
			Help:    "Time spent classifying one catalog.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	fovCacheBuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "k2fov_fov_cache_builds_total",
			Help: "Total number of campaign field-of-view objects built.",
		},
	)

	campaignTableAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "k2fov_campaign_table_age_seconds",
			Help: "Seconds since the current campaign table was loaded.",
		},
	)

	campaignRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k2fov_campaign_refresh_total",
			Help: "Total number of campaign table refresh attempts.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(queriesTotal)
	prometheus.MustRegister(batchTargetsTotal)
	prometheus.MustRegister(batchDurationSeconds)
	prometheus.MustRegister(fovCacheBuildsTotal)
	prometheus.MustRegister(campaignTableAgeSeconds)
	prometheus.MustRegister(campaignRefreshTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordQuery counts one single-target query. kind is e.g. "onsilicon" or
// "microlens"; hit reports a positive answer.
func RecordQuery(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	queriesTotal.WithLabelValues(kind, result).Inc()
}

// RecordBatch records one catalog classification. flags[i] is the number of
// targets that received silicon flag i.
func RecordBatch(duration time.Duration, flags [3]int) {
	batchDurationSeconds.Observe(duration.Seconds())
	for flag, n := range flags {
		if n > 0 {
			batchTargetsTotal.WithLabelValues(strconv.Itoa(flag)).Add(float64(n))
		}
	}
}

// RecordFovBuild counts one field-of-view construction.
func RecordFovBuild() {
	fovCacheBuildsTotal.Inc()
}

// SetCampaignTableAge sets the campaign table age gauge.
func SetCampaignTableAge(seconds float64) {
	campaignTableAgeSeconds.Set(seconds)
}

// RecordCampaignRefresh counts one campaign table refresh attempt.
func RecordCampaignRefresh(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	campaignRefreshTotal.WithLabelValues(result).Inc()
}

// knownRoutes are exact paths used as their own label.
var knownRoutes = map[string]bool{
	"/":                     true,
	"/healthz":              true,
	"/readyz":               true,
	"/metrics":              true,
	"/api/v1/campaigns":     true,
	"/api/v1/findcampaigns": true,
	"/api/v1/microlens":     true,
}

// campaignActions are the sub-resources of /api/v1/campaigns/{id}.
var campaignActions = map[string]bool{
	"onsilicon": true,
	"pixel":     true,
	"sky":       true,
	"classify":  true,
}

// normalizeRoute maps a request path to a bounded set of label values.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}

	rest, ok := strings.CutPrefix(path, "/api/v1/campaigns/")
	if !ok || rest == "" {
		return "other"
	}
	id, action, found := strings.Cut(rest, "/")
	if id == "" {
		return "other"
	}
	if !found {
		return "/api/v1/campaigns/{id}"
	}
	if campaignActions[action] {
		return "/api/v1/campaigns/{id}/" + action
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
