package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	responseTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60},
		},
	)

	totalHttpRequestsToUri = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
		[]string{"code", "uri", "method"},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
		[]string{"code", "method"},
	)

	nativeCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "jrtc_native_calls_total", Help: "native load/unload calls by outcome"},
		[]string{"op", "result"},
	)

	nativeCallSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jrtc_native_call_seconds",
			Help:    "time spent inside native callbacks.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"op"},
	)

	loadedApps = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "jrtc_loaded_apps", Help: "apps currently in the registry"},
	)
)

func init() {
	prometheus.MustRegister(
		responseTime,
		totalHttpRequestsToUri,
		totalHttpRequests,
		nativeCalls,
		nativeCallSeconds,
		loadedApps,
	)
}
