package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"sync"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_archive_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	StorageOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_archive_storage_operations_total",
			Help: "Storage operations by the backend that served them and their outcome.",
		},
		[]string{"operation", "backend", "outcome"},
	)
	StorageFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_archive_storage_fallbacks_total",
			Help: "Total number of operations that fell back from the remote to the local store.",
		},
		[]string{"operation"},
	)
	RemoteRequestDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "apply_archive_remote_request_duration_seconds",
			Help:       "Duration of requests to the applications API.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"operation"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_archive_http_requests_total",
			Help: "Requests served by the applications API.",
		},
		[]string{"method", "code"},
	)
	UploadsRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "apply_archive_uploads_removed_total",
			Help: "Total number of orphaned uploads removed by the cleaner.",
		},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ErrorsCounter)
		prometheus.MustRegister(StorageOperations)
		prometheus.MustRegister(StorageFallbacks)
		prometheus.MustRegister(RemoteRequestDuration)
		prometheus.MustRegister(HTTPRequests)
		prometheus.MustRegister(UploadsRemoved)
	})
}

func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
