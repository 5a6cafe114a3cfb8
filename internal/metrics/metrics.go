package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LogEntriesWritten counts stored log rows by dictionary.
	LogEntriesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "log_entries_written_total",
			Help: "Total number of log entries written, by dictionary",
		},
		[]string{"dictionary"},
	)

	// LogWriteRejections counts rejected write requests by reason
	// (bad_payload, unknown_dictionary, invalid_type).
	LogWriteRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "log_write_rejections_total",
			Help: "Total number of rejected log write requests, by reason",
		},
		[]string{"reason"},
	)

	// RetentionDeleted counts log rows removed by the retention job.
	RetentionDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "log_retention_deleted_total",
			Help: "Total number of log entries removed by retention",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, LogEntriesWritten, LogWriteRejections, RetentionDeleted)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// Requests that matched no chi route still reach here with their raw path.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// AddLogEntriesWritten adds n stored rows for dictionary.
func AddLogEntriesWritten(dictionary string, n int) {
	LogEntriesWritten.WithLabelValues(dictionary).Add(float64(n))
}

// IncLogWriteRejection counts one rejected write.
func IncLogWriteRejection(reason string) {
	LogWriteRejections.WithLabelValues(reason).Inc()
}

// AddRetentionDeleted adds n rows removed by retention.
func AddRetentionDeleted(n int64) {
	RetentionDeleted.Add(float64(n))
}
