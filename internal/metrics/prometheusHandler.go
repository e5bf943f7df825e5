package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// dependency labels
const (
	DepEmbedding    = "embedding"
	DepVectorSearch = "vector_search"
	DepVectorUpsert = "vector_upsert"
	DepLLMStream    = "llm_stream"
	DepSession      = "session_lookup"
	DepExtraction   = "text_extraction"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var answerStreams = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "answer_streams_total",
	Help: "Answer streams by terminal outcome",
}, []string{"outcome"})

var degradedRetrievals = promauto.NewCounter(prometheus.CounterOpts{
	Name: "degraded_retrievals_total",
	Help: "Within-document retrievals answered from stored chunk order instead of the vector index",
})

var ingestedChunks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ingested_chunks_total",
	Help: "Chunks committed to the vector index",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.CaptureWriteHeaderMetrics(code)
}

func (r *HttpStatusRecorder) CaptureWriteHeaderMetrics(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent events working through the recorder.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *HttpStatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func CountAnswerStream(outcome string) {
	answerStreams.WithLabelValues(outcome).Inc()
}

func CountDegradedRetrieval() {
	degradedRetrievals.Inc()
}

func CountIngestedChunks(n int) {
	ingestedChunks.Add(float64(n))
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "process_request_duration_seconds",
	Help:    "Total time spent processing an ingestion job.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

// MeasureDependency starts a timer, call the returned func when the dependency call is done.
func MeasureDependency(label string) func() {
	start := time.Now()
	return func() {
		CaptureExecutionMetrics(label, time.Since(start))
	}
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
