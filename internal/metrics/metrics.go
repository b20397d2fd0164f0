package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "query_pipeline_duration_seconds",
	Help:    "End-to-end time spent answering a query.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30},
}, []string{"status"})

var pipelineStepLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pipeline_step_latency_seconds",
	Help:    "Latency per pipeline step (embed, retrieve, rerank, generate).",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"step"})

var rerankFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rerank_fallbacks_total",
	Help: "Queries answered with retrieval order after a rerank failure.",
})

var answerCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "answer_cache_lookups_total",
	Help: "Answer cache lookups by outcome.",
}, []string{"outcome"})

var documentsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "documents_ingested_total",
	Help: "Documents processed by the ingestion pipeline by outcome.",
}, []string{"outcome"})

var chunksWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "chunks_written_total",
	Help: "Chunks written to the vector store.",
})

// HttpStatusRecorder wraps a ResponseWriter so the status a handler
// writes can be read back after the request completes.
type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func CaptureStepLatency(step string, elapsed time.Duration) {
	pipelineStepLatency.WithLabelValues(step).Observe(elapsed.Seconds())
}

func CaptureQueryDuration(status string, elapsed time.Duration) {
	queryDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func IncrementRerankFallbacks() {
	rerankFallbacksTotal.Inc()
}

func RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	answerCacheHitsTotal.WithLabelValues(outcome).Inc()
}

func RecordDocumentIngested(outcome string) {
	documentsIngestedTotal.WithLabelValues(outcome).Inc()
}

func AddChunksWritten(n int) {
	chunksWrittenTotal.Add(float64(n))
}
