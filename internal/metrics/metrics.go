package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SamplesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tanh_samples_issued_total",
		Help: "The total number of samples driven into the pipeline",
	})

	SamplesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tanh_samples_received_total",
		Help: "The total number of results collected from the pipeline",
	})

	SamplesPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanh_samples_passed_total",
		Help: "Samples within the accuracy thresholds, per batch",
	}, []string{"batch"})

	SamplesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanh_samples_failed_total",
		Help: "Samples outside the accuracy thresholds, per batch",
	}, []string{"batch"})

	RelativeError = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tanh_relative_error",
		Help:    "Per-sample relative error against the primary reference",
		Buckets: []float64{1e-8, 1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1},
	})

	ULPDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tanh_ulp_distance",
		Help:    "Per-sample ULP distance against the primary reference",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256},
	})

	PipelineCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tanh_pipeline_cycles_total",
		Help: "Simulated clock cycles elapsed across all batches",
	})

	PipelineOccupancy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tanh_pipeline_occupancy",
		Help: "In-flight samples at the end of the last batch drive loop",
	})

	BatchDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "tanh_batch_duration_seconds",
		Help: "Wall-clock duration of verification batches",
	})

	ReferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tanh_reference_duration_seconds",
		Help:    "Histogram of reference generator batch times",
		Buckets: prometheus.DefBuckets,
	}, []string{"generator"})
)

// RecordSample publishes the accuracy of one verified sample.
func RecordSample(batch string, relErr float64, ulp uint64, pass bool) {
	SamplesReceived.Inc()
	RelativeError.Observe(relErr)
	ULPDistance.Observe(float64(ulp))
	if pass {
		SamplesPassed.WithLabelValues(batch).Inc()
	} else {
		SamplesFailed.WithLabelValues(batch).Inc()
	}
}

// RecordBatch publishes the batch-level accounting.
func RecordBatch(cycles uint64, occupancy int, elapsed time.Duration) {
	PipelineCycles.Add(float64(cycles))
	PipelineOccupancy.Set(float64(occupancy))
	BatchDuration.Observe(elapsed.Seconds())
}

// RecordReference publishes a reference generator's batch time.
func RecordReference(name string, elapsed time.Duration) {
	ReferenceDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}
