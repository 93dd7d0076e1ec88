package services

import "github.com/prometheus/client_golang/prometheus"

var (
	recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medline_records_total",
			Help: "Total number of processed records by outcome.",
		},
		[]string{"outcome"},
	)
	filesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medline_files_total",
			Help: "Total number of input files by final status.",
		},
		[]string{"status"},
	)
	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medline_step_duration_seconds",
			Help:    "Duration of the per-record ingestion steps.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"step"},
	)
)

func init() {
	prometheus.MustRegister(recordsTotal, filesTotal, stepDuration)
}
