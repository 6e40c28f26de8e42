package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landsync_batches_total",
		Help: "Batch runs by kind and result",
	}, []string{"kind", "result"})
	BatchDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "landsync_batch_duration_seconds",
		Help:    "Batch run duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"kind"})
	RowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landsync_rows_total",
		Help: "Spreadsheet rows by outcome",
	}, []string{"outcome"})
	EntityWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landsync_entity_writes_total",
		Help: "Landholder and parcel writes by action",
	}, []string{"entity", "action"})
	RemediationActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landsync_remediation_actions_total",
		Help: "Applied duplicate remediation actions by class",
	}, []string{"class"})
)

// Batch kinds and results used as label values.
const (
	KindImport = "import"
	KindDedupe = "dedupe"

	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDryRun  = "dry_run"
	ResultLocked  = "locked"
)

func init() {
	prometheus.MustRegister(BatchesTotal)
	prometheus.MustRegister(BatchDurationSeconds)
	prometheus.MustRegister(RowsTotal)
	prometheus.MustRegister(EntityWritesTotal)
	prometheus.MustRegister(RemediationActionsTotal)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
