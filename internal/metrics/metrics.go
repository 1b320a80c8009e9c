package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eplancompare_analyses_total",
			Help: "Total number of completed plan comparisons",
		},
	)

	AnalysisDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eplancompare_analysis_duration_seconds",
			Help:    "Wall time of a full plan comparison",
			Buckets: prometheus.DefBuckets,
		},
	)

	PlansEvaluatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eplancompare_plans_evaluated_total",
			Help: "Plans simulated successfully, per provider",
		},
		[]string{"provider"},
	)

	PlansSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eplancompare_plans_skipped_total",
			Help: "Plans skipped as unusable during simulation, per provider",
		},
		[]string{"provider"},
	)

	CatalogPlansGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eplancompare_catalog_plans",
			Help: "Plans in the last fetched catalog, per source",
		},
		[]string{"source"},
	)

	CatalogFetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eplancompare_catalog_fetch_errors_total",
			Help: "Catalog fetch failures, per source",
		},
		[]string{"source"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eplancompare_request_errors_total",
			Help: "Error responses per path and status code",
		},
		[]string{"path", "code"},
	)
)

var (
	DBPoolTotalConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eplancompare_db_pool_total_conns",
			Help: "Total number of connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBPoolIdleConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eplancompare_db_pool_idle_conns",
			Help: "Idle connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBPoolAcquiredConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eplancompare_db_pool_acquired_conns",
			Help: "Currently acquired (in-use) connections per driver",
		},
		[]string{"driver"},
	)

	DBPoolAcquiresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eplancompare_db_pool_acquires_total",
			Help: "Total number of connection acquires per driver",
		},
		[]string{"driver"},
	)
)

func UpdateDBPoolMetrics(driver string, total, idle, acquired float64, acquires uint64) {
	DBPoolTotalConns.WithLabelValues(driver).Set(total)
	DBPoolIdleConns.WithLabelValues(driver).Set(idle)
	DBPoolAcquiredConns.WithLabelValues(driver).Set(acquired)
	DBPoolAcquiresTotal.WithLabelValues(driver).Add(float64(acquires))
}

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eplancompare_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eplancompare_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eplancompare_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
