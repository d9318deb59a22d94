package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_job_runs_total", Help: "Job executions started.",
	}, []string{"job"})
	mErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_job_errors_total", Help: "Job executions that returned an error or panicked.",
	}, []string{"job"})
	mSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_job_skipped_total", Help: "Ticks dropped because the previous run was still in flight.",
	}, []string{"job"})
	mDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "scheduler_job_duration_seconds", Help: "Job execution time.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	mRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_jobs_registered", Help: "Jobs currently registered.",
	})
)
