package healthcheck

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthcheck_probes_total", Help: "Probes by outcome.",
	}, []string{"result"})
	mProbeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "healthcheck_probe_latency_seconds",
		Help:    "Wall time of a probe, including failed ones.",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})
	mSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "healthcheck_sync_duration_seconds", Help: "Component sync pass duration.",
		Buckets: prometheus.DefBuckets,
	})
	mSyncErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthcheck_sync_errors_total", Help: "Failed component sync passes.",
	})
	mMonitored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "healthcheck_monitored_components", Help: "Components currently cached for probing.",
	})
)
