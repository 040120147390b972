package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"image-score-harness/internal/models"
)

const metricsNamespace = "imagescore"

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	ticks         *prometheus.CounterVec
	scoreDuration prometheus.Histogram
	psnr          prometheus.Gauge
	mssim         *prometheus.GaugeVec
	restarts      *prometheus.CounterVec
	running       prometheus.Gauge
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ticks_total",
			Help:      "Pipeline ticks by outcome.",
		}, []string{"outcome"}),
		scoreDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "score_duration_seconds",
			Help:      "Time spent in the scorer per tick.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		psnr: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "psnr_db",
			Help:      "PSNR of the most recent scored tick.",
		}),
		mssim: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "mssim",
			Help:      "Mean SSIM per channel of the most recent scored tick.",
		}, []string{"channel"}),
		restarts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_restarts_total",
			Help:      "Pipeline restarts by the parameter that changed.",
		}, []string{"reason"}),
		running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_running",
			Help:      "1 while a pipeline instance is running.",
		}),
	}

	for _, o := range Outcomes() {
		m.ticks.WithLabelValues(string(o))
	}
	return m
}

func (m *Metrics) ObserveTick(outcome Outcome) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) ObserveScore(result models.ScoreResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scoreDuration.Observe(elapsed.Seconds())
	m.psnr.Set(result.PSNR)
	m.mssim.WithLabelValues("r").Set(result.MSSIM.R)
	m.mssim.WithLabelValues("g").Set(result.MSSIM.G)
	m.mssim.WithLabelValues("b").Set(result.MSSIM.B)
	m.mssim.WithLabelValues("a").Set(result.MSSIM.A)
}

func (m *Metrics) ObserveRestart(reason string) {
	if m == nil {
		return
	}
	m.restarts.WithLabelValues(reason).Inc()
}

// RestartCounter exposes the restart counter of one reason
func (m *Metrics) RestartCounter(reason string) prometheus.Counter {
	return m.restarts.WithLabelValues(reason)
}

func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.running.Set(1)
	} else {
		m.running.Set(0)
	}
}
