package pipeline

import (
	"time"

	"github.com/shouni/gemini-photo-kit/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSucceeded   = "succeeded"
	outcomeRegenerated = "regenerated"
	outcomeFailed      = "failed"
	outcomeCanceled    = "canceled"
	outcomeInvalid     = "invalid"

	resultOK       = "ok"
	resultError    = "error"
	resultCanceled = "canceled"
)

// Metrics はパイプラインの Prometheus メトリクスです。nil のまま使うと何も記録しません。
type Metrics struct {
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	stageDuration *prometheus.HistogramVec
}

// NewMetrics はメトリクスを生成して reg に登録します。
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photo_pipeline",
			Name:      "runs_total",
			Help:      "Number of pipeline runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "photo_pipeline",
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline latency by outcome.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 240},
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "photo_pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Latency of each pipeline stage.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"stage", "result"}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.runDuration, m.stageDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) observeStage(stage domain.Stage, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(stage), result).Observe(d.Seconds())
}

func runOutcome(res *domain.GenerationResult, err error) string {
	switch {
	case domain.IsCanceled(err):
		return outcomeCanceled
	case err != nil:
		return outcomeInvalid
	case !res.OK():
		return outcomeFailed
	case res.WasRegenerated:
		return outcomeRegenerated
	}
	return outcomeSucceeded
}

func stageResult(err error) string {
	switch {
	case err == nil:
		return resultOK
	case domain.IsCanceled(err):
		return resultCanceled
	}
	return resultError
}
