package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	compositionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildmecv",
			Subsystem: "compositor",
			Name:      "documents_total",
			Help:      "PDF 合成次数，按模板、引擎与结果区分。",
		},
		[]string{"template", "engine", "outcome"},
	)

	compositionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildmecv",
			Subsystem: "compositor",
			Name:      "duration_seconds",
			Help:      "PDF 合成耗时分布（秒）。",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"template", "engine"},
	)

	compositionPages = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildmecv",
			Subsystem: "compositor",
			Name:      "pages",
			Help:      "生成文档的页数分布。",
			Buckets:   []float64{1, 2, 3, 4, 6, 10},
		},
		[]string{"template"},
	)

	previewRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildmecv",
			Subsystem: "preview",
			Name:      "renders_total",
			Help:      "预览重新渲染次数。",
		},
		[]string{"outcome"},
	)
)

// ObserveComposition records one compositor run. outcome is "ok",
// "invalid" or "failed"; pages is ignored unless outcome is "ok".
func ObserveComposition(template, engine, outcome string, pages int, elapsed time.Duration) {
	compositionsTotal.WithLabelValues(template, engine, outcome).Inc()
	compositionDuration.WithLabelValues(template, engine).Observe(elapsed.Seconds())
	if outcome == "ok" {
		compositionPages.WithLabelValues(template).Observe(float64(pages))
	}
}

// ObservePreview counts a preview re-render.
func ObservePreview(err error) {
	previewRenders.WithLabelValues(outcome(err)).Inc()
}
