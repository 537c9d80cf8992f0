package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Body strategies, used as metric labels.
const (
	StrategyAI       = "ai"
	StrategyTemplate = "template"
	StrategyBlank    = "blank"
)

var (
	draftsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_drafts_total",
			Help: "Total number of drafts produced, by body strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outreach_generation_duration_seconds",
			Help:    "Duration of a single chat completion call in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"outcome"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_runs_total",
			Help: "Total number of generation runs, by result",
		},
		[]string{"result"},
	)

	runsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outreach_runs_active",
			Help: "Number of generation runs currently holding a slot",
		},
	)
)

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
