package workflow

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workflow",
		Name:      "validations_total",
		Help:      "Graph validations by verdict.",
	}, []string{"acyclic", "connected"})

	projectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "workflow",
		Name:      "projection_duration_seconds",
		Help:      "Time spent reconciling UI projections.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	projectedEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "workflow",
		Name:      "projected_entries",
		Help:      "Entries in the most recent UI projection, by collection.",
	}, []string{"collection"})
)

func observeVerdict(v Verdict) {
	validationsTotal.WithLabelValues(strconv.FormatBool(v.Acyclic), strconv.FormatBool(v.Connected)).Inc()
}

func observeProjection(p *UIProjection, started time.Time) {
	projectionDuration.Observe(time.Since(started).Seconds())
	projectedEntries.WithLabelValues("input_fields").Set(float64(len(p.InputFields)))
	projectedEntries.WithLabelValues("output_nodes").Set(float64(len(p.OutputNodes)))
	projectedEntries.WithLabelValues("trigger_nodes").Set(float64(len(p.TriggerNodes)))
	projectedEntries.WithLabelValues("workflow_invoke_output_nodes").Set(float64(len(p.WorkflowInvokeOutputNodes)))
}
