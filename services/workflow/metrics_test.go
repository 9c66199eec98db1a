package workflow

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, collection string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, projectedEntries.WithLabelValues(collection).Write(&m))
	return m.GetGauge().GetValue()
}

func TestObserveProjection_CountsEveryCollection(t *testing.T) {
	svc, _ := newTestService()
	wf := sampleWorkflow()
	wf.Nodes = append(wf.Nodes,
		Node{ID: "invoke-a", Type: string(OutputWorkflowInvoke), Category: CategoryOutputs},
		Node{ID: "invoke-b", Type: string(OutputWorkflowInvoke), Category: CategoryOutputs},
	)

	svc.Project(wf)

	assert.Equal(t, 1.0, gaugeValue(t, "input_fields"))
	assert.Equal(t, 1.0, gaugeValue(t, "output_nodes"))
	assert.Equal(t, 1.0, gaugeValue(t, "trigger_nodes"))
	assert.Equal(t, 2.0, gaugeValue(t, "workflow_invoke_output_nodes"))
}

func TestObserveVerdict(t *testing.T) {
	counter := validationsTotal.WithLabelValues("false", "true")
	var before, after dto.Metric
	require.NoError(t, counter.Write(&before))

	svc, _ := newTestService()
	svc.Validate([]Node{procNode("a")}, []Edge{edge("a", "a")})

	require.NoError(t, counter.Write(&after))
	assert.Equal(t, before.GetCounter().GetValue()+1, after.GetCounter().GetValue())
}
