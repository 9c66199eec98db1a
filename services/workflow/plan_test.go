package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_SampleWorkflow(t *testing.T) {
	wf := sampleWorkflow()

	tasks, err := Plan(wf.Nodes, wf.Edges, DefaultPolicy())

	require.NoError(t, err)
	assert.Equal(t, []Task{
		{NodeID: "source-text", TaskName: "text_processing.text_in_out"},
		{NodeID: "summarizer", TaskName: "llms.open_ai"},
		{NodeID: "result", TaskName: "output.text"},
	}, tasks)
}

func TestPlan_KeepsIsolatedNodes(t *testing.T) {
	nodes := []Node{procNode("a"), procNode("b"), procNode("lonely")}

	tasks, err := Plan(nodes, []Edge{edge("b", "a")}, DefaultPolicy())

	require.NoError(t, err)
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.NodeID)
	}
	assert.Equal(t, []string{"b", "lonely", "a"}, ids)
}

func TestPlan_Cycle(t *testing.T) {
	nodes := []Node{procNode("a"), procNode("b")}

	_, err := Plan(nodes, []Edge{edge("a", "b"), edge("b", "a")}, DefaultPolicy())

	require.Error(t, err)
	var graphErr *Error
	require.True(t, errors.As(err, &graphErr))
	assert.Equal(t, ErrCodeCycleDetected, graphErr.Code)
	assert.Equal(t, []string{"a", "b"}, graphErr.Details["nodes"])
	assert.Contains(t, err.Error(), "cycles")
}

func TestPlan_Empty(t *testing.T) {
	tasks, err := Plan(nil, nil, DefaultPolicy())

	require.NoError(t, err)
	assert.Empty(t, tasks)
}
