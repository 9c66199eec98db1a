package workflow

// Task is one entry of a workflow's run order, handed to the backend worker that executes it.
type Task struct {
	NodeID   string `json:"node_id"`
	TaskName string `json:"task_name"`
}

// Plan returns the order in which the backend should run the workflow's nodes. Structural and
// ignored nodes are left out; isolated processing nodes are kept. A cyclic graph has no order
// and yields an *Error with code CYCLE_DETECTED.
func Plan(nodes []Node, edges []Edge, policy Policy) ([]Task, error) {
	g := buildGraph(nodes, edges, policy)

	order, unordered := g.topoSort()
	if len(unordered) > 0 {
		return nil, NewErrorf(ErrCodeCycleDetected, "the graph contains cycles").
			WithDetails(map[string]any{"nodes": unordered})
	}

	// Build node lookup by ID
	nodeMap := make(map[string]*Node, len(nodes))
	for i := range nodes {
		if _, ok := nodeMap[nodes[i].ID]; !ok {
			nodeMap[nodes[i].ID] = &nodes[i]
		}
	}

	tasks := make([]Task, 0, len(order))
	for _, id := range order {
		tasks = append(tasks, Task{NodeID: id, TaskName: nodeMap[id].Data.TaskName})
	}
	return tasks, nil
}
