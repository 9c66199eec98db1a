package workflow

import "time"

// Node categories the graph model treats specially. Every other category is a processing category.
const (
	CategoryTriggers = "triggers"
	CategoryOutputs  = "outputs"
	CategoryAssisted = "assistedNodes"
)

// Workflow is a persisted workflow document: the editor's graph plus the saved UI projection.
type Workflow struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Nodes     []Node        `json:"nodes"`
	Edges     []Edge        `json:"edges"`
	UI        *UIProjection `json:"ui,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Summary is the list view of a stored workflow.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Node represents a single step in a workflow graph.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Category string   `json:"category"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
	Ignored  bool     `json:"ignored,omitempty"`
}

// Position holds x/y coordinates for rendering the node on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData holds the node's field template and the flags the editor attaches to it.
type NodeData struct {
	Description string   `json:"description,omitempty"`
	TaskName    string   `json:"task_name,omitempty"`
	HasInputs   bool     `json:"has_inputs"`
	Template    Template `json:"template"`
}

// Edge represents a directed connection between two nodes. Several edges may join the same
// pair of nodes through different handles.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Ignored      bool   `json:"ignored,omitempty"`
}

// Field returns the named template field, or nil.
func (n *Node) Field(name string) *Field {
	return n.Data.Template.Get(name)
}

// hasShownFields reports whether any template field is currently visible.
func (n *Node) hasShownFields() bool {
	for _, name := range n.Data.Template.Names() {
		if n.Data.Template.Get(name).Show {
			return true
		}
	}
	return false
}
