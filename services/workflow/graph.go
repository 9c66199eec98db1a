package workflow

import (
	"fmt"
	"slices"
)

// Policy selects the structural node categories that take no part in graph validation.
// Older editor revisions excluded only triggers; newer ones also exclude assisted (annotation)
// nodes, so the set is configuration rather than a constant.
type Policy struct {
	StructuralCategories []string `json:"structuralCategories"`
}

// DefaultPolicy excludes triggers and assisted nodes.
func DefaultPolicy() Policy {
	return Policy{StructuralCategories: []string{CategoryTriggers, CategoryAssisted}}
}

// IsStructural reports whether nodes of the given category are left out of the graph.
func (p Policy) IsStructural(category string) bool {
	return slices.Contains(p.StructuralCategories, category)
}

// Verdict is the outcome of Validate. Both checks always run so the editor can show
// distinct diagnostics for a graph that is cyclic and disconnected at once.
type Verdict struct {
	Acyclic    bool `json:"acyclic"`
	Connected  bool `json:"connected"`
	Components int  `json:"components"`
	// UnorderedNodes are the nodes Kahn's algorithm could not release: members of a cycle
	// and everything downstream of one.
	UnorderedNodes []string `json:"unorderedNodes,omitempty"`
	Issues         []Issue  `json:"issues,omitempty"`
}

// Runnable reports whether the workflow may be executed.
func (v Verdict) Runnable() bool {
	return v.Acyclic && v.Connected
}

// Validate checks that the non-structural part of the workflow graph is a single weakly
// connected DAG. Edges that reference unknown, ignored or structural nodes are dropped
// before analysis; parallel edges between the same pair count once. An empty graph is valid.
func Validate(nodes []Node, edges []Edge, policy Policy) Verdict {
	g := buildGraph(nodes, edges, policy)

	order, unordered := g.topoSort()
	components := g.components()

	v := Verdict{
		Acyclic:        len(order) == len(g.vertices),
		Connected:      components <= 1,
		Components:     components,
		UnorderedNodes: unordered,
	}

	if !v.Acyclic {
		v.Issues = append(v.Issues, Issue{
			Path:    "edges",
			Code:    ErrCodeCycleDetected,
			Message: fmt.Sprintf("workflow contains a dependency cycle (%d nodes cannot be ordered)", len(unordered)),
		})
	}
	if !v.Connected {
		v.Issues = append(v.Issues, Issue{
			Path:    "nodes",
			Code:    ErrCodeDisconnected,
			Message: fmt.Sprintf("workflow is split into %d disconnected parts", components),
		})
		for _, id := range g.isolated() {
			v.Issues = append(v.Issues, Issue{
				Path:    fmt.Sprintf("nodes[%s]", id),
				Code:    ErrCodeDisconnected,
				Message: fmt.Sprintf("node %q is not connected to any other node", id),
			})
		}
	}
	return v
}

// graph is the filtered, collapsed dependency graph shared by Validate and Plan.
type graph struct {
	vertices []string
	has      map[string]bool
	out      map[string][]string
	adj      map[string][]string
}

func buildGraph(nodes []Node, edges []Edge, policy Policy) *graph {
	g := &graph{
		vertices: make([]string, 0, len(nodes)),
		has:      make(map[string]bool, len(nodes)),
		out:      make(map[string][]string, len(nodes)),
		adj:      make(map[string][]string, len(nodes)),
	}

	for _, n := range nodes {
		if n.Ignored || policy.IsStructural(n.Category) || g.has[n.ID] {
			continue
		}
		g.has[n.ID] = true
		g.vertices = append(g.vertices, n.ID)
	}

	seen := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		if e.Ignored || !g.has[e.Source] || !g.has[e.Target] {
			continue
		}
		key := [2]string{e.Source, e.Target}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.out[e.Source] = append(g.out[e.Source], e.Target)
		g.adj[e.Source] = append(g.adj[e.Source], e.Target)
		if e.Source != e.Target {
			g.adj[e.Target] = append(g.adj[e.Target], e.Source)
		}
	}
	return g
}

// topoSort runs Kahn's algorithm. It returns the released vertices in order and, when a cycle
// blocks progress, the vertices that were never released.
func (g *graph) topoSort() (order, unordered []string) {
	inDegree := make(map[string]int, len(g.vertices))
	for _, v := range g.vertices {
		for _, w := range g.out[v] {
			inDegree[w]++
		}
	}

	queue := make([]string, 0, len(g.vertices))
	for _, v := range g.vertices {
		if inDegree[v] == 0 {
			queue = append(queue, v)
		}
	}

	order = make([]string, 0, len(g.vertices))
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, w := range g.out[v] {
			inDegree[w]--
			if inDegree[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	if len(order) < len(g.vertices) {
		for _, v := range g.vertices {
			if inDegree[v] > 0 {
				unordered = append(unordered, v)
			}
		}
	}
	return order, unordered
}

// components counts weakly connected components with a BFS per unvisited vertex.
func (g *graph) components() int {
	visited := make(map[string]bool, len(g.vertices))
	count := 0
	for _, start := range g.vertices {
		if visited[start] {
			continue
		}
		count++
		visited[start] = true
		queue := []string{start}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range g.adj[v] {
				if !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
		}
	}
	return count
}

// isolated returns vertices with no incident edges, in node order.
func (g *graph) isolated() []string {
	var ids []string
	for _, v := range g.vertices {
		if len(g.adj[v]) == 0 {
			ids = append(ids, v)
		}
	}
	return ids
}
