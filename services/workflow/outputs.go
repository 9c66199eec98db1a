package workflow

import "slices"

// OutputType is the node type of an output-category node.
type OutputType string

// Output node types known to the projection. Types outside this set fall back to the generic rule.
const (
	OutputText           OutputType = "Text"
	OutputAudio          OutputType = "Audio"
	OutputDocument       OutputType = "Document"
	OutputEcharts        OutputType = "Echarts"
	OutputMermaid        OutputType = "Mermaid"
	OutputMindmap        OutputType = "Mindmap"
	OutputTable          OutputType = "Table"
	OutputHTML           OutputType = "Html"
	OutputPictureRender  OutputType = "PictureRender"
	OutputEmail          OutputType = "Email"
	OutputWorkflowInvoke OutputType = "WorkflowInvokeOutput"
)

// includeOutput decides whether an output node is shown in the results panel.
func includeOutput(n *Node, nonForm []string) bool {
	switch OutputType(n.Type) {
	case OutputText:
		f := n.Field("text")
		return f != nil && f.Show
	case OutputAudio:
		return toggle(n, "show_player")
	case OutputDocument:
		return toggle(n, "show_local_file")
	case OutputEcharts:
		return toggle(n, "show_echarts")
	case OutputMermaid:
		return toggle(n, "show_mermaid")
	case OutputMindmap:
		return toggle(n, "show_mind_map")
	case OutputTable:
		return toggle(n, "show_table")
	case OutputHTML, OutputPictureRender, OutputEmail:
		return genericOutput(n, nonForm)
	default:
		return genericOutput(n, nonForm)
	}
}

// toggle reads a boolean switch field. A template without the switch is shown.
func toggle(n *Node, name string) bool {
	f := n.Field(name)
	if f == nil {
		return true
	}
	b, _ := f.Value.(bool)
	return b
}

// genericOutput shows nodes that carry a paragraph-like decorative field, and otherwise
// follows the template's "show" switch, defaulting to shown.
func genericOutput(n *Node, nonForm []string) bool {
	for _, name := range n.Data.Template.Names() {
		if slices.Contains(nonForm, n.Field(name).FieldType) {
			return true
		}
	}
	return toggle(n, "show")
}

// OutputContent is a projected output node flattened for the results panel.
type OutputContent struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value any    `json:"value"`
}

// OutputContents maps output nodes to the title and value the results panel renders.
func OutputContents(nodes []*Node) []OutputContent {
	contents := make([]OutputContent, 0, len(nodes))
	for _, n := range nodes {
		c := OutputContent{Type: n.Type, Value: ""}
		switch OutputType(n.Type) {
		case OutputText:
			c.Title, _ = fieldValue(n, "output_title").(string)
			c.Value = fieldValue(n, "text")
		case OutputAudio:
			c.Title = "Audio"
			c.Value = fieldValue(n, "audio_url")
		case OutputMindmap:
			c.Title = "Mindmap"
			c.Value = fieldValue(n, "content")
		case OutputMermaid:
			c.Title = "Mermaid"
			c.Value = fieldValue(n, "content")
		case OutputEcharts:
			c.Title = "Echarts"
			c.Value = fieldValue(n, "option")
		case OutputTable:
			c.Title = "Table"
			c.Value = fieldValue(n, "option")
		case OutputHTML:
			c.Title = "HTML"
			c.Value = fieldValue(n, "output")
		}
		contents = append(contents, c)
	}
	return contents
}

func fieldValue(n *Node, name string) any {
	if f := n.Field(name); f != nil {
		return f.Value
	}
	return ""
}
