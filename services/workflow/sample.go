package workflow

const sampleWorkflowID = "550e8400-e29b-41d4-a716-446655440000"

func textField(value any, show bool, fieldType string) *Field {
	return &Field{
		Value: value, Show: show, Required: true, FieldType: fieldType,
		Hints: map[string]any{"type": "str", "list": false, "placeholder": ""},
	}
}

// sampleWorkflow is a button-triggered prompt chain: a text input feeds an LLM whose answer is
// shown by a text output node.
func sampleWorkflow() *Workflow {
	return &Workflow{
		ID:   sampleWorkflowID,
		Name: "Summarize Text",
		Nodes: []Node{
			{
				ID: "trigger", Type: "ButtonTrigger", Category: CategoryTriggers,
				Position: Position{X: -240, Y: 120},
				Data: NodeData{
					TaskName: "triggers.button_trigger",
					Template: NewTemplate(
						TemplateEntry{"button_text", textField("Run", false, "input")},
					),
				},
			},
			{
				ID: "source-text", Type: "TextInOut", Category: "textProcessing",
				Position: Position{X: 0, Y: 120},
				Data: NodeData{
					TaskName: "text_processing.text_in_out", HasInputs: true,
					Template: NewTemplate(
						TemplateEntry{"text", textField("", true, "textarea")},
						TemplateEntry{"output", textField("", false, "")},
					),
				},
			},
			{
				ID: "summarizer", Type: "OpenAI", Category: "llms",
				Position: Position{X: 320, Y: 120},
				Data: NodeData{
					TaskName: "llms.open_ai", HasInputs: true,
					Template: NewTemplate(
						TemplateEntry{"prompt", textField("", false, "textarea")},
						TemplateEntry{"llm_model", textField("gpt-4o-mini", false, "select")},
						TemplateEntry{"temperature", &Field{Value: 0.7, FieldType: "temperature"}},
						TemplateEntry{"output", textField("", false, "")},
					),
				},
			},
			{
				ID: "result", Type: "Text", Category: CategoryOutputs,
				Position: Position{X: 640, Y: 120},
				Data: NodeData{
					TaskName: "output.text",
					Template: NewTemplate(
						TemplateEntry{"text", textField("", true, "textarea")},
						TemplateEntry{"output_title", textField("Summary", false, "input")},
						TemplateEntry{"render_markdown", &Field{Value: true, Required: true, FieldType: "checkbox"}},
					),
				},
			},
			{
				ID: "note", Type: "CommentNode", Category: CategoryAssisted,
				Position: Position{X: 0, Y: -60},
				Data: NodeData{
					Template: NewTemplate(
						TemplateEntry{"comment", textField("Paste any text and press Run.", false, "textarea")},
					),
				},
			},
		},
		Edges: []Edge{
			{ID: "e1", Source: "source-text", Target: "summarizer", SourceHandle: "output", TargetHandle: "prompt"},
			{ID: "e2", Source: "summarizer", Target: "result", SourceHandle: "output", TargetHandle: "text"},
		},
	}
}
