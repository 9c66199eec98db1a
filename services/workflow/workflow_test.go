package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo keeps workflows in memory for handler tests.
type stubRepo struct {
	workflows map[string]*Workflow
	saved     []*Workflow
	err       error
}

func (r *stubRepo) Get(_ context.Context, id string) (*Workflow, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.workflows[id], nil
}

func (r *stubRepo) List(_ context.Context) ([]Summary, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []Summary
	for _, wf := range r.workflows {
		out = append(out, Summary{ID: wf.ID, Name: wf.Name})
	}
	return out, nil
}

func (r *stubRepo) Save(_ context.Context, wf *Workflow) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, wf)
	if r.workflows == nil {
		r.workflows = make(map[string]*Workflow)
	}
	r.workflows[wf.ID] = wf
	return nil
}

func newTestService(wfs ...*Workflow) (*Service, *stubRepo) {
	repo := &stubRepo{workflows: make(map[string]*Workflow)}
	for _, wf := range wfs {
		repo.workflows[wf.ID] = wf
	}
	return &Service{repo: repo, settings: DefaultSettings()}, repo
}

func setupRouter(svc *Service) *mux.Router {
	router := mux.NewRouter()
	svc.LoadRoutes(router.PathPrefix("/api/v1").Subrouter())
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var result map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	return result["message"]
}

const missingID = "00000000-0000-0000-0000-000000000000"

func TestHandleGetWorkflow_Success(t *testing.T) {
	svc, _ := newTestService(sampleWorkflow())
	router := setupRouter(svc)

	w := do(t, router, "GET", "/api/v1/workflows/"+sampleWorkflowID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result Workflow
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, sampleWorkflowID, result.ID)
	assert.Len(t, result.Nodes, 5)
	assert.Len(t, result.Edges, 2)
	assert.Equal(t, []string{"text", "output"}, result.Nodes[1].Data.Template.Names())
}

func TestHandleGetWorkflow_NotFound(t *testing.T) {
	svc, _ := newTestService()
	router := setupRouter(svc)

	w := do(t, router, "GET", "/api/v1/workflows/"+missingID, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "workflow not found", decodeMessage(t, w))
}

func TestHandleGetWorkflow_InvalidID(t *testing.T) {
	svc, _ := newTestService()
	router := setupRouter(svc)

	w := do(t, router, "GET", "/api/v1/workflows/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid workflow id", decodeMessage(t, w))
}

func TestHandleGetWorkflow_RepoError(t *testing.T) {
	svc, repo := newTestService()
	repo.err = errors.New("connection refused")
	router := setupRouter(svc)

	w := do(t, router, "GET", "/api/v1/workflows/"+sampleWorkflowID, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeMessage(t, w))
}

func TestHandleListWorkflows(t *testing.T) {
	svc, _ := newTestService(sampleWorkflow())
	router := setupRouter(svc)

	w := do(t, router, "GET", "/api/v1/workflows", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var result []Summary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	require.Len(t, result, 1)
	assert.Equal(t, "Summarize Text", result[0].Name)
}

func TestHandleListWorkflows_Empty(t *testing.T) {
	svc, _ := newTestService()
	router := setupRouter(svc)

	w := do(t, router, "GET", "/api/v1/workflows", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandleCreateWorkflow(t *testing.T) {
	svc, repo := newTestService()
	router := setupRouter(svc)
	wf := sampleWorkflow()

	w := do(t, router, "POST", "/api/v1/workflows", DocumentRequest{Name: "Copy", Nodes: wf.Nodes, Edges: wf.Edges})

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.saved, 1)
	saved := repo.saved[0]
	assert.NotEqual(t, sampleWorkflowID, saved.ID)
	assert.Equal(t, "Copy", saved.Name)
	require.NotNil(t, saved.UI)
	assert.Equal(t, []string{"source-text.text"}, fieldKeys(saved.UI))
	assert.Equal(t, []string{"result"}, nodeIDs(saved.UI.OutputNodes))
	assert.Equal(t, []string{"trigger"}, nodeIDs(saved.UI.TriggerNodes))
}

func TestHandleCreateWorkflow_InvalidBody(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{"not json", "{", "invalid request body"},
		{"node without id", DocumentRequest{Nodes: []Node{{Type: "Text"}}}, "nodes[0].id is required"},
		{"duplicate node id", DocumentRequest{Nodes: []Node{procNode("a"), procNode("a")}}, "nodes[1].id is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			router := setupRouter(svc)

			var w *httptest.ResponseRecorder
			if s, ok := tt.body.(string); ok {
				req := httptest.NewRequest("POST", "/api/v1/workflows", bytes.NewBufferString(s))
				w = httptest.NewRecorder()
				router.ServeHTTP(w, req)
			} else {
				w = do(t, router, "POST", "/api/v1/workflows", tt.body)
			}

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantMsg, decodeMessage(t, w))
			assert.Empty(t, repo.saved)
		})
	}
}

func TestHandleSaveWorkflow_ReconcilesAgainstStoredUI(t *testing.T) {
	stored := sampleWorkflow()
	stored.Nodes[1].Data.Template.Set("language", shown("en"))
	stored.UI = Project(NewNodeStore(stored.Nodes), nil, DefaultProjectionOptions())
	// The user moved "language" to the top of the form.
	stored.UI.InputFields[0], stored.UI.InputFields[1] = stored.UI.InputFields[1], stored.UI.InputFields[0]
	require.Equal(t, []string{"source-text.language", "source-text.text"}, fieldKeys(stored.UI))

	svc, repo := newTestService(stored)
	router := setupRouter(svc)

	// The editor sends the graph with a new visible field and no ui block.
	edited := sampleWorkflow()
	edited.Nodes[1].Data.Template.Set("language", shown("de"))
	edited.Nodes[1].Data.Template.Set("tone", shown("formal"))

	w := do(t, router, "PUT", "/api/v1/workflows/"+sampleWorkflowID,
		DocumentRequest{Name: stored.Name, Nodes: edited.Nodes, Edges: edited.Edges})

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.saved, 1)
	ui := repo.saved[0].UI
	assert.Equal(t, []string{"source-text.language", "source-text.text", "source-text.tone"}, fieldKeys(ui))
	assert.Equal(t, "de", ui.InputField("source-text", "language").Value())
}

func TestHandleSaveWorkflow_UsesUIFromRequest(t *testing.T) {
	stored := sampleWorkflow()
	svc, repo := newTestService(stored)
	router := setupRouter(svc)

	wf := sampleWorkflow()
	requestUI := &UIProjection{InputFields: []*InputField{
		{NodeID: "gone", FieldName: "intro", descriptor: Field{Value: "Hello", FieldType: FieldTypeParagraph}},
	}}

	w := do(t, router, "PUT", "/api/v1/workflows/"+sampleWorkflowID,
		DocumentRequest{Name: wf.Name, Nodes: wf.Nodes, Edges: wf.Edges, UI: requestUI})

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, []string{"gone.intro", "source-text.text"}, fieldKeys(repo.saved[0].UI))
}

func TestHandleValidateWorkflow(t *testing.T) {
	cyclic := sampleWorkflow()
	cyclic.ID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	cyclic.Edges = append(cyclic.Edges, Edge{ID: "back", Source: "result", Target: "source-text"})

	svc, _ := newTestService(sampleWorkflow(), cyclic)
	router := setupRouter(svc)

	t.Run("runnable", func(t *testing.T) {
		w := do(t, router, "POST", "/api/v1/workflows/"+sampleWorkflowID+"/validate", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var v Verdict
		require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
		assert.True(t, v.Acyclic)
		assert.True(t, v.Connected)
		assert.Empty(t, v.Issues)
	})

	t.Run("cyclic", func(t *testing.T) {
		w := do(t, router, "POST", "/api/v1/workflows/"+cyclic.ID+"/validate", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var v Verdict
		require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
		assert.False(t, v.Acyclic)
		assert.True(t, v.Connected)
		require.Len(t, v.Issues, 1)
		assert.Equal(t, ErrCodeCycleDetected, v.Issues[0].Code)
	})
}

func TestHandleValidateDocument(t *testing.T) {
	svc, _ := newTestService()
	router := setupRouter(svc)

	doc := DocumentRequest{
		Nodes: []Node{procNode("a"), procNode("b"), procNode("c"), procNode("d")},
		Edges: []Edge{edge("a", "b"), edge("c", "d")},
	}
	w := do(t, router, "POST", "/api/v1/validate", doc)

	assert.Equal(t, http.StatusOK, w.Code)
	var v Verdict
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	assert.True(t, v.Acyclic)
	assert.False(t, v.Connected)
	assert.Equal(t, 2, v.Components)
}

func TestHandleValidateDocument_DanglingEdges(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		edges []Edge
	}{
		{"empty target", []Node{procNode("a"), procNode("b")}, []Edge{edge("a", "b"), {ID: "e2", Source: "a"}}},
		{"empty source", []Node{procNode("a"), procNode("b")}, []Edge{edge("a", "b"), {ID: "e2", Target: "b"}}},
		{"unknown node", []Node{procNode("a"), procNode("b")}, []Edge{edge("a", "b"), edge("b", "ghost")}},
		{"duplicate node id", []Node{procNode("a"), procNode("b"), procNode("a")}, []Edge{edge("a", "b")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			router := setupRouter(svc)

			w := do(t, router, "POST", "/api/v1/validate", DocumentRequest{Nodes: tt.nodes, Edges: tt.edges})

			assert.Equal(t, http.StatusOK, w.Code)
			var v Verdict
			require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
			assert.True(t, v.Acyclic)
			assert.True(t, v.Connected)
			assert.Equal(t, 1, v.Components)
		})
	}
}

func TestHandleCreateWorkflow_KeepsDanglingEdges(t *testing.T) {
	svc, repo := newTestService()
	router := setupRouter(svc)

	doc := DocumentRequest{Nodes: []Node{procNode("a")}, Edges: []Edge{{ID: "e1", Source: "a"}}}
	w := do(t, router, "POST", "/api/v1/workflows", doc)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.saved, 1)
	assert.Len(t, repo.saved[0].Edges, 1)
}

func TestHandleGetUI(t *testing.T) {
	svc, _ := newTestService(sampleWorkflow())
	router := setupRouter(svc)

	w := do(t, router, "GET", "/api/v1/workflows/"+sampleWorkflowID+"/ui", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var ui UIProjection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ui))
	assert.Equal(t, []string{"source-text.text"}, fieldKeys(&ui))
	assert.Len(t, ui.OutputNodes, 1)
	assert.Len(t, ui.TriggerNodes, 1)
	assert.Empty(t, ui.WorkflowInvokeOutputNodes)
}

func TestHandleGetPlan(t *testing.T) {
	cyclic := sampleWorkflow()
	cyclic.ID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	cyclic.Edges = append(cyclic.Edges, Edge{ID: "back", Source: "result", Target: "source-text"})

	svc, _ := newTestService(sampleWorkflow(), cyclic)
	router := setupRouter(svc)

	t.Run("ordered", func(t *testing.T) {
		w := do(t, router, "GET", "/api/v1/workflows/"+sampleWorkflowID+"/plan", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var tasks []Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&tasks))
		require.Len(t, tasks, 3)
		assert.Equal(t, "source-text", tasks[0].NodeID)
	})

	t.Run("cycle", func(t *testing.T) {
		w := do(t, router, "GET", "/api/v1/workflows/"+cyclic.ID+"/plan", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var graphErr Error
		require.NoError(t, json.NewDecoder(w.Body).Decode(&graphErr))
		assert.Equal(t, ErrCodeCycleDetected, graphErr.Code)
	})
}

func TestHandleGetOutputs(t *testing.T) {
	wf := sampleWorkflow()
	wf.Nodes[3].Field("text").Value = "A short summary."
	svc, _ := newTestService(wf)
	router := setupRouter(svc)

	w := do(t, router, "GET", "/api/v1/workflows/"+sampleWorkflowID+"/outputs", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var contents []OutputContent
	require.NoError(t, json.NewDecoder(w.Body).Decode(&contents))
	assert.Equal(t, []OutputContent{{Type: "Text", Title: "Summary", Value: "A short summary."}}, contents)
}
