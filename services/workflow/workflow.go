package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// DocumentRequest is the JSON body the editor sends when creating, saving or checking a workflow.
type DocumentRequest struct {
	Name  string        `json:"name"`
	Nodes []Node        `json:"nodes"`
	Edges []Edge        `json:"edges"`
	UI    *UIProjection `json:"ui,omitempty"`
}

// HandleListWorkflows returns summaries of all stored workflows.
func (s *Service) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.repo.List(r.Context())
	if err != nil {
		slog.Error("Failed to list workflows", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if summaries == nil {
		summaries = []Summary{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(summaries)
}

// HandleCreateWorkflow stores a new workflow under a fresh id with its UI projection computed.
func (s *Service) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeDocument(w, r)
	if !ok {
		return
	}

	wf := &Workflow{ID: uuid.New().String(), Name: req.Name, Nodes: req.Nodes, Edges: req.Edges, UI: req.UI}
	wf.UI = s.Project(wf)
	slog.Debug("Creating workflow", "id", wf.ID, "nodes", len(wf.Nodes))

	if err := s.repo.Save(r.Context(), wf); err != nil {
		slog.Error("Failed to create workflow", "id", wf.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(wf)
}

// HandleGetWorkflow loads a workflow document from the database and returns it as JSON.
func (s *Service) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.loadWorkflow(w, r)
	if !ok {
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(wf)
}

// HandleSaveWorkflow replaces a workflow document. The UI projection is reconciled against the
// one sent by the editor, or the stored one when the request carries none.
func (s *Service) HandleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := decodeDocument(w, r)
	if !ok {
		return
	}

	baseline := req.UI
	if baseline == nil {
		existing, err := s.repo.Get(r.Context(), id)
		if err != nil {
			slog.Error("Failed to load workflow before save", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if existing != nil {
			baseline = existing.UI
		}
	}

	wf := &Workflow{ID: id, Name: req.Name, Nodes: req.Nodes, Edges: req.Edges, UI: baseline}
	wf.UI = s.Project(wf)
	slog.Debug("Saving workflow", "id", id, "inputFields", len(wf.UI.InputFields))

	if err := s.repo.Save(r.Context(), wf); err != nil {
		slog.Error("Failed to save workflow", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(wf)
}

// HandleValidateWorkflow validates a stored workflow's graph.
func (s *Service) HandleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.loadWorkflow(w, r)
	if !ok {
		return
	}

	verdict := s.Validate(wf.Nodes, wf.Edges)
	if !verdict.Runnable() {
		slog.Debug("Workflow is not runnable", "id", wf.ID, "acyclic", verdict.Acyclic, "connected", verdict.Connected)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(verdict)
}

// HandleValidateDocument validates an unsaved graph sent in the request body. The body is not
// shape-checked: empty or unknown ids are filtered by the validator like any dangling reference.
func (s *Service) HandleValidateDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody(w, r)
	if !ok {
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.Validate(req.Nodes, req.Edges))
}

// HandleGetUI returns the stored workflow's UI projection reconciled against its current nodes.
func (s *Service) HandleGetUI(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.loadWorkflow(w, r)
	if !ok {
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.Project(wf))
}

// HandleGetPlan returns the task order for a stored workflow, or 422 if the graph is cyclic.
func (s *Service) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.loadWorkflow(w, r)
	if !ok {
		return
	}

	tasks, err := Plan(wf.Nodes, wf.Edges, s.settings.Policy)
	var graphErr *Error
	if errors.As(err, &graphErr) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(graphErr)
		return
	}
	if err != nil {
		slog.Error("Failed to plan workflow", "id", wf.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(tasks)
}

// HandleGetOutputs returns the results-panel contents of a stored workflow's output nodes.
func (s *Service) HandleGetOutputs(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.loadWorkflow(w, r)
	if !ok {
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(OutputContents(s.Project(wf).OutputNodes))
}

// loadWorkflow resolves the {id} route variable to a stored workflow, writing the error
// response itself when it cannot.
func (s *Service) loadWorkflow(w http.ResponseWriter, r *http.Request) (*Workflow, bool) {
	id, ok := parseID(w, r)
	if !ok {
		return nil, false
	}
	slog.Debug("Getting workflow", "id", id)

	wf, err := s.repo.Get(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get workflow", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if wf == nil {
		writeError(w, http.StatusNotFound, "workflow not found")
		return nil, false
	}
	return wf, true
}

func parseID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid workflow id")
		return "", false
	}
	return id.String(), true
}

func decodeBody(w http.ResponseWriter, r *http.Request) (DocumentRequest, bool) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

// decodeDocument decodes a document that is about to be stored.
func decodeDocument(w http.ResponseWriter, r *http.Request) (DocumentRequest, bool) {
	req, ok := decodeBody(w, r)
	if !ok {
		return req, false
	}
	if err := validateDocument(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Message)
		return req, false
	}
	return req, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// validateDocument checks that every stored node has a unique id, since saved UI entries are
// keyed by it. Edges are not checked: dangling or empty endpoints are dropped by Validate.
func validateDocument(req DocumentRequest) *Error {
	seen := make(map[string]bool, len(req.Nodes))
	for i, n := range req.Nodes {
		field := fmt.Sprintf("nodes[%d].id", i)
		if n.ID == "" {
			return errMissing(field)
		}
		if seen[n.ID] {
			return errInvalid(field)
		}
		seen[n.ID] = true
	}
	return nil
}

func errMissing(field string) *Error {
	return NewErrorf(ErrCodeValidation, "%s is required", field).WithDetails(map[string]any{"field": field})
}

func errInvalid(field string) *Error {
	return NewErrorf(ErrCodeValidation, "%s is invalid", field).WithDetails(map[string]any{"field": field})
}
