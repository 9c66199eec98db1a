package workflow

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkflowRepo abstracts workflow persistence for testability.
type WorkflowRepo interface {
	Get(ctx context.Context, id string) (*Workflow, error)
	List(ctx context.Context) ([]Summary, error)
	Save(ctx context.Context, wf *Workflow) error
}

// Settings holds the graph policies the service applies.
type Settings struct {
	Policy     Policy
	Projection ProjectionOptions
}

// DefaultSettings returns the default structural categories and non-form field types.
func DefaultSettings() Settings {
	return Settings{Policy: DefaultPolicy(), Projection: DefaultProjectionOptions()}
}

// Service wires together the repository and the graph model for the workflow domain.
type Service struct {
	repo     WorkflowRepo
	settings Settings
}

// NewService creates a Service with a real PostgreSQL repository.
func NewService(pool *pgxpool.Pool, settings Settings) (*Service, error) {
	repo := NewRepository(pool)
	return &Service{repo: repo, settings: settings}, nil
}

// Validate runs the graph validator under the service's policy and records the verdict.
func (s *Service) Validate(nodes []Node, edges []Edge) Verdict {
	v := Validate(nodes, edges, s.settings.Policy)
	observeVerdict(v)
	return v
}

// Project reconciles the workflow's saved UI against its current nodes. The returned projection
// is bound to the workflow's node slice.
func (s *Service) Project(wf *Workflow) *UIProjection {
	started := time.Now()
	p := Project(NewNodeStore(wf.Nodes), wf.UI, s.settings.Projection)
	observeProjection(p, started)
	return p
}

// jsonMiddleware sets the Content-Type header to application/json.
func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// LoadRoutes registers workflow HTTP handlers on the given router.
func (s *Service) LoadRoutes(parentRouter *mux.Router) {
	parentRouter.Handle("/validate", jsonMiddleware(http.HandlerFunc(s.HandleValidateDocument))).Methods("POST")

	router := parentRouter.PathPrefix("/workflows").Subrouter()
	router.StrictSlash(false)
	router.Use(jsonMiddleware)

	router.HandleFunc("", s.HandleListWorkflows).Methods("GET")
	router.HandleFunc("", s.HandleCreateWorkflow).Methods("POST")
	router.HandleFunc("/{id}", s.HandleGetWorkflow).Methods("GET")
	router.HandleFunc("/{id}", s.HandleSaveWorkflow).Methods("PUT")
	router.HandleFunc("/{id}/validate", s.HandleValidateWorkflow).Methods("POST")
	router.HandleFunc("/{id}/ui", s.HandleGetUI).Methods("GET")
	router.HandleFunc("/{id}/plan", s.HandleGetPlan).Methods("GET")
	router.HandleFunc("/{id}/outputs", s.HandleGetOutputs).Methods("GET")
}
