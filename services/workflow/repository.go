package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles workflow document persistence in PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// InitSchema creates the workflows table if it does not exist.
func (r *Repository) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS workflows (
			id         UUID PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			nodes      JSONB NOT NULL DEFAULT '[]',
			edges      JSONB NOT NULL DEFAULT '[]',
			ui         JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	_, err = r.db.Exec(ctx, `ALTER TABLE workflows ADD COLUMN IF NOT EXISTS ui JSONB`)
	if err != nil {
		return fmt.Errorf("migrate ui column: %w", err)
	}
	return nil
}

// Seed inserts the sample workflow if it does not already exist.
func (r *Repository) Seed(ctx context.Context) error {
	wf := sampleWorkflow()
	store := NewNodeStore(wf.Nodes)
	wf.UI = Project(store, nil, DefaultProjectionOptions())

	nodesJSON, edgesJSON, uiJSON, err := marshalDocument(wf)
	if err != nil {
		return fmt.Errorf("marshal seed workflow: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO workflows (id, name, nodes, edges, ui)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, wf.ID, wf.Name, nodesJSON, edgesJSON, uiJSON)
	if err != nil {
		return fmt.Errorf("seed workflow: %w", err)
	}
	return nil
}

// Get retrieves a workflow by ID. Returns nil, nil if not found. The saved UI projection is
// decoded leniently: a missing, null or malformed ui column yields a nil UI.
func (r *Repository) Get(ctx context.Context, id string) (*Workflow, error) {
	var wf Workflow
	var nodesJSON, edgesJSON, uiJSON []byte

	err := r.db.QueryRow(ctx, `
		SELECT id, name, nodes, edges, ui, created_at, updated_at
		FROM workflows WHERE id = $1
	`, id).Scan(&wf.ID, &wf.Name, &nodesJSON, &edgesJSON, &uiJSON, &wf.CreatedAt, &wf.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}

	if err := json.Unmarshal(nodesJSON, &wf.Nodes); err != nil {
		return nil, fmt.Errorf("unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal(edgesJSON, &wf.Edges); err != nil {
		return nil, fmt.Errorf("unmarshal edges: %w", err)
	}
	wf.UI = decodeUI(wf.ID, uiJSON)
	return &wf, nil
}

// decodeUI decodes a saved UI projection. A projection that cannot be decoded is logged and
// treated as absent, so the next Project call rebuilds it from the nodes.
func decodeUI(id string, data []byte) *UIProjection {
	if len(data) == 0 {
		return nil
	}
	var ui *UIProjection
	if err := json.Unmarshal(data, &ui); err != nil {
		slog.Warn("Discarding undecodable UI projection", "id", id, "error", err)
		return nil
	}
	return ui
}

// List returns all stored workflows, most recently updated first.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, updated_at FROM workflows ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var s Summary
		err := row.Scan(&s.ID, &s.Name, &s.UpdatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan workflows: %w", err)
	}
	return summaries, nil
}

// Save inserts or replaces the workflow document and stamps its timestamps.
func (r *Repository) Save(ctx context.Context, wf *Workflow) error {
	nodesJSON, edgesJSON, uiJSON, err := marshalDocument(wf)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO workflows (id, name, nodes, edges, ui)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, nodes = EXCLUDED.nodes, edges = EXCLUDED.edges,
		    ui = EXCLUDED.ui, updated_at = NOW()
		RETURNING created_at, updated_at
	`, wf.ID, wf.Name, nodesJSON, edgesJSON, uiJSON).Scan(&wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	return nil
}

func marshalDocument(wf *Workflow) (nodes, edges, ui []byte, err error) {
	if nodes, err = json.Marshal(nonNil(wf.Nodes)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal nodes: %w", err)
	}
	if edges, err = json.Marshal(nonNil(wf.Edges)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal edges: %w", err)
	}
	if wf.UI != nil {
		if ui, err = json.Marshal(wf.UI); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal ui: %w", err)
		}
	}
	return nodes, edges, ui, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// InitDB creates the schema and seeds initial data. Called from serve on startup.
func InitDB(ctx context.Context, pool *pgxpool.Pool) error {
	repo := NewRepository(pool)
	if err := repo.InitSchema(ctx); err != nil {
		return err
	}
	return repo.Seed(ctx)
}
