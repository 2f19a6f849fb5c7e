package store

import (
	"context"
	"time"

	"github.com/insightbrd/brd/internal/models"
)

// ConflictListFilter specifies filters for listing conflicts.
type ConflictListFilter struct {
	ProjectID      string
	UnresolvedOnly bool
}

// Store defines the persistence interface for brd.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjectByName(ctx context.Context, name string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error

	// Stakeholders
	CreateStakeholder(ctx context.Context, st *models.Stakeholder) error
	ListStakeholders(ctx context.Context, projectID string) ([]*models.Stakeholder, error)
	DeleteStakeholder(ctx context.Context, id string) error

	// Requirements
	CreateRequirement(ctx context.Context, r *models.Requirement) error
	GetRequirement(ctx context.Context, id string) (*models.Requirement, error)
	ListRequirements(ctx context.Context, projectID string) ([]*models.Requirement, error)
	// UpdateRequirement persists r and appends one Revision row per field
	// whose value actually changed, all in a single transaction. It returns
	// the revisions it created.
	UpdateRequirement(ctx context.Context, r *models.Requirement, changedBy string) ([]*models.Revision, error)
	DeleteRequirement(ctx context.Context, id string) error

	// Revisions
	ListRevisions(ctx context.Context, projectID string) ([]*models.Revision, error)
	CountRevisionsSince(ctx context.Context, projectID string, since time.Time) (int, error)

	// Conflicts
	// UpsertConflict inserts a conflict keyed on (project, req_a, req_b) so
	// that at most one unresolved conflict exists per requirement pair.
	// Re-detection refreshes type, severity, and summary in place.
	UpsertConflict(ctx context.Context, c *models.Conflict) error
	GetConflict(ctx context.Context, id string) (*models.Conflict, error)
	ListConflicts(ctx context.Context, filter ConflictListFilter) ([]*models.Conflict, error)
	// ResolveConflict marks the conflict resolved. The deprecate action also
	// sets both linked requirements' status to deprecated, atomically.
	ResolveConflict(ctx context.Context, id string, action models.ResolveAction) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
