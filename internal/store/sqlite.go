package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/insightbrd/brd/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// formatScore stringifies a numeric field value for revision records.
// Whole numbers keep one decimal place ("5.0") so old/new values read as
// scores rather than counts.
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Projects ---

func (s *SQLiteStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusDraft
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.scanProjectRow(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, status, created_at, updated_at
		FROM projects WHERE id = ?`, id), id)
}

func (s *SQLiteStore) GetProjectByName(ctx context.Context, name string) (*models.Project, error) {
	return s.scanProjectRow(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, status, created_at, updated_at
		FROM projects WHERE name = ?`, name), name)
}

func (s *SQLiteStore) scanProjectRow(row *sql.Row, ref string) (*models.Project, error) {
	p := &models.Project{}
	var status string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found: %s", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	p.Status = models.ProjectStatus(status)
	return p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, status, created_at, updated_at
		FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*models.Project
	for rows.Next() {
		p := &models.Project{}
		var status string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.Status = models.ProjectStatus(status)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, p *models.Project) error {
	p.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name=?, description=?, status=?, updated_at=? WHERE id=?`,
		p.Name, p.Description, string(p.Status), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project not found: %s", p.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

// --- Stakeholders ---

func (s *SQLiteStore) CreateStakeholder(ctx context.Context, st *models.Stakeholder) error {
	if st.ID == "" {
		st.ID = newULID()
	}
	if st.InfluenceScore == 0 {
		st.InfluenceScore = 1.0
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stakeholders (id, project_id, name, role, influence_score, email)
		VALUES (?, ?, ?, ?, ?, ?)`,
		st.ID, st.ProjectID, st.Name, st.Role, st.InfluenceScore, st.Email,
	)
	if err != nil {
		return fmt.Errorf("create stakeholder: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListStakeholders(ctx context.Context, projectID string) ([]*models.Stakeholder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, role, influence_score, email
		FROM stakeholders WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list stakeholders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stakeholders []*models.Stakeholder
	for rows.Next() {
		st := &models.Stakeholder{}
		if err := rows.Scan(&st.ID, &st.ProjectID, &st.Name, &st.Role, &st.InfluenceScore, &st.Email); err != nil {
			return nil, fmt.Errorf("scan stakeholder: %w", err)
		}
		stakeholders = append(stakeholders, st)
	}
	return stakeholders, rows.Err()
}

func (s *SQLiteStore) DeleteStakeholder(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM stakeholders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete stakeholder: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("stakeholder not found: %s", id)
	}
	return nil
}

// --- Requirements ---

func (s *SQLiteStore) CreateRequirement(ctx context.Context, r *models.Requirement) error {
	if r.ID == "" {
		r.ID = newULID()
	}
	if r.Status == "" {
		r.Status = models.RequirementStatusExtracted
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requirements (id, project_id, stakeholder_id, text, source_type, source_ref, category, priority_score, sentiment_score, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProjectID, r.StakeholderID, r.Text, r.SourceType, r.SourceRef,
		string(r.Category), r.PriorityScore, r.SentimentScore, r.Status, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create requirement: %w", err)
	}
	return nil
}

const requirementColumns = `id, project_id, stakeholder_id, text, source_type, source_ref, category, priority_score, sentiment_score, status, created_at, updated_at`

func scanRequirement(scan func(dest ...any) error) (*models.Requirement, error) {
	r := &models.Requirement{}
	var category string
	err := scan(&r.ID, &r.ProjectID, &r.StakeholderID, &r.Text, &r.SourceType, &r.SourceRef,
		&category, &r.PriorityScore, &r.SentimentScore, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Category = models.RequirementCategory(category)
	return r, nil
}

func (s *SQLiteStore) GetRequirement(ctx context.Context, id string) (*models.Requirement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requirementColumns+` FROM requirements WHERE id = ?`, id)
	r, err := scanRequirement(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("requirement not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get requirement: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) ListRequirements(ctx context.Context, projectID string) ([]*models.Requirement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requirementColumns+` FROM requirements WHERE project_id = ? ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var requirements []*models.Requirement
	for rows.Next() {
		r, err := scanRequirement(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		requirements = append(requirements, r)
	}
	return requirements, rows.Err()
}

// UpdateRequirement writes the requirement and its revision trail in one
// transaction: either the update and all revision rows commit, or none do.
func (s *SQLiteStore) UpdateRequirement(ctx context.Context, r *models.Requirement, changedBy string) ([]*models.Revision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+requirementColumns+` FROM requirements WHERE id = ?`, r.ID)
	prev, err := scanRequirement(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("requirement not found: %s", r.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("load requirement: %w", err)
	}

	now := time.Now().UTC()
	r.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`UPDATE requirements SET stakeholder_id=?, text=?, source_type=?, source_ref=?, category=?, priority_score=?, sentiment_score=?, status=?, updated_at=?
		WHERE id=?`,
		r.StakeholderID, r.Text, r.SourceType, r.SourceRef, string(r.Category),
		r.PriorityScore, r.SentimentScore, r.Status, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update requirement: %w", err)
	}

	// One revision row per field whose stringified value changed. A no-op
	// update leaves the trail untouched.
	type fieldDiff struct {
		name     string
		old, new string
	}
	diffs := []fieldDiff{
		{"text", prev.Text, r.Text},
		{"category", string(prev.Category), string(r.Category)},
		{"priority_score", formatScore(prev.PriorityScore), formatScore(r.PriorityScore)},
		{"sentiment_score", formatScore(prev.SentimentScore), formatScore(r.SentimentScore)},
		{"status", prev.Status, r.Status},
	}

	var revisions []*models.Revision
	for _, d := range diffs {
		if d.old == d.new {
			continue
		}
		rev := &models.Revision{
			ID:            newULID(),
			RequirementID: r.ID,
			FieldChanged:  d.name,
			OldValue:      d.old,
			NewValue:      d.new,
			ChangedBy:     changedBy,
			CreatedAt:     now,
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO requirement_revisions (id, requirement_id, field_changed, old_value, new_value, changed_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rev.ID, rev.RequirementID, rev.FieldChanged, rev.OldValue, rev.NewValue, rev.ChangedBy, rev.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("record revision: %w", err)
		}
		revisions = append(revisions, rev)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return revisions, nil
}

func (s *SQLiteStore) DeleteRequirement(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM requirements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("requirement not found: %s", id)
	}
	return nil
}

// --- Revisions ---

func (s *SQLiteStore) ListRevisions(ctx context.Context, projectID string) ([]*models.Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rev.id, rev.requirement_id, rev.field_changed, rev.old_value, rev.new_value, rev.changed_by, rev.created_at
		FROM requirement_revisions rev
		JOIN requirements req ON req.id = rev.requirement_id
		WHERE req.project_id = ?
		ORDER BY rev.created_at DESC, rev.id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var revisions []*models.Revision
	for rows.Next() {
		rev := &models.Revision{}
		if err := rows.Scan(&rev.ID, &rev.RequirementID, &rev.FieldChanged, &rev.OldValue, &rev.NewValue, &rev.ChangedBy, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

func (s *SQLiteStore) CountRevisionsSince(ctx context.Context, projectID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*)
		FROM requirement_revisions rev
		JOIN requirements req ON req.id = rev.requirement_id
		WHERE req.project_id = ? AND rev.created_at >= ?`, projectID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count revisions: %w", err)
	}
	return count, nil
}

// --- Conflicts ---

func (s *SQLiteStore) UpsertConflict(ctx context.Context, c *models.Conflict) error {
	// The pair is unordered; store it in canonical id order so (a,b) and
	// (b,a) land on the same row.
	if c.ReqBID < c.ReqAID {
		c.ReqAID, c.ReqBID = c.ReqBID, c.ReqAID
	}
	if c.ID == "" {
		c.ID = newULID()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conflicts (id, project_id, req_a_id, req_b_id, conflict_type, severity_score, resolution_summary, is_resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, req_a_id, req_b_id) WHERE is_resolved = 0 DO UPDATE SET
			conflict_type = excluded.conflict_type,
			severity_score = excluded.severity_score,
			resolution_summary = excluded.resolution_summary`,
		c.ID, c.ProjectID, c.ReqAID, c.ReqBID, c.ConflictType, c.SeverityScore,
		c.ResolutionSummary, boolToInt(c.IsResolved), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert conflict: %w", err)
	}

	// The pair may have hit an existing unresolved row; read back the
	// canonical record so the caller sees its id and timestamp.
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM conflicts
		WHERE project_id = ? AND req_a_id = ? AND req_b_id = ? AND is_resolved = 0`,
		c.ProjectID, c.ReqAID, c.ReqBID)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read back conflict: %w", err)
	}
	return nil
}

const conflictColumns = `id, project_id, req_a_id, req_b_id, conflict_type, severity_score, resolution_summary, is_resolved, created_at`

func scanConflict(scan func(dest ...any) error) (*models.Conflict, error) {
	c := &models.Conflict{}
	var resolved int
	err := scan(&c.ID, &c.ProjectID, &c.ReqAID, &c.ReqBID, &c.ConflictType,
		&c.SeverityScore, &c.ResolutionSummary, &resolved, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.IsResolved = resolved != 0
	return c, nil
}

func (s *SQLiteStore) GetConflict(ctx context.Context, id string) (*models.Conflict, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conflictColumns+` FROM conflicts WHERE id = ?`, id)
	c, err := scanConflict(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conflict not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get conflict: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListConflicts(ctx context.Context, filter ConflictListFilter) ([]*models.Conflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM conflicts WHERE project_id = ?`
	args := []any{filter.ProjectID}
	if filter.UnresolvedOnly {
		query += " AND is_resolved = 0"
	}
	query += " ORDER BY severity_score DESC, created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var conflicts []*models.Conflict
	for rows.Next() {
		c, err := scanConflict(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func (s *SQLiteStore) ResolveConflict(ctx context.Context, id string, action models.ResolveAction) error {
	if !action.Valid() {
		return fmt.Errorf("invalid resolve action: %s", action)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+conflictColumns+` FROM conflicts WHERE id = ?`, id)
	c, err := scanConflict(row.Scan)
	if err == sql.ErrNoRows {
		return fmt.Errorf("conflict not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("load conflict: %w", err)
	}

	if action == models.ResolveDeprecate {
		_, err = tx.ExecContext(ctx,
			`UPDATE requirements SET status=?, updated_at=? WHERE id IN (?, ?)`,
			models.RequirementStatusDeprecated, time.Now().UTC(), c.ReqAID, c.ReqBID)
		if err != nil {
			return fmt.Errorf("deprecate requirements: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE conflicts SET is_resolved = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
