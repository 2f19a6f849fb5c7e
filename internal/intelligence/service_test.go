package intelligence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/store"
)

func newServiceFixture(t *testing.T) (*Service, store.Store, string) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	p := &models.Project{Name: "portal"}
	require.NoError(t, s.CreateProject(context.Background(), p))

	return NewService(s), s, p.ID
}

func addReq(t *testing.T, s store.Store, projectID, text string, category models.RequirementCategory, sentiment float64) *models.Requirement {
	t.Helper()
	r := &models.Requirement{
		ProjectID:      projectID,
		Text:           text,
		Category:       category,
		PriorityScore:  5,
		SentimentScore: sentiment,
	}
	require.NoError(t, s.CreateRequirement(context.Background(), r))
	return r
}

func TestService_EmptyProjectBaselines(t *testing.T) {
	svc, _, projectID := newServiceFixture(t)
	ctx := context.Background()

	sas, err := svc.AlignmentScore(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sas)

	rsi, err := svc.StabilityIndex(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)

	f, err := svc.RiskForecast(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, RiskLow, f.Status)
}

func TestService_AlignedProjectScoresHigh(t *testing.T) {
	svc, s, projectID := newServiceFixture(t)
	ctx := context.Background()

	addReq(t, s, projectID, "Dashboard shows real-time data", models.CategoryFunctional, 0.5)
	addReq(t, s, projectID, "Export reports to CSV", models.CategoryFunctional, 0.4)
	addReq(t, s, projectID, "Audit log for admin actions", models.CategoryNonFunctional, 0.6)

	_, err := svc.DetectConflicts(ctx, projectID)
	require.NoError(t, err)

	sas, err := svc.AlignmentScore(ctx, projectID)
	require.NoError(t, err)
	assert.Greater(t, sas, 80.0)

	f, err := svc.RiskForecast(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, RiskLow, f.Status)
}

func TestService_ConflictedProjectScoresLow(t *testing.T) {
	svc, s, projectID := newServiceFixture(t)
	ctx := context.Background()

	// Every pair trips the timeline rule, and sentiment is divided.
	addReq(t, s, projectID, "ship in one month", models.CategoryFunctional, 0.9)
	addReq(t, s, projectID, "needs three month runway", models.CategoryFunctional, -0.8)
	addReq(t, s, projectID, "six month compliance review first", models.CategoryFunctional, -0.9)

	conflicts, err := svc.DetectConflicts(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, conflicts, 3)

	sas, err := svc.AlignmentScore(ctx, projectID)
	require.NoError(t, err)
	assert.Less(t, sas, 60.0)
}

func TestService_DetectConflictsIsIdempotent(t *testing.T) {
	svc, s, projectID := newServiceFixture(t)
	ctx := context.Background()

	addReq(t, s, projectID, "one month deadline", models.CategoryFunctional, 0)
	addReq(t, s, projectID, "three month runway", models.CategoryFunctional, 0)

	_, err := svc.DetectConflicts(ctx, projectID)
	require.NoError(t, err)
	_, err = svc.DetectConflicts(ctx, projectID)
	require.NoError(t, err)

	persisted, err := s.ListConflicts(ctx, store.ConflictListFilter{ProjectID: projectID})
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestService_ResolvedConflictsDoNotPenalize(t *testing.T) {
	svc, s, projectID := newServiceFixture(t)
	ctx := context.Background()

	addReq(t, s, projectID, "one month deadline", models.CategoryFunctional, 0)
	addReq(t, s, projectID, "three month runway", models.CategoryFunctional, 0)

	conflicts, err := svc.DetectConflicts(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)

	before, err := svc.AlignmentScore(ctx, projectID)
	require.NoError(t, err)

	require.NoError(t, s.ResolveConflict(ctx, conflicts[0].ID, models.ResolveIgnore))

	after, err := svc.AlignmentScore(ctx, projectID)
	require.NoError(t, err)
	assert.Greater(t, after, before)
	assert.Equal(t, 100.0, after)
}

func TestService_RevisionsDegradeStability(t *testing.T) {
	svc, s, projectID := newServiceFixture(t)
	ctx := context.Background()

	r := addReq(t, s, projectID, "v1", models.CategoryFunctional, 0)

	before, err := svc.StabilityIndex(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, before)

	for i, text := range []string{"v2", "v3", "v4"} {
		r.Text = text
		_, err := s.UpdateRequirement(ctx, r, "editor")
		require.NoError(t, err, "revision %d", i)
	}

	after, err := svc.StabilityIndex(ctx, projectID)
	require.NoError(t, err)
	assert.Less(t, after, before)
	// 1 requirement, 3 recent changes: (1 - 3/5) * 100 = 40
	assert.InDelta(t, 40.0, after, 1e-9)
}
