package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightbrd/brd/internal/connector"
	"github.com/insightbrd/brd/internal/llm"
	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/store"
)

func newIngestFixture(t *testing.T) (*Service, store.Store, string) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	p := &models.Project{Name: "portal"}
	require.NoError(t, s.CreateProject(context.Background(), p))

	// No API key puts the LLM client in mock mode.
	return NewService(s, llm.NewClient("", "")), s, p.ID
}

func TestRun_RequiresActor(t *testing.T) {
	svc, _, projectID := newIngestFixture(t)

	_, err := svc.Run(context.Background(), projectID, connector.NewGmailConnector(""), "")
	assert.ErrorContains(t, err, "actor identifier is required")
}

func TestRun_UnknownProject(t *testing.T) {
	svc, _, _ := newIngestFixture(t)

	_, err := svc.Run(context.Background(), "missing", connector.NewGmailConnector(""), "dana")
	assert.ErrorContains(t, err, "not found")
}

func TestRun_EnronMockPipeline(t *testing.T) {
	svc, s, projectID := newIngestFixture(t)
	ctx := context.Background()

	result, err := svc.Run(ctx, projectID, connector.NewEnronConnector(0), "dana")
	require.NoError(t, err)

	assert.Equal(t, "email", result.Source)
	assert.Equal(t, "dana", result.Actor)
	assert.Equal(t, 5, result.ProcessedItems)
	assert.Equal(t, 1, result.RequirementsExtracted, "mock extraction yields one requirement")
	assert.Equal(t, 0, result.ConflictsDetected, "mock conflict detection reports none")

	reqs, err := s.ListRequirements(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "email", reqs[0].SourceType)
	assert.Equal(t, "email_import_5", reqs[0].SourceRef)
	assert.Equal(t, models.RequirementStatusExtracted, reqs[0].Status)
}

func TestRun_StakeholderAttribution(t *testing.T) {
	svc, s, projectID := newIngestFixture(t)
	ctx := context.Background()

	// The mock extractor attributes everything to "Mock User"; matching is
	// case-insensitive against stored stakeholder names.
	st := &models.Stakeholder{ProjectID: projectID, Name: "mock user"}
	require.NoError(t, s.CreateStakeholder(ctx, st))

	_, err := svc.Run(ctx, projectID, connector.NewGmailConnector(""), "dana")
	require.NoError(t, err)

	reqs, err := s.ListRequirements(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, st.ID, reqs[0].StakeholderID)
}

// allNoiseConnector yields records that the noise filter drops entirely.
type allNoiseConnector struct{}

func (allNoiseConnector) SourceType() string { return "email" }
func (allNoiseConnector) Fetch(ctx context.Context) ([]connector.Record, error) {
	return []connector.Record{{Text: "lunch?"}}, nil
}
func (allNoiseConnector) Normalize(records []connector.Record) []string { return nil }

func TestRun_AllNoiseShortCircuits(t *testing.T) {
	svc, s, projectID := newIngestFixture(t)
	ctx := context.Background()

	result, err := svc.Run(ctx, projectID, allNoiseConnector{}, "dana")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedItems)
	assert.Equal(t, 0, result.RequirementsExtracted)

	reqs, err := s.ListRequirements(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}
