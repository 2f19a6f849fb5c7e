package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/store"
)

// ---------------------------------------------------------------------------
// Fixtures and helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T) (*Server, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return NewServer(s), s
}

func seedProject(t *testing.T, s *store.SQLiteStore, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name, Description: "test project"}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func seedRequirement(t *testing.T, s *store.SQLiteStore, projectID, text string, category models.RequirementCategory) *models.Requirement {
	t.Helper()
	r := &models.Requirement{
		ProjectID:     projectID,
		Text:          text,
		Category:      category,
		PriorityScore: 5,
	}
	require.NoError(t, s.CreateRequirement(context.Background(), r))
	return r
}

func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

func TestMCPServer_Construction(t *testing.T) {
	srv, _ := newTestServer(t)
	require.NotNil(t, srv.MCPServer())
}

// ---------------------------------------------------------------------------
// Tests: brd_list_projects
// ---------------------------------------------------------------------------

func TestHandleListProjects_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleListProjects(context.Background(), callToolReq("brd_list_projects", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "[]", resultText(t, result))
}

func TestHandleListProjects_WithProjects(t *testing.T) {
	srv, s := newTestServer(t)
	seedProject(t, s, "portal")
	seedProject(t, s, "mobile-app")

	result, err := srv.handleListProjects(context.Background(), callToolReq("brd_list_projects", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var projects []struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	resultJSON(t, result, &projects)
	require.Len(t, projects, 2)
	assert.Equal(t, "draft", projects[0].Status)
}

// ---------------------------------------------------------------------------
// Tests: brd_project_intelligence
// ---------------------------------------------------------------------------

func TestHandleProjectIntelligence_ByName(t *testing.T) {
	srv, s := newTestServer(t)
	seedProject(t, s, "portal")

	result, err := srv.handleProjectIntelligence(context.Background(),
		callToolReq("brd_project_intelligence", map[string]any{"project": "portal"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out struct {
		Project        string  `json:"project"`
		AlignmentScore float64 `json:"alignment_score"`
		StabilityIndex float64 `json:"stability_index"`
		RiskForecast   struct {
			Status string `json:"status"`
		} `json:"risk_forecast"`
	}
	resultJSON(t, result, &out)
	assert.Equal(t, "portal", out.Project)
	assert.Equal(t, 100.0, out.AlignmentScore)
	assert.Equal(t, 100.0, out.StabilityIndex)
	assert.Equal(t, "Low", out.RiskForecast.Status)
}

func TestHandleProjectIntelligence_ByID(t *testing.T) {
	srv, s := newTestServer(t)
	p := seedProject(t, s, "portal")

	result, err := srv.handleProjectIntelligence(context.Background(),
		callToolReq("brd_project_intelligence", map[string]any{"project": p.ID}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestHandleProjectIntelligence_MissingParam(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleProjectIntelligence(context.Background(),
		callToolReq("brd_project_intelligence", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "missing required parameter")
}

func TestHandleProjectIntelligence_UnknownProject(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleProjectIntelligence(context.Background(),
		callToolReq("brd_project_intelligence", map[string]any{"project": "nope"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "project not found")
}

// ---------------------------------------------------------------------------
// Tests: brd_list_requirements
// ---------------------------------------------------------------------------

func TestHandleListRequirements(t *testing.T) {
	srv, s := newTestServer(t)
	p := seedProject(t, s, "portal")
	seedRequirement(t, s, p.ID, "The portal must support SSO login.", models.CategoryFunctional)

	result, err := srv.handleListRequirements(context.Background(),
		callToolReq("brd_list_requirements", map[string]any{"project": "portal"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var reqs []struct {
		Text     string `json:"text"`
		Category string `json:"category"`
		Status   string `json:"status"`
	}
	resultJSON(t, result, &reqs)
	require.Len(t, reqs, 1)
	assert.Equal(t, "The portal must support SSO login.", reqs[0].Text)
	assert.Equal(t, "functional", reqs[0].Category)
	assert.Equal(t, "extracted", reqs[0].Status)
}

// ---------------------------------------------------------------------------
// Tests: brd_detect_conflicts
// ---------------------------------------------------------------------------

func TestHandleDetectConflicts(t *testing.T) {
	srv, s := newTestServer(t)
	p := seedProject(t, s, "portal")
	seedRequirement(t, s, p.ID, "Launch the billing module this month.", models.CategoryFunctional)
	seedRequirement(t, s, p.ID, "Billing cannot ship for another month.", models.CategoryFunctional)

	result, err := srv.handleDetectConflicts(context.Background(),
		callToolReq("brd_detect_conflicts", map[string]any{"project": "portal"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var conflicts []struct {
		ConflictType  string  `json:"conflict_type"`
		SeverityScore float64 `json:"severity_score"`
	}
	resultJSON(t, result, &conflicts)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTypeTimeline, conflicts[0].ConflictType)
	assert.Equal(t, 0.85, conflicts[0].SeverityScore)
}

func TestHandleDetectConflicts_NoConflicts(t *testing.T) {
	srv, s := newTestServer(t)
	p := seedProject(t, s, "portal")
	seedRequirement(t, s, p.ID, "The portal must support SSO login.", models.CategoryFunctional)

	result, err := srv.handleDetectConflicts(context.Background(),
		callToolReq("brd_detect_conflicts", map[string]any{"project": "portal"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "[]", resultText(t, result))
}

// ---------------------------------------------------------------------------
// Tests: brd_negotiation_proposal
// ---------------------------------------------------------------------------

func TestHandleNegotiationProposal(t *testing.T) {
	srv, s := newTestServer(t)
	p := seedProject(t, s, "portal")
	a := seedRequirement(t, s, p.ID, "Launch the billing module this month.", models.CategoryFunctional)
	b := seedRequirement(t, s, p.ID, "Billing cannot ship for another month.", models.CategoryFunctional)

	conflict := &models.Conflict{
		ProjectID:     p.ID,
		ReqAID:        a.ID,
		ReqBID:        b.ID,
		ConflictType:  models.ConflictTypeTimeline,
		SeverityScore: 0.85,
	}
	require.NoError(t, s.UpsertConflict(context.Background(), conflict))

	result, err := srv.handleNegotiationProposal(context.Background(),
		callToolReq("brd_negotiation_proposal", map[string]any{"conflict_id": conflict.ID}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var proposal struct {
		Proposal          string `json:"proposal"`
		ImpactOnAlignment string `json:"impact_on_alignment"`
	}
	resultJSON(t, result, &proposal)
	assert.Contains(t, proposal.Proposal, "Phase 1")
	assert.Equal(t, "+15%", proposal.ImpactOnAlignment)
}

func TestHandleNegotiationProposal_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleNegotiationProposal(context.Background(),
		callToolReq("brd_negotiation_proposal", map[string]any{"conflict_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "conflict not found")
}
