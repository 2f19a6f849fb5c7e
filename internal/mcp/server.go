package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/insightbrd/brd/internal/advisor"
	"github.com/insightbrd/brd/internal/intelligence"
	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/store"
)

// Server wraps the brd data layer and exposes it as MCP tools.
type Server struct {
	store   store.Store
	intel   *intelligence.Service
	advisor *advisor.Service
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store) *Server {
	return &Server{
		store:   s,
		intel:   intelligence.NewService(s),
		advisor: advisor.NewService(s),
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("brd", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listProjectsTool())
	srv.AddTool(s.projectIntelligenceTool())
	srv.AddTool(s.listRequirementsTool())
	srv.AddTool(s.detectConflictsTool())
	srv.AddTool(s.negotiationProposalTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// resolveProject accepts a project name or id.
func (s *Server) resolveProject(ctx context.Context, ref string) (*models.Project, error) {
	if p, err := s.store.GetProjectByName(ctx, ref); err == nil {
		return p, nil
	}
	return s.store.GetProject(ctx, ref)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// brd_list_projects
func (s *Server) listProjectsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("brd_list_projects",
		mcp.WithDescription("List all tracked projects. Returns a JSON array of projects with id, name, description, and status."),
	)
	return tool, s.handleListProjects
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	type projectOut struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}

	out := make([]projectOut, len(projects))
	for i, p := range projects {
		out[i] = projectOut{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Status:      string(p.Status),
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal projects: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// brd_project_intelligence
func (s *Server) projectIntelligenceTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("brd_project_intelligence",
		mcp.WithDescription("Get intelligence metrics for a project: alignment score (0-100), stability index (0-100), and the risk forecast with status tier and indicators. Resolves project by name or id."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
	)
	return tool, s.handleProjectIntelligence
}

func (s *Server) handleProjectIntelligence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRef, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}

	p, err := s.resolveProject(ctx, projectRef)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("project not found: %s", projectRef)), nil
	}

	sas, err := s.intel.AlignmentScore(ctx, p.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute alignment: %v", err)), nil
	}
	rsi, err := s.intel.StabilityIndex(ctx, p.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute stability: %v", err)), nil
	}
	forecast := intelligence.Forecast(sas, rsi)

	result := map[string]any{
		"project":         p.Name,
		"alignment_score": sas,
		"stability_index": rsi,
		"risk_forecast":   forecast,
	}

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal intelligence: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// brd_list_requirements
func (s *Server) listRequirementsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("brd_list_requirements",
		mcp.WithDescription("List a project's requirements. Each has: text, category (functional/non-functional/constraint), priority_score (0-10), sentiment_score (-1..1), status, and source."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
	)
	return tool, s.handleListRequirements
}

func (s *Server) handleListRequirements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRef, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}

	p, err := s.resolveProject(ctx, projectRef)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("project not found: %s", projectRef)), nil
	}

	requirements, err := s.store.ListRequirements(ctx, p.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list requirements: %v", err)), nil
	}

	type requirementOut struct {
		ID             string  `json:"id"`
		Text           string  `json:"text"`
		Category       string  `json:"category"`
		PriorityScore  float64 `json:"priority_score"`
		SentimentScore float64 `json:"sentiment_score"`
		Status         string  `json:"status"`
		SourceType     string  `json:"source_type,omitempty"`
		CreatedAt      string  `json:"created_at"`
	}

	out := make([]requirementOut, len(requirements))
	for i, req := range requirements {
		out[i] = requirementOut{
			ID:             req.ID,
			Text:           req.Text,
			Category:       string(req.Category),
			PriorityScore:  req.PriorityScore,
			SentimentScore: req.SentimentScore,
			Status:         req.Status,
			SourceType:     req.SourceType,
			CreatedAt:      req.CreatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal requirements: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// brd_detect_conflicts
func (s *Server) detectConflictsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("brd_detect_conflicts",
		mcp.WithDescription("Run pairwise conflict detection across a project's requirements and return the unresolved conflicts. Detection is idempotent: re-running refreshes existing conflicts instead of duplicating them."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
	)
	return tool, s.handleDetectConflicts
}

func (s *Server) handleDetectConflicts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRef, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}

	p, err := s.resolveProject(ctx, projectRef)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("project not found: %s", projectRef)), nil
	}

	if _, err := s.intel.DetectConflicts(ctx, p.ID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to detect conflicts: %v", err)), nil
	}

	conflicts, err := s.store.ListConflicts(ctx, store.ConflictListFilter{ProjectID: p.ID, UnresolvedOnly: true})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list conflicts: %v", err)), nil
	}

	type conflictOut struct {
		ID            string  `json:"id"`
		ReqAID        string  `json:"req_a_id"`
		ReqBID        string  `json:"req_b_id"`
		ConflictType  string  `json:"conflict_type"`
		SeverityScore float64 `json:"severity_score"`
	}

	out := make([]conflictOut, len(conflicts))
	for i, c := range conflicts {
		out[i] = conflictOut{
			ID:            c.ID,
			ReqAID:        c.ReqAID,
			ReqBID:        c.ReqBID,
			ConflictType:  c.ConflictType,
			SeverityScore: c.SeverityScore,
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal conflicts: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// brd_negotiation_proposal
func (s *Server) negotiationProposalTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("brd_negotiation_proposal",
		mcp.WithDescription("Generate a compromise proposal for a detected conflict, with rationale and an estimated impact on the alignment score."),
		mcp.WithString("conflict_id", mcp.Required(), mcp.Description("Conflict id")),
	)
	return tool, s.handleNegotiationProposal
}

func (s *Server) handleNegotiationProposal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conflictID, err := request.RequireString("conflict_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: conflict_id"), nil
	}

	proposal, err := s.advisor.NegotiationProposal(ctx, conflictID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("conflict not found: %s", conflictID)), nil
	}

	data, err := json.Marshal(proposal)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal proposal: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
