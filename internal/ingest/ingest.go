// Package ingest orchestrates one ingestion pass: fetch raw records from a
// connector, filter and normalize them, extract structured requirements via
// the LLM pipeline, and persist requirements plus any detected conflicts.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/insightbrd/brd/internal/connector"
	"github.com/insightbrd/brd/internal/llm"
	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/store"
)

// Result summarizes one ingestion pass.
type Result struct {
	Source                string `json:"source"`
	Actor                 string `json:"actor"`
	ProcessedItems        int    `json:"processed_items"`
	RequirementsExtracted int    `json:"requirements_extracted"`
	ConflictsDetected     int    `json:"conflicts_detected"`
}

// Service runs ingestion passes against the store.
type Service struct {
	store store.Store
	llm   *llm.Client
}

// NewService creates an ingestion service.
func NewService(s store.Store, client *llm.Client) *Service {
	return &Service{store: s, llm: client}
}

// Run executes one ingestion pass for a project. The actor is the
// authenticated principal performing the ingestion and must be supplied
// explicitly; there is no stored-user fallback.
func (s *Service) Run(ctx context.Context, projectID string, conn connector.Connector, actor string) (*Result, error) {
	if actor == "" {
		return nil, fmt.Errorf("ingest: actor identifier is required")
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	records, err := conn.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", conn.SourceType(), err)
	}

	result := &Result{Source: conn.SourceType(), Actor: actor, ProcessedItems: len(records)}

	texts := conn.Normalize(records)
	if len(texts) == 0 {
		return result, nil
	}

	extracted, err := s.llm.ExtractRequirements(ctx, strings.Join(texts, "\n"))
	if err != nil {
		return nil, fmt.Errorf("extract requirements: %w", err)
	}

	// Map stakeholder names to ids for attribution.
	stakeholders, err := s.store.ListStakeholders(ctx, projectID)
	if err != nil {
		return nil, err
	}
	stakeholderIDs := make(map[string]string, len(stakeholders))
	for _, st := range stakeholders {
		stakeholderIDs[strings.ToLower(st.Name)] = st.ID
	}

	created := make([]*models.Requirement, 0, len(extracted))
	for _, e := range extracted {
		req := &models.Requirement{
			ProjectID:      projectID,
			StakeholderID:  stakeholderIDs[strings.ToLower(e.StakeholderName)],
			Text:           e.Text,
			SourceType:     conn.SourceType(),
			SourceRef:      fmt.Sprintf("%s_import_%d", conn.SourceType(), len(records)),
			Category:       models.RequirementCategory(e.Category),
			PriorityScore:  e.PriorityScore,
			SentimentScore: e.SentimentScore,
			Status:         models.RequirementStatusExtracted,
		}
		if err := s.store.CreateRequirement(ctx, req); err != nil {
			return nil, err
		}
		created = append(created, req)
	}
	result.RequirementsExtracted = len(created)

	reqTexts := make([]string, len(created))
	for i, r := range created {
		reqTexts[i] = r.Text
	}
	found, err := s.llm.DetectConflicts(ctx, reqTexts)
	if err != nil {
		return nil, fmt.Errorf("detect conflicts: %w", err)
	}

	for _, f := range found {
		// Model output is untrusted; skip pairs that don't index this batch.
		if f.ReqAIndex < 0 || f.ReqAIndex >= len(created) || f.ReqBIndex < 0 || f.ReqBIndex >= len(created) || f.ReqAIndex == f.ReqBIndex {
			continue
		}
		c := &models.Conflict{
			ProjectID:         projectID,
			ReqAID:            created[f.ReqAIndex].ID,
			ReqBID:            created[f.ReqBIndex].ID,
			ConflictType:      f.ConflictType,
			SeverityScore:     float64(f.SeverityScore) / 100, // normalize to the canonical 0-1 unit
			ResolutionSummary: f.ResolutionSummary,
		}
		if err := s.store.UpsertConflict(ctx, c); err != nil {
			return nil, err
		}
		result.ConflictsDetected++
	}

	return result, nil
}
