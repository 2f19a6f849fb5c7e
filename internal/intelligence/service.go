package intelligence

import (
	"context"
	"fmt"
	"time"

	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/store"
)

// churnWindow is the trailing window the stability index counts revisions in.
const churnWindow = 30 * 24 * time.Hour

// Service computes intelligence metrics over persisted project data. All
// operations read a snapshot at call time; nothing is cached between calls.
type Service struct {
	store store.Store
	rules []Rule
	now   func() time.Time
}

// NewService creates an intelligence service with the default rule set.
func NewService(s store.Store) *Service {
	return &Service{store: s, rules: DefaultRules(), now: time.Now}
}

// AlignmentScore returns the Stakeholder Alignment Score for a project.
func (s *Service) AlignmentScore(ctx context.Context, projectID string) (float64, error) {
	reqs, err := s.store.ListRequirements(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("alignment score: %w", err)
	}
	conflicts, err := s.store.ListConflicts(ctx, store.ConflictListFilter{
		ProjectID:      projectID,
		UnresolvedOnly: true,
	})
	if err != nil {
		return 0, fmt.Errorf("alignment score: %w", err)
	}
	return AlignmentScore(reqs, conflicts), nil
}

// StabilityIndex returns the Requirement Stability Index for a project,
// counting revisions over the trailing 30-day window.
func (s *Service) StabilityIndex(ctx context.Context, projectID string) (float64, error) {
	reqs, err := s.store.ListRequirements(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("stability index: %w", err)
	}
	since := s.now().UTC().Add(-churnWindow)
	recent, err := s.store.CountRevisionsSince(ctx, projectID, since)
	if err != nil {
		return 0, fmt.Errorf("stability index: %w", err)
	}
	return StabilityIndex(len(reqs), recent), nil
}

// RiskForecast blends the two scores into a risk classification.
func (s *Service) RiskForecast(ctx context.Context, projectID string) (*RiskForecast, error) {
	sas, err := s.AlignmentScore(ctx, projectID)
	if err != nil {
		return nil, err
	}
	rsi, err := s.StabilityIndex(ctx, projectID)
	if err != nil {
		return nil, err
	}
	f := Forecast(sas, rsi)
	return &f, nil
}

// DetectConflicts scans the project's requirement pairs and persists every
// match. Persistence goes through the pair-keyed upsert, so re-running
// detection refreshes existing unresolved conflicts instead of duplicating
// them. Returns the conflicts as persisted.
func (s *Service) DetectConflicts(ctx context.Context, projectID string) ([]*models.Conflict, error) {
	reqs, err := s.store.ListRequirements(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("detect conflicts: %w", err)
	}

	detected := Detect(reqs, s.rules)
	for _, c := range detected {
		if err := s.store.UpsertConflict(ctx, c); err != nil {
			return nil, fmt.Errorf("detect conflicts: %w", err)
		}
	}
	return detected, nil
}
