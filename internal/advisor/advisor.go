// Package advisor produces negotiation proposals for detected conflicts and
// simulates the ripple effect of requirement changes. Both are shallow
// heuristics over persisted data, not an inference engine.
package advisor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/store"
)

// Proposal is a canned compromise for a conflict.
type Proposal struct {
	Proposal          string `json:"proposal"`
	Rationale         string `json:"rationale"`
	ImpactOnAlignment string `json:"impact_on_alignment"`
}

// ChangeImpact summarizes the simulated effect of changing one requirement
// field.
type ChangeImpact struct {
	Requirement        string   `json:"requirement"`
	Change             string   `json:"change"`
	AffectedCount      int      `json:"affected_count"`
	EstimatedRiskDelta string   `json:"estimated_risk_delta"`
	RippleEffect       []string `json:"ripple_effect"`
	Recommendation     string   `json:"recommendation"`
}

// maxDependents caps how many related requirements a simulation reports.
const maxDependents = 3

// riskDeltaThreshold separates "review first" from "safe to proceed".
const riskDeltaThreshold = 10.0

// Service answers advisory queries against the store.
type Service struct {
	store store.Store
}

// NewService creates an advisor service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// NegotiationProposal generates a compromise proposal for a conflict.
// Timeline-flavored conflicts get a phased-delivery proposal; everything
// else gets the generic hybrid proposal.
func (s *Service) NegotiationProposal(ctx context.Context, conflictID string) (*Proposal, error) {
	conflict, err := s.store.GetConflict(ctx, conflictID)
	if err != nil {
		return nil, err
	}

	summary := strings.ToLower(conflict.ResolutionSummary)
	if strings.Contains(summary, "time") || conflict.ConflictType == models.ConflictTypeTimeline {
		return &Proposal{
			Proposal:          "Implement Phase 1 in Q3, and Phase 2 in Q4.",
			Rationale:         "Balancing urgent delivery with resource constraints.",
			ImpactOnAlignment: "+15%",
		}, nil
	}

	return &Proposal{
		Proposal:          "Adopt a hybrid architecture that integrates both stakeholder preferences.",
		Rationale:         "Ensures all non-functional requirements are met without compromising performance.",
		ImpactOnAlignment: "+10%",
	}, nil
}

// SimulateChangeImpact estimates the effect of setting field to newValue on
// a requirement. Dependents are approximated as same-project same-category
// requirements. Lowering a priority score carries a fixed risk delta; any
// other change is considered neutral. A non-numeric newValue for a numeric
// field is rejected rather than coerced.
func (s *Service) SimulateChangeImpact(ctx context.Context, requirementID, field, newValue string) (*ChangeImpact, error) {
	req, err := s.store.GetRequirement(ctx, requirementID)
	if err != nil {
		return nil, err
	}

	riskDelta := 0.0
	if field == "priority_score" {
		v, err := strconv.ParseFloat(newValue, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric value %q for field %s", newValue, field)
		}
		if v < req.PriorityScore {
			riskDelta = 12.5
		}
	}

	all, err := s.store.ListRequirements(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("simulate change impact: %w", err)
	}

	var ripple []string
	for _, r := range all {
		if r.ID == req.ID || r.Category != req.Category {
			continue
		}
		ripple = append(ripple, truncate(r.Text, 40))
		if len(ripple) == maxDependents {
			break
		}
	}

	recommendation := "Safe to proceed."
	if riskDelta > riskDeltaThreshold {
		recommendation = "High risk change. Review with Technical Lead before committing."
	}

	return &ChangeImpact{
		Requirement:        truncate(req.Text, 50),
		Change:             fmt.Sprintf("%s -> %s", field, newValue),
		AffectedCount:      len(ripple),
		EstimatedRiskDelta: fmt.Sprintf("+%s%%", strconv.FormatFloat(riskDelta, 'f', 1, 64)),
		RippleEffect:       ripple,
		Recommendation:     recommendation,
	}, nil
}

// truncate cuts on a rune boundary so multibyte text stays valid UTF-8.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		s = string(r[:n])
	}
	return s + "..."
}
