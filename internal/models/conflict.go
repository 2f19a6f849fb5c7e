package models

import "time"

// Conflict types written by the rule-based detector. The LLM pipeline may
// emit other free-form tags (e.g. "Semantic", "Constraint").
const (
	ConflictTypeTimeline = "timeline"
	ConflictTypeScope    = "scope"
	ConflictTypeLogic    = "logic"
)

// ResolveAction is a conflict resolution action.
type ResolveAction string

const (
	ResolveApply     ResolveAction = "apply"
	ResolveDeprecate ResolveAction = "deprecate"
	ResolveIgnore    ResolveAction = "ignore"
)

// Valid reports whether the action is one of the supported resolution actions.
func (a ResolveAction) Valid() bool {
	switch a {
	case ResolveApply, ResolveDeprecate, ResolveIgnore:
		return true
	}
	return false
}

// Conflict represents a detected contradiction between two requirements of
// the same project. SeverityScore is canonically 0-1; producers that score
// in 0-100 must normalize before persisting.
type Conflict struct {
	ID                string    `json:"id"`
	ProjectID         string    `json:"project_id"`
	ReqAID            string    `json:"req_a_id"`
	ReqBID            string    `json:"req_b_id"`
	ConflictType      string    `json:"conflict_type"`
	SeverityScore     float64   `json:"severity_score"`
	ResolutionSummary string    `json:"resolution_summary"`
	IsResolved        bool      `json:"is_resolved"`
	CreatedAt         time.Time `json:"created_at"`
}
