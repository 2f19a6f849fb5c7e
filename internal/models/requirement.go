package models

import "time"

// RequirementCategory classifies a requirement. An empty category means
// the extraction pass could not determine one.
type RequirementCategory string

const (
	CategoryFunctional    RequirementCategory = "functional"
	CategoryNonFunctional RequirementCategory = "non-functional"
	CategoryConstraint    RequirementCategory = "constraint"
)

// Requirement statuses are free-form but these values are the ones the
// pipeline and resolution actions write.
const (
	RequirementStatusExtracted  = "extracted"
	RequirementStatusAnalyzed   = "analyzed"
	RequirementStatusDeprecated = "deprecated"
)

// Requirement represents a single structured requirement extracted from
// stakeholder communications.
type Requirement struct {
	ID             string              `json:"id"`
	ProjectID      string              `json:"project_id"`
	StakeholderID  string              `json:"stakeholder_id,omitempty"` // optional attribution
	Text           string              `json:"text"`
	SourceType     string              `json:"source_type"` // email, slack, transcript, document
	SourceRef      string              `json:"source_ref"`
	Category       RequirementCategory `json:"category"`
	PriorityScore  float64             `json:"priority_score"` // nominal 0-10
	SentimentScore float64             `json:"sentiment_score"` // nominal -1..1
	Status         string              `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Revision is an immutable audit record of one field-level change to a
// requirement. Exactly one row exists per changed field per update.
type Revision struct {
	ID            string    `json:"id"`
	RequirementID string    `json:"requirement_id"`
	FieldChanged  string    `json:"field_changed"`
	OldValue      string    `json:"old_value"`
	NewValue      string    `json:"new_value"`
	ChangedBy     string    `json:"changed_by,omitempty"` // optional actor identifier
	CreatedAt     time.Time `json:"created_at"`
}
