package models

// Stakeholder represents a person whose communications feed a project's
// requirement set.
type Stakeholder struct {
	ID             string  `json:"id"`
	ProjectID      string  `json:"project_id"`
	Name           string  `json:"name"`
	Role           string  `json:"role"`
	InfluenceScore float64 `json:"influence_score"`
	Email          string  `json:"email"`
}
