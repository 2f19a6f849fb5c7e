package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insightbrd/brd/internal/models"
)

func req(text string, category models.RequirementCategory, sentiment float64) *models.Requirement {
	return &models.Requirement{Text: text, Category: category, SentimentScore: sentiment}
}

func conflict(severity float64) *models.Conflict {
	return &models.Conflict{SeverityScore: severity}
}

// --- AlignmentScore ---

func TestAlignmentScore_EmptyProjectIsPerfect(t *testing.T) {
	assert.Equal(t, 100.0, AlignmentScore(nil, nil))
}

func TestAlignmentScore_NoConflictsUniformSentiment(t *testing.T) {
	reqs := []*models.Requirement{
		req("a", models.CategoryFunctional, 0.5),
		req("b", models.CategoryFunctional, 0.5),
		req("c", models.CategoryFunctional, 0.5),
	}
	assert.Equal(t, 100.0, AlignmentScore(reqs, nil))
}

func TestAlignmentScore_ConflictsLowerScore(t *testing.T) {
	reqs := []*models.Requirement{
		req("a", models.CategoryFunctional, 0),
		req("b", models.CategoryFunctional, 0),
	}

	clean := AlignmentScore(reqs, nil)
	one := AlignmentScore(reqs, []*models.Conflict{conflict(0.85)})
	two := AlignmentScore(reqs, []*models.Conflict{conflict(0.85), conflict(0.7)})

	assert.Equal(t, 100.0, clean)
	assert.Less(t, one, clean)
	assert.Less(t, two, one)
}

func TestAlignmentScore_ZeroSeverityCountsAsHalf(t *testing.T) {
	reqs := []*models.Requirement{
		req("a", models.CategoryFunctional, 0),
		req("b", models.CategoryFunctional, 0),
	}

	explicit := AlignmentScore(reqs, []*models.Conflict{conflict(0.5)})
	unset := AlignmentScore(reqs, []*models.Conflict{conflict(0)})
	assert.Equal(t, explicit, unset)
}

func TestAlignmentScore_SentimentSpreadLowersScore(t *testing.T) {
	uniform := []*models.Requirement{
		req("a", models.CategoryFunctional, 0.2),
		req("b", models.CategoryFunctional, 0.2),
	}
	divided := []*models.Requirement{
		req("a", models.CategoryFunctional, 0.9),
		req("b", models.CategoryFunctional, -0.9),
	}

	assert.Less(t, AlignmentScore(divided, nil), AlignmentScore(uniform, nil))
}

func TestAlignmentScore_ClampedToZero(t *testing.T) {
	reqs := []*models.Requirement{req("a", models.CategoryFunctional, 0)}

	var conflicts []*models.Conflict
	for i := 0; i < 50; i++ {
		conflicts = append(conflicts, conflict(1.0))
	}

	score := AlignmentScore(reqs, conflicts)
	assert.Equal(t, 0.0, score)
}

func TestAlignmentScore_ExactPenalty(t *testing.T) {
	// Two requirements with identical sentiment (variance 0) and a single
	// 0.85 conflict: 100 * (1 - 0.85*1.2/4) = 74.5
	reqs := []*models.Requirement{
		req("a", models.CategoryFunctional, 0),
		req("b", models.CategoryFunctional, 0),
	}
	score := AlignmentScore(reqs, []*models.Conflict{conflict(0.85)})
	assert.InDelta(t, 74.5, score, 1e-9)
}

// --- StabilityIndex ---

func TestStabilityIndex_EmptyProjectIsStable(t *testing.T) {
	assert.Equal(t, 100.0, StabilityIndex(0, 0))
}

func TestStabilityIndex_NoChangesIsStable(t *testing.T) {
	assert.Equal(t, 100.0, StabilityIndex(10, 0))
}

func TestStabilityIndex_ChurnDegradesScore(t *testing.T) {
	few := StabilityIndex(10, 5)
	many := StabilityIndex(10, 25)
	assert.Less(t, many, few)
}

func TestStabilityIndex_ExactValue(t *testing.T) {
	// 4 requirements, 10 recent changes: (1 - 10/20) * 100 = 50
	assert.Equal(t, 50.0, StabilityIndex(4, 10))
}

func TestStabilityIndex_ClampedToZero(t *testing.T) {
	assert.Equal(t, 0.0, StabilityIndex(1, 100))
}

// --- Forecast ---

func TestForecast_PerfectScoresAreLowRisk(t *testing.T) {
	f := Forecast(100, 100)
	assert.Equal(t, 0.0, f.RiskScore)
	assert.Equal(t, RiskLow, f.Status)
	assert.Equal(t, "Low", f.Indicators.AlignmentRisk)
	assert.Equal(t, "Low", f.Indicators.VolatilityRisk)
}

func TestForecast_Weighting(t *testing.T) {
	// (100-40)*0.6 + (100-80)*0.4 = 36+8 = 44
	f := Forecast(40, 80)
	assert.Equal(t, 44.0, f.RiskScore)
	assert.Equal(t, RiskMedium, f.Status)
}

func TestForecast_TierBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		sas, rsi float64
		want     RiskStatus
	}{
		{"exactly 30 is low", 70, 70, RiskLow},           // risk = 30.0
		{"just above 30 is medium", 69.9, 70, RiskMedium}, // risk = 30.1
		{"exactly 60 is medium", 40, 40, RiskMedium},      // risk = 60.0
		{"just above 60 is critical", 39.9, 40, RiskCritical}, // risk = 60.1
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Forecast(tt.sas, tt.rsi)
			assert.Equal(t, tt.want, f.Status, "risk=%v", f.RiskScore)
		})
	}
}

func TestForecast_Indicators(t *testing.T) {
	f := Forecast(59.9, 100)
	assert.Equal(t, "High", f.Indicators.AlignmentRisk)
	assert.Equal(t, "Low", f.Indicators.VolatilityRisk)

	f = Forecast(60, 69.9)
	assert.Equal(t, "Low", f.Indicators.AlignmentRisk)
	assert.Equal(t, "High", f.Indicators.VolatilityRisk)
}

func TestForecast_RoundsToOneDecimal(t *testing.T) {
	f := Forecast(33.33, 66.67)
	assert.Equal(t, 53.3, f.RiskScore)
}

// --- sentimentVariance ---

func TestSentimentVariance(t *testing.T) {
	assert.Equal(t, 0.0, sentimentVariance(nil))
	assert.Equal(t, 0.0, sentimentVariance([]*models.Requirement{req("a", "", 0.7)}))

	// Sample variance of {1, -1}: ((1)^2 + (-1)^2) / (2-1) = 2
	reqs := []*models.Requirement{
		req("a", "", 1),
		req("b", "", -1),
	}
	assert.InDelta(t, 2.0, sentimentVariance(reqs), 1e-9)
}
