package intelligence

import (
	"math"

	"github.com/insightbrd/brd/internal/models"
)

// Tunable scoring constants. The churn allowance expresses the policy that
// up to 5 edits per requirement in the trailing window is normal before
// stability visibly degrades.
const (
	conflictWeight    = 1.2
	defaultSeverity   = 0.5
	varianceWeight    = 5.0
	churnAllowance    = 5.0
	alignmentRiskWt   = 0.6
	volatilityRiskWt  = 0.4
	criticalThreshold = 60.0
	mediumThreshold   = 30.0
	// Indicator thresholds are independent of the risk tiers above.
	alignmentIndicatorFloor  = 60.0
	volatilityIndicatorFloor = 70.0
)

// RiskStatus is the three-tier risk classification.
type RiskStatus string

const (
	RiskLow      RiskStatus = "Low"
	RiskMedium   RiskStatus = "Medium"
	RiskCritical RiskStatus = "Critical"
)

// RiskIndicators flag which input metric is dragging the forecast.
type RiskIndicators struct {
	AlignmentRisk  string `json:"alignment_risk"`
	VolatilityRisk string `json:"volatility_risk"`
}

// RiskForecast blends alignment and stability into a delay/failure risk.
type RiskForecast struct {
	RiskScore  float64        `json:"risk_score"`
	Status     RiskStatus     `json:"status"`
	Indicators RiskIndicators `json:"indicators"`
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// sentimentVariance returns the sample variance of the requirements'
// sentiment scores, 0 for fewer than two requirements.
func sentimentVariance(reqs []*models.Requirement) float64 {
	n := len(reqs)
	if n < 2 {
		return 0.0
	}
	var sum float64
	for _, r := range reqs {
		sum += r.SentimentScore
	}
	mean := sum / float64(n)

	var ss float64
	for _, r := range reqs {
		d := r.SentimentScore - mean
		ss += d * d
	}
	return ss / float64(n-1)
}

// AlignmentScore computes the Stakeholder Alignment Score (0-100) from a
// project's requirements and its unresolved conflicts. It is a penalty
// model: conflict weight and sentiment disagreement subtract from a perfect
// baseline, normalized by requirement volume.
func AlignmentScore(reqs []*models.Requirement, unresolved []*models.Conflict) float64 {
	if len(reqs) == 0 {
		return 100.0
	}

	var conflictImpact float64
	for _, c := range unresolved {
		sev := c.SeverityScore
		if sev == 0 {
			sev = defaultSeverity
		}
		conflictImpact += sev * conflictWeight
	}

	variance := sentimentVariance(reqs)
	sas := 100 * (1 - (conflictImpact+variance*varianceWeight)/(float64(len(reqs))*2))
	return clamp(sas, 0.0, 100.0)
}

// StabilityIndex computes the Requirement Stability Index (0-100) from the
// total requirement count and the number of revisions in the trailing window.
func StabilityIndex(total, recentChanges int) float64 {
	if total == 0 {
		return 100.0
	}
	changeRatio := float64(recentChanges) / (float64(total) * churnAllowance)
	return clamp((1-changeRatio)*100, 0.0, 100.0)
}

// Forecast blends an alignment score and a stability index into a risk
// forecast. Alignment degradation is weighted more heavily than volatility.
func Forecast(sas, rsi float64) RiskForecast {
	risk := (100-sas)*alignmentRiskWt + (100-rsi)*volatilityRiskWt
	risk = math.Round(risk*10) / 10

	status := RiskLow
	switch {
	case risk > criticalThreshold:
		status = RiskCritical
	case risk > mediumThreshold:
		status = RiskMedium
	}

	indicators := RiskIndicators{AlignmentRisk: "Low", VolatilityRisk: "Low"}
	if sas < alignmentIndicatorFloor {
		indicators.AlignmentRisk = "High"
	}
	if rsi < volatilityIndicatorFloor {
		indicators.VolatilityRisk = "High"
	}

	return RiskForecast{RiskScore: risk, Status: status, Indicators: indicators}
}
