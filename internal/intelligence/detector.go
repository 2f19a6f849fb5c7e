package intelligence

import (
	"strings"

	"github.com/insightbrd/brd/internal/models"
)

// Rule is one pairwise contradiction heuristic. Rules are evaluated in
// order and the first match wins for a pair. The keyword rules below stand
// in for semantic analysis; swapping the rule set changes what is detected
// without touching the scan.
type Rule struct {
	Type     string
	Severity float64
	// Match receives the lower-cased texts of the pair in list order.
	Match func(a, b string) bool
}

// DefaultRules returns the built-in detection rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Type:     models.ConflictTypeTimeline,
			Severity: 0.85,
			Match: func(a, b string) bool {
				return strings.Contains(a, "month") && strings.Contains(b, "month")
			},
		},
		{
			Type:     models.ConflictTypeScope,
			Severity: 0.7,
			Match: func(a, b string) bool {
				return strings.Contains(a, "all") && strings.Contains(b, "except")
			},
		},
	}
}

// Detect scans every unordered requirement pair (in list order) and returns
// the conflicts the rules produce, unpersisted. Pairs are only considered
// when both requirements carry the same non-empty category. The scan is
// O(n^2); projects hold low hundreds of requirements at most.
func Detect(reqs []*models.Requirement, rules []Rule) []*models.Conflict {
	var conflicts []*models.Conflict
	for i := 0; i < len(reqs); i++ {
		for j := i + 1; j < len(reqs); j++ {
			a, b := reqs[i], reqs[j]
			if a.Category == "" || a.Category != b.Category {
				continue
			}
			textA := strings.ToLower(a.Text)
			textB := strings.ToLower(b.Text)
			for _, rule := range rules {
				if !rule.Match(textA, textB) {
					continue
				}
				conflicts = append(conflicts, &models.Conflict{
					ProjectID:     a.ProjectID,
					ReqAID:        a.ID,
					ReqBID:        b.ID,
					ConflictType:  rule.Type,
					SeverityScore: rule.Severity,
				})
				break
			}
		}
	}
	return conflicts
}
