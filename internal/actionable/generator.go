package actionable

import (
	"fmt"

	"medscribe-go/internal/aggregator"
)

// ActionCard is the one operational takeaway of a batch run.
type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

const (
	mockRateThreshold    = 0.35
	failureRateThreshold = 0.2
)

// Generate picks the most pressing problem of a batch, placeholder
// transcripts first since they make every later stage meaningless.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.MockRate >= mockRateThreshold {
		return ActionCard{
			Insight: fmt.Sprintf("%.0f%% of transcripts are placeholders", ins.MockRate*100),
			Action:  "Check speech credentials and audio links before rerunning",
			Impact:  "Records extracted from placeholders describe no real patient",
		}
	}
	if ins.Total > 0 {
		rate := float64(ins.Failed) / float64(ins.Total)
		if rate >= failureRateThreshold {
			worst, n := "", 0
			for k, c := range ins.FailureKinds {
				if c > n || (c == n && k < worst) {
					worst, n = k, c
				}
			}
			return ActionCard{
				Insight: fmt.Sprintf("%.0f%% of consultations failed, mostly %s", rate*100, worst),
				Action:  "Review the failed rows and rerun them",
				Impact:  "Missing records for part of the batch",
			}
		}
	}
	return ActionCard{
		Insight: "No systematic problem detected",
		Action:  "Spot-check extracted records against the transcripts",
		Impact:  "Low immediate intervention",
	}
}
