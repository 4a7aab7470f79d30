package risk

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/vampbrain/SafeSteps/internal/model"
)

// ErrNoRoutes signals an analysis request carrying no routes.
var ErrNoRoutes = eris.New("risk: no routes to rank")

// Ranking statuses.
const (
	StatusSuccess  = "success"
	StatusFallback = "fallback"
)

// FallbackWeights blend distance and duration when risk data cannot
// differentiate routes. The weights must sum to 1.
type FallbackWeights struct {
	Distance float64
	Duration float64
}

// DefaultFallbackWeights is the standard 60/40 distance/duration blend.
var DefaultFallbackWeights = FallbackWeights{Distance: 0.6, Duration: 0.4}

// Ranking is an ordered set of assessments, safest first.
type Ranking struct {
	Ordered     []model.RiskAssessment
	Recommended model.RiskAssessment
	Status      string
}

// Select ranks assessments ascending by risk and picks the safest as the
// recommendation. Ties break on duration, then distance, then input order.
//
// Two conditions force the distance/duration fallback: the engine had no
// hotspot data (risky==false), or several routes scored identically so risk
// carries no signal. Fallback rankings are tagged StatusFallback so clients
// can tell an informed recommendation from a heuristic one.
func Select(assessments []model.RiskAssessment, weights FallbackWeights, risky bool) (Ranking, error) {
	if len(assessments) == 0 {
		return Ranking{}, ErrNoRoutes
	}

	ordered := make([]model.RiskAssessment, len(assessments))
	copy(ordered, assessments)

	if !risky || allScoresEqual(ordered) {
		sortByBlend(ordered, weights)
		return Ranking{Ordered: ordered, Recommended: ordered[0], Status: StatusFallback}, nil
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].NormalizedScore != ordered[j].NormalizedScore {
			return ordered[i].NormalizedScore < ordered[j].NormalizedScore
		}
		if ordered[i].DurationSeconds != ordered[j].DurationSeconds {
			return ordered[i].DurationSeconds < ordered[j].DurationSeconds
		}
		return ordered[i].DistanceMeters < ordered[j].DistanceMeters
	})

	return Ranking{Ordered: ordered, Recommended: ordered[0], Status: StatusSuccess}, nil
}

// allScoresEqual reports whether risk failed to differentiate the routes.
// A single route is trivially differentiated.
func allScoresEqual(assessments []model.RiskAssessment) bool {
	if len(assessments) < 2 {
		return false
	}
	first := assessments[0].NormalizedScore
	for _, a := range assessments[1:] {
		if a.NormalizedScore != first {
			return false
		}
	}
	return true
}

// sortByBlend orders routes by the weighted combination of raw distance
// meters and duration seconds.
func sortByBlend(assessments []model.RiskAssessment, weights FallbackWeights) {
	blend := func(a model.RiskAssessment) float64 {
		return weights.Distance*float64(a.DistanceMeters) + weights.Duration*float64(a.DurationSeconds)
	}

	sort.SliceStable(assessments, func(i, j int) bool {
		bi, bj := blend(assessments[i]), blend(assessments[j])
		if bi != bj {
			return bi < bj
		}
		if assessments[i].DurationSeconds != assessments[j].DurationSeconds {
			return assessments[i].DurationSeconds < assessments[j].DurationSeconds
		}
		return assessments[i].DistanceMeters < assessments[j].DistanceMeters
	})
}

// Summarize derives safest/riskiest insights from a ranking. When even the
// safest route sits in the MEDIUM_HIGH band or above, the insights carry a
// caution so clients do not present the recommendation as safe.
func Summarize(r Ranking, timeNote string) model.Insights {
	safest := r.Ordered[0]
	riskiest := r.Ordered[len(r.Ordered)-1]

	insights := model.Insights{
		SafestRoute: model.RouteRef{
			RouteIndex: safest.RouteIndex,
			Summary:    safest.Summary,
			RiskScore:  Round2(safest.NormalizedScore),
		},
		RiskiestRoute: model.RouteRef{
			RouteIndex: riskiest.RouteIndex,
			Summary:    riskiest.Summary,
			RiskScore:  Round2(riskiest.NormalizedScore),
		},
		TimeNote: timeNote,
	}

	if riskiest.NormalizedScore > 0 && riskiest.NormalizedScore > safest.NormalizedScore {
		pct := Round2((riskiest.NormalizedScore - safest.NormalizedScore) / riskiest.NormalizedScore * 100)
		insights.RiskReductionPercent = &pct
	}

	if safest.Category.Rank() >= model.RiskMediumHigh.Rank() {
		insights.Caution = fmt.Sprintf("even the safest route carries %s crime risk", safest.Category)
	}

	return insights
}
