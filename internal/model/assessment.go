package model

// RiskCategory is an ordinal crime-risk band.
type RiskCategory string

// Risk categories, ordered from safest to most exposed.
const (
	RiskLow        RiskCategory = "LOW"
	RiskMedium     RiskCategory = "MEDIUM"
	RiskMediumHigh RiskCategory = "MEDIUM_HIGH"
	RiskHigh       RiskCategory = "HIGH"
)

// Rank returns the ordinal position of the category (LOW=0 .. HIGH=3).
// Unknown categories rank above HIGH so they never win a safety comparison.
func (c RiskCategory) Rank() int {
	switch c {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskMediumHigh:
		return 2
	case RiskHigh:
		return 3
	default:
		return 4
	}
}

// RiskAssessment is the per-route evaluation result. One assessment is
// produced per route per request; assessments are never persisted or reused
// across requests.
type RiskAssessment struct {
	RouteID             string       `json:"route_id"`
	RouteIndex          int          `json:"route_index"`
	Summary             string       `json:"summary"`
	RawRiskValue        float64      `json:"raw_risk_value"`
	NormalizedScore     float64      `json:"normalized_score"` // 0-10, higher = riskier
	SafetyScore         float64      `json:"safety_score"`     // 0-10, higher = safer
	Category            RiskCategory `json:"category"`
	ContributingFactors []string     `json:"contributing_factors"`

	// Carried from the candidate route so ranking and tie-breaking never
	// needs to reach back into the request.
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
	Distance        string `json:"distance"`
	Duration        string `json:"duration"`

	// MaxRiskPoint is the vertex that produced RawRiskValue.
	MaxRiskPoint RoutePoint `json:"-"`
}

// Insights summarizes the spread between route alternatives.
type Insights struct {
	SafestRoute          RouteRef `json:"safest_route"`
	RiskiestRoute        RouteRef `json:"riskiest_route"`
	RiskReductionPercent *float64 `json:"risk_reduction_percentage,omitempty"`
	TimeNote             string   `json:"time_note,omitempty"`
	// Caution is set when even the safest route stays in a risky band.
	Caution string `json:"caution,omitempty"`
}

// RouteRef identifies a route inside an insight.
type RouteRef struct {
	RouteIndex int     `json:"route_index"`
	Summary    string  `json:"summary"`
	RiskScore  float64 `json:"risk_score"`
}
