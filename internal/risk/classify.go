package risk

import (
	"math"
	"sort"

	"github.com/vampbrain/SafeSteps/internal/model"
)

// Thresholds are the normalized-score cut points separating the four risk
// bands. They are calibrated per dataset load by sampling the hotspot field
// over its bounding box, so bands stay meaningful across cities with very
// different hotspot densities.
type Thresholds struct {
	Low        float64 `json:"low"`         // scores <= Low are LOW
	Medium     float64 `json:"medium"`      // scores <= Medium are MEDIUM
	MediumHigh float64 `json:"medium_high"` // scores <= MediumHigh are MEDIUM_HIGH, above is HIGH
}

// Classify maps a normalized score onto its risk band.
func (t Thresholds) Classify(score float64) model.RiskCategory {
	switch {
	case score <= t.Low:
		return model.RiskLow
	case score <= t.Medium:
		return model.RiskMedium
	case score <= t.MediumHigh:
		return model.RiskMediumHigh
	default:
		return model.RiskHigh
	}
}

// calibrate computes thresholds at the given percentiles (e.g. 50, 75, 90)
// over a sample of normalized scores.
func calibrate(samples []float64, percentiles [3]float64) Thresholds {
	if len(samples) == 0 {
		return Thresholds{}
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	return Thresholds{
		Low:        percentile(sorted, percentiles[0]),
		Medium:     percentile(sorted, percentiles[1]),
		MediumHigh: percentile(sorted, percentiles[2]),
	}
}

// percentile returns the p-th percentile of a sorted sample using linear
// interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		return sorted[0]
	}
	if hi >= n {
		return sorted[n-1]
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
