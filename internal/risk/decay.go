// Package risk implements the spatial risk model: an exponential
// distance-decay kernel over crime hotspots, hour-of-day adjustment,
// percentile-calibrated classification, and route ranking.
package risk

import (
	"math"

	"github.com/vampbrain/SafeSteps/internal/hotspot"
)

const earthRadiusMeters = 6371000.0

// haversineMeters returns the great-circle distance between two WGS84 points.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// pointRisk is the raw hotspot field at one point: the sum over all hotspots
// of weight * intensity * exp(-distance / decay). Decay constants come from
// the per-category profile, so violent categories project influence over a
// larger radius than nuisance ones. The kernel depends only on distance,
// never on bearing.
func pointRisk(lat, lon float64, hotspots []hotspot.Hotspot, profile hotspot.Profile) float64 {
	var sum float64
	for _, h := range hotspots {
		d := haversineMeters(lat, lon, h.Latitude, h.Longitude)
		decay := profile.Params(h.Category).DecayMeters
		sum += h.SeverityWeight * h.Intensity * math.Exp(-d/decay)
	}
	return sum
}

// dominantCategory returns the category contributing the most risk at a
// point, with its share of the total. Used for the contributing-factors
// narrative, not for scoring.
func dominantCategory(lat, lon float64, hotspots []hotspot.Hotspot, profile hotspot.Profile) (hotspot.Category, float64) {
	byCategory := make(map[hotspot.Category]float64)
	var total float64
	for _, h := range hotspots {
		d := haversineMeters(lat, lon, h.Latitude, h.Longitude)
		decay := profile.Params(h.Category).DecayMeters
		c := h.SeverityWeight * h.Intensity * math.Exp(-d/decay)
		byCategory[h.Category] += c
		total += c
	}

	var (
		best      hotspot.Category
		bestValue float64
	)
	for cat, v := range byCategory {
		if v > bestValue || (v == bestValue && string(cat) < string(best)) {
			best, bestValue = cat, v
		}
	}
	if total == 0 {
		return "", 0
	}
	return best, bestValue / total
}
