// Package model defines the domain and wire types shared across the risk
// engine: candidate routes, route points, risk assessments, and the JSON
// request/response shapes consumed and produced by the scoring boundary.
package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// RoutePoint is one vertex of a route's decoded path.
type RoutePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the point carries a plausible WGS84 coordinate.
// Out-of-range points are rejected, never clamped.
func (p RoutePoint) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return eris.Errorf("model: latitude %.6f out of range [-90, 90]", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return eris.Errorf("model: longitude %.6f out of range [-180, 180]", p.Longitude)
	}
	return nil
}

// CandidateRoute is one route alternative returned by the mapping provider.
// The engine never mutates a CandidateRoute; it only produces a separate
// RiskAssessment keyed by RouteID.
type CandidateRoute struct {
	RouteID         string
	RouteIndex      int
	Summary         string
	Distance        string // display form, e.g. "3.3 km"
	Duration        string // display form, e.g. "13 mins"
	DistanceMeters  int
	DurationSeconds int
	Points          []RoutePoint
	StartAddress    string
	EndAddress      string
}

// Validate checks the route's coordinate sequence. An empty or invalid
// sequence is a data-shape error surfaced to the caller.
func (r CandidateRoute) Validate() error {
	if len(r.Points) == 0 {
		return eris.Errorf("model: route %s has no coordinates", r.RouteID)
	}
	for i, p := range r.Points {
		if err := p.Validate(); err != nil {
			return eris.Wrapf(err, "model: route %s point %d", r.RouteID, i)
		}
	}
	return nil
}

// RouteFromWire converts a wire-format route into a CandidateRoute.
func RouteFromWire(w WireRoute) CandidateRoute {
	return CandidateRoute{
		RouteID:         fmt.Sprintf("route-%d", w.RouteIndex),
		RouteIndex:      w.RouteIndex,
		Summary:         w.Summary,
		Distance:        w.Distance,
		Duration:        w.Duration,
		DistanceMeters:  w.DistanceValue,
		DurationSeconds: w.DurationValue,
		Points:          w.Coordinates,
		StartAddress:    w.StartAddress,
		EndAddress:      w.EndAddress,
	}
}
