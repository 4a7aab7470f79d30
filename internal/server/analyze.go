package server

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vampbrain/SafeSteps/internal/model"
	"github.com/vampbrain/SafeSteps/internal/risk"
)

// errInvalidHour signals a travel_hour outside [0, 23].
var errInvalidHour = eris.New("server: travel_hour must be between 0 and 23")

// analyze runs the full scoring pipeline for one request: convert wire
// routes, evaluate each against the current engine snapshot, rank, and
// assemble the response. The engine is fetched once so a concurrent reload
// cannot mix snapshots within a request.
func (s *Server) analyze(ctx context.Context, req model.AnalyzeRequest) (model.AnalyzeResponse, error) {
	if len(req.Routes) == 0 {
		return model.AnalyzeResponse{}, risk.ErrNoRoutes
	}

	hour := s.now().Hour()
	if req.TravelHour != nil {
		hour = *req.TravelHour
	}
	if hour < 0 || hour > 23 {
		return model.AnalyzeResponse{}, errInvalidHour
	}

	routes := make([]model.CandidateRoute, len(req.Routes))
	for i, w := range req.Routes {
		routes[i] = model.RouteFromWire(w)
	}

	engine := s.provider.Current()

	assessments, err := engine.EvaluateAll(ctx, routes, hour)
	if err != nil {
		return model.AnalyzeResponse{}, err
	}

	ranking, err := risk.Select(assessments, s.weights, engine.Ready())
	if err != nil {
		return model.AnalyzeResponse{}, err
	}

	insights := risk.Summarize(ranking, engine.TimeNote(hour))

	resp := model.AnalyzeResponse{
		Status:      ranking.Status,
		RequestID:   requestID(ctx),
		Timestamp:   s.now().UTC().Format(time.RFC3339),
		TravelHour:  hour,
		TotalRoutes: len(routes),
		RecommendedRoute: model.RecommendedRoute{
			RouteIndex:     ranking.Recommended.RouteIndex,
			Summary:        ranking.Recommended.Summary,
			SafetyScore:    risk.Round2(ranking.Recommended.SafetyScore),
			CrimeRiskLevel: ranking.Recommended.Category,
			Distance:       ranking.Recommended.Distance,
			Duration:       ranking.Recommended.Duration,
		},
		Routes:          make([]model.RankedRoute, len(ranking.Ordered)),
		Insights:        &insights,
		AnalysisSummary: summaryFor(ranking.Status),
	}

	for i, a := range ranking.Ordered {
		resp.Routes[i] = model.RankedRoute{
			RouteIndex:     a.RouteIndex,
			Summary:        a.Summary,
			Distance:       a.Distance,
			Duration:       a.Duration,
			RiskScore:      risk.Round2(a.NormalizedScore),
			SafetyScore:    risk.Round2(a.SafetyScore),
			CrimeRiskLevel: a.Category,
			IsRecommended:  i == 0,
		}
	}

	return resp, nil
}

func summaryFor(status string) model.AnalysisSummary {
	if status == risk.StatusFallback {
		return model.AnalysisSummary{
			AnalysisType:      "fallback",
			FactorsConsidered: []string{"distance", "duration"},
		}
	}
	return model.AnalysisSummary{
		AnalysisType:      "risk_model",
		FactorsConsidered: []string{"crime_hotspots", "temporal_adjustment", "route_geometry"},
	}
}

// quickAnalyze recommends the shortest route without touching the risk
// model. Ties break on duration, then input order.
func (s *Server) quickAnalyze(req model.AnalyzeRequest) (model.QuickResponse, error) {
	if len(req.Routes) == 0 {
		return model.QuickResponse{}, risk.ErrNoRoutes
	}

	best := req.Routes[0]
	for _, w := range req.Routes[1:] {
		if w.DistanceValue < best.DistanceValue ||
			(w.DistanceValue == best.DistanceValue && w.DurationValue < best.DurationValue) {
			best = w
		}
	}

	return model.QuickResponse{
		Status: "success",
		RecommendedRoute: model.RecommendedRoute{
			RouteIndex:     best.RouteIndex,
			Summary:        best.Summary,
			SafetyScore:    7.0,
			CrimeRiskLevel: model.RiskMedium,
			Distance:       best.Distance,
			Duration:       best.Duration,
		},
		AnalysisType: "quick_distance",
	}, nil
}
