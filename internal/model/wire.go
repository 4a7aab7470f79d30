package model

// WireRoute is one route entry in an analyze request, as produced by the
// route-discovery layer from the mapping provider's response.
type WireRoute struct {
	RouteIndex    int          `json:"route_index"`
	Summary       string       `json:"summary"`
	Distance      string       `json:"distance"`
	Duration      string       `json:"duration"`
	DistanceValue int          `json:"distance_value"` // meters
	DurationValue int          `json:"duration_value"` // seconds
	Coordinates   []RoutePoint `json:"coordinates"`
	StartAddress  string       `json:"start_address"`
	EndAddress    string       `json:"end_address"`
}

// AnalyzeRequest is the JSON body of POST /analyze_routes.
// TravelHour is a pointer so an omitted hour can default to the current hour.
type AnalyzeRequest struct {
	Timestamp   string      `json:"timestamp"`
	TotalRoutes int         `json:"total_routes"`
	TravelHour  *int        `json:"travel_hour"`
	Routes      []WireRoute `json:"routes"`
}

// RecommendedRoute is the winning route in an analyze response.
type RecommendedRoute struct {
	RouteIndex     int          `json:"route_index"`
	Summary        string       `json:"summary"`
	SafetyScore    float64      `json:"safety_score"`
	CrimeRiskLevel RiskCategory `json:"crime_risk_level"`
	Distance       string       `json:"distance,omitempty"`
	Duration       string       `json:"duration,omitempty"`
}

// RankedRoute is one entry of the full ranking in an analyze response.
type RankedRoute struct {
	RouteIndex     int          `json:"route_index"`
	Summary        string       `json:"summary"`
	Distance       string       `json:"distance"`
	Duration       string       `json:"duration"`
	RiskScore      float64      `json:"risk_score"`
	SafetyScore    float64      `json:"safety_score"`
	CrimeRiskLevel RiskCategory `json:"crime_risk_level"`
	IsRecommended  bool         `json:"is_recommended"`
}

// AnalysisSummary describes how the recommendation was produced.
type AnalysisSummary struct {
	AnalysisType      string   `json:"analysis_type"` // "risk_model" or "fallback"
	FactorsConsidered []string `json:"factors_considered"`
}

// AnalyzeResponse is the JSON body returned by POST /analyze_routes.
type AnalyzeResponse struct {
	Status           string           `json:"status"` // "success" or "fallback"
	RequestID        string           `json:"request_id"`
	Timestamp        string           `json:"timestamp"`
	TravelHour       int              `json:"travel_hour"`
	TotalRoutes      int              `json:"total_routes"`
	RecommendedRoute RecommendedRoute `json:"recommended_route"`
	Routes           []RankedRoute    `json:"routes"`
	Insights         *Insights        `json:"insights,omitempty"`
	AnalysisSummary  AnalysisSummary  `json:"analysis_summary"`
}

// QuickResponse is the JSON body returned by POST /quick_analysis.
type QuickResponse struct {
	Status           string           `json:"status"`
	RecommendedRoute RecommendedRoute `json:"recommended_route"`
	AnalysisType     string           `json:"analysis_type"`
}

// ModelInfo is the JSON body returned by GET /model_info.
type ModelInfo struct {
	ModelName     string             `json:"model_name"`
	Version       string             `json:"version"`
	ModelReady    bool               `json:"ml_available"`
	HotspotCount  int                `json:"hotspot_count"`
	Categories    []string           `json:"categories"`
	Thresholds    map[string]float64 `json:"risk_thresholds"`
	DistrictCount int                `json:"district_count"`
	LoadedAt      string             `json:"loaded_at"`
}

// HealthResponse is the JSON body returned by GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	ModelReady   bool   `json:"ml_available"`
	HotspotCount int    `json:"hotspot_count"`
	Timestamp    string `json:"timestamp"`
}
