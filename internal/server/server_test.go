package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vampbrain/SafeSteps/internal/district"
	"github.com/vampbrain/SafeSteps/internal/hotspot"
	"github.com/vampbrain/SafeSteps/internal/model"
	"github.com/vampbrain/SafeSteps/internal/risk"
)

const (
	testLat = 12.9716
	testLon = 77.5946
)

// latOffset converts a north-south displacement in meters to degrees.
func latOffset(meters float64) float64 {
	return meters / 6371000.0 * 180 / math.Pi
}

func testEngine(t *testing.T, spots []hotspot.Hotspot) *risk.Engine {
	t.Helper()
	store, err := hotspot.NewStore(spots)
	require.NoError(t, err)
	e, err := risk.NewEngine(store, hotspot.DefaultProfile(), risk.DefaultAdjuster(), district.NewIndex(nil), risk.DefaultParams())
	require.NoError(t, err)
	return e
}

func cityHotspots() []hotspot.Hotspot {
	return []hotspot.Hotspot{
		{Latitude: testLat, Longitude: testLon, Category: hotspot.Robbery, SeverityWeight: 6, Intensity: 2},
		{Latitude: testLat + 0.002, Longitude: testLon, Category: hotspot.Theft, SeverityWeight: 2, Intensity: 3},
	}
}

func testServer(t *testing.T, spots []hotspot.Hotspot, opts Options) *Server {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time {
			return time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC) // a day-bucket hour
		}
	}
	return New(risk.NewProvider(testEngine(t, spots)), opts)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func wireRoute(idx int, summary string, distMeters, durSeconds int, points ...model.RoutePoint) model.WireRoute {
	return model.WireRoute{
		RouteIndex:    idx,
		Summary:       summary,
		Distance:      fmt.Sprintf("%.1f km", float64(distMeters)/1000),
		Duration:      fmt.Sprintf("%d mins", durSeconds/60),
		DistanceValue: distMeters,
		DurationValue: durSeconds,
		Coordinates:   points,
	}
}

func intPtr(v int) *int { return &v }

func TestHealth(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{})

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "safesteps-risk-api", resp.Service)
	assert.True(t, resp.ModelReady)
	assert.Equal(t, 2, resp.HotspotCount)
}

func TestHealthEmptyStore(t *testing.T) {
	s := testServer(t, nil, Options{})

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status) // service is up even without data
	assert.False(t, resp.ModelReady)
}

func TestModelInfo(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{})

	rec := doJSON(t, s, http.MethodGet, "/model_info", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ModelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "spatial-risk-engine", resp.ModelName)
	assert.True(t, resp.ModelReady)
	assert.Equal(t, 2, resp.HotspotCount)
	assert.Len(t, resp.Categories, 15)
	assert.Contains(t, resp.Thresholds, "low")
	assert.Contains(t, resp.Thresholds, "medium")
	assert.Contains(t, resp.Thresholds, "medium_high")
	assert.NotEmpty(t, resp.Version)
	assert.NotEmpty(t, resp.LoadedAt)
}

func TestAnalyzeRoutesRanksByRisk(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{})

	req := model.AnalyzeRequest{
		TravelHour: intPtr(22),
		Routes: []model.WireRoute{
			wireRoute(0, "MG Road", 3300, 780,
				model.RoutePoint{Latitude: testLat + latOffset(100), Longitude: testLon}),
			wireRoute(1, "Outer Ring Road", 5100, 1020,
				model.RoutePoint{Latitude: testLat + latOffset(9000), Longitude: testLon}),
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/analyze_routes", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp model.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 22, resp.TravelHour)
	assert.Equal(t, 2, resp.TotalRoutes)
	assert.NotEmpty(t, resp.RequestID)

	// The route hugging the hotspots loses.
	assert.Equal(t, 1, resp.RecommendedRoute.RouteIndex)
	assert.Equal(t, "Outer Ring Road", resp.RecommendedRoute.Summary)

	require.Len(t, resp.Routes, 2)
	assert.True(t, resp.Routes[0].IsRecommended)
	assert.False(t, resp.Routes[1].IsRecommended)
	assert.LessOrEqual(t, resp.Routes[0].RiskScore, resp.Routes[1].RiskScore)

	// Wire scores are rounded to two decimals.
	for _, rr := range resp.Routes {
		assert.InDelta(t, rr.RiskScore, math.Round(rr.RiskScore*100)/100, 1e-9)
		assert.InDelta(t, rr.SafetyScore, math.Round(rr.SafetyScore*100)/100, 1e-9)
	}

	// Wire round-trip: indexes and summaries preserved.
	assert.Equal(t, 1, resp.Routes[0].RouteIndex)
	assert.Equal(t, "Outer Ring Road", resp.Routes[0].Summary)
	assert.Equal(t, "5.1 km", resp.Routes[0].Distance)
	assert.Equal(t, 0, resp.Routes[1].RouteIndex)
	assert.Equal(t, "MG Road", resp.Routes[1].Summary)

	require.NotNil(t, resp.Insights)
	assert.Equal(t, 1, resp.Insights.SafestRoute.RouteIndex)
	assert.Equal(t, 0, resp.Insights.RiskiestRoute.RouteIndex)
	assert.NotEmpty(t, resp.Insights.TimeNote) // hour 22 is a night hour

	assert.Equal(t, "risk_model", resp.AnalysisSummary.AnalysisType)
	assert.Contains(t, resp.AnalysisSummary.FactorsConsidered, "crime_hotspots")
}

func TestAnalyzeRoutesDefaultsTravelHour(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{
		Now: func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) },
	})

	req := model.AnalyzeRequest{
		Routes: []model.WireRoute{
			wireRoute(0, "MG Road", 3300, 780,
				model.RoutePoint{Latitude: testLat, Longitude: testLon}),
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/analyze_routes", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 9, resp.TravelHour)
}

func TestAnalyzeRoutesEmptyStoreFallsBack(t *testing.T) {
	s := testServer(t, nil, Options{})

	req := model.AnalyzeRequest{
		TravelHour: intPtr(14),
		Routes: []model.WireRoute{
			wireRoute(0, "Long Way", 9000, 1800,
				model.RoutePoint{Latitude: testLat, Longitude: testLon}),
			wireRoute(1, "Short Way", 3000, 600,
				model.RoutePoint{Latitude: testLat, Longitude: testLon}),
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/analyze_routes", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "fallback", resp.Status)
	assert.Equal(t, "fallback", resp.AnalysisSummary.AnalysisType)
	assert.Equal(t, []string{"distance", "duration"}, resp.AnalysisSummary.FactorsConsidered)
	assert.Equal(t, 1, resp.RecommendedRoute.RouteIndex)
	assert.InDelta(t, 7.0, resp.RecommendedRoute.SafetyScore, 1e-9)
	assert.Equal(t, model.RiskMedium, resp.RecommendedRoute.CrimeRiskLevel)
}

func TestAnalyzeRoutesValidation(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{})

	tests := []struct {
		name string
		req  model.AnalyzeRequest
	}{
		{"no routes", model.AnalyzeRequest{}},
		{"invalid hour", model.AnalyzeRequest{
			TravelHour: intPtr(24),
			Routes: []model.WireRoute{wireRoute(0, "x", 1, 1,
				model.RoutePoint{Latitude: testLat, Longitude: testLon})},
		}},
		{"route without coordinates", model.AnalyzeRequest{
			Routes: []model.WireRoute{wireRoute(0, "x", 1, 1)},
		}},
		{"route with out-of-range point", model.AnalyzeRequest{
			Routes: []model.WireRoute{wireRoute(0, "x", 1, 1,
				model.RoutePoint{Latitude: 95, Longitude: testLon})},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/analyze_routes", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp["status"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestAnalyzeRoutesMalformedJSON(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{})

	req := httptest.NewRequest(http.MethodPost, "/analyze_routes", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuickAnalysisPicksShortest(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{})

	req := model.AnalyzeRequest{
		Routes: []model.WireRoute{
			wireRoute(0, "Long Way", 9000, 1800),
			wireRoute(1, "Short Way", 3000, 600),
			wireRoute(2, "Same Distance Slower", 3000, 900),
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/quick_analysis", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.QuickResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1, resp.RecommendedRoute.RouteIndex)
	assert.Equal(t, "quick_distance", resp.AnalysisType)
}

func TestQuickAnalysisNoRoutes(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{})

	rec := doJSON(t, s, http.MethodPost, "/quick_analysis", model.AnalyzeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReloadSwapsEngine(t *testing.T) {
	replacement := testEngine(t, cityHotspots())
	s := testServer(t, nil, Options{
		Reload: func(ctx context.Context) (*risk.Engine, error) {
			return replacement, nil
		},
	})

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	var before model.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))
	assert.False(t, before.ModelReady)

	rec = doJSON(t, s, http.MethodPost, "/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/health", nil)
	var after model.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.True(t, after.ModelReady)
	assert.Equal(t, 2, after.HotspotCount)
}

func TestReloadNotConfigured(t *testing.T) {
	s := testServer(t, nil, Options{})

	rec := doJSON(t, s, http.MethodPost, "/reload", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReloadFailureKeepsEngine(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{
		Reload: func(ctx context.Context) (*risk.Engine, error) {
			return nil, fmt.Errorf("source unavailable")
		},
	})

	rec := doJSON(t, s, http.MethodPost, "/reload", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/health", nil)
	var resp model.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.ModelReady)
}

func TestRateLimit(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{RatePerSecond: 0.001, RateBurst: 1})

	first := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	s := testServer(t, cityHotspots(), Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
