package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vampbrain/SafeSteps/internal/hotspot"
	"github.com/vampbrain/SafeSteps/internal/model"
	"github.com/vampbrain/SafeSteps/internal/risk"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	engine := s.provider.Current()
	respondJSON(w, http.StatusOK, model.HealthResponse{
		Status:       "healthy",
		Service:      serviceName,
		ModelReady:   engine.Ready(),
		HotspotCount: engine.Store().Len(),
		Timestamp:    s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	engine := s.provider.Current()
	store := engine.Store()
	th := engine.Thresholds()

	categories := make([]string, 0, len(hotspot.Categories()))
	for _, c := range hotspot.Categories() {
		categories = append(categories, string(c))
	}

	respondJSON(w, http.StatusOK, model.ModelInfo{
		ModelName:    "spatial-risk-engine",
		Version:      store.Version(),
		ModelReady:   engine.Ready(),
		HotspotCount: store.Len(),
		Categories:   categories,
		Thresholds: map[string]float64{
			"low":         th.Low,
			"medium":      th.Medium,
			"medium_high": th.MediumHigh,
		},
		DistrictCount: engine.DistrictCount(),
		LoadedAt:      store.LoadedAt().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAnalyzeRoutes(w http.ResponseWriter, r *http.Request) {
	var req model.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.analyze(r.Context(), req)
	if err != nil {
		s.respondAnalyzeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuickAnalysis(w http.ResponseWriter, r *http.Request) {
	var req model.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.quickAnalyze(req)
	if err != nil {
		s.respondAnalyzeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		respondError(w, r, http.StatusServiceUnavailable, "reload is not configured")
		return
	}

	engine, err := s.reload(r.Context())
	if err != nil {
		zap.L().Error("reload failed", zap.String("component", "server"), zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "reload failed")
		return
	}

	s.provider.Swap(engine)
	zap.L().Info("dataset reloaded",
		zap.String("component", "server"),
		zap.String("store_version", engine.Store().Version()),
		zap.Int("hotspots", engine.Store().Len()))

	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "reloaded",
		"store_version": engine.Store().Version(),
		"hotspot_count": engine.Store().Len(),
	})
}

// respondAnalyzeError maps pipeline errors onto status codes. Bad input is
// the caller's fault (400); anything else is ours (500).
func (s *Server) respondAnalyzeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case eris.Is(err, risk.ErrNoRoutes):
		respondError(w, r, http.StatusBadRequest, "no routes provided")
	case eris.Is(err, risk.ErrMalformedRoute):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case eris.Is(err, errInvalidHour):
		respondError(w, r, http.StatusBadRequest, "travel_hour must be between 0 and 23")
	default:
		zap.L().Error("analysis failed", zap.String("component", "server"), zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "analysis failed")
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.String("component", "server"), zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"status":     "error",
		"error":      msg,
		"request_id": requestID(r.Context()),
	})
}
