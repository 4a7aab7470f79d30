package risk

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vampbrain/SafeSteps/internal/district"
	"github.com/vampbrain/SafeSteps/internal/hotspot"
	"github.com/vampbrain/SafeSteps/internal/model"
)

// ErrMalformedRoute signals a route whose coordinate sequence cannot be
// evaluated. The boundary maps it to a 400, never a 500.
var ErrMalformedRoute = eris.New("risk: malformed route")

// Params are the scoring knobs fixed at engine construction.
type Params struct {
	// NormalizationScale controls how fast raw risk saturates the 0-10
	// normalized scale: normalized = 10 * (1 - exp(-raw/scale)).
	NormalizationScale float64
	// Percentiles are the calibration cut points (e.g. 50, 75, 90).
	Percentiles [3]float64
	// SampleGridSize is the per-axis resolution of the calibration grid.
	SampleGridSize int
}

// DefaultParams returns the standard scoring parameters.
func DefaultParams() Params {
	return Params{
		NormalizationScale: 25,
		Percentiles:        [3]float64{50, 75, 90},
		SampleGridSize:     64,
	}
}

// Engine scores routes against one immutable hotspot snapshot. All fields
// are fixed at construction; reloads build a new Engine and swap it in via
// a Provider, so every evaluation sees a consistent store, profile and
// threshold set.
type Engine struct {
	store      *hotspot.Store
	profile    hotspot.Profile
	adjuster   *Adjuster
	districts  *district.Index
	params     Params
	thresholds Thresholds
}

// NewEngine validates the inputs and calibrates classification thresholds
// over the store's bounding box.
func NewEngine(store *hotspot.Store, profile hotspot.Profile, adjuster *Adjuster, districts *district.Index, params Params) (*Engine, error) {
	if store == nil {
		return nil, eris.New("risk: nil store")
	}
	if adjuster == nil {
		return nil, eris.New("risk: nil adjuster")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if params.NormalizationScale <= 0 {
		return nil, eris.New("risk: normalization scale must be > 0")
	}
	if params.SampleGridSize < 2 {
		return nil, eris.New("risk: sample grid size must be >= 2")
	}
	p := params.Percentiles
	if p[0] <= 0 || p[2] >= 100 || p[0] >= p[1] || p[1] >= p[2] {
		return nil, eris.New("risk: percentiles must be strictly increasing within (0, 100)")
	}

	e := &Engine{
		store:     store,
		profile:   profile,
		adjuster:  adjuster,
		districts: districts,
		params:    params,
	}
	e.thresholds = e.calibrateThresholds()

	zap.L().With(zap.String("component", "risk.engine")).Info("engine built",
		zap.String("store_version", store.Version()),
		zap.Int("hotspots", store.Len()),
		zap.Float64("threshold_low", e.thresholds.Low),
		zap.Float64("threshold_medium", e.thresholds.Medium),
		zap.Float64("threshold_medium_high", e.thresholds.MediumHigh))

	return e, nil
}

// calibrateThresholds samples the normalized base-risk field on a regular
// grid over the store's bounding box. Calibration uses the base field (no
// hour multiplier) so the bands do not shift with time of day.
func (e *Engine) calibrateThresholds() Thresholds {
	if e.store.Empty() {
		return Thresholds{}
	}

	b := e.store.Bounds()
	n := e.params.SampleGridSize
	latStep := (b.MaxLat - b.MinLat) / float64(n-1)
	lonStep := (b.MaxLon - b.MinLon) / float64(n-1)

	samples := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			lat := b.MinLat + float64(i)*latStep
			lon := b.MinLon + float64(j)*lonStep
			raw := pointRisk(lat, lon, e.store.Hotspots(), e.profile)
			samples = append(samples, e.normalize(raw))
		}
	}

	return calibrate(samples, e.params.Percentiles)
}

// normalize maps raw risk onto the 0-10 scale with a saturating exponential.
func (e *Engine) normalize(raw float64) float64 {
	return 10 * (1 - math.Exp(-raw/e.params.NormalizationScale))
}

// Ready reports whether the engine carries any risk signal. When false,
// callers fall back to distance/duration ranking.
func (e *Engine) Ready() bool { return !e.store.Empty() }

// Thresholds returns the calibrated classification cut points.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Store returns the hotspot snapshot this engine scores against.
func (e *Engine) Store() *hotspot.Store { return e.store }

// DistrictCount returns the number of boundary polygons available for
// attribution.
func (e *Engine) DistrictCount() int { return e.districts.Len() }

// neutralSafetyScore is reported when no hotspot data is loaded: routes are
// neither endorsed nor warned against.
const neutralSafetyScore = 7.0

// Evaluate scores one route for the given travel hour. Route risk is the
// MAXIMUM adjusted point risk along the path: a single dangerous segment
// dominates, it is not averaged away.
func (e *Engine) Evaluate(ctx context.Context, route model.CandidateRoute, hour int) (model.RiskAssessment, error) {
	if err := route.Validate(); err != nil {
		return model.RiskAssessment{}, eris.Wrapf(ErrMalformedRoute, "%s: %s", route.RouteID, err.Error())
	}

	a := model.RiskAssessment{
		RouteID:         route.RouteID,
		RouteIndex:      route.RouteIndex,
		Summary:         route.Summary,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Distance:        route.Distance,
		Duration:        route.Duration,
	}

	if e.store.Empty() {
		a.NormalizedScore = 10 - neutralSafetyScore
		a.SafetyScore = neutralSafetyScore
		a.Category = model.RiskMedium
		a.ContributingFactors = []string{"no hotspot data loaded; ranked by distance and duration"}
		return a, nil
	}

	bucket := e.adjuster.Bucket(hour)

	var (
		maxRaw   float64
		maxPoint model.RoutePoint
	)
	for i, p := range route.Points {
		if i%256 == 0 && ctx.Err() != nil {
			return model.RiskAssessment{}, eris.Wrap(ctx.Err(), "risk: evaluation cancelled")
		}
		raw := pointRisk(p.Latitude, p.Longitude, e.store.Hotspots(), e.profile) * bucket.Multiplier
		if i == 0 || raw > maxRaw {
			maxRaw = raw
			maxPoint = p
		}
	}

	// Full precision: rounding happens at the wire so near-equal routes
	// still rank deterministically.
	a.RawRiskValue = maxRaw
	a.NormalizedScore = e.normalize(maxRaw)
	a.SafetyScore = 10 - a.NormalizedScore
	a.Category = e.thresholds.Classify(a.NormalizedScore)
	a.MaxRiskPoint = maxPoint
	a.ContributingFactors = e.factors(maxPoint, bucket)

	return a, nil
}

// factors builds the human-readable explanation for an assessment.
func (e *Engine) factors(peak model.RoutePoint, bucket Bucket) []string {
	var factors []string

	if cat, share := dominantCategory(peak.Latitude, peak.Longitude, e.store.Hotspots(), e.profile); cat != "" {
		factors = append(factors, fmt.Sprintf("%s incidents account for %.0f%% of risk at the peak point", cat, share*100))
	}

	if name := e.districts.Locate(peak.Latitude, peak.Longitude); name != "" {
		factors = append(factors, fmt.Sprintf("peak risk falls in %s district", name))
	}

	switch {
	case bucket.Multiplier > 1:
		factors = append(factors, fmt.Sprintf("%s travel raises risk weighting by %.0f%%", bucket.Name, (bucket.Multiplier-1)*100))
	case bucket.Multiplier < 1:
		factors = append(factors, fmt.Sprintf("%s travel lowers risk weighting by %.0f%%", bucket.Name, (1-bucket.Multiplier)*100))
	}

	return factors
}

// TimeNote describes the hour's effect on scoring for response insights.
// Returns "" for hours with no adjustment.
func (e *Engine) TimeNote(hour int) string {
	b := e.adjuster.Bucket(hour)
	switch {
	case b.Multiplier > 1:
		return fmt.Sprintf("%s travel raises risk weighting by %.0f%%", b.Name, (b.Multiplier-1)*100)
	case b.Multiplier < 1:
		return fmt.Sprintf("%s travel lowers risk weighting by %.0f%%", b.Name, (1-b.Multiplier)*100)
	default:
		return ""
	}
}

// EvaluateAll scores every route concurrently, preserving input order.
// A malformed route fails the whole batch: the caller sent a bad request.
func (e *Engine) EvaluateAll(ctx context.Context, routes []model.CandidateRoute, hour int) ([]model.RiskAssessment, error) {
	assessments := make([]model.RiskAssessment, len(routes))

	g, gctx := errgroup.WithContext(ctx)
	for i, route := range routes {
		g.Go(func() error {
			a, err := e.Evaluate(gctx, route, hour)
			if err != nil {
				return err
			}
			assessments[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assessments, nil
}

// Round2 rounds a score to two decimals for response encoding. Ranking
// always runs on unrounded scores.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Provider hands out the current Engine and atomically swaps in a new one
// on reload. In-flight evaluations keep the snapshot they started with.
type Provider struct {
	current atomic.Pointer[Engine]
}

// NewProvider wraps an initial engine.
func NewProvider(e *Engine) *Provider {
	p := &Provider{}
	p.current.Store(e)
	return p
}

// Current returns the engine for new evaluations.
func (p *Provider) Current() *Engine { return p.current.Load() }

// Swap installs a new engine.
func (p *Provider) Swap(e *Engine) { p.current.Store(e) }
