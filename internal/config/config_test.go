package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Hotspots.Source)
	assert.Equal(t, "safesteps.db", cfg.Hotspots.Path)
	assert.Equal(t, "hotspots", cfg.Hotspots.Table)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 25.0, cfg.Risk.NormalizationScale, 0.001)
	assert.Equal(t, []float64{50, 75, 90}, cfg.Risk.Percentiles)
	assert.Equal(t, 64, cfg.Risk.SampleGridSize)
	assert.Equal(t, 5, cfg.Risk.Temporal.Morning.StartHour)
	assert.Equal(t, 11, cfg.Risk.Temporal.Morning.EndHour)
	assert.InDelta(t, 0.7, cfg.Risk.Temporal.Morning.Multiplier, 0.001)
	assert.InDelta(t, 1.0, cfg.Risk.Temporal.Day.Multiplier, 0.001)
	assert.Equal(t, 20, cfg.Risk.Temporal.Night.StartHour)
	assert.Equal(t, 4, cfg.Risk.Temporal.Night.EndHour)
	assert.InDelta(t, 1.3, cfg.Risk.Temporal.Night.Multiplier, 0.001)
	assert.InDelta(t, 0.6, cfg.Risk.Fallback.DistanceWeight, 0.001)
	assert.InDelta(t, 0.4, cfg.Risk.Fallback.DurationWeight, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
hotspots:
  source: csv
  path: hotspots.csv
log:
  level: debug
  format: console
server:
  port: 9090
risk:
  normalization_scale: 40
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Hotspots.Source)
	assert.Equal(t, "hotspots.csv", cfg.Hotspots.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 40.0, cfg.Risk.NormalizationScale, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, 64, cfg.Risk.SampleGridSize)
	assert.InDelta(t, 1.3, cfg.Risk.Temporal.Night.Multiplier, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
hotspots:
  source: csv
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SAFESTEPS_HOTSPOTS_SOURCE", "geojson")
	t.Setenv("SAFESTEPS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "geojson", cfg.Hotspots.Source)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("SAFESTEPS_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Hotspots.Source = "sqlite"
	cfg.Hotspots.Path = "safesteps.db"
	cfg.Server.Port = 8080
	cfg.Server.RatePerSecond = 10
	cfg.Server.RateBurst = 20
	cfg.Risk.NormalizationScale = 25
	cfg.Risk.Percentiles = []float64{50, 75, 90}
	cfg.Risk.SampleGridSize = 64
	cfg.Risk.Temporal.Morning = BucketConfig{StartHour: 5, EndHour: 11, Multiplier: 0.7}
	cfg.Risk.Temporal.Day = BucketConfig{StartHour: 12, EndHour: 19, Multiplier: 1.0}
	cfg.Risk.Temporal.Night = BucketConfig{StartHour: 20, EndHour: 4, Multiplier: 1.3}
	cfg.Risk.Fallback = FallbackConfig{DistanceWeight: 0.6, DurationWeight: 0.4}
	return cfg
}

func TestValidateServe_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateUnknownSource(t *testing.T) {
	cfg := validDefaults()
	cfg.Hotspots.Source = "mongodb"

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "hotspots.source")
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Hotspots.Source = "postgres"
	cfg.Hotspots.DatabaseURL = ""

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "hotspots.database_url")

	cfg.Hotspots.DatabaseURL = "postgres://localhost/safesteps"
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidatePercentiles(t *testing.T) {
	cfg := validDefaults()

	cfg.Risk.Percentiles = []float64{50, 75}
	err := cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 3")

	cfg.Risk.Percentiles = []float64{75, 50, 90}
	err = cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "strictly increasing")

	cfg.Risk.Percentiles = []float64{50, 75, 100}
	err = cfg.Validate("score")
	assert.Error(t, err)
}

func TestValidateTemporalCoverage(t *testing.T) {
	cfg := validDefaults()

	// Overlap: day starts inside morning
	cfg.Risk.Temporal.Day.StartHour = 11
	err := cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exactly once")

	// Gap: hour 12 covered by nobody
	cfg.Risk.Temporal.Day.StartHour = 13
	err = cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exactly once")
}

func TestValidateTemporalMultiplier(t *testing.T) {
	cfg := validDefaults()
	cfg.Risk.Temporal.Night.Multiplier = 0

	err := cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "risk.temporal.night.multiplier")
}

func TestValidateFallbackWeights(t *testing.T) {
	cfg := validDefaults()
	cfg.Risk.Fallback = FallbackConfig{DistanceWeight: 0.7, DurationWeight: 0.4}

	err := cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")

	cfg.Risk.Fallback = FallbackConfig{DistanceWeight: -0.1, DurationWeight: 1.1}
	err = cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), ">= 0")
}

func TestValidateNormalizationScale(t *testing.T) {
	cfg := validDefaults()
	cfg.Risk.NormalizationScale = 0

	err := cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "normalization_scale")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
