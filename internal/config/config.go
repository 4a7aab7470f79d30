package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Hotspots  HotspotsConfig  `yaml:"hotspots" mapstructure:"hotspots"`
	Districts DistrictsConfig `yaml:"districts" mapstructure:"districts"`
	Risk      RiskConfig      `yaml:"risk" mapstructure:"risk"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// HotspotsConfig configures where the hotspot dataset comes from.
type HotspotsConfig struct {
	// Source is one of: sqlite, csv, xlsx, geojson, postgres.
	Source      string `yaml:"source" mapstructure:"source"`
	Path        string `yaml:"path" mapstructure:"path"`
	SheetName   string `yaml:"sheet_name" mapstructure:"sheet_name"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
	// ProfilePath optionally overrides per-category weights and decay
	// distances with a YAML profile.
	ProfilePath string `yaml:"profile_path" mapstructure:"profile_path"`
}

// DistrictsConfig configures boundary attribution.
type DistrictsConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // sqlite db holding imported boundaries; empty disables attribution
}

// RiskConfig configures scoring, normalization and classification.
type RiskConfig struct {
	NormalizationScale float64        `yaml:"normalization_scale" mapstructure:"normalization_scale"`
	Percentiles        []float64      `yaml:"percentiles" mapstructure:"percentiles"`
	SampleGridSize     int            `yaml:"sample_grid_size" mapstructure:"sample_grid_size"`
	Temporal           TemporalConfig `yaml:"temporal" mapstructure:"temporal"`
	Fallback           FallbackConfig `yaml:"fallback" mapstructure:"fallback"`
}

// TemporalConfig partitions the 24-hour day into three multiplier buckets.
// Buckets are inclusive hour ranges; night wraps past midnight.
type TemporalConfig struct {
	Morning BucketConfig `yaml:"morning" mapstructure:"morning"`
	Day     BucketConfig `yaml:"day" mapstructure:"day"`
	Night   BucketConfig `yaml:"night" mapstructure:"night"`
}

// BucketConfig is one hour-range bucket with its risk multiplier.
type BucketConfig struct {
	StartHour  int     `yaml:"start_hour" mapstructure:"start_hour"`
	EndHour    int     `yaml:"end_hour" mapstructure:"end_hour"`
	Multiplier float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// FallbackConfig weights the distance/duration blend used when risk data
// cannot differentiate routes.
type FallbackConfig struct {
	DistanceWeight float64 `yaml:"distance_weight" mapstructure:"distance_weight"`
	DurationWeight float64 `yaml:"duration_weight" mapstructure:"duration_weight"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SAFESTEPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("hotspots.source", "sqlite")
	v.SetDefault("hotspots.path", "safesteps.db")
	v.SetDefault("hotspots.table", "hotspots")
	v.SetDefault("districts.path", "")
	v.SetDefault("risk.normalization_scale", 25.0)
	v.SetDefault("risk.percentiles", []float64{50, 75, 90})
	v.SetDefault("risk.sample_grid_size", 64)
	v.SetDefault("risk.temporal.morning.start_hour", 5)
	v.SetDefault("risk.temporal.morning.end_hour", 11)
	v.SetDefault("risk.temporal.morning.multiplier", 0.7)
	v.SetDefault("risk.temporal.day.start_hour", 12)
	v.SetDefault("risk.temporal.day.end_hour", 19)
	v.SetDefault("risk.temporal.day.multiplier", 1.0)
	v.SetDefault("risk.temporal.night.start_hour", 20)
	v.SetDefault("risk.temporal.night.end_hour", 4)
	v.SetDefault("risk.temporal.night.multiplier", 1.3)
	v.SetDefault("risk.fallback.distance_weight", 0.6)
	v.SetDefault("risk.fallback.duration_weight", 0.4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_per_second", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

var validSources = map[string]bool{
	"sqlite":   true,
	"csv":      true,
	"xlsx":     true,
	"geojson":  true,
	"postgres": true,
}

// Validate checks the configuration for the given run mode ("serve", "score"
// or "import"). Invalid configuration is a startup failure, never a silent
// fallback at request time.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
		if c.Server.RatePerSecond <= 0 {
			problems = append(problems, "server.rate_per_second must be > 0")
		}
		if c.Server.RateBurst < 1 {
			problems = append(problems, "server.rate_burst must be >= 1")
		}
		problems = append(problems, c.sourceProblems()...)
		problems = append(problems, c.riskProblems()...)
	case "score":
		problems = append(problems, c.sourceProblems()...)
		problems = append(problems, c.riskProblems()...)
	case "import":
		if c.Hotspots.Path == "" {
			problems = append(problems, "hotspots.path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) sourceProblems() []string {
	var problems []string
	if !validSources[c.Hotspots.Source] {
		problems = append(problems, fmt.Sprintf("hotspots.source %q is not one of sqlite, csv, xlsx, geojson, postgres", c.Hotspots.Source))
		return problems
	}
	if c.Hotspots.Source == "postgres" {
		if c.Hotspots.DatabaseURL == "" {
			problems = append(problems, "hotspots.database_url is required for the postgres source")
		}
	} else if c.Hotspots.Path == "" {
		problems = append(problems, "hotspots.path is required")
	}
	return problems
}

func (c *Config) riskProblems() []string {
	var problems []string

	if c.Risk.NormalizationScale <= 0 {
		problems = append(problems, "risk.normalization_scale must be > 0")
	}
	if c.Risk.SampleGridSize < 2 {
		problems = append(problems, "risk.sample_grid_size must be >= 2")
	}

	if len(c.Risk.Percentiles) != 3 {
		problems = append(problems, "risk.percentiles must list exactly 3 values")
	} else {
		p := c.Risk.Percentiles
		if p[0] <= 0 || p[2] >= 100 || p[0] >= p[1] || p[1] >= p[2] {
			problems = append(problems, "risk.percentiles must be strictly increasing within (0, 100)")
		}
	}

	problems = append(problems, temporalProblems(c.Risk.Temporal)...)

	fb := c.Risk.Fallback
	if fb.DistanceWeight < 0 || fb.DurationWeight < 0 {
		problems = append(problems, "risk.fallback weights must be >= 0")
	} else if sum := fb.DistanceWeight + fb.DurationWeight; sum < 0.999 || sum > 1.001 {
		problems = append(problems, "risk.fallback weights must sum to 1.0")
	}

	return problems
}

// temporalProblems verifies the three buckets have positive multipliers and
// together cover every hour of the day exactly once.
func temporalProblems(tc TemporalConfig) []string {
	var problems []string

	covered := make([]int, 24)
	for _, b := range []struct {
		name   string
		bucket BucketConfig
	}{
		{"morning", tc.Morning},
		{"day", tc.Day},
		{"night", tc.Night},
	} {
		if b.bucket.Multiplier <= 0 {
			problems = append(problems, fmt.Sprintf("risk.temporal.%s.multiplier must be > 0", b.name))
		}
		if b.bucket.StartHour < 0 || b.bucket.StartHour > 23 || b.bucket.EndHour < 0 || b.bucket.EndHour > 23 {
			problems = append(problems, fmt.Sprintf("risk.temporal.%s hours must be within 0-23", b.name))
			continue
		}
		for _, h := range bucketHours(b.bucket) {
			covered[h]++
		}
	}

	for h, n := range covered {
		if n != 1 {
			problems = append(problems, fmt.Sprintf("risk.temporal buckets must cover every hour exactly once (hour %d covered %d times)", h, n))
			break
		}
	}

	return problems
}

// bucketHours expands an inclusive hour range, wrapping past midnight.
func bucketHours(b BucketConfig) []int {
	var hours []int
	h := b.StartHour
	for {
		hours = append(hours, h)
		if h == b.EndHour {
			return hours
		}
		h = (h + 1) % 24
		if len(hours) > 24 {
			return hours // malformed range; caught by coverage check
		}
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
