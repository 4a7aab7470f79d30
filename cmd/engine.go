package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vampbrain/SafeSteps/internal/config"
	"github.com/vampbrain/SafeSteps/internal/district"
	"github.com/vampbrain/SafeSteps/internal/hotspot"
	"github.com/vampbrain/SafeSteps/internal/risk"
	"github.com/vampbrain/SafeSteps/internal/store"
)

// engineEnv holds everything needed to build (and rebuild) a risk engine:
// the hotspot source, model profile, temporal adjuster, scoring params and
// district index. Connections opened for the source stay open for the
// process lifetime so /reload can re-read without reconnecting.
type engineEnv struct {
	source    hotspot.Source
	profile   hotspot.Profile
	adjuster  *risk.Adjuster
	params    risk.Params
	districts *district.Index
	closers   []func() error
}

// newEngineEnv wires the configured hotspot source, profile, adjuster and
// district index.
func newEngineEnv(ctx context.Context, cfg *config.Config) (*engineEnv, error) {
	profile := hotspot.DefaultProfile()
	if cfg.Hotspots.ProfilePath != "" {
		var err error
		profile, err = hotspot.LoadProfile(cfg.Hotspots.ProfilePath)
		if err != nil {
			return nil, err
		}
	}

	adjuster, err := adjusterFromConfig(cfg.Risk.Temporal)
	if err != nil {
		return nil, err
	}

	env := &engineEnv{
		profile:  profile,
		adjuster: adjuster,
		params: risk.Params{
			NormalizationScale: cfg.Risk.NormalizationScale,
			Percentiles: [3]float64{
				cfg.Risk.Percentiles[0],
				cfg.Risk.Percentiles[1],
				cfg.Risk.Percentiles[2],
			},
			SampleGridSize: cfg.Risk.SampleGridSize,
		},
	}

	if err := env.openSource(ctx, cfg); err != nil {
		env.Close()
		return nil, err
	}

	if err := env.openDistricts(ctx, cfg); err != nil {
		env.Close()
		return nil, err
	}

	return env, nil
}

func (e *engineEnv) openSource(ctx context.Context, cfg *config.Config) error {
	switch cfg.Hotspots.Source {
	case "sqlite":
		db, err := store.NewSQLite(cfg.Hotspots.Path)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		e.source = store.HotspotSource{Store: db, Path: cfg.Hotspots.Path}
	case "csv":
		e.source = hotspot.CSVSource{Path: cfg.Hotspots.Path, Profile: e.profile}
	case "xlsx":
		e.source = hotspot.XLSXSource{Path: cfg.Hotspots.Path, SheetName: cfg.Hotspots.SheetName, Profile: e.profile}
	case "geojson":
		e.source = hotspot.GeoJSONSource{Path: cfg.Hotspots.Path, Profile: e.profile}
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Hotspots.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "connect postgres")
		}
		e.closers = append(e.closers, func() error { pool.Close(); return nil })
		e.source = hotspot.PostgresSource{DB: pool, Table: cfg.Hotspots.Table, Profile: e.profile}
	default:
		return eris.Errorf("unknown hotspot source %q", cfg.Hotspots.Source)
	}
	return nil
}

func (e *engineEnv) openDistricts(ctx context.Context, cfg *config.Config) error {
	if cfg.Districts.Path == "" {
		e.districts = district.NewIndex(nil)
		return nil
	}

	db, err := store.NewSQLite(cfg.Districts.Path)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	districts, err := db.LoadDistricts(ctx)
	if err != nil {
		return err
	}

	e.districts = district.NewIndex(districts)
	zap.L().Info("districts loaded",
		zap.String("path", cfg.Districts.Path),
		zap.Int("count", len(districts)))
	return nil
}

// Build loads the hotspot source and constructs a fresh engine around it.
func (e *engineEnv) Build(ctx context.Context) (*risk.Engine, error) {
	records, err := e.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	st, err := hotspot.NewStore(records)
	if err != nil {
		return nil, err
	}

	zap.L().Info("hotspots loaded",
		zap.String("source", e.source.Describe()),
		zap.Int("count", st.Len()),
		zap.String("store_version", st.Version()))

	return risk.NewEngine(st, e.profile, e.adjuster, e.districts, e.params)
}

// Close releases connections opened for the source.
func (e *engineEnv) Close() {
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil {
			zap.L().Warn("close source", zap.Error(err))
		}
	}
}

func adjusterFromConfig(tc config.TemporalConfig) (*risk.Adjuster, error) {
	return risk.NewAdjuster(
		risk.Bucket{Name: "morning", StartHour: tc.Morning.StartHour, EndHour: tc.Morning.EndHour, Multiplier: tc.Morning.Multiplier},
		risk.Bucket{Name: "day", StartHour: tc.Day.StartHour, EndHour: tc.Day.EndHour, Multiplier: tc.Day.Multiplier},
		risk.Bucket{Name: "night", StartHour: tc.Night.StartHour, EndHour: tc.Night.EndHour, Multiplier: tc.Night.Multiplier},
	)
}
