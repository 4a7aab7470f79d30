package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/vampbrain/SafeSteps/internal/district"
	"github.com/vampbrain/SafeSteps/internal/hotspot"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	db, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func sampleHotspots() []hotspot.Hotspot {
	return []hotspot.Hotspot{
		{Latitude: 12.9716, Longitude: 77.5946, Category: hotspot.Theft, SeverityWeight: 2, Intensity: 1.5},
		{Latitude: 12.9352, Longitude: 77.6245, Category: hotspot.Robbery, SeverityWeight: 6, Intensity: 1},
		{Latitude: 12.9141, Longitude: 77.6101, Category: hotspot.Theft, SeverityWeight: 2, Intensity: 2},
	}
}

func TestReplaceAndLoadHotspots(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	n, err := db.ReplaceHotspots(ctx, sampleHotspots())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	loaded, err := db.LoadHotspots(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, hotspot.Theft, loaded[0].Category)
	assert.InDelta(t, 12.9716, loaded[0].Latitude, 1e-9)
	assert.InDelta(t, 1.5, loaded[0].Intensity, 1e-9)
}

func TestReplaceHotspotsOverwrites(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	_, err := db.ReplaceHotspots(ctx, sampleHotspots())
	require.NoError(t, err)

	_, err = db.ReplaceHotspots(ctx, sampleHotspots()[:1])
	require.NoError(t, err)

	loaded, err := db.LoadHotspots(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestReplaceHotspotsRejectsInvalid(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	_, err := db.ReplaceHotspots(ctx, []hotspot.Hotspot{
		{Latitude: 12.97, Longitude: 77.59, Category: hotspot.Theft, SeverityWeight: 0, Intensity: 1},
	})
	require.Error(t, err)

	// The failed import must not leave partial data behind.
	loaded, err := db.LoadHotspots(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCountByCategory(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	_, err := db.ReplaceHotspots(ctx, sampleHotspots())
	require.NoError(t, err)

	counts, err := db.CountByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	// Ordered by count descending.
	assert.Equal(t, hotspot.Theft, counts[0].Category)
	assert.Equal(t, 2, counts[0].Count)
	assert.Equal(t, hotspot.Robbery, counts[1].Category)
	assert.Equal(t, 1, counts[1].Count)
}

func TestReplaceAndLoadDistricts(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, []float64{
		77.58, 12.96,
		77.62, 12.96,
		77.62, 13.00,
		77.58, 13.00,
		77.58, 12.96,
	})))
	require.NoError(t, mp.Push(poly))

	n, err := db.ReplaceDistricts(ctx, []district.District{{Name: "Shivajinagar", Geometry: mp}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	loaded, err := db.LoadDistricts(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Shivajinagar", loaded[0].Name)
	assert.Equal(t, mp.FlatCoords(), loaded[0].Geometry.FlatCoords())
}

func TestLoadEmptyTables(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	hotspots, err := db.LoadHotspots(ctx)
	require.NoError(t, err)
	assert.Empty(t, hotspots)

	districts, err := db.LoadDistricts(ctx)
	require.NoError(t, err)
	assert.Empty(t, districts)
}

func TestHotspotSourceAdapter(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	_, err := db.ReplaceHotspots(ctx, sampleHotspots())
	require.NoError(t, err)

	src := HotspotSource{Store: db, Path: "test.db"}
	records, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "sqlite:test.db", src.Describe())
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTestStore(t)
	assert.NoError(t, db.Migrate(context.Background()))
}
