// Package store persists the local hotspot dataset and district boundaries
// in SQLite, so serve and score start from an imported snapshot instead of
// re-parsing source files on every boot.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vampbrain/SafeSteps/internal/district"
	"github.com/vampbrain/SafeSteps/internal/hotspot"
)

// SQLite is the local dataset store.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS hotspots (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	latitude        REAL NOT NULL,
	longitude       REAL NOT NULL,
	category        TEXT NOT NULL,
	severity_weight REAL NOT NULL,
	intensity       REAL NOT NULL,
	imported_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS districts (
	name        TEXT PRIMARY KEY,
	geom        BLOB NOT NULL,
	imported_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_hotspots_category ON hotspots(category);
`

// Migrate creates the schema if it does not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ReplaceHotspots replaces the entire hotspot table with the given records
// in one transaction, so readers never observe a half-imported dataset.
func (s *SQLite) ReplaceHotspots(ctx context.Context, records []hotspot.Hotspot) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM hotspots`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear hotspots")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hotspots (latitude, longitude, category, severity_weight, intensity)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for i, h := range records {
		if err := h.Validate(); err != nil {
			return 0, eris.Wrapf(err, "sqlite: record %d", i)
		}
		if _, err := stmt.ExecContext(ctx, h.Latitude, h.Longitude, string(h.Category), h.SeverityWeight, h.Intensity); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert record %d", i)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import tx")
	}
	return n, nil
}

// LoadHotspots reads the entire hotspot table.
func (s *SQLite) LoadHotspots(ctx context.Context) ([]hotspot.Hotspot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT latitude, longitude, category, severity_weight, intensity FROM hotspots`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query hotspots")
	}
	defer rows.Close() //nolint:errcheck

	var records []hotspot.Hotspot
	for rows.Next() {
		var (
			h   hotspot.Hotspot
			cat string
		)
		if err := rows.Scan(&h.Latitude, &h.Longitude, &cat, &h.SeverityWeight, &h.Intensity); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan hotspot")
		}
		h.Category = hotspot.Category(cat)
		records = append(records, h)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate hotspots")
	}
	return records, nil
}

// CategoryCount is one row of the per-category hotspot summary.
type CategoryCount struct {
	Category hotspot.Category
	Count    int
}

// CountByCategory summarizes the stored dataset for the status command.
func (s *SQLite) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM hotspots GROUP BY category ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by category")
	}
	defer rows.Close() //nolint:errcheck

	var counts []CategoryCount
	for rows.Next() {
		var (
			cat string
			n   int
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category count")
		}
		counts = append(counts, CategoryCount{Category: hotspot.Category(cat), Count: n})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate category counts")
	}
	return counts, nil
}

// ReplaceDistricts replaces all stored district boundaries in one transaction.
func (s *SQLite) ReplaceDistricts(ctx context.Context, districts []district.District) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin district tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM districts`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear districts")
	}

	var n int64
	for _, d := range districts {
		blob, err := d.EncodeEWKB()
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO districts (name, geom) VALUES (?, ?)`, d.Name, blob); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert district %s", d.Name)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit district tx")
	}
	return n, nil
}

// LoadDistricts reads and decodes all stored district boundaries.
func (s *SQLite) LoadDistricts(ctx context.Context) ([]district.District, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, geom FROM districts ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query districts")
	}
	defer rows.Close() //nolint:errcheck

	var districts []district.District
	for rows.Next() {
		var (
			name string
			blob []byte
		)
		if err := rows.Scan(&name, &blob); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan district")
		}
		d, err := district.DecodeEWKB(name, blob)
		if err != nil {
			return nil, err
		}
		districts = append(districts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate districts")
	}
	return districts, nil
}

// HotspotSource adapts the SQLite store to the hotspot.Source interface.
type HotspotSource struct {
	Store *SQLite
	Path  string // for Describe only
}

// Load reads the stored hotspot snapshot.
func (s HotspotSource) Load(ctx context.Context) ([]hotspot.Hotspot, error) {
	return s.Store.LoadHotspots(ctx)
}

// Describe names the source for logs.
func (s HotspotSource) Describe() string { return fmt.Sprintf("sqlite:%s", s.Path) }
