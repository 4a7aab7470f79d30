package hotspot

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// PgxQuerier is the slice of the pgx pool API the Postgres source needs.
// Satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// allowlisted tables for the Postgres source; prevents SQL injection through
// the configurable table name.
var validHotspotTables = map[string]bool{
	"hotspots":        true,
	"crime.hotspots":  true,
	"crime.incidents": true,
}

// PostgresSource loads hotspot records from a Postgres table with columns
// latitude, longitude, category, severity_weight, intensity.
type PostgresSource struct {
	DB      PgxQuerier
	Table   string // defaults to "hotspots"
	Profile Profile
}

// Load reads every hotspot row from the configured table.
func (s PostgresSource) Load(ctx context.Context) ([]Hotspot, error) {
	table := s.Table
	if table == "" {
		table = "hotspots"
	}
	if !validHotspotTables[table] {
		return nil, eris.Errorf("hotspot: invalid table name %q", table)
	}

	sql := fmt.Sprintf(
		`SELECT latitude, longitude, category, severity_weight, intensity FROM %s`,
		table,
	)
	rows, err := s.DB.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrap(err, "hotspot: query postgres source")
	}
	defer rows.Close()

	var records []Hotspot
	for rows.Next() {
		var (
			h      Hotspot
			cat    string
			weight *float64
		)
		if err := rows.Scan(&h.Latitude, &h.Longitude, &cat, &weight, &h.Intensity); err != nil {
			return nil, eris.Wrap(err, "hotspot: scan postgres row")
		}
		h.Category = Category(cat)
		if weight != nil {
			h.SeverityWeight = *weight
		} else {
			h.SeverityWeight = s.Profile.Params(h.Category).SeverityWeight
		}
		records = append(records, h)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "hotspot: iterate postgres rows")
	}

	return records, nil
}

// Describe names the source for logs.
func (s PostgresSource) Describe() string {
	table := s.Table
	if table == "" {
		table = "hotspots"
	}
	return fmt.Sprintf("postgres:%s", table)
}
