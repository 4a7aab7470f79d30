package hotspot

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Source loads hotspot records from some backing dataset. Sources are only
// consulted at process start and on explicit reloads; the scoring path never
// touches them.
type Source interface {
	// Load reads every hotspot record from the backing dataset.
	Load(ctx context.Context) ([]Hotspot, error)
	// Describe names the source for logs and the model_info endpoint.
	Describe() string
}

// tabular column names accepted by the CSV and XLSX sources.
const (
	colLatitude  = "latitude"
	colLongitude = "longitude"
	colCategory  = "category"
	colIntensity = "intensity"
	colWeight    = "severity_weight"
)

// headerIndex maps lowercased column names to their positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

// parseTabularRecord builds a Hotspot from one row of a tabular dataset.
// severity_weight is optional; when absent the profile supplies it.
func parseTabularRecord(idx map[string]int, row []string, profile Profile) (Hotspot, error) {
	get := func(col string) (string, bool) {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	for _, col := range []string{colLatitude, colLongitude, colCategory} {
		if _, ok := get(col); !ok {
			return Hotspot{}, eris.Errorf("hotspot: missing required column %q", col)
		}
	}

	latStr, _ := get(colLatitude)
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Hotspot{}, eris.Wrapf(err, "hotspot: parse latitude %q", latStr)
	}

	lonStr, _ := get(colLongitude)
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return Hotspot{}, eris.Wrapf(err, "hotspot: parse longitude %q", lonStr)
	}

	catStr, _ := get(colCategory)
	cat := Category(strings.ToUpper(catStr))

	intensity := 1.0
	if v, ok := get(colIntensity); ok && v != "" {
		intensity, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return Hotspot{}, eris.Wrapf(err, "hotspot: parse intensity %q", v)
		}
	}

	weight := profile.Params(cat).SeverityWeight
	if v, ok := get(colWeight); ok && v != "" {
		weight, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return Hotspot{}, eris.Wrapf(err, "hotspot: parse severity weight %q", v)
		}
	}

	return Hotspot{
		Latitude:       lat,
		Longitude:      lon,
		Category:       cat,
		SeverityWeight: weight,
		Intensity:      intensity,
	}, nil
}
