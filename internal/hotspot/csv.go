package hotspot

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// CSVSource loads hotspot records from a CSV file with a header row of
// latitude, longitude, category, intensity and an optional severity_weight.
type CSVSource struct {
	Path    string
	Profile Profile
}

// Load reads every record from the CSV file.
func (s CSVSource) Load(ctx context.Context) ([]Hotspot, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "hotspot: open csv %s", s.Path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "hotspot: read csv header %s", s.Path)
	}
	idx := headerIndex(header)

	var records []Hotspot
	for line := 2; ; line++ {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "hotspot: csv load cancelled")
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "hotspot: read csv line %d", line)
		}

		h, err := parseTabularRecord(idx, row, s.Profile)
		if err != nil {
			return nil, eris.Wrapf(err, "hotspot: csv line %d", line)
		}
		records = append(records, h)
	}

	return records, nil
}

// Describe names the source for logs.
func (s CSVSource) Describe() string { return fmt.Sprintf("csv:%s", s.Path) }
