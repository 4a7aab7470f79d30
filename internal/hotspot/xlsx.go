package hotspot

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXSource loads hotspot records from an XLSX workbook. The first sheet
// (or SheetName, when set) must carry the same header row the CSV source
// expects. District crime releases usually ship as workbooks, so this avoids
// a manual conversion step before import.
type XLSXSource struct {
	Path      string
	SheetName string
	Profile   Profile
}

// Load reads every record from the workbook.
func (s XLSXSource) Load(ctx context.Context) ([]Hotspot, error) {
	f, err := xlsx.OpenFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "hotspot: open xlsx %s", s.Path)
	}

	sheet, err := s.sheet(f)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("hotspot: xlsx %s sheet is empty", s.Path)
	}

	idx := headerIndex(rowStrings(sheet.Rows[0]))

	var records []Hotspot
	for i, row := range sheet.Rows[1:] {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "hotspot: xlsx load cancelled")
		}

		cells := rowStrings(row)
		if allBlank(cells) {
			continue
		}

		h, err := parseTabularRecord(idx, cells, s.Profile)
		if err != nil {
			return nil, eris.Wrapf(err, "hotspot: xlsx row %d", i+2)
		}
		records = append(records, h)
	}

	return records, nil
}

// Describe names the source for logs.
func (s XLSXSource) Describe() string { return fmt.Sprintf("xlsx:%s", s.Path) }

func (s XLSXSource) sheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if s.SheetName != "" {
		sheet, ok := f.Sheet[s.SheetName]
		if !ok {
			return nil, eris.Errorf("hotspot: xlsx sheet %q not found", s.SheetName)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("hotspot: xlsx %s has no sheets", s.Path)
	}
	return f.Sheets[0], nil
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
