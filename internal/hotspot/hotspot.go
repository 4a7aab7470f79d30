// Package hotspot holds the immutable crime-hotspot model: the tracked crime
// categories, the per-category model profile (severity weight and decay
// radius), the in-memory Store loaded once at process start, and the sources
// that load it (GeoJSON, CSV, XLSX, SQLite, Postgres).
package hotspot

import "github.com/rotisserie/eris"

// Category is one of the tracked crime types.
type Category string

// The 15 tracked crime categories, matching the district crime tables the
// model is built from.
const (
	Murder          Category = "MURDER"
	AttemptToMurder Category = "ATTEMPT TO MURDER"
	Rape            Category = "RAPE"
	Dacoity         Category = "DACOITY"
	Robbery         Category = "ROBBERY"
	BurglaryDay     Category = "BURGLARY-DAY"
	BurglaryNight   Category = "BURGLARY-NIGHT"
	Theft           Category = "THEFT"
	Riots           Category = "RIOTS"
	CasesOfHurt     Category = "CASES OF HURT"
	CyberCrime      Category = "CYBER CRIME"
	POCSO           Category = "POCSO"
	Molestation     Category = "MOLESTATION"
	CrueltyByFamily Category = "CRUELTY BY HUSBAND"
	DowryDeaths     Category = "DOWRY DEATHS"
)

// Categories lists every tracked category in a stable order.
func Categories() []Category {
	return []Category{
		Murder, AttemptToMurder, Rape, Dacoity, Robbery,
		BurglaryDay, BurglaryNight, Theft, Riots, CasesOfHurt,
		CyberCrime, POCSO, Molestation, CrueltyByFamily, DowryDeaths,
	}
}

// SeverityClass groups categories by the kind of harm they represent.
// Violent categories keep influence over a larger radius than property
// categories, which in turn reach further than nuisance categories.
type SeverityClass string

const (
	ClassViolent  SeverityClass = "violent"
	ClassProperty SeverityClass = "property"
	ClassNuisance SeverityClass = "nuisance"
)

// Hotspot is a modeled location of crime incidence. Immutable once loaded.
type Hotspot struct {
	Latitude       float64
	Longitude      float64
	Category       Category
	SeverityWeight float64 // strictly positive; violent > property > nuisance
	Intensity      float64 // strictly positive relative incident density
}

// Validate enforces the store invariants on a single record.
func (h Hotspot) Validate() error {
	if h.Latitude < -90 || h.Latitude > 90 {
		return eris.Errorf("hotspot: latitude %.6f out of range", h.Latitude)
	}
	if h.Longitude < -180 || h.Longitude > 180 {
		return eris.Errorf("hotspot: longitude %.6f out of range", h.Longitude)
	}
	if h.SeverityWeight <= 0 {
		return eris.Errorf("hotspot: severity weight must be > 0 (got %.4f)", h.SeverityWeight)
	}
	if h.Intensity <= 0 {
		return eris.Errorf("hotspot: intensity must be > 0 (got %.4f)", h.Intensity)
	}
	if h.Category == "" {
		return eris.New("hotspot: category is required")
	}
	return nil
}
