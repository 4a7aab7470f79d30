package hotspot

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// CategoryParams holds the model parameters for one crime category.
type CategoryParams struct {
	Class          SeverityClass `yaml:"class"`
	SeverityWeight float64       `yaml:"severity_weight"`
	DecayMeters    float64       `yaml:"decay_meters"`
}

// Profile is the per-category model profile: severity weights and decay
// constants. A profile can be loaded from a YAML file to recalibrate the
// model without a rebuild; DefaultProfile matches the published model.
type Profile struct {
	Categories map[Category]CategoryParams `yaml:"categories"`
}

// DefaultProfile returns the built-in model profile. Severity weights follow
// the district crime model (violent > property > nuisance); decay constants
// give violent categories influence over a larger radius.
func DefaultProfile() Profile {
	return Profile{Categories: map[Category]CategoryParams{
		Murder:          {Class: ClassViolent, SeverityWeight: 10, DecayMeters: 2000},
		AttemptToMurder: {Class: ClassViolent, SeverityWeight: 8, DecayMeters: 1800},
		Rape:            {Class: ClassViolent, SeverityWeight: 9, DecayMeters: 2000},
		Dacoity:         {Class: ClassViolent, SeverityWeight: 9, DecayMeters: 2000},
		Robbery:         {Class: ClassViolent, SeverityWeight: 6, DecayMeters: 1500},
		BurglaryDay:     {Class: ClassProperty, SeverityWeight: 4, DecayMeters: 800},
		BurglaryNight:   {Class: ClassProperty, SeverityWeight: 5, DecayMeters: 900},
		Theft:           {Class: ClassProperty, SeverityWeight: 2, DecayMeters: 600},
		Riots:           {Class: ClassViolent, SeverityWeight: 7, DecayMeters: 1600},
		CasesOfHurt:     {Class: ClassNuisance, SeverityWeight: 3, DecayMeters: 500},
		CyberCrime:      {Class: ClassNuisance, SeverityWeight: 1, DecayMeters: 300},
		POCSO:           {Class: ClassViolent, SeverityWeight: 9, DecayMeters: 2000},
		Molestation:     {Class: ClassViolent, SeverityWeight: 6, DecayMeters: 1500},
		CrueltyByFamily: {Class: ClassNuisance, SeverityWeight: 5, DecayMeters: 400},
		DowryDeaths:     {Class: ClassViolent, SeverityWeight: 8, DecayMeters: 1800},
	}}
}

// LoadProfile reads a model profile from a YAML file. Categories missing
// from the file fall back to DefaultProfile values, so a profile file only
// needs to list overrides.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, eris.Wrapf(err, "hotspot: read profile %s", path)
	}

	var overlay Profile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Profile{}, eris.Wrapf(err, "hotspot: parse profile %s", path)
	}

	p := DefaultProfile()
	for cat, params := range overlay.Categories {
		base, ok := p.Categories[cat]
		if !ok {
			return Profile{}, eris.Errorf("hotspot: profile references unknown category %q", cat)
		}
		if params.Class != "" {
			base.Class = params.Class
		}
		if params.SeverityWeight != 0 {
			base.SeverityWeight = params.SeverityWeight
		}
		if params.DecayMeters != 0 {
			base.DecayMeters = params.DecayMeters
		}
		p.Categories[cat] = base
	}

	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks that every category carries positive parameters. An
// invalid profile is a startup failure, never a request-time error.
func (p Profile) Validate() error {
	if len(p.Categories) == 0 {
		return eris.New("hotspot: profile has no categories")
	}
	for cat, params := range p.Categories {
		if params.SeverityWeight <= 0 {
			return eris.Errorf("hotspot: category %s severity weight must be > 0", cat)
		}
		if params.DecayMeters <= 0 {
			return eris.Errorf("hotspot: category %s decay constant must be > 0", cat)
		}
		switch params.Class {
		case ClassViolent, ClassProperty, ClassNuisance:
		default:
			return eris.Errorf("hotspot: category %s has unknown class %q", cat, params.Class)
		}
	}
	return nil
}

// Params returns the parameters for a category, falling back to a nuisance
// baseline for categories the profile does not know about.
func (p Profile) Params(cat Category) CategoryParams {
	if params, ok := p.Categories[cat]; ok {
		return params
	}
	return CategoryParams{Class: ClassNuisance, SeverityWeight: 1, DecayMeters: 300}
}
