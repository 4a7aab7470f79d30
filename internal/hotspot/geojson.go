package hotspot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// GeoJSONSource loads hotspot records from a GeoJSON FeatureCollection of
// Point features. Each feature must carry a "category" property; "intensity"
// and "severity_weight" properties are optional and default from the profile.
type GeoJSONSource struct {
	Path    string
	Profile Profile
}

// Load reads every Point feature from the file.
func (s GeoJSONSource) Load(ctx context.Context) ([]Hotspot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "hotspot: read geojson %s", s.Path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "hotspot: parse geojson %s", s.Path)
	}

	var records []Hotspot
	for i, feature := range fc.Features {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "hotspot: geojson load cancelled")
		}

		point, ok := feature.Geometry.(*geom.Point)
		if !ok {
			return nil, eris.Errorf("hotspot: geojson feature %d is not a Point", i)
		}

		h, err := s.fromFeature(point, feature.Properties)
		if err != nil {
			return nil, eris.Wrapf(err, "hotspot: geojson feature %d", i)
		}
		records = append(records, h)
	}

	return records, nil
}

// Describe names the source for logs.
func (s GeoJSONSource) Describe() string { return fmt.Sprintf("geojson:%s", s.Path) }

func (s GeoJSONSource) fromFeature(point *geom.Point, props map[string]interface{}) (Hotspot, error) {
	coords := point.Coords()
	if len(coords) < 2 {
		return Hotspot{}, eris.New("hotspot: point has no coordinates")
	}

	catVal, ok := props["category"].(string)
	if !ok || catVal == "" {
		return Hotspot{}, eris.New("hotspot: feature missing category property")
	}
	cat := Category(catVal)

	h := Hotspot{
		// GeoJSON positions are lon/lat ordered.
		Longitude:      coords[0],
		Latitude:       coords[1],
		Category:       cat,
		SeverityWeight: s.Profile.Params(cat).SeverityWeight,
		Intensity:      1.0,
	}

	if v, ok := numericProp(props, "intensity"); ok {
		h.Intensity = v
	}
	if v, ok := numericProp(props, "severity_weight"); ok {
		h.SeverityWeight = v
	}

	return h, nil
}

// numericProp reads a JSON number property.
func numericProp(props map[string]interface{}, key string) (float64, bool) {
	raw, ok := props[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
