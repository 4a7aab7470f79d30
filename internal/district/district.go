// Package district holds administrative boundary polygons used to attribute
// a route's peak-risk point to a named district in the analysis factors.
// Boundaries are imported from shapefiles and persisted as EWKB blobs.
package district

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// District is one named boundary polygon.
type District struct {
	Name     string
	Geometry *geom.MultiPolygon
}

// EncodeEWKB serializes the district geometry as EWKB (SRID 4326, NDR).
func (d District) EncodeEWKB() ([]byte, error) {
	if d.Geometry == nil {
		return nil, eris.Errorf("district: %s has no geometry", d.Name)
	}
	data, err := ewkb.Marshal(d.Geometry, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrapf(err, "district: encode %s", d.Name)
	}
	return data, nil
}

// DecodeEWKB builds a District from a name and an EWKB geometry blob.
func DecodeEWKB(name string, data []byte) (District, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return District{}, eris.Wrapf(err, "district: decode %s", name)
	}
	mp, ok := g.(*geom.MultiPolygon)
	if !ok {
		return District{}, eris.Errorf("district: %s geometry is %T, want MultiPolygon", name, g)
	}
	return District{Name: name, Geometry: mp}, nil
}

// Index answers point-in-district lookups over a fixed set of boundaries.
type Index struct {
	districts []District
}

// NewIndex builds an index over the given districts.
func NewIndex(districts []District) *Index {
	return &Index{districts: districts}
}

// Len returns the number of indexed districts.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.districts)
}

// Locate returns the name of the district containing the point, or "" when
// no district contains it. Holes in polygons are respected.
func (ix *Index) Locate(lat, lon float64) string {
	if ix == nil {
		return ""
	}
	for _, d := range ix.districts {
		if multiPolygonContains(d.Geometry, lon, lat) {
			return d.Name
		}
	}
	return ""
}

// multiPolygonContains tests point containment with even-odd ray casting
// across every ring, so interior rings (holes) cancel the exterior.
func multiPolygonContains(mp *geom.MultiPolygon, x, y float64) bool {
	if mp == nil {
		return false
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		inside := false
		for r := 0; r < poly.NumLinearRings(); r++ {
			if ringContains(poly.LinearRing(r), x, y) {
				inside = !inside
			}
		}
		if inside {
			return true
		}
	}
	return false
}

// ringContains is a standard ray-casting test over a linear ring.
func ringContains(ring *geom.LinearRing, x, y float64) bool {
	coords := ring.FlatCoords()
	stride := ring.Stride()
	n := len(coords) / stride
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := coords[i*stride], coords[i*stride+1]
		xj, yj := coords[j*stride], coords[j*stride+1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}
