package hotspot

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ErrEmptyStore signals that no hotspot data is loaded. It is not a hard
// failure: callers recover by ranking routes on the distance/duration
// fallback and tagging the response accordingly.
var ErrEmptyStore = eris.New("hotspot: store is empty")

// Bounds is the geographic bounding box covered by a store.
type Bounds struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// Store is the immutable in-memory hotspot model. It is built once per
// (re)load and never mutated afterwards; reloads swap in a whole new Store
// so in-flight evaluations always see a consistent snapshot.
type Store struct {
	version  string
	hotspots []Hotspot
	bounds   Bounds
	loadedAt time.Time
}

// NewStore validates the records and builds an immutable Store.
// An empty record set is allowed and yields a store with no risk signal.
func NewStore(records []Hotspot) (*Store, error) {
	s := &Store{
		version:  uuid.NewString(),
		hotspots: make([]Hotspot, len(records)),
		loadedAt: time.Now().UTC(),
	}
	copy(s.hotspots, records)

	for i, h := range s.hotspots {
		if err := h.Validate(); err != nil {
			return nil, eris.Wrapf(err, "hotspot: record %d", i)
		}
		if i == 0 {
			s.bounds = Bounds{MinLat: h.Latitude, MaxLat: h.Latitude, MinLon: h.Longitude, MaxLon: h.Longitude}
			continue
		}
		if h.Latitude < s.bounds.MinLat {
			s.bounds.MinLat = h.Latitude
		}
		if h.Latitude > s.bounds.MaxLat {
			s.bounds.MaxLat = h.Latitude
		}
		if h.Longitude < s.bounds.MinLon {
			s.bounds.MinLon = h.Longitude
		}
		if h.Longitude > s.bounds.MaxLon {
			s.bounds.MaxLon = h.Longitude
		}
	}

	return s, nil
}

// Hotspots returns the loaded records. Callers must treat the slice as
// read-only; the store hands out its backing array to avoid a copy on the
// per-point hot path.
func (s *Store) Hotspots() []Hotspot { return s.hotspots }

// Len returns the number of loaded hotspots.
func (s *Store) Len() int { return len(s.hotspots) }

// Empty reports whether the store carries any risk signal.
func (s *Store) Empty() bool { return len(s.hotspots) == 0 }

// Bounds returns the bounding box of the loaded hotspots.
// Meaningless when the store is empty.
func (s *Store) Bounds() Bounds { return s.bounds }

// Version identifies this load. Reloads always produce a new version.
func (s *Store) Version() string { return s.version }

// LoadedAt returns when this store was built.
func (s *Store) LoadedAt() time.Time { return s.loadedAt }
