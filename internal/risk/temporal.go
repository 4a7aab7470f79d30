package risk

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Bucket is one named hour-of-day band with a risk multiplier. Hour ranges
// are inclusive and may wrap past midnight (e.g. night 20..4).
type Bucket struct {
	Name       string
	StartHour  int
	EndHour    int
	Multiplier float64
}

// contains reports whether the bucket covers the given hour, handling wrap.
func (b Bucket) contains(hour int) bool {
	if b.StartHour <= b.EndHour {
		return hour >= b.StartHour && hour <= b.EndHour
	}
	return hour >= b.StartHour || hour <= b.EndHour
}

// Adjuster maps an hour of day to a risk multiplier via three buckets.
type Adjuster struct {
	buckets [3]Bucket
}

// NewAdjuster builds an Adjuster from three buckets. The buckets must have
// positive multipliers and together cover every hour 0..23 exactly once;
// anything else is a configuration error.
func NewAdjuster(morning, day, night Bucket) (*Adjuster, error) {
	a := &Adjuster{buckets: [3]Bucket{morning, day, night}}

	for _, b := range a.buckets {
		if b.Multiplier <= 0 {
			return nil, eris.Errorf("risk: bucket %s multiplier must be > 0", b.Name)
		}
		if b.StartHour < 0 || b.StartHour > 23 || b.EndHour < 0 || b.EndHour > 23 {
			return nil, eris.Errorf("risk: bucket %s hours must be within 0-23", b.Name)
		}
	}

	for hour := 0; hour < 24; hour++ {
		n := 0
		for _, b := range a.buckets {
			if b.contains(hour) {
				n++
			}
		}
		if n != 1 {
			return nil, eris.Errorf("risk: hour %d covered by %d buckets, want exactly 1", hour, n)
		}
	}

	return a, nil
}

// DefaultAdjuster returns the standard morning/day/night partition.
func DefaultAdjuster() *Adjuster {
	a, err := NewAdjuster(
		Bucket{Name: "morning", StartHour: 5, EndHour: 11, Multiplier: 0.7},
		Bucket{Name: "day", StartHour: 12, EndHour: 19, Multiplier: 1.0},
		Bucket{Name: "night", StartHour: 20, EndHour: 4, Multiplier: 1.3},
	)
	if err != nil {
		panic(err) // unreachable: the default partition is statically valid
	}
	return a
}

// Bucket returns the bucket covering the given hour. Hours outside [0, 23]
// are a programmer error: callers validate user input at the boundary.
func (a *Adjuster) Bucket(hour int) Bucket {
	if hour < 0 || hour > 23 {
		panic(fmt.Sprintf("risk: hour %d outside [0, 23]", hour))
	}
	for _, b := range a.buckets {
		if b.contains(hour) {
			return b
		}
	}
	panic("risk: adjuster buckets do not cover every hour") // unreachable after NewAdjuster
}

// Multiplier returns the risk multiplier for the given hour.
func (a *Adjuster) Multiplier(hour int) float64 {
	return a.Bucket(hour).Multiplier
}
