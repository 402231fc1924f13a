package l2frames

import "github.com/banshee-data/lidar2d/internal/lidar/l1packets"

// Accumulator is an append-only, ordered collection of samples for one
// session. It is owned by a single goroutine.
type Accumulator struct {
	maxRadiusM float64
	samples    []PolarSample
	rejected   int
}

// NewAccumulator creates an accumulator keeping points no further than
// maxRadiusM. A non-positive radius keeps every point.
func NewAccumulator(maxRadiusM float64) *Accumulator {
	return &Accumulator{maxRadiusM: maxRadiusM}
}

// Accepts reports whether a point at distanceM passes the radius filter. The
// bound is inclusive.
func (a *Accumulator) Accepts(distanceM float64) bool {
	return a.maxRadiusM <= 0 || distanceM <= a.maxRadiusM
}

// AddFrame appends every point of f that passes the radius filter, in packet
// order, and returns how many were kept.
func (a *Accumulator) AddFrame(f l1packets.MeasurementFrame) int {
	kept := 0
	for _, pt := range f.Points {
		if !a.Accepts(pt.DistanceM) {
			a.rejected++
			continue
		}
		a.samples = append(a.samples, PolarSample{AngleDeg: pt.AngleDeg, DistanceM: pt.DistanceM})
		kept++
	}
	return kept
}

// Len returns the number of samples kept.
func (a *Accumulator) Len() int { return len(a.samples) }

// Rejected returns the number of points dropped by the radius filter.
func (a *Accumulator) Rejected() int { return a.rejected }

// Samples returns a copy of the kept samples.
func (a *Accumulator) Samples() []PolarSample {
	out := make([]PolarSample, len(a.samples))
	copy(out, a.samples)
	return out
}
