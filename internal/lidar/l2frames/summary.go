package l2frames

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a collected point cloud.
type Summary struct {
	Count         int     `json:"count"`
	MinDistanceM  float64 `json:"min_distance_m"`
	MaxDistanceM  float64 `json:"max_distance_m"`
	MeanDistanceM float64 `json:"mean_distance_m"`
	StdDistanceM  float64 `json:"std_distance_m"`
	// CoverageDeg is the number of distinct whole-degree bearings with at
	// least one sample, 0..360.
	CoverageDeg int `json:"coverage_deg"`
}

// Summarise computes distance statistics and angular coverage. An empty input
// yields a zero Summary.
func Summarise(samples []PolarSample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	dists := make([]float64, len(samples))
	var bins [360]bool
	for i, s := range samples {
		dists[i] = s.DistanceM
		bin := int(math.Floor(s.AngleDeg)) % 360
		if bin < 0 {
			bin += 360
		}
		bins[bin] = true
	}

	mean, std := stat.MeanStdDev(dists, nil)
	if len(dists) == 1 {
		std = 0
	}

	covered := 0
	for _, b := range bins {
		if b {
			covered++
		}
	}

	return Summary{
		Count:         len(samples),
		MinDistanceM:  floats.Min(dists),
		MaxDistanceM:  floats.Max(dists),
		MeanDistanceM: mean,
		StdDistanceM:  std,
		CoverageDeg:   covered,
	}
}
