package l2frames

import "math"

// PolarSample is one accepted return: bearing in degrees and range in metres.
type PolarSample struct {
	AngleDeg  float64 `json:"angle_deg"`
	DistanceM float64 `json:"distance_m"`
}

// Point2D is a sample projected onto the sensor plane, in metres.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToCartesian projects a polar sample onto the plane. The sensor measures
// angles clockwise, so y is negated to give a right-handed frame.
func ToCartesian(angleDeg, distanceM float64) (x, y float64) {
	rad := angleDeg * math.Pi / 180.0
	return distanceM * math.Cos(rad), -distanceM * math.Sin(rad)
}

// Project converts samples to plane points, preserving order.
func Project(samples []PolarSample) []Point2D {
	pts := make([]Point2D, len(samples))
	for i, s := range samples {
		pts[i].X, pts[i].Y = ToCartesian(s.AngleDeg, s.DistanceM)
	}
	return pts
}
