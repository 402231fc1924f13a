// Package render draws projected point clouds as a PNG scatter plot (gonum/plot)
// or a self-contained HTML scatter chart (go-echarts).
package render

import (
	"fmt"
	"math"

	"github.com/banshee-data/lidar2d/internal/lidar/l2frames"
)

const (
	// DefaultTitle is used when Options.Title is empty.
	DefaultTitle = "LiDAR Data Visualization"

	xLabel = "X (meters)"
	yLabel = "Y (meters)"
)

// Options controls the framing shared by both renderers.
type Options struct {
	Title    string
	Subtitle string
	// ExtentM fixes the half-width of both axes. Zero sizes the axes to the
	// furthest point plus a small margin.
	ExtentM float64
	// SizeInches is the edge of the square PNG canvas. Zero means 10.
	SizeInches float64
}

func (o Options) title() string {
	if o.Title == "" {
		return DefaultTitle
	}
	return o.Title
}

func (o Options) size() float64 {
	if o.SizeInches <= 0 {
		return 10
	}
	return o.SizeInches
}

// extent returns the symmetric axis half-width so x and y share a scale.
func (o Options) extent(points []l2frames.Point2D) float64 {
	if o.ExtentM > 0 {
		return o.ExtentM
	}
	maxAbs := 0.0
	for _, p := range points {
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	// Pad so points at the edges stay visible.
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}
	return pad
}

func (o Options) subtitle(points []l2frames.Point2D) string {
	if o.Subtitle != "" {
		return o.Subtitle
	}
	return fmt.Sprintf("points=%d", len(points))
}
