package render

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/lidar2d/internal/lidar/l2frames"
)

var pointColor = color.NRGBA{R: 0, G: 0, B: 255, A: 128}

func newPlot(points []l2frames.Point2D, o Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = o.title()
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	if len(points) > 0 {
		xys := make(plotter.XYs, len(points))
		for i, pt := range points {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("failed to create scatter: %w", err)
		}
		s.GlyphStyle.Color = pointColor
		s.GlyphStyle.Radius = vg.Points(1.5)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
	}

	ext := o.extent(points)
	p.X.Min, p.X.Max = -ext, ext
	p.Y.Min, p.Y.Max = -ext, ext
	return p, nil
}

// WritePNG renders points as a square PNG scatter plot to w.
func WritePNG(w io.Writer, points []l2frames.Point2D, o Options) error {
	p, err := newPlot(points, o)
	if err != nil {
		return err
	}
	size := vg.Length(o.size()) * vg.Inch
	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// SavePNG renders points to the PNG file at path.
func SavePNG(path string, points []l2frames.Point2D, o Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return WritePNG(f, points, o)
}
