package render

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lidar2d/internal/lidar/l2frames"
)

func newScatter(points []l2frames.Point2D, o Options) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}
	ext := o.extent(points)

	// Equal width/height and symmetric axis ranges keep the plot square.
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.title(), Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: o.title(), Subtitle: o.subtitle(points)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -ext, Max: ext, Name: xLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -ext, Max: ext, Name: yLabel, NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("points", data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "rgba(0, 0, 255, 0.5)"}),
	)
	return scatter
}

// WriteHTML renders points as a standalone HTML scatter chart to w.
func WriteHTML(w io.Writer, points []l2frames.Point2D, o Options) error {
	if err := newScatter(points, o).Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// SaveHTML renders points to the HTML file at path.
func SaveHTML(path string, points []l2frames.Point2D, o Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return WriteHTML(f, points, o)
}
