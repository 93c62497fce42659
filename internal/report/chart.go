package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/planefit/internal/fsutil"
	"github.com/banshee-data/planefit/internal/lidar"
)

// maxChartPoints bounds the HTML payload; larger sets are strided.
const maxChartPoints = 8000

// RenderScatterChart writes an HTML page with a top-down (x, y) scatter of
// the points, coloured by vertical residual against plane.
func RenderScatterChart(w io.Writer, ps lidar.PointSet, plane lidar.PlaneModel) error {
	if len(ps) == 0 {
		return fmt.Errorf("no points to chart")
	}

	stride := chartStride(len(ps))

	data := make([]opts.ScatterData, 0, len(ps)/stride+1)
	maxRes := 0.0
	for i := 0; i < len(ps); i += stride {
		pt := ps[i]
		res := plane.Residual(pt)
		maxRes = math.Max(maxRes, math.Abs(res))
		data = append(data, opts.ScatterData{Value: []interface{}{pt.X, pt.Y, res}})
	}
	if maxRes == 0 {
		maxRes = 1e-3
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Plane fit residuals", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Plane fit residuals",
			Subtitle: fmt.Sprintf("z = %.4f + %.4f·x + %.4f·y  points=%d stride=%d", plane.A, plane.B, plane.C, len(data), stride),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(-maxRes),
			Max:        float32(maxRes),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#313695", "#4575b4", "#abd9e9", "#ffffbf", "#fdae61", "#d73027", "#a50026"}},
		}),
	)
	scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// chartStride returns the sampling step that keeps at most maxChartPoints.
func chartStride(n int) int {
	if n <= maxChartPoints {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(maxChartPoints)))
}

// WriteScatterChart renders the scatter chart to path through fsys.
func WriteScatterChart(fsys fsutil.FileSystem, path string, ps lidar.PointSet, plane lidar.PlaneModel) error {
	if err := ensureDir(fsys, path); err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := RenderScatterChart(f, ps, plane); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close chart file: %w", err)
	}
	logf("wrote scatter chart for %d points to %s", len(ps), path)
	return nil
}
