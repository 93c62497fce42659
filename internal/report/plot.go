package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/planefit/internal/fsutil"
	"github.com/banshee-data/planefit/internal/lidar"
)

// WriteResidualPlot saves a PNG of the vertical residual of each point
// (by index) against the fitted plane, with the zero line and ±RMSE band.
func WriteResidualPlot(fsys fsutil.FileSystem, path string, ps lidar.PointSet, plane lidar.PlaneModel) error {
	if len(ps) == 0 {
		return fmt.Errorf("no points to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Plane residuals: z = %.4f + %.4f·x + %.4f·y", plane.A, plane.B, plane.C)
	p.X.Label.Text = "Point index"
	p.Y.Label.Text = "Residual (m)"
	p.Add(plotter.NewGrid())

	residuals := plane.Residuals(ps)
	pts := make(plotter.XYs, len(residuals))
	for i, r := range residuals {
		pts[i] = plotter.XY{X: float64(i), Y: r}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to create residual scatter: %w", err)
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)
	p.Legend.Add("residual", scatter)

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = color.Gray{Y: 64}
	zero.Width = vg.Points(1)
	p.Add(zero)

	rmse := plane.RMSE(ps)
	if rmse > 0 {
		for _, sign := range []float64{1, -1} {
			level := sign * rmse
			band := plotter.NewFunction(func(float64) float64 { return level })
			band.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
			band.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			band.Width = vg.Points(1)
			p.Add(band)
			if sign > 0 {
				p.Legend.Add(fmt.Sprintf("±RMSE (%.3fm)", rmse), band)
			}
		}
	}

	p.X.Min = -1
	p.X.Max = float64(len(ps))
	maxAbs := 0.0
	for _, r := range residuals {
		maxAbs = math.Max(maxAbs, math.Abs(r))
	}
	if maxAbs == 0 {
		maxAbs = 1e-3
	}
	p.Y.Min = -1.1 * maxAbs
	p.Y.Max = 1.1 * maxAbs

	wt, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render residual plot: %w", err)
	}
	if err := ensureDir(fsys, path); err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write plot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close plot file: %w", err)
	}
	logf("wrote residual plot for %d points to %s", len(ps), path)
	return nil
}
