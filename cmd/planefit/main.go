// Command planefit converts spherical range readings to Cartesian points and
// fits the ground plane z = a + b·x + c·y by least squares.
//
// With no input flags it fits a built-in four-point demonstration set.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/planefit/internal/config"
	"github.com/banshee-data/planefit/internal/fsutil"
	"github.com/banshee-data/planefit/internal/lidar"
	"github.com/banshee-data/planefit/internal/monitoring"
	"github.com/banshee-data/planefit/internal/report"
	"github.com/banshee-data/planefit/internal/version"
)

var (
	configFile   = flag.String("config", "", "Path to a JSON fit config (defaults apply to omitted fields)")
	pointsFile   = flag.String("points", "", "CSV file of x,y,z points in metres")
	readingsFile = flag.String("readings", "", "CSV file of elevation,azimuth,range readings")
	degrees      = flag.Bool("degrees", false, "Readings angles are in degrees (overrides angle_units)")
	method       = flag.String("method", "", "Fit method: normal or qr (overrides fit_method)")
	plotFile     = flag.String("plot", "", "Write a PNG residual plot to this path")
	chartFile    = flag.String("chart", "", "Write an HTML scatter chart to this path")
	reportFile   = flag.String("report", "", "Write a JSON fit report to this path")
	verbose      = flag.Bool("verbose", false, "Log estimator diagnostics")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// demoPoints is the demonstration input. Its x-y projections lie on the line
// y = x + 1, so the fit is expected to be rejected as degenerate.
var demoPoints = mat.NewDense(4, 3, []float64{
	1, 2, 5,
	1.1, 2.1, 5.2,
	1.2, 2.2, 5.4,
	1.3, 2.3, 5.6,
})

// options is the resolved command configuration.
type options struct {
	ConfigFile   string
	PointsFile   string
	ReadingsFile string
	Degrees      bool
	Method       string
	PlotFile     string
	ChartFile    string
	ReportFile   string
	Verbose      bool
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	opts := options{
		ConfigFile:   *configFile,
		PointsFile:   *pointsFile,
		ReadingsFile: *readingsFile,
		Degrees:      *degrees,
		Method:       *method,
		PlotFile:     *plotFile,
		ChartFile:    *chartFile,
		ReportFile:   *reportFile,
		Verbose:      *verbose,
	}

	err := run(opts, os.Stdout, fsutil.OSFileSystem{})
	if errors.Is(err, lidar.ErrDegenerateInput) {
		log.Printf("plane fit rejected: %v", err)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("planefit: %v", err)
	}
}

func run(opts options, out io.Writer, fsys fsutil.FileSystem) error {
	if opts.PointsFile != "" && opts.ReadingsFile != "" {
		return fmt.Errorf("-points and -readings are mutually exclusive")
	}

	cfg := config.EmptyFitConfig()
	if opts.ConfigFile != "" {
		loaded, err := config.LoadFitConfigFS(fsys, opts.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.Method != "" {
		m := opts.Method
		cfg.FitMethod = &m
	}
	if opts.Degrees {
		units := string(lidar.AngleDegrees)
		cfg.AngleUnits = &units
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ps, err := loadPoints(opts, cfg, fsys)
	if err != nil {
		return err
	}
	if len(ps) > 0 {
		fmt.Fprintf(out, "P = %v\n\n", mat.Formatted(ps.Matrix(), mat.Prefix("    "), mat.Squeeze()))
	}

	est, err := lidar.NewEstimator(lidar.FitMethod(cfg.GetFitMethod()), cfg.GetRankTolerance())
	if err != nil {
		return err
	}
	est.Verbose = opts.Verbose || cfg.GetVerbose()

	res, fitErr := est.Fit(ps)
	rep := report.NewFitReport(lidar.FitMethod(cfg.GetFitMethod()), len(ps), res, fitErr)

	if fitErr == nil {
		fmt.Fprintf(out, "[a b c] = %v\n", mat.Formatted(res.Plane.Vector().T(), mat.Squeeze()))
		fmt.Fprintf(out, "rmse = %.4f m (%s)\n", res.RMSE, res.Quality)

		if res.Quality.IsUsableAsGround() {
			filter := lidar.NewPlaneBandFilter(res.Plane, cfg.GetGroundFloorM(), cfg.GetGroundCeilingM())
			kept := filter.FilterVertical(append([]lidar.Point(nil), ps...))
			_, _, below, above := filter.Stats()
			fmt.Fprintf(out, "ground band [%.2f, %.2f] m: kept=%d below=%d above=%d\n",
				filter.FloorHeightM, filter.CeilingHeightM, len(kept), below, above)
			rep.AddGroundBand(filter)
		}

		if opts.PlotFile != "" {
			if err := report.WriteResidualPlot(fsys, opts.PlotFile, ps, res.Plane); err != nil {
				return err
			}
		}
		if opts.ChartFile != "" {
			if err := report.WriteScatterChart(fsys, opts.ChartFile, ps, res.Plane); err != nil {
				return err
			}
		}
	}

	if opts.ReportFile != "" {
		if err := report.WriteJSON(fsys, opts.ReportFile, rep); err != nil {
			return err
		}
	}

	if fitErr != nil {
		fmt.Fprintf(out, "error: %v\n", fitErr)
		return fitErr
	}
	return nil
}

// loadPoints returns the point set selected by opts: a points CSV, a
// readings CSV converted to Cartesian, or the demonstration set.
func loadPoints(opts options, cfg *config.FitConfig, fsys fsutil.FileSystem) (lidar.PointSet, error) {
	switch {
	case opts.PointsFile != "":
		data, err := fsys.ReadFile(opts.PointsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read points: %w", err)
		}
		ps, err := lidar.ParsePoints(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", opts.PointsFile, err)
		}
		return ps, nil

	case opts.ReadingsFile != "":
		data, err := fsys.ReadFile(opts.ReadingsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read readings: %w", err)
		}
		readings, err := lidar.ParseReadings(bytes.NewReader(data), lidar.AngleUnits(cfg.GetAngleUnits()))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", opts.ReadingsFile, err)
		}
		monitoring.Logf("[planefit] converted %d readings (%s) to Cartesian", len(readings), cfg.GetAngleUnits())
		return lidar.ConvertReadings(readings), nil

	default:
		return lidar.PointSetFromMatrix(demoPoints)
	}
}
