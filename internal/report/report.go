// Package report renders plane-fit results as JSON, PNG residual plots and
// HTML scatter charts for offline inspection.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/planefit/internal/fsutil"
	"github.com/banshee-data/planefit/internal/lidar"
	"github.com/banshee-data/planefit/internal/monitoring"
	"github.com/banshee-data/planefit/internal/version"
)

var logf = monitoring.Component("Report")

// FitReport is the JSON summary of one estimator run.
type FitReport struct {
	RunID       string             `json:"run_id"`
	Version     string             `json:"version"`
	GeneratedAt time.Time          `json:"generated_at"`
	Method      lidar.FitMethod    `json:"method"`
	Points      int                `json:"points"`
	Plane       *lidar.PlaneModel  `json:"plane,omitempty"`
	Normal      *[3]float64        `json:"normal,omitempty"`
	SSR         float64            `json:"sum_squared_residuals"`
	RMSE        float64            `json:"rmse_m"`
	Quality     lidar.FitQuality   `json:"quality"`
	Degenerate  bool               `json:"degenerate"`
	Error       string             `json:"error,omitempty"`
	Ground      *GroundBandSummary `json:"ground,omitempty"`
}

// GroundBandSummary records the outcome of a PlaneBandFilter pass.
type GroundBandSummary struct {
	FloorM       float64 `json:"floor_m"`
	CeilingM     float64 `json:"ceiling_m"`
	Kept         int64   `json:"kept"`
	BelowFloor   int64   `json:"below_floor"`
	AboveCeiling int64   `json:"above_ceiling"`
}

// NewFitReport builds a report for a fit attempt over points. fitErr is the
// error returned by Estimator.Fit, if any.
func NewFitReport(method lidar.FitMethod, points int, res lidar.FitResult, fitErr error) *FitReport {
	r := &FitReport{
		RunID:       uuid.New().String(),
		Version:     version.Version,
		GeneratedAt: time.Now().UTC(),
		Method:      method,
		Points:      points,
		Quality:     lidar.FitQualityUnknown,
	}
	if fitErr != nil {
		r.Error = fitErr.Error()
		r.Degenerate = errors.Is(fitErr, lidar.ErrDegenerateInput)
		return r
	}

	plane := res.Plane
	nx, ny, nz := plane.Normal()
	r.Plane = &plane
	r.Normal = &[3]float64{nx, ny, nz}
	r.SSR = res.SumSquaredResiduals
	r.RMSE = res.RMSE
	r.Quality = res.Quality
	return r
}

// AddGroundBand attaches PlaneBandFilter statistics to the report.
func (r *FitReport) AddGroundBand(f *lidar.PlaneBandFilter) {
	_, kept, below, above := f.Stats()
	r.Ground = &GroundBandSummary{
		FloorM:       f.FloorHeightM,
		CeilingM:     f.CeilingHeightM,
		Kept:         kept,
		BelowFloor:   below,
		AboveCeiling: above,
	}
}

// WriteJSON writes the report as indented JSON, creating parent directories.
func WriteJSON(fsys fsutil.FileSystem, path string, r *FitReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := ensureDir(fsys, path); err != nil {
		return err
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logf("wrote run=%s to %s (%d bytes)", r.RunID, path, len(data))
	return nil
}

func ensureDir(fsys fsutil.FileSystem, path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return nil
}
