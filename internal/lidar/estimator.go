package lidar

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/planefit/internal/monitoring"
)

// FitMethod selects how the least-squares system is solved.
type FitMethod string

const (
	// FitMethodNormal solves the normal equations (AᵀA)⁻¹Aᵀt with an
	// explicit matrix inverse.
	FitMethodNormal FitMethod = "normal"
	// FitMethodQR solves min‖Ax − t‖ with a QR factorisation of A. It avoids
	// squaring the condition number and is the more precise option.
	FitMethodQR FitMethod = "qr"
)

var estimatorLogf = monitoring.Component("Estimator")

// MinPlanePoints is the fewest points that can determine a plane.
const MinPlanePoints = 3

// DefaultRankTolerance is the smallest accepted ratio between the smallest
// and largest singular value of the centred x-y coordinates.
const DefaultRankTolerance = 1e-10

// ErrDegenerateInput is matched (via errors.Is) by every DegenerateInputError.
var ErrDegenerateInput = errors.New("degenerate input")

// DegenerateInputError reports a point set with no unique plane fit: too few
// points, collinear or duplicate points, or non-finite coordinates.
type DegenerateInputError struct {
	Points int
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate input (%d points): %s", e.Points, e.Reason)
}

// Is makes errors.Is(err, ErrDegenerateInput) true.
func (e *DegenerateInputError) Is(target error) bool {
	return target == ErrDegenerateInput
}

// Estimator fits z = a + b·x + c·y to a point set by ordinary least squares.
// The zero value uses the normal equations and DefaultRankTolerance.
type Estimator struct {
	Method        FitMethod
	RankTolerance float64

	// Verbose enables a summary log line per fit.
	Verbose bool
}

// FitResult is a fitted plane with its residual statistics.
type FitResult struct {
	Plane               PlaneModel
	Points              int
	SumSquaredResiduals float64
	RMSE                float64
	Quality             FitQuality
}

// NewEstimator returns an Estimator for the given method. An empty method
// selects FitMethodNormal.
func NewEstimator(method FitMethod, rankTolerance float64) (*Estimator, error) {
	switch method {
	case "", FitMethodNormal, FitMethodQR:
	default:
		return nil, fmt.Errorf("unknown fit method %q (want %q or %q)", method, FitMethodNormal, FitMethodQR)
	}
	if rankTolerance < 0 || math.IsNaN(rankTolerance) {
		return nil, fmt.Errorf("rank tolerance must be non-negative, got %g", rankTolerance)
	}
	return &Estimator{Method: method, RankTolerance: rankTolerance}, nil
}

// EstimatePlane fits a plane using the default Estimator.
func EstimatePlane(ps PointSet) (PlaneModel, error) {
	var e Estimator
	return e.Estimate(ps)
}

// EstimatePlaneMatrix fits a plane to an n×3 matrix whose rows are x, y, z.
func EstimatePlaneMatrix(m mat.Matrix) (PlaneModel, error) {
	ps, err := PointSetFromMatrix(m)
	if err != nil {
		return PlaneModel{}, err
	}
	return EstimatePlane(ps)
}

func (e *Estimator) method() FitMethod {
	if e.Method == "" {
		return FitMethodNormal
	}
	return e.Method
}

func (e *Estimator) rankTolerance() float64 {
	if e.RankTolerance <= 0 {
		return DefaultRankTolerance
	}
	return e.RankTolerance
}

// Estimate returns the parameters (a, b, c) minimising
// Σ (z_i − (a + b·x_i + c·y_i))². It returns a *DegenerateInputError when
// the x-y projections are collinear or coincident, or when the solver finds
// the system too ill-conditioned to solve.
func (e *Estimator) Estimate(ps PointSet) (PlaneModel, error) {
	n := len(ps)
	if n < MinPlanePoints {
		return PlaneModel{}, &DegenerateInputError{
			Points: n,
			Reason: fmt.Sprintf("need at least %d points", MinPlanePoints),
		}
	}
	for i, p := range ps {
		if !isFinite(p.X) || !isFinite(p.Y) || !isFinite(p.Z) {
			return PlaneModel{}, &DegenerateInputError{
				Points: n,
				Reason: fmt.Sprintf("point %d has a non-finite coordinate", i),
			}
		}
	}

	if err := e.checkSpread(ps); err != nil {
		return PlaneModel{}, err
	}
	design, target := designSystem(ps)

	var params *mat.VecDense
	var err error
	switch e.method() {
	case FitMethodQR:
		params, err = solveQR(design, target)
	case FitMethodNormal:
		params, err = solveNormal(design, target)
	default:
		return PlaneModel{}, fmt.Errorf("unknown fit method %q", e.Method)
	}
	if err != nil {
		return PlaneModel{}, &DegenerateInputError{Points: n, Reason: err.Error()}
	}

	plane := PlaneFromVector(params)
	if !isFinite(plane.A) || !isFinite(plane.B) || !isFinite(plane.C) {
		return PlaneModel{}, &DegenerateInputError{Points: n, Reason: "solution is not finite"}
	}
	return plane, nil
}

// Fit estimates the plane and grades it by RMSE.
func (e *Estimator) Fit(ps PointSet) (FitResult, error) {
	plane, err := e.Estimate(ps)
	if err != nil {
		if e.Verbose {
			estimatorLogf("method=%s points=%d fit failed: %v", e.method(), len(ps), err)
		}
		return FitResult{}, err
	}

	ssr := plane.SumSquaredResiduals(ps)
	rmse := math.Sqrt(ssr / float64(len(ps)))
	res := FitResult{
		Plane:               plane,
		Points:              len(ps),
		SumSquaredResiduals: ssr,
		RMSE:                rmse,
		Quality:             AssessFitQuality(rmse),
	}
	if e.Verbose {
		estimatorLogf("method=%s points=%d a=%.6f b=%.6f c=%.6f rmse=%.4f quality=%s",
			e.method(), res.Points, plane.A, plane.B, plane.C, rmse, res.Quality)
	}
	return res, nil
}

// designSystem builds A (rows [1 x_i y_i]) and t (z_i).
func designSystem(ps PointSet) (*mat.Dense, *mat.VecDense) {
	n := len(ps)
	design := mat.NewDense(n, 3, nil)
	target := mat.NewVecDense(n, nil)
	for i, p := range ps {
		design.Set(i, 0, 1)
		design.Set(i, 1, p.X)
		design.Set(i, 2, p.Y)
		target.SetVec(i, p.Z)
	}
	return design, target
}

// checkSpread rejects point sets whose x-y projections are collinear or
// coincident. The test runs on the centred n×2 block of x-y coordinates so
// the result does not depend on where the origin is or on the unit scale.
func (e *Estimator) checkSpread(ps PointSet) error {
	n := len(ps)
	var meanX, meanY float64
	for _, p := range ps {
		meanX += p.X
		meanY += p.Y
	}
	meanX /= float64(n)
	meanY /= float64(n)

	centred := mat.NewDense(n, 2, nil)
	for i, p := range ps {
		centred.Set(i, 0, p.X-meanX)
		centred.Set(i, 1, p.Y-meanY)
	}

	var svd mat.SVD
	if ok := svd.Factorize(centred, mat.SVDNone); !ok {
		return &DegenerateInputError{Points: n, Reason: "singular value decomposition failed"}
	}
	values := svd.Values(nil)
	maxSV, minSV := values[0], values[len(values)-1]
	if maxSV == 0 {
		return &DegenerateInputError{Points: n, Reason: "points are coincident in x-y"}
	}
	if ratio := minSV / maxSV; ratio <= e.rankTolerance() {
		return &DegenerateInputError{
			Points: n,
			Reason: fmt.Sprintf("points are collinear in x-y (singular value ratio %.3g)", ratio),
		}
	}
	return nil
}

// solveNormal computes (AᵀA)⁻¹ Aᵀ t.
func solveNormal(design *mat.Dense, target *mat.VecDense) (*mat.VecDense, error) {
	var ata mat.Dense
	ata.Mul(design.T(), design)

	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, conditionError("normal matrix", err)
	}

	var atb mat.VecDense
	atb.MulVec(design.T(), target)

	var params mat.VecDense
	params.MulVec(&inv, &atb)
	return &params, nil
}

// solveQR solves the least-squares problem directly from A = QR.
func solveQR(design *mat.Dense, target *mat.VecDense) (*mat.VecDense, error) {
	var qr mat.QR
	qr.Factorize(design)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, target); err != nil {
		return nil, conditionError("design matrix", err)
	}
	return &params, nil
}

// conditionError labels gonum's Condition errors as ill-conditioning of the
// named matrix.
func conditionError(what string, err error) error {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return fmt.Errorf("%s is ill-conditioned (condition number %.3g)", what, float64(cond))
	}
	return fmt.Errorf("%s solve failed: %w", what, err)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
