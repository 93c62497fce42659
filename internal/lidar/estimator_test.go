package lidar

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/planefit/internal/testutil"
)

func rowsToPoints(rows [][3]float64) PointSet {
	ps := make(PointSet, len(rows))
	for i, r := range rows {
		ps[i] = Point{X: r[0], Y: r[1], Z: r[2]}
	}
	return ps
}

var allMethods = []FitMethod{FitMethodNormal, FitMethodQR}

func TestEstimatePlane_ExactFit(t *testing.T) {
	t.Parallel()

	planes := []PlaneModel{
		{A: 1, B: 2, C: 1},
		{A: -3.5, B: 0, C: 0},
		{A: 0.25, B: -0.02, C: 0.01},
		{A: 100, B: 7.5, C: -12},
	}

	for _, method := range allMethods {
		for i, want := range planes {
			rows := testutil.PlaneRows(testutil.NewRand(int64(i+1)), 40, want.A, want.B, want.C, 20)
			e := &Estimator{Method: method}

			got, err := e.Estimate(rowsToPoints(rows))
			require.NoError(t, err, "method=%s plane=%d", method, i)
			assert.InDelta(t, want.A, got.A, 1e-8, "method=%s plane=%d a", method, i)
			assert.InDelta(t, want.B, got.B, 1e-8, "method=%s plane=%d b", method, i)
			assert.InDelta(t, want.C, got.C, 1e-8, "method=%s plane=%d c", method, i)
		}
	}
}

func TestEstimatePlane_MinimalThreePoints(t *testing.T) {
	t.Parallel()

	// z = 1 + 2x + y through three non-collinear points.
	ps := PointSet{
		{X: 0, Y: 0, Z: 1},
		{X: 1, Y: 0, Z: 3},
		{X: 0, Y: 1, Z: 2},
	}

	got, err := EstimatePlane(ps)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.A, 1e-12)
	assert.InDelta(t, 2.0, got.B, 1e-12)
	assert.InDelta(t, 1.0, got.C, 1e-12)
}

func TestEstimatePlane_ResidualMinimisation(t *testing.T) {
	t.Parallel()

	rng := testutil.NewRand(99)
	rows := testutil.NoisyPlaneRows(rng, 200, 0.4, 0.05, -0.03, 15, 0.1)
	ps := rowsToPoints(rows)

	for _, method := range allMethods {
		e := &Estimator{Method: method}
		best, err := e.Estimate(ps)
		require.NoError(t, err)
		bestSSR := best.SumSquaredResiduals(ps)

		for i := 0; i < 500; i++ {
			scale := math.Pow(10, -float64(rng.Intn(6)))
			candidate := PlaneModel{
				A: best.A + rng.NormFloat64()*scale,
				B: best.B + rng.NormFloat64()*scale,
				C: best.C + rng.NormFloat64()*scale,
			}
			ssr := candidate.SumSquaredResiduals(ps)
			if ssr < bestSSR-1e-9 {
				t.Fatalf("method=%s: candidate %+v has SSR %.12f < fitted %.12f", method, candidate, ssr, bestSSR)
			}
		}
	}
}

func TestEstimatePlane_MethodsAgree(t *testing.T) {
	t.Parallel()

	rows := testutil.NoisyPlaneRows(testutil.NewRand(3), 100, -1.2, 0.3, 0.6, 8, 0.05)
	ps := rowsToPoints(rows)

	normal, err := (&Estimator{Method: FitMethodNormal}).Estimate(ps)
	require.NoError(t, err)
	qr, err := (&Estimator{Method: FitMethodQR}).Estimate(ps)
	require.NoError(t, err)

	assert.InDelta(t, normal.A, qr.A, 1e-9)
	assert.InDelta(t, normal.B, qr.B, 1e-9)
	assert.InDelta(t, normal.C, qr.C, 1e-9)
}

func TestEstimatePlane_DegenerateInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ps   PointSet
	}{
		{"nil", nil},
		{"empty", PointSet{}},
		{"one point", PointSet{{X: 1, Y: 2, Z: 3}}},
		{"two points", PointSet{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}},
		{"duplicates", PointSet{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}}},
		{"same x-y different z", PointSet{{X: 2, Y: 3, Z: 0}, {X: 2, Y: 3, Z: 1}, {X: 2, Y: 3, Z: 5}}},
		{"collinear on x axis", rowsToPoints(testutil.LineRows(10, 0, 0, 1, 0))},
		{"collinear diagonal", rowsToPoints(testutil.LineRows(10, -5, 3, 0.3, -0.7))},
		{"NaN coordinate", PointSet{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: math.NaN()}, {X: 0, Y: 1, Z: 0}}},
		{"Inf coordinate", PointSet{{X: 0, Y: 0, Z: 0}, {X: math.Inf(1), Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}},
	}

	for _, method := range allMethods {
		for _, tt := range tests {
			e := &Estimator{Method: method}
			got, err := e.Estimate(tt.ps)

			require.Error(t, err, "method=%s case=%s", method, tt.name)
			assert.True(t, errors.Is(err, ErrDegenerateInput), "method=%s case=%s: %v", method, tt.name, err)

			var degenerate *DegenerateInputError
			require.ErrorAs(t, err, &degenerate)
			assert.Equal(t, len(tt.ps), degenerate.Points)
			assert.Equal(t, PlaneModel{}, got, "degenerate input must not return parameters")
		}
	}
}

// The demonstration data set lies on a single line (y = x + 1), so the
// normal matrix is singular and the fit must be rejected.
func TestEstimatePlane_DemoPointsAreCollinear(t *testing.T) {
	t.Parallel()

	p := mat.NewDense(4, 3, []float64{
		1, 2, 5,
		1.1, 2.1, 5.2,
		1.2, 2.2, 5.4,
		1.3, 2.3, 5.6,
	})

	got, err := EstimatePlaneMatrix(p)
	require.ErrorIs(t, err, ErrDegenerateInput)
	assert.Contains(t, err.Error(), "collinear")
	assert.False(t, math.IsNaN(got.A) || math.IsNaN(got.B) || math.IsNaN(got.C))
}

func TestEstimatePlaneMatrix(t *testing.T) {
	t.Parallel()

	rows := testutil.PlaneRows(testutil.NewRand(11), 12, 2, -1, 0.5, 4)
	p := rowsToPoints(rows).Matrix()

	got, err := EstimatePlaneMatrix(p)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.A, 1e-9)
	assert.InDelta(t, -1.0, got.B, 1e-9)
	assert.InDelta(t, 0.5, got.C, 1e-9)
}

func TestEstimatePlaneMatrix_WrongShape(t *testing.T) {
	t.Parallel()

	_, err := EstimatePlaneMatrix(mat.NewDense(4, 2, nil))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDegenerateInput)
}

func TestNewEstimator(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator("", 0)
	require.NoError(t, err)
	assert.Equal(t, FitMethodNormal, e.method())
	assert.Equal(t, DefaultRankTolerance, e.rankTolerance())

	e, err = NewEstimator(FitMethodQR, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, FitMethodQR, e.method())
	assert.Equal(t, 1e-6, e.rankTolerance())

	_, err = NewEstimator("svd", 0)
	assert.Error(t, err)

	_, err = NewEstimator(FitMethodNormal, -1)
	assert.Error(t, err)
}

func TestEstimator_UnknownMethodOnStruct(t *testing.T) {
	t.Parallel()

	e := &Estimator{Method: "gauss"}
	_, err := e.Estimate(rowsToPoints(testutil.PlaneRows(testutil.NewRand(1), 5, 0, 0, 0, 1)))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDegenerateInput)
}

func TestEstimator_RankToleranceRejectsNearCollinear(t *testing.T) {
	t.Parallel()

	// Points almost on a line: one point is displaced 10 µm off it.
	ps := PointSet{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 1},
		{X: 2, Y: 2, Z: 2},
		{X: 3, Y: 3 + 1e-5, Z: 3},
	}

	_, err := (&Estimator{}).Estimate(ps)
	require.NoError(t, err, "default tolerance should accept a tiny but real spread")

	_, err = (&Estimator{RankTolerance: 1e-3}).Estimate(ps)
	require.ErrorIs(t, err, ErrDegenerateInput)
}

// offsetGrid returns a 5×5 grid with 2 m spacing centred on (off, off),
// lying exactly on z = 1 + 0.01x − 0.02y.
func offsetGrid(off float64) PointSet {
	var ps PointSet
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			x := off + 2*float64(i)
			y := off + 2*float64(j)
			ps = append(ps, Point{X: x, Y: y, Z: 1 + 0.01*x - 0.02*y})
		}
	}
	return ps
}

func TestEstimator_QRExactFitFarFromOrigin(t *testing.T) {
	t.Parallel()

	for _, off := range []float64{0, 1e3, 1e5, 1e6} {
		ps := offsetGrid(off)

		got, err := (&Estimator{Method: FitMethodQR}).Estimate(ps)
		require.NoError(t, err, "offset=%g", off)
		assert.InDelta(t, 1.0, got.A, 1e-3, "offset=%g a", off)
		assert.InDelta(t, 0.01, got.B, 1e-9, "offset=%g b", off)
		assert.InDelta(t, -0.02, got.C, 1e-9, "offset=%g c", off)
		assert.Less(t, got.RMSE(ps), 1e-6, "offset=%g rmse", off)
	}
}

func TestEstimator_NormalReportsIllConditioningFarFromOrigin(t *testing.T) {
	t.Parallel()

	_, err := (&Estimator{Method: FitMethodNormal}).Estimate(offsetGrid(1e6))
	require.ErrorIs(t, err, ErrDegenerateInput)
	assert.Contains(t, err.Error(), "ill-conditioned")
	assert.NotContains(t, err.Error(), "collinear")
}

func TestEstimator_SpreadCheckIgnoresOffset(t *testing.T) {
	t.Parallel()

	e := &Estimator{}
	for _, off := range []float64{0, 1e4, 1e6, -3e7} {
		assert.NoError(t, e.checkSpread(offsetGrid(off)), "grid offset=%g", off)

		line := rowsToPoints(testutil.LineRows(10, off, off, 1, 0.5))
		err := e.checkSpread(line)
		require.ErrorIs(t, err, ErrDegenerateInput, "line offset=%g", off)
		assert.Contains(t, err.Error(), "collinear")
	}
}

func TestEstimator_CoincidentPoints(t *testing.T) {
	t.Parallel()

	ps := PointSet{{X: 2, Y: 3, Z: 0}, {X: 2, Y: 3, Z: 1}, {X: 2, Y: 3, Z: 5}}
	_, err := EstimatePlane(ps)
	require.ErrorIs(t, err, ErrDegenerateInput)
	assert.Contains(t, err.Error(), "coincident")
}

func TestEstimator_Fit(t *testing.T) {
	t.Parallel()

	rows := testutil.NoisyPlaneRows(testutil.NewRand(5), 500, 0.1, 0.01, 0.02, 25, 0.02)
	ps := rowsToPoints(rows)

	res, err := (&Estimator{Method: FitMethodQR}).Fit(ps)
	require.NoError(t, err)

	assert.Equal(t, 500, res.Points)
	assert.InDelta(t, 0.1, res.Plane.A, 0.01)
	assert.InDelta(t, 0.01, res.Plane.B, 0.001)
	assert.InDelta(t, 0.02, res.Plane.C, 0.001)
	assert.InDelta(t, res.Plane.SumSquaredResiduals(ps), res.SumSquaredResiduals, 1e-12)
	assert.InDelta(t, 0.02, res.RMSE, 0.005)
	assert.Equal(t, FitQualityExcellent, res.Quality)
}

func TestEstimator_FitDegenerate(t *testing.T) {
	t.Parallel()

	res, err := (&Estimator{}).Fit(PointSet{{X: 1, Y: 1, Z: 1}})
	require.ErrorIs(t, err, ErrDegenerateInput)
	assert.Equal(t, FitResult{}, res)
}

func TestDegenerateInputError_Message(t *testing.T) {
	t.Parallel()

	err := &DegenerateInputError{Points: 2, Reason: "need at least 3 points"}
	assert.Equal(t, "degenerate input (2 points): need at least 3 points", err.Error())
	assert.True(t, errors.Is(err, ErrDegenerateInput))
	assert.False(t, errors.Is(err, errors.New("degenerate input")))
}
