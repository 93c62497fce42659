package lidar

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PlaneModel describes the plane z = A + B·x + C·y.
// A is the height at the origin; B and C are the slopes along X and Y.
type PlaneModel struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// PlaneFromVector builds a PlaneModel from a 3-vector [a b c].
func PlaneFromVector(v mat.Vector) PlaneModel {
	return PlaneModel{A: v.AtVec(0), B: v.AtVec(1), C: v.AtVec(2)}
}

// Vector returns the parameters as a gonum vector [a b c].
func (p PlaneModel) Vector() *mat.VecDense {
	return mat.NewVecDense(3, []float64{p.A, p.B, p.C})
}

// Z evaluates the plane height at (x, y).
func (p PlaneModel) Z(x, y float64) float64 {
	return p.A + p.B*x + p.C*y
}

// Residual is the vertical offset of pt from the plane (positive above).
func (p PlaneModel) Residual(pt Point) float64 {
	return pt.Z - p.Z(pt.X, pt.Y)
}

// Residuals returns the vertical residual of each point, in order.
func (p PlaneModel) Residuals(ps PointSet) []float64 {
	res := make([]float64, len(ps))
	for i, pt := range ps {
		res[i] = p.Residual(pt)
	}
	return res
}

// SumSquaredResiduals is the least-squares objective over ps.
func (p PlaneModel) SumSquaredResiduals(ps PointSet) float64 {
	res := p.Residuals(ps)
	return floats.Dot(res, res)
}

// RMSE is the root-mean-square vertical residual, or 0 for an empty set.
func (p PlaneModel) RMSE(ps PointSet) float64 {
	if len(ps) == 0 {
		return 0
	}
	return math.Sqrt(p.SumSquaredResiduals(ps) / float64(len(ps)))
}

// Normal returns the unit normal of the plane, oriented so nz > 0.
func (p PlaneModel) Normal() (nx, ny, nz float64) {
	n := math.Sqrt(p.B*p.B + p.C*p.C + 1)
	return -p.B / n, -p.C / n, 1 / n
}

// Distance is the signed perpendicular distance from pt to the plane,
// positive on the side the normal points to (above).
func (p PlaneModel) Distance(pt Point) float64 {
	return p.Residual(pt) / math.Sqrt(p.B*p.B+p.C*p.C+1)
}
