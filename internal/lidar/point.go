package lidar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Point is a 3D position in meters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PointSet is an ordered sequence of points. Row i of Matrix() is point i.
type PointSet []Point

// Matrix returns the point set as an n×3 dense matrix with columns x, y, z.
// An empty set returns nil since gonum does not allow zero-sized matrices.
func (ps PointSet) Matrix() *mat.Dense {
	if len(ps) == 0 {
		return nil
	}
	data := make([]float64, 0, len(ps)*3)
	for _, p := range ps {
		data = append(data, p.X, p.Y, p.Z)
	}
	return mat.NewDense(len(ps), 3, data)
}

// PointSetFromMatrix reads an n×3 matrix (columns x, y, z) into a PointSet.
func PointSetFromMatrix(m mat.Matrix) (PointSet, error) {
	if m == nil {
		return nil, nil
	}
	rows, cols := m.Dims()
	if cols != 3 {
		return nil, fmt.Errorf("point matrix must have 3 columns, got %d", cols)
	}
	ps := make(PointSet, rows)
	for i := 0; i < rows; i++ {
		ps[i] = Point{X: m.At(i, 0), Y: m.At(i, 1), Z: m.At(i, 2)}
	}
	return ps, nil
}
