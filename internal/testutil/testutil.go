// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability. It must not import
// packages under test so in-package tests can use it without cycles.
package testutil

import (
	"math"
	"math/rand"
	"testing"
)

// DefaultTolerance is the absolute tolerance used for geometry comparisons.
const DefaultTolerance = 1e-9

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertNear fails the test if got and want differ by more than tol.
func AssertNear(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol || math.IsNaN(got) {
		t.Errorf("%s = %.12g, want %.12g (tol %.3g)", name, got, want, tol)
	}
}

// NewRand returns a deterministic random source for reproducible fixtures.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// PlaneRows generates n rows [x y z] lying exactly on z = a + b·x + c·y,
// with x and y drawn uniformly from [-extent, extent].
func PlaneRows(rng *rand.Rand, n int, a, b, c, extent float64) [][3]float64 {
	rows := make([][3]float64, n)
	for i := range rows {
		x := (rng.Float64()*2 - 1) * extent
		y := (rng.Float64()*2 - 1) * extent
		rows[i] = [3]float64{x, y, a + b*x + c*y}
	}
	return rows
}

// NoisyPlaneRows is PlaneRows with Gaussian noise of the given standard
// deviation added to z.
func NoisyPlaneRows(rng *rand.Rand, n int, a, b, c, extent, sigma float64) [][3]float64 {
	rows := PlaneRows(rng, n, a, b, c, extent)
	for i := range rows {
		rows[i][2] += rng.NormFloat64() * sigma
	}
	return rows
}

// LineRows generates n rows whose x-y projections all lie on one line
// (x = x0 + t·dx, y = y0 + t·dy), which makes any plane fit rank deficient.
func LineRows(n int, x0, y0, dx, dy float64) [][3]float64 {
	rows := make([][3]float64, n)
	for i := range rows {
		t := float64(i)
		rows[i] = [3]float64{x0 + t*dx, y0 + t*dy, 0.5 * t}
	}
	return rows
}
