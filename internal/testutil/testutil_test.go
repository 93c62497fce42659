package testutil

import (
	"math"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()

	// Verify nil error doesn't cause issues
	AssertNoError(t, nil)
}

func TestAssertNear_WithinTolerance(t *testing.T) {
	t.Parallel()

	AssertNear(t, "value", 1.0+1e-12, 1.0, DefaultTolerance)
}

func TestPlaneRows_LieOnPlane(t *testing.T) {
	t.Parallel()

	rows := PlaneRows(NewRand(1), 50, 1.5, -0.25, 0.75, 10)
	if len(rows) != 50 {
		t.Fatalf("expected 50 rows, got %d", len(rows))
	}
	for i, r := range rows {
		want := 1.5 - 0.25*r[0] + 0.75*r[1]
		if math.Abs(r[2]-want) > 1e-12 {
			t.Errorf("row %d: z=%f, want %f", i, r[2], want)
		}
		if math.Abs(r[0]) > 10 || math.Abs(r[1]) > 10 {
			t.Errorf("row %d outside extent: %v", i, r)
		}
	}
}

func TestPlaneRows_Deterministic(t *testing.T) {
	t.Parallel()

	a := PlaneRows(NewRand(42), 5, 0, 1, 1, 3)
	b := PlaneRows(NewRand(42), 5, 0, 1, 1, 3)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs between identical seeds: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestLineRows_Collinear(t *testing.T) {
	t.Parallel()

	rows := LineRows(6, 1, 2, 0.1, 0.1)
	for i := 2; i < len(rows); i++ {
		// cross product of (p1-p0) and (pi-p0) in x-y must vanish
		ax, ay := rows[1][0]-rows[0][0], rows[1][1]-rows[0][1]
		bx, by := rows[i][0]-rows[0][0], rows[i][1]-rows[0][1]
		if cross := ax*by - ay*bx; math.Abs(cross) > 1e-12 {
			t.Errorf("row %d not collinear: cross=%g", i, cross)
		}
	}
}
