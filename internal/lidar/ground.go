package lidar

// GroundRemover defines the interface for vertical filtering operations
// that remove ground surface and overhead returns from a point set.
type GroundRemover interface {
	// FilterVertical returns only points within the valid detection zone,
	// discarding ground plane and overhead structure returns.
	FilterVertical(pts []Point) []Point
}

// PlaneBandFilter keeps points inside a height band measured perpendicular
// to a fitted ground plane. Unlike a fixed Z band it follows sloped terrain.
type PlaneBandFilter struct {
	// Plane is the ground reference, usually from Estimator.Fit.
	Plane PlaneModel

	// FloorHeightM is the lower bound (metres above the plane).
	// Points below this are treated as ground returns.
	FloorHeightM float64

	// CeilingHeightM is the upper bound (metres above the plane).
	// Points above this are treated as overhead structure.
	CeilingHeightM float64

	pointsProcessed    int64
	pointsInBand       int64
	pointsBelowFloor   int64
	pointsAboveCeiling int64
}

// NewPlaneBandFilter constructs a filter around plane with floor and ceiling bounds.
func NewPlaneBandFilter(plane PlaneModel, floorM, ceilingM float64) *PlaneBandFilter {
	return &PlaneBandFilter{
		Plane:          plane,
		FloorHeightM:   floorM,
		CeilingHeightM: ceilingM,
	}
}

// DefaultPlaneBandFilter returns a filter for typical street scenes:
// floor at 0.2m above the plane, ceiling at 3.0m.
func DefaultPlaneBandFilter(plane PlaneModel) *PlaneBandFilter {
	return NewPlaneBandFilter(plane, 0.2, 3.0)
}

// FilterVertical keeps points whose height above the plane lies within
// [FloorHeightM, CeilingHeightM]. The input backing array is reused.
func (f *PlaneBandFilter) FilterVertical(pts []Point) []Point {
	if len(pts) == 0 {
		return nil
	}

	writeIdx := 0
	for _, pt := range pts {
		f.pointsProcessed++

		h := f.Plane.Distance(pt)
		if h < f.FloorHeightM {
			f.pointsBelowFloor++
			continue
		}
		if h > f.CeilingHeightM {
			f.pointsAboveCeiling++
			continue
		}

		f.pointsInBand++
		pts[writeIdx] = pt
		writeIdx++
	}

	return pts[:writeIdx]
}

// Stats returns current filter statistics for monitoring and parameter tuning.
func (f *PlaneBandFilter) Stats() (processed, kept, belowFloor, aboveCeiling int64) {
	return f.pointsProcessed, f.pointsInBand, f.pointsBelowFloor, f.pointsAboveCeiling
}

// ResetStats clears accumulated statistics counters.
func (f *PlaneBandFilter) ResetStats() {
	f.pointsProcessed = 0
	f.pointsInBand = 0
	f.pointsBelowFloor = 0
	f.pointsAboveCeiling = 0
}
