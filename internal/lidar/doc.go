// Package lidar owns sensor-frame geometry for range returns.
//
// Responsibilities: converting spherical readings (elevation, azimuth,
// range) to Cartesian points, and fitting the ground plane
// z = a + b·x + c·y to a point set by ordinary least squares.
// Key types: SphericalReading, Point, PointSet, PlaneModel, Estimator.
//
// Everything here is a pure computation; nothing holds state between
// calls apart from the optional PlaneBandFilter counters.
package lidar
