package lidar

import "math"

// SphericalToCartesian converts elevation (radians), azimuth (radians) and
// range (meters) into Cartesian sensor-frame coordinates.
// Coordinate convention: elevation is measured up from the horizontal X-Y
// plane, azimuth counter-clockwise from +X towards +Y, Z=up.
//
// All real inputs are accepted. A negative range yields the point mirrored
// through the sensor origin ("behind" the sensor).
func SphericalToCartesian(elevation, azimuth, r float64) (x, y, z float64) {
	cosElevation := math.Cos(elevation)
	sinElevation := math.Sin(elevation)
	cosAzimuth := math.Cos(azimuth)
	sinAzimuth := math.Sin(azimuth)

	x = cosElevation * r * cosAzimuth
	y = cosElevation * r * sinAzimuth
	z = sinElevation * r
	return
}

// CartesianToSpherical is the inverse of SphericalToCartesian for
// non-negative ranges. Azimuth is normalised into [0, 2π) and elevation lies
// in [-π/2, π/2]. The origin maps to (0, 0, 0).
func CartesianToSpherical(x, y, z float64) (elevation, azimuth, r float64) {
	r = math.Sqrt(x*x + y*y + z*z)
	if r == 0 {
		return 0, 0, 0
	}

	// Clamp guards asin against |z/r| drifting just past 1.
	elevation = math.Asin(math.Max(-1, math.Min(1, z/r)))
	azimuth = math.Atan2(y, x)
	if azimuth < 0 {
		azimuth += 2 * math.Pi
		// Tiny negative angles round up to exactly 2π.
		if azimuth >= 2*math.Pi {
			azimuth = 0
		}
	}
	return
}

// DegreesToRadians converts an angle in degrees to radians.
func DegreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// SphericalReading is a single range return in sensor-frame polar terms.
type SphericalReading struct {
	Elevation float64 // radians above the horizontal plane
	Azimuth   float64 // radians within the horizontal plane
	Range     float64 // meters
}

// Point converts the reading to a Cartesian point.
func (s SphericalReading) Point() Point {
	x, y, z := SphericalToCartesian(s.Elevation, s.Azimuth, s.Range)
	return Point{X: x, Y: y, Z: z}
}

// ConvertReadings converts each reading to Cartesian, preserving order.
func ConvertReadings(readings []SphericalReading) PointSet {
	if len(readings) == 0 {
		return nil
	}
	pts := make(PointSet, len(readings))
	for i, r := range readings {
		pts[i] = r.Point()
	}
	return pts
}
