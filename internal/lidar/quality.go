package lidar

import "math"

// FitQuality represents the assessed quality of a plane fit.
type FitQuality string

const (
	// FitQualityExcellent indicates RMSE < 0.05m - flat, clean surface
	FitQualityExcellent FitQuality = "excellent"
	// FitQualityGood indicates RMSE 0.05-0.15m - usable as a ground reference
	FitQualityGood FitQuality = "good"
	// FitQualityFair indicates RMSE 0.15-0.30m - rough terrain or clutter in the set
	FitQualityFair FitQuality = "fair"
	// FitQualityPoor indicates RMSE > 0.30m - the points are not well described by a plane
	FitQualityPoor FitQuality = "poor"
	// FitQualityUnknown indicates RMSE not computed
	FitQualityUnknown FitQuality = "unknown"
)

// Fit quality RMSE thresholds (meters)
const (
	FitRMSEThresholdExcellent = 0.05
	FitRMSEThresholdGood      = 0.15
	FitRMSEThresholdFair      = 0.30
)

// AssessFitQuality grades a plane fit by its RMSE in meters.
// A negative or NaN RMSE is reported as unknown.
func AssessFitQuality(rmse float64) FitQuality {
	switch {
	case rmse < 0 || math.IsNaN(rmse):
		return FitQualityUnknown
	case rmse < FitRMSEThresholdExcellent:
		return FitQualityExcellent
	case rmse < FitRMSEThresholdGood:
		return FitQualityGood
	case rmse < FitRMSEThresholdFair:
		return FitQualityFair
	default:
		return FitQualityPoor
	}
}

// IsUsableAsGround returns true if the fit is good enough to use as a
// ground reference for height filtering.
func (q FitQuality) IsUsableAsGround() bool {
	return q == FitQualityExcellent || q == FitQualityGood || q == FitQualityFair
}

// String returns a human-readable description of the fit quality.
func (q FitQuality) String() string {
	switch q {
	case FitQualityExcellent:
		return "excellent (RMSE < 0.05m)"
	case FitQualityGood:
		return "good (RMSE 0.05-0.15m)"
	case FitQualityFair:
		return "fair (RMSE 0.15-0.30m)"
	case FitQualityPoor:
		return "poor (RMSE > 0.30m)"
	case FitQualityUnknown:
		return "unknown (RMSE not computed)"
	default:
		return string(q)
	}
}
