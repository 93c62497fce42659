package config

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"

	"github.com/banshee-data/planefit/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical fit defaults file.
const DefaultConfigPath = "config/planefit.defaults.json"

// Built-in defaults, used for any field the JSON omits.
const (
	DefaultFitMethod      = "normal"
	DefaultRankTolerance  = 1e-10
	DefaultAngleUnits     = "rad"
	DefaultGroundFloorM   = 0.2
	DefaultGroundCeilingM = 3.0
)

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// FitConfig holds plane-fit and conversion settings. Pointer fields
// distinguish "not set" from zero so partial files are safe.
type FitConfig struct {
	// Estimator params
	FitMethod     *string  `json:"fit_method,omitempty"` // "normal" or "qr"
	RankTolerance *float64 `json:"rank_tolerance,omitempty"`

	// Reading params
	AngleUnits *string `json:"angle_units,omitempty"` // "rad" or "deg"

	// Ground band params (metres above the fitted plane)
	GroundFloorM   *float64 `json:"ground_floor_m,omitempty"`
	GroundCeilingM *float64 `json:"ground_ceiling_m,omitempty"`

	Verbose *bool `json:"verbose,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrBool(v bool) *bool          { return &v }

// EmptyFitConfig returns a FitConfig with all fields set to nil.
func EmptyFitConfig() *FitConfig {
	return &FitConfig{}
}

// DefaultFitConfig returns a FitConfig with every field populated from the
// built-in defaults.
func DefaultFitConfig() *FitConfig {
	return &FitConfig{
		FitMethod:      ptrString(DefaultFitMethod),
		RankTolerance:  ptrFloat64(DefaultRankTolerance),
		AngleUnits:     ptrString(DefaultAngleUnits),
		GroundFloorM:   ptrFloat64(DefaultGroundFloorM),
		GroundCeilingM: ptrFloat64(DefaultGroundCeilingM),
		Verbose:        ptrBool(false),
	}
}

// LoadFitConfig loads a FitConfig from a JSON file on disk.
func LoadFitConfig(path string) (*FitConfig, error) {
	return LoadFitConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadFitConfigFS loads a FitConfig through fsys.
// The file must have a .json extension and be under 1MB.
func LoadFitConfigFS(fsys fsutil.FileSystem, path string) (*FitConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyFitConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or a parent. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *FitConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadFitConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *FitConfig) Validate() error {
	if c.FitMethod != nil {
		switch *c.FitMethod {
		case "normal", "qr":
		default:
			return fmt.Errorf("fit_method must be \"normal\" or \"qr\", got %q", *c.FitMethod)
		}
	}

	if c.RankTolerance != nil {
		if v := *c.RankTolerance; v < 0 || v >= 1 || math.IsNaN(v) {
			return fmt.Errorf("rank_tolerance must be in [0, 1), got %g", v)
		}
	}

	if c.AngleUnits != nil {
		switch *c.AngleUnits {
		case "rad", "deg":
		default:
			return fmt.Errorf("angle_units must be \"rad\" or \"deg\", got %q", *c.AngleUnits)
		}
	}

	if floor, ceiling := c.GetGroundFloorM(), c.GetGroundCeilingM(); floor > ceiling {
		return fmt.Errorf("ground_floor_m (%g) must not exceed ground_ceiling_m (%g)", floor, ceiling)
	}

	return nil
}

// GetFitMethod returns the fit_method value or the default.
func (c *FitConfig) GetFitMethod() string {
	if c.FitMethod == nil || *c.FitMethod == "" {
		return DefaultFitMethod
	}
	return *c.FitMethod
}

// GetRankTolerance returns the rank_tolerance value or the default.
func (c *FitConfig) GetRankTolerance() float64 {
	if c.RankTolerance == nil {
		return DefaultRankTolerance
	}
	return *c.RankTolerance
}

// GetAngleUnits returns the angle_units value or the default.
func (c *FitConfig) GetAngleUnits() string {
	if c.AngleUnits == nil || *c.AngleUnits == "" {
		return DefaultAngleUnits
	}
	return *c.AngleUnits
}

// GetGroundFloorM returns the ground_floor_m value or the default.
func (c *FitConfig) GetGroundFloorM() float64 {
	if c.GroundFloorM == nil {
		return DefaultGroundFloorM
	}
	return *c.GroundFloorM
}

// GetGroundCeilingM returns the ground_ceiling_m value or the default.
func (c *FitConfig) GetGroundCeilingM() float64 {
	if c.GroundCeilingM == nil {
		return DefaultGroundCeilingM
	}
	return *c.GroundCeilingM
}

// GetVerbose returns the verbose value or the default.
func (c *FitConfig) GetVerbose() bool {
	if c.Verbose == nil {
		return false
	}
	return *c.Verbose
}
