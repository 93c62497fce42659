package lidar

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// AngleUnits selects how angles in a readings file are interpreted.
type AngleUnits string

const (
	AngleRadians AngleUnits = "rad"
	AngleDegrees AngleUnits = "deg"
)

// ParsePoints reads CSV rows of x,y,z (meters). Lines starting with '#' are
// skipped, as is a leading header row that does not parse as numbers.
func ParsePoints(r io.Reader) (PointSet, error) {
	rows, err := readTriples(r)
	if err != nil {
		return nil, err
	}
	ps := make(PointSet, len(rows))
	for i, row := range rows {
		ps[i] = Point{X: row[0], Y: row[1], Z: row[2]}
	}
	return ps, nil
}

// ParseReadings reads CSV rows of elevation,azimuth,range. Angles are
// converted to radians when units is AngleDegrees.
func ParseReadings(r io.Reader, units AngleUnits) ([]SphericalReading, error) {
	switch units {
	case AngleRadians, AngleDegrees:
	default:
		return nil, fmt.Errorf("unknown angle units %q", units)
	}

	rows, err := readTriples(r)
	if err != nil {
		return nil, err
	}
	readings := make([]SphericalReading, len(rows))
	for i, row := range rows {
		el, az := row[0], row[1]
		if units == AngleDegrees {
			el, az = DegreesToRadians(el), DegreesToRadians(az)
		}
		readings[i] = SphericalReading{Elevation: el, Azimuth: az, Range: row[2]}
	}
	return readings, nil
}

func readTriples(r io.Reader) ([][3]float64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var out [][3]float64
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line++

		var row [3]float64
		var firstErr error
		failed := 0
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				failed++
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			row[j] = v
		}
		if firstErr != nil {
			// Only an all-text first row is a header; a partly numeric one
			// is a malformed data row.
			if line == 1 && failed == len(rec) {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", line, firstErr)
		}
		out = append(out, row)
	}
	return out, nil
}
