/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package units converts between plan pixels and real-world meters and formats
// distances for display. All functions are pure.
package units

import (
	"fmt"
	"math"

	"siteplan/internal/geom"
)

// Scale defines the sole conversion factor between pixel space and meters.
// Label is informational ("1:100"); MetersPerUnit is the real-world length
// one drawing unit stands for. Changing the scale of a plan re-labels its
// shapes, it never rewrites their pixel coordinates.
type Scale struct {
	Label          string  `json:"label" yaml:"label"`
	MetersPerUnit  float64 `json:"metersPerUnit" yaml:"meters_per_unit"`
	PixelsPerMeter float64 `json:"pixelsPerMeter" yaml:"pixels_per_meter"`
}

// Validate reports ErrInvalidConfiguration unless PixelsPerMeter is a positive finite number.
func (s Scale) Validate() error {
	if !(s.PixelsPerMeter > 0) || math.IsInf(s.PixelsPerMeter, 0) {
		return fmt.Errorf("scale %q: pixels per meter must be > 0, got %v: %w", s.Label, s.PixelsPerMeter, geom.ErrInvalidConfiguration)
	}
	return nil
}

// PixelsToMeters converts a pixel distance. An invalid scale is
// ErrInvalidConfiguration.
func PixelsToMeters(px float64, s Scale) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return px / s.PixelsPerMeter, nil
}

// MetersToPixels converts a real-world distance.
func MetersToPixels(m float64, s Scale) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return m * s.PixelsPerMeter, nil
}

// SquarePixelsToSquareMeters converts an area.
func SquarePixelsToSquareMeters(px2 float64, s Scale) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return px2 / (s.PixelsPerMeter * s.PixelsPerMeter), nil
}

func (s Scale) PixelsToMeters(px float64) (float64, error) { return PixelsToMeters(px, s) }
func (s Scale) MetersToPixels(m float64) (float64, error)  { return MetersToPixels(m, s) }

// Unit of a displayed distance.
type Unit string

const (
	Centimeters Unit = "cm"
	Meters      Unit = "m"
)

// Label is the displayed value of one measured edge or diameter.
// Angle is in degrees and already normalised for upright text.
type Label struct {
	Value    float64 `json:"value"`
	Unit     Unit    `json:"unit"`
	Position geom.Pt `json:"position"`
	Angle    float64 `json:"angle"`
}

// LabelFor splits a distance in meters into the value and unit it is shown in:
// below one meter in whole centimeters, otherwise meters with two decimals.
// The centimeter rounding decides the unit, so 0.995 m is shown as 1.00 m.
func LabelFor(m float64) (float64, Unit) {
	cm := math.Round(m * 100)
	if cm < 100 {
		return cm, Centimeters
	}
	return cm / 100, Meters
}

// FormatMeasurement renders a distance in meters: "NN cm" below one meter,
// "N.NN m" otherwise.
func FormatMeasurement(m float64) string {
	v, u := LabelFor(m)
	if u == Centimeters {
		return fmt.Sprintf("%.0f cm", v)
	}
	return fmt.Sprintf("%.2f m", v)
}

// FormatArea renders an area in square meters with two decimals.
func FormatArea(m2 float64) string { return fmt.Sprintf("%.2f m²", m2) }

// ScreenDPI is the CSS reference resolution used when none is configured.
const ScreenDPI = 96.0

const mmPerInch = 25.4

// FromRatio derives the scale of a paper plan drawn at 1:ratio and shown at dpi.
// One meter becomes 1000/ratio millimeters on paper.
func FromRatio(label string, ratio, dpi float64) (Scale, error) {
	if !(ratio > 0) || !(dpi > 0) {
		return Scale{}, fmt.Errorf("ratio %v at %v dpi: %w", ratio, dpi, geom.ErrInvalidConfiguration)
	}
	if label == "" {
		label = fmt.Sprintf("1:%g", ratio)
	}
	ppm := 1000 / ratio / mmPerInch * dpi
	return Scale{Label: label, MetersPerUnit: ratio / 100, PixelsPerMeter: ppm}, nil
}

// Presets lists the plan scales offered by the editor for the given dpi.
func Presets(dpi float64) []Scale {
	if !(dpi > 0) {
		dpi = ScreenDPI
	}
	ratios := []float64{50, 100, 200, 500, 1000}
	out := make([]Scale, 0, len(ratios))
	for _, r := range ratios {
		s, _ := FromRatio("", r, dpi)
		out = append(out, s)
	}
	return out
}
