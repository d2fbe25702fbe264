/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package measure

import (
	"fmt"
	"math"

	"siteplan/internal/geom"
	"siteplan/internal/units"
)

// Measurement holds real-world quantities of a shape: square meters for Area,
// meters for everything else. Which fields are meaningful depends on Kind;
// see HasArea, HasPerimeter, HasDiameter and HasLength.
type Measurement struct {
	Kind      Kind    `json:"kind"`
	Area      float64 `json:"area,omitempty"`
	Perimeter float64 `json:"perimeter,omitempty"`
	Diameter  float64 `json:"diameter,omitempty"`
	Length    float64 `json:"length,omitempty"`
}

func (m Measurement) HasArea() bool {
	return m.Kind == KindRectangle || m.Kind == KindPolygon || m.Kind == KindCircle
}
func (m Measurement) HasPerimeter() bool { return m.HasArea() }
func (m Measurement) HasDiameter() bool  { return m.Kind == KindCircle }
func (m Measurement) HasLength() bool    { return m.Kind == KindLine }

// Measure dispatches on the shape kind. The scale is validated before any
// division; zero-size shapes measure as 0, never NaN or Inf. Nil shapes,
// typed nil pointers included, are ErrDegenerateGeometry.
func Measure(s Shape, scale units.Scale) (Measurement, error) {
	if err := scale.Validate(); err != nil {
		return Measurement{}, err
	}
	v, err := deref(s)
	if err != nil {
		return Measurement{}, fmt.Errorf("measure: %w", err)
	}
	c := &converter{scale: scale}
	var m Measurement
	switch v := v.(type) {
	case Rectangle:
		m = measureRectangle(v, c)
	case Polygon:
		if err := geom.CheckPolygon(v.Points); err != nil {
			return Measurement{Kind: KindPolygon}, err
		}
		m = measurePolygon(v, c)
	case Line:
		m = measureLine(v, c)
	case Circle:
		m = measureCircle(v, c)
	default:
		return Measurement{}, fmt.Errorf("measure: unsupported shape %T", s)
	}
	if c.err != nil {
		return Measurement{}, c.err
	}
	return m, nil
}

// deref turns pointer variants into values.
func deref(s Shape) (Shape, error) {
	switch v := s.(type) {
	case *Rectangle:
		if v != nil {
			return *v, nil
		}
	case *Polygon:
		if v != nil {
			return *v, nil
		}
	case *Line:
		if v != nil {
			return *v, nil
		}
	case *Circle:
		if v != nil {
			return *v, nil
		}
	default:
		if s != nil {
			return s, nil
		}
	}
	return nil, fmt.Errorf("nil %T shape: %w", s, geom.ErrDegenerateGeometry)
}

// converter keeps the first conversion error so the measure helpers stay
// plain expressions.
type converter struct {
	scale units.Scale
	err   error
}

func (c *converter) meters(px float64) float64 {
	v, err := units.PixelsToMeters(px, c.scale)
	if err != nil && c.err == nil {
		c.err = err
	}
	return finite(v)
}

func (c *converter) squareMeters(px2 float64) float64 {
	v, err := units.SquarePixelsToSquareMeters(px2, c.scale)
	if err != nil && c.err == nil {
		c.err = err
	}
	return finite(v)
}

func measureRectangle(r Rectangle, c *converter) Measurement {
	w, h := r.EffectiveSize()
	return Measurement{
		Kind:      KindRectangle,
		Area:      c.squareMeters(w * h),
		Perimeter: c.meters(2 * (w + h)),
	}
}

func measurePolygon(p Polygon, c *converter) Measurement {
	pts := p.CanvasPoints()
	return Measurement{
		Kind:      KindPolygon,
		Area:      c.squareMeters(geom.Area(pts)),
		Perimeter: c.meters(geom.Perimeter(pts)),
	}
}

func measureLine(l Line, c *converter) Measurement {
	return Measurement{Kind: KindLine, Length: c.meters(l.Start().Dist(l.End()))}
}

func measureCircle(ci Circle, c *converter) Measurement {
	r := ci.EffectiveRadius()
	return Measurement{
		Kind:      KindCircle,
		Diameter:  c.meters(2 * r),
		Area:      c.squareMeters(math.Pi * r * r),
		Perimeter: c.meters(2 * math.Pi * r),
	}
}

// finite maps NaN and Inf, which only arise from non-finite input coordinates, to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
