/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package plan defines the JSON snapshot of a site plan handed over by the
// editor: the active scale, editor settings and the geometry of each shape.
// The engine only reads snapshots; nothing here is the editor's own format.
package plan

import (
	"fmt"

	"siteplan/internal/geom"
	"siteplan/internal/gesture"
	"siteplan/internal/measure"
	"siteplan/internal/units"
)

// Document is one plan snapshot.
type Document struct {
	Name     string      `json:"name"`
	Scale    units.Scale `json:"scale"`
	Settings *Settings   `json:"settings,omitempty"`
	Shapes   []Shape     `json:"shapes"`
}

// Settings mirror the editor configuration that travels with a plan. Nil
// fields fall back to the application config.
type Settings struct {
	GridEnabled    *bool    `json:"gridEnabled,omitempty"`
	GridSize       *float64 `json:"gridSize,omitempty"`
	SnapToGrid     *bool    `json:"snapToGrid,omitempty"`
	AutoAlign      *bool    `json:"autoAlign,omitempty"`
	AlignThreshold *float64 `json:"alignThreshold,omitempty"`
}

// Shape is the snapshot of one canvas object. Which geometry fields are used
// depends on Kind: rectangles use Left/Top/Width/Height/ScaleX/ScaleY,
// polygons Points and Transform (or Left/Top/Angle/ScaleX/ScaleY when
// Transform is absent), lines X1..Y2, circles Left/Top as centre with Radius
// and ScaleX. Absent scale factors mean 1; an explicit 0 collapses the shape.
type Shape struct {
	ID    string       `json:"id"`
	Kind  measure.Kind `json:"kind"`
	Label string       `json:"label,omitempty"`

	Left   float64  `json:"left,omitempty"`
	Top    float64  `json:"top,omitempty"`
	Width  float64  `json:"width,omitempty"`
	Height float64  `json:"height,omitempty"`
	ScaleX *float64 `json:"scaleX,omitempty"`
	ScaleY *float64 `json:"scaleY,omitempty"`
	Angle  float64  `json:"angle,omitempty"`

	Points    []geom.Pt   `json:"points,omitempty"`
	Transform *[6]float64 `json:"transform,omitempty"`

	X1 float64 `json:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty"`
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	Radius float64 `json:"radius,omitempty"`

	// Selectable defaults to true. Auxiliary marks derived annotation
	// objects such as dimension primitives.
	Selectable *bool `json:"selectable,omitempty"`
	Auxiliary  bool  `json:"auxiliary,omitempty"`
}

// IsSelectable reports whether the user can pick the shape.
func (s Shape) IsSelectable() bool { return s.Selectable == nil || *s.Selectable }

// Measurable reports whether the shape takes part in measurement and alignment.
func (s Shape) Measurable() bool { return s.IsSelectable() && !s.Auxiliary }

// Geometry converts the snapshot into its measurable form.
func (s Shape) Geometry() (measure.Shape, error) {
	switch s.Kind {
	case measure.KindRectangle:
		return measure.Rectangle{Left: s.Left, Top: s.Top, Width: s.Width, Height: s.Height, ScaleX: factor(s.ScaleX), ScaleY: factor(s.ScaleY)}, nil
	case measure.KindPolygon:
		if err := geom.CheckPolygon(s.Points); err != nil {
			return nil, fmt.Errorf("shape %s: %w", s.ID, err)
		}
		return measure.Polygon{Points: s.Points, Transform: s.transform()}, nil
	case measure.KindLine:
		return measure.Line{X1: s.X1, Y1: s.Y1, X2: s.X2, Y2: s.Y2}, nil
	case measure.KindCircle:
		return measure.Circle{Center: geom.P(s.Left, s.Top), Radius: s.Radius, ScaleX: factor(s.ScaleX)}, nil
	default:
		return nil, fmt.Errorf("shape %s: unknown kind %q", s.ID, s.Kind)
	}
}

func (s Shape) transform() geom.Affine2D {
	if s.Transform != nil {
		return geom.Matrix(*s.Transform)
	}
	return geom.Compose(s.Left, s.Top, s.Angle, factor(s.ScaleX), factor(s.ScaleY))
}

// factor is 1 when the attribute is absent.
func factor(v *float64) float64 {
	if v == nil {
		return 1
	}
	return *v
}

// Find returns the shape with id.
func (d *Document) Find(id string) (*Shape, bool) {
	for i := range d.Shapes {
		if d.Shapes[i].ID == id {
			return &d.Shapes[i], true
		}
	}
	return nil, false
}

// AlignmentCandidates returns the bounding boxes of every measurable shape
// except exclude, in document order.
func (d *Document) AlignmentCandidates(exclude string) ([]geom.Rect, error) {
	var out []geom.Rect
	for _, s := range d.Shapes {
		if s.ID == exclude || !s.Measurable() {
			continue
		}
		g, err := s.Geometry()
		if err != nil {
			return nil, err
		}
		out = append(out, measure.Bounds(s.ID, g))
	}
	return out, nil
}

// Apply writes a corrected geometry back into the snapshot of shape id.
func (d *Document) Apply(id string, g measure.Shape) error {
	s, ok := d.Find(id)
	if !ok {
		return fmt.Errorf("shape %s not found", id)
	}
	switch v := g.(type) {
	case measure.Rectangle:
		s.Left, s.Top, s.Width, s.Height = v.Left, v.Top, v.Width, v.Height
		s.ScaleX, s.ScaleY = &v.ScaleX, &v.ScaleY
	case measure.Polygon:
		s.Points = v.Points
		m := v.Transform.Array()
		s.Transform = &m
	case measure.Line:
		s.X1, s.Y1, s.X2, s.Y2 = v.X1, v.Y1, v.X2, v.Y2
	case measure.Circle:
		s.Left, s.Top, s.Radius = v.Center.X, v.Center.Y, v.Radius
		s.ScaleX, s.ScaleY = &v.ScaleX, nil
	default:
		return fmt.Errorf("shape %s: cannot apply %T", id, g)
	}
	s.Kind = g.Kind()
	return nil
}

// EngineConfig overlays the plan's scale and settings on base. Shape
// coordinates are stored against the plan's scale, so it always wins.
func (d *Document) EngineConfig(base gesture.Config) gesture.Config {
	cfg := base
	cfg.Scale = d.Scale
	cfg.Dimension.Scale = d.Scale
	st := d.Settings
	if st == nil {
		return cfg
	}
	if st.GridEnabled != nil {
		cfg.Grid.Enabled = *st.GridEnabled
	}
	if st.GridSize != nil {
		cfg.Grid.Size = *st.GridSize
	}
	if st.SnapToGrid != nil {
		cfg.SnapToGrid = *st.SnapToGrid
	}
	if st.AutoAlign != nil {
		cfg.AutoAlign = *st.AutoAlign
	}
	if st.AlignThreshold != nil {
		cfg.AlignThreshold = *st.AlignThreshold
	}
	return cfg
}
