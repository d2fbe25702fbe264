/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package measure turns shape geometry snapshots into real-world quantities.
// Shapes are read-only values handed over by the rendering layer; nothing
// here keeps a reference to them.
package measure

import (
	"fmt"
	"math"

	"siteplan/internal/geom"
)

// Kind identifies a shape variant.
type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindPolygon   Kind = "polygon"
	KindLine      Kind = "line"
	KindCircle    Kind = "circle"
)

// Shape is the geometry snapshot of one drawn object.
type Shape interface {
	Kind() Kind
	// Bounds is the canvas-space bounding box. The ID is left empty.
	Bounds() geom.Rect
	// Edges lists the measurable edges in canvas space.
	Edges() []geom.Edge
}

// Rectangle is an axis-aligned rectangle; its effective size is
// Width·ScaleX by Height·ScaleY. A zero scale factor collapses that side.
type Rectangle struct {
	Left, Top      float64
	Width, Height  float64
	ScaleX, ScaleY float64
}

func (r Rectangle) Kind() Kind { return KindRectangle }

// EffectiveSize returns the on-canvas width and height, never negative.
func (r Rectangle) EffectiveSize() (w, h float64) {
	return math.Abs(r.Width * r.ScaleX), math.Abs(r.Height * r.ScaleY)
}

func (r Rectangle) Bounds() geom.Rect {
	w, h := r.EffectiveSize()
	return geom.Rect{X: r.Left, Y: r.Top, W: w, H: h}
}

// Edges returns the top edge (width) and the right edge (height).
func (r Rectangle) Edges() []geom.Edge {
	b := r.Bounds()
	return []geom.Edge{
		{Index: 0, A: geom.Pt{X: b.Left(), Y: b.Top()}, B: geom.Pt{X: b.Right(), Y: b.Top()}},
		{Index: 1, A: geom.Pt{X: b.Right(), Y: b.Top()}, B: geom.Pt{X: b.Right(), Y: b.Bottom()}},
	}
}

// Polygon holds vertices in local coordinates plus the transform that places
// them on the canvas. A zero Transform is treated as the identity.
type Polygon struct {
	Points    []geom.Pt
	Transform geom.Affine2D
}

func (p Polygon) Kind() Kind { return KindPolygon }

func (p Polygon) matrix() geom.Affine2D {
	if p.Transform.IsZero() {
		return geom.Identity
	}
	return p.Transform
}

// CanvasPoints returns the vertices in canvas space.
func (p Polygon) CanvasPoints() []geom.Pt { return p.matrix().ApplyAll(p.Points) }

func (p Polygon) Bounds() geom.Rect { return geom.BoundsOf("", p.Points, p.matrix()) }

func (p Polygon) Edges() []geom.Edge { return geom.Edges(p.CanvasPoints()) }

// Line is a straight segment in canvas coordinates.
type Line struct {
	X1, Y1, X2, Y2 float64
}

func (l Line) Kind() Kind { return KindLine }

func (l Line) Start() geom.Pt { return geom.Pt{X: l.X1, Y: l.Y1} }
func (l Line) End() geom.Pt   { return geom.Pt{X: l.X2, Y: l.Y2} }

func (l Line) Bounds() geom.Rect {
	return geom.BoundsOf("", []geom.Pt{l.Start(), l.End()}, geom.Identity)
}

func (l Line) Edges() []geom.Edge { return []geom.Edge{{Index: 0, A: l.Start(), B: l.End()}} }

// Circle is given by its centre, base radius and horizontal scale factor.
type Circle struct {
	Center geom.Pt
	Radius float64
	ScaleX float64
}

func (c Circle) Kind() Kind { return KindCircle }

// EffectiveRadius is Radius·ScaleX, never negative.
func (c Circle) EffectiveRadius() float64 { return math.Abs(c.Radius * c.ScaleX) }

func (c Circle) Bounds() geom.Rect {
	r := c.EffectiveRadius()
	return geom.Rect{X: c.Center.X - r, Y: c.Center.Y - r, W: 2 * r, H: 2 * r}
}

// Edges returns the horizontal diameter.
func (c Circle) Edges() []geom.Edge {
	r := c.EffectiveRadius()
	return []geom.Edge{{
		Index: 0,
		A:     geom.Pt{X: c.Center.X - r, Y: c.Center.Y},
		B:     geom.Pt{X: c.Center.X + r, Y: c.Center.Y},
	}}
}

// Bounds returns the canvas bounding box of s tagged with id, ready for
// alignment-guide detection.
func Bounds(id string, s Shape) geom.Rect {
	b := s.Bounds()
	b.ID = id
	return b
}

// Edges lists the measurable edges of s.
func Edges(s Shape) []geom.Edge { return s.Edges() }

// Translate returns a copy of s moved by d. Nil shapes are
// ErrDegenerateGeometry.
func Translate(s Shape, d geom.Pt) (Shape, error) {
	v, err := deref(s)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	switch v := v.(type) {
	case Rectangle:
		v.Left += d.X
		v.Top += d.Y
		return v, nil
	case Polygon:
		v.Points = append([]geom.Pt(nil), v.Points...)
		v.Transform = geom.Translate(d.X, d.Y).Mul(v.matrix())
		return v, nil
	case Line:
		v.X1 += d.X
		v.Y1 += d.Y
		v.X2 += d.X
		v.Y2 += d.Y
		return v, nil
	case Circle:
		v.Center = v.Center.Add(d)
		return v, nil
	default:
		return nil, fmt.Errorf("translate: unsupported shape %T", s)
	}
}
