/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom holds the plan-space geometry shared by the measurement engine:
// points, axis-aligned boxes, 2D affine transforms and polygon helpers.
// Coordinates are pixels in plan space; float64 keeps round trips through
// real-world units exact enough for 1e-9 comparisons.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pt is a 2D point in plan pixel coordinates.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func P(x, y float64) Pt { return Pt{X: x, Y: y} }

func (p Pt) Add(q Pt) Pt             { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt             { return Pt{p.X - q.X, p.Y - q.Y} }
func (p Pt) Mul(f float64) Pt        { return Pt{p.X * f, p.Y * f} }
func (p Pt) Lerp(q Pt, t float64) Pt { return Pt{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t} }

// Dist returns the Euclidean distance between p and q.
func (p Pt) Dist(q Pt) float64 {
	return r2.Norm(r2.Sub(r2.Vec{X: q.X, Y: q.Y}, r2.Vec{X: p.X, Y: p.Y}))
}

// Finite reports whether both coordinates are finite numbers.
func (p Pt) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Rect is an axis-aligned bounding box defined by its top-left corner and size.
// ID names the shape the box was taken from; it may be empty.
type Rect struct {
	X, Y float64
	W, H float64
	ID   string
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Left() float64    { return r.X }
func (r Rect) Right() float64   { return r.X + r.W }
func (r Rect) Top() float64     { return r.Y }
func (r Rect) Bottom() float64  { return r.Y + r.H }
func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }
func (r Rect) Center() Pt       { return Pt{r.CenterX(), r.CenterY()} }
func (r Rect) Min() Pt          { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt          { return Pt{r.X + r.W, r.Y + r.H} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Union returns the minimal rect containing both. The ID of r is kept.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY, ID: r.ID}
}

// Translate returns r moved by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// BoxOf derives a bounding box from a shape's position and effective size
// (base size times scale factors). Negative scale factors mirror the shape but
// do not produce negative extents.
func BoxOf(id string, left, top, width, height, scaleX, scaleY float64) Rect {
	w := math.Abs(width * scaleX)
	h := math.Abs(height * scaleY)
	return Rect{X: left, Y: top, W: w, H: h, ID: id}
}

// BoundsOf returns the axis-aligned bounds of pts after applying m.
// An empty point list yields a zero Rect.
func BoundsOf(id string, pts []Pt, m Affine2D) Rect {
	if len(pts) == 0 {
		return Rect{ID: id}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range pts {
		p := m.Apply(c)
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY, ID: id}
}

// Affine2D represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
// stored as [a b c d e f].
type Affine2D struct{ A, B, C, D, E, F float64 }

var Identity = Affine2D{A: 1, D: 1}

// Matrix builds a transform from the [a b c d e f] layout used by canvas libraries.
func Matrix(m [6]float64) Affine2D {
	return Affine2D{A: m[0], B: m[1], C: m[2], D: m[3], E: m[4], F: m[5]}
}

// Array returns the [a b c d e f] layout of m.
func (m Affine2D) Array() [6]float64 { return [6]float64{m.A, m.B, m.C, m.D, m.E, m.F} }

// IsZero reports whether m is the zero matrix, which callers treat as "unset".
func (m Affine2D) IsZero() bool { return m == Affine2D{} }

// Mul returns m·n, i.e. n is applied first.
func (m Affine2D) Mul(n Affine2D) Affine2D {
	return Affine2D{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Apply maps a local-space point to canvas space.
func (m Affine2D) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// ApplyAll maps every point of pts; the input slice is not modified.
func (m Affine2D) ApplyAll(pts []Pt) []Pt {
	out := make([]Pt, len(pts))
	for i, p := range pts {
		out[i] = m.Apply(p)
	}
	return out
}

// Invert computes the inverse of m. ok is false for a singular matrix.
func (m Affine2D) Invert() (inv Affine2D, ok bool) {
	det := m.A*m.D - m.B*m.C
	if det == 0 {
		return Identity, false
	}
	invDet := 1 / det
	return Affine2D{
		A: m.D * invDet,
		B: -m.B * invDet,
		C: -m.C * invDet,
		D: m.A * invDet,
		E: (m.C*m.F - m.D*m.E) * invDet,
		F: (m.B*m.E - m.A*m.F) * invDet,
	}, true
}

func Translate(tx, ty float64) Affine2D { return Affine2D{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float64) Affine2D     { return Affine2D{A: sx, D: sy} }
func Rotate(rad float64) Affine2D {
	c := math.Cos(rad)
	s := math.Sin(rad)
	return Affine2D{A: c, B: s, C: -s, D: c}
}

// Compose builds translate·rotate·scale, the order a canvas object applies its
// left/top, angle (degrees) and scale factors to local coordinates.
func Compose(tx, ty, angleDeg, sx, sy float64) Affine2D {
	return Translate(tx, ty).Mul(Rotate(angleDeg * math.Pi / 180)).Mul(Scale(sx, sy))
}

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * math.Pi / 180 }
