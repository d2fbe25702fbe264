/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"fmt"
	"math"
)

// Polygon helpers. Vertex lists are ordered and implicitly closed: the last
// vertex connects back to the first.
//
// Precondition: the ring is simple (not self-intersecting). For a
// self-intersecting ring the shoelace sum is still computed but has no
// geometric meaning.

// MinPolygonVertices is the smallest vertex count for which area and perimeter are defined.
const MinPolygonVertices = 3

// CheckPolygon returns ErrDegenerateGeometry when pts cannot form a polygon.
func CheckPolygon(pts []Pt) error {
	if len(pts) < MinPolygonVertices {
		return fmt.Errorf("polygon with %d vertices: %w", len(pts), ErrDegenerateGeometry)
	}
	return nil
}

// SignedArea returns the shoelace sum ½·Σ(xᵢ·yᵢ₊₁ − xᵢ₊₁·yᵢ). In screen
// coordinates (y down) a clockwise ring is positive.
func SignedArea(pts []Pt) float64 {
	n := len(pts)
	if n < MinPolygonVertices {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

// Area returns the absolute shoelace area, or 0 for fewer than three vertices.
func Area(pts []Pt) float64 { return math.Abs(SignedArea(pts)) }

// Perimeter sums the closed ring's edge lengths.
func Perimeter(pts []Pt) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += pts[i].Dist(pts[(i+1)%n])
	}
	return sum
}

// Centroid returns the arithmetic mean of the vertices. It is the vertex mean,
// not the area centroid; it is used to pick a local origin for a vertex list.
func Centroid(pts []Pt) Pt {
	if len(pts) == 0 {
		return Pt{}
	}
	var c Pt
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(pts))
	return Pt{c.X / n, c.Y / n}
}

// Normalize recentres pts on their centroid. It returns the local vertices and
// the translation that maps them back to where they were.
func Normalize(pts []Pt) ([]Pt, Affine2D) {
	c := Centroid(pts)
	local := make([]Pt, len(pts))
	for i, p := range pts {
		local[i] = p.Sub(c)
	}
	return local, Translate(c.X, c.Y)
}

// Edge is one side of a ring, from vertex Index to the next.
type Edge struct {
	Index int
	A, B  Pt
}

func (e Edge) Length() float64 { return e.A.Dist(e.B) }

// Edges lists the closed ring's sides in vertex order.
func Edges(pts []Pt) []Edge {
	n := len(pts)
	if n < 2 {
		return nil
	}
	out := make([]Edge, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Edge{Index: i, A: pts[i], B: pts[(i+1)%n]})
	}
	return out
}
