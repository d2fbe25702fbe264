/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package snap adjusts pointer-driven positions before geometry is committed:
// grid snapping and alignment guides against the other shapes on the plan.
// These utilities are UI-agnostic and deterministic so they can be unit tested
// and reused by any rendering layer.
package snap

import (
	"fmt"
	"math"

	"siteplan/internal/geom"
)

// GridConfig describes the snapping lattice. Size is the cell size in pixels,
// already multiplied by the plan scale.
type GridConfig struct {
	Size    float64
	Enabled bool
}

// Validate reports ErrInvalidConfiguration for a non-positive or non-finite cell size.
func (g GridConfig) Validate() error {
	if !(g.Size > 0) || math.IsInf(g.Size, 0) {
		return fmt.Errorf("grid size %v: %w", g.Size, geom.ErrInvalidConfiguration)
	}
	return nil
}

// SnapToGrid rounds each coordinate of p to the nearest multiple of the cell
// size. A disabled grid returns p unchanged without looking at the size.
func SnapToGrid(p geom.Pt, g GridConfig) (geom.Pt, error) {
	if !g.Enabled {
		return p, nil
	}
	if err := g.Validate(); err != nil {
		return p, err
	}
	return geom.Pt{X: snapValue(p.X, g.Size), Y: snapValue(p.Y, g.Size)}, nil
}

func snapValue(v, size float64) float64 {
	return math.Round(v/size) * size
}

// GridLines returns the lattice coordinates inside view, for renderers that
// draw the grid. Lines are inclusive of view edges that fall on the lattice.
func GridLines(view geom.Rect, size float64) (xs, ys []float64, err error) {
	if err := (GridConfig{Size: size, Enabled: true}).Validate(); err != nil {
		return nil, nil, err
	}
	for i := math.Ceil(view.Left() / size); i*size <= view.Right(); i++ {
		xs = append(xs, i*size)
	}
	for i := math.Ceil(view.Top() / size); i*size <= view.Bottom(); i++ {
		ys = append(ys, i*size)
	}
	return xs, ys, nil
}
