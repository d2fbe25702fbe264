/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import (
	"fmt"
	"math"

	"siteplan/internal/geom"
)

// Orientation of a guide line: "vertical" guides sit at an x coordinate,
// "horizontal" guides at a y coordinate.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Feature names the part of a box that aligned.
type Feature string

const (
	Left    Feature = "left"
	Right   Feature = "right"
	CenterX Feature = "centerX"
	Top     Feature = "top"
	Bottom  Feature = "bottom"
	CenterY Feature = "centerY"
)

var (
	verticalFeatures   = []Feature{Left, Right, CenterX}
	horizontalFeatures = []Feature{Top, Bottom, CenterY}
)

// Guide describes a transient alignment candidate produced during a move.
// Position is the x (vertical) or y (horizontal) coordinate, taken verbatim
// from the matched shape. From and To span both boxes for rendering.
type Guide struct {
	Orientation Orientation `json:"orientation"`
	Feature     Feature     `json:"feature"`
	Position    float64     `json:"position"`
	RelatedID   string      `json:"relatedId"`
	From        geom.Pt     `json:"from"`
	To          geom.Pt     `json:"to"`
}

// Kind is "edge" or "center".
func (g Guide) Kind() string {
	if g.Feature == CenterX || g.Feature == CenterY {
		return "center"
	}
	return "edge"
}

func featureValue(r geom.Rect, f Feature) float64 {
	switch f {
	case Left:
		return r.Left()
	case Right:
		return r.Right()
	case CenterX:
		return r.CenterX()
	case Top:
		return r.Top()
	case Bottom:
		return r.Bottom()
	default:
		return r.CenterY()
	}
}

func validateThreshold(threshold float64) error {
	if !(threshold > 0) || math.IsInf(threshold, 0) {
		return fmt.Errorf("align threshold %v: %w", threshold, geom.ErrInvalidConfiguration)
	}
	return nil
}

// DetectGuides compares the moving box with every other box and reports
// features closer than threshold. Each moving feature is only compared with
// the same feature of another box (left with left, centre with centre).
//
// At most one guide per orientation is returned: shapes are scanned in the
// given order and, within a shape, features in left/right/centre (or
// top/bottom/centre) order; the first match wins. The vertical and horizontal
// guide may come from different shapes. Boxes sharing the moving box's ID are
// skipped. Callers pass only selectable, non-auxiliary shapes.
func DetectGuides(moving geom.Rect, others []geom.Rect, threshold float64) ([]Guide, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	var guides []Guide
	if g, ok := firstMatch(moving, others, verticalFeatures, threshold); ok {
		guides = append(guides, g)
	}
	if g, ok := firstMatch(moving, others, horizontalFeatures, threshold); ok {
		guides = append(guides, g)
	}
	return guides, nil
}

func firstMatch(moving geom.Rect, others []geom.Rect, features []Feature, threshold float64) (Guide, bool) {
	for _, o := range others {
		if moving.ID != "" && o.ID == moving.ID {
			continue
		}
		for _, f := range features {
			pos := featureValue(o, f)
			if math.Abs(featureValue(moving, f)-pos) < threshold {
				return newGuide(f, pos, moving, o), true
			}
		}
	}
	return Guide{}, false
}

func newGuide(f Feature, pos float64, a, b geom.Rect) Guide {
	g := Guide{Feature: f, Position: pos, RelatedID: b.ID}
	switch f {
	case Left, Right, CenterX:
		g.Orientation = Vertical
		g.From = geom.Pt{X: pos, Y: math.Min(a.Top(), b.Top())}
		g.To = geom.Pt{X: pos, Y: math.Max(a.Bottom(), b.Bottom())}
	default:
		g.Orientation = Horizontal
		g.From = geom.Pt{X: math.Min(a.Left(), b.Left()), Y: pos}
		g.To = geom.Pt{X: math.Max(a.Right(), b.Right()), Y: pos}
	}
	return g
}

// ApplyGuides moves the box so each guided feature lands exactly on its guide,
// provided the remaining mismatch is still below threshold. Guides that no
// longer apply are ignored. The box size never changes.
func ApplyGuides(moving geom.Rect, guides []Guide, threshold float64) geom.Rect {
	out := moving
	for _, g := range guides {
		if math.Abs(featureValue(out, g.Feature)-g.Position) >= threshold {
			continue
		}
		switch g.Feature {
		case Left:
			out.X = g.Position
		case Right:
			out.X = g.Position - out.W
		case CenterX:
			out.X = g.Position - out.W/2
		case Top:
			out.Y = g.Position
		case Bottom:
			out.Y = g.Position - out.H
		case CenterY:
			out.Y = g.Position - out.H/2
		}
	}
	return out
}

// Align detects guides for moving and clamps it onto them in one step.
func Align(moving geom.Rect, others []geom.Rect, threshold float64) (geom.Rect, []Guide, error) {
	guides, err := DetectGuides(moving, others, threshold)
	if err != nil {
		return moving, nil, err
	}
	return ApplyGuides(moving, guides, threshold), guides, nil
}
