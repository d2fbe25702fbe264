/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dimension

import (
	"image/color"

	"siteplan/internal/geom"
)

// PrimitiveKind names the drawable parts of a dimension.
type PrimitiveKind string

const (
	KindDimensionLine PrimitiveKind = "dimension-line"
	KindExtensionLine PrimitiveKind = "extension-line"
	KindArrowhead     PrimitiveKind = "arrowhead"
	KindLabel         PrimitiveKind = "label"
)

// Primitive is one drawable part. Lines carry two points, arrowheads three
// (tip first) and labels one (the anchor). Primitives are auxiliary: hosts
// must keep them out of selection and alignment.
type Primitive struct {
	Kind   PrimitiveKind
	Group  string
	Points []geom.Pt
	Text   string
	Angle  float64
	Box    geom.Rect
	Color  color.NRGBA
}

// Primitives flattens d into its six parts sharing d.Group: dimension line,
// two extension lines, two arrowheads and the label.
func (d Dimension) Primitives() []Primitive {
	line := func(k PrimitiveKind, a, b geom.Pt) Primitive {
		return Primitive{Kind: k, Group: d.Group, Points: []geom.Pt{a, b}, Color: d.Color}
	}
	arrow := func(a [3]geom.Pt) Primitive {
		return Primitive{Kind: KindArrowhead, Group: d.Group, Points: []geom.Pt{a[0], a[1], a[2]}, Color: d.Color}
	}
	return []Primitive{
		line(KindDimensionLine, d.Line[0], d.Line[1]),
		line(KindExtensionLine, d.Extensions[0][0], d.Extensions[0][1]),
		line(KindExtensionLine, d.Extensions[1][0], d.Extensions[1][1]),
		arrow(d.Arrows[0]),
		arrow(d.Arrows[1]),
		{
			Kind:   KindLabel,
			Group:  d.Group,
			Points: []geom.Pt{d.Label.Position},
			Text:   d.Text,
			Angle:  d.Label.Angle,
			Box:    d.LabelBox,
			Color:  d.Color,
		},
	}
}
