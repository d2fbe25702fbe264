/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package dimension builds the auxiliary annotation geometry drawn next to a
// measured edge: an offset dimension line, two extension lines, two
// arrowheads and a rotated length label. All output is plain values; the host
// decides how to render it.
package dimension

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"siteplan/internal/geom"
	"siteplan/internal/measure"
	"siteplan/internal/units"
)

const (
	DefaultOffset    = 20.0
	DefaultArrowSize = 8.0
	// ArrowAngle is the half-opening of an arrowhead in degrees.
	ArrowAngle = 30.0

	// angleEps absorbs rounding so exactly vertical edges keep ±90°.
	angleEps = 1e-9
)

// DefaultColor is the annotation stroke colour.
var DefaultColor = color.NRGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff}

// groupSpace namespaces the deterministic group ids.
var groupSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("siteplan:dimension"))

// Options parameterise Build.
type Options struct {
	// Offset is the perpendicular distance of the dimension line from the edge.
	// Positive values go to the left of the edge direction (above a
	// left-to-right edge in screen coordinates).
	Offset    float64
	ArrowSize float64
	Color     color.NRGBA
	Scale     units.Scale
	// Faces sizes the label box; nil uses BasicFace.
	Faces FaceProvider
}

// DefaultOptions returns the standard offset, arrow size and colour for s.
func DefaultOptions(s units.Scale) Options {
	return Options{Offset: DefaultOffset, ArrowSize: DefaultArrowSize, Color: DefaultColor, Scale: s}
}

// Dimension is the annotation of a single edge.
type Dimension struct {
	Group  string
	Shape  string
	Edge   int
	From   geom.Pt
	To     geom.Pt
	Length float64 // meters

	Line       [2]geom.Pt
	Extensions [2][2]geom.Pt
	// Arrows hold tip, wing, wing for the From side and the To side.
	Arrows   [2][3]geom.Pt
	Label    units.Label
	Text     string
	LabelBox geom.Rect
	Color    color.NRGBA
}

// Build computes the dimension geometry for the edge p1→p2.
func Build(p1, p2 geom.Pt, opts Options) (Dimension, error) {
	if err := opts.Scale.Validate(); err != nil {
		return Dimension{}, err
	}
	if !finiteValue(opts.Offset) {
		return Dimension{}, fmt.Errorf("dimension offset %v: %w", opts.Offset, geom.ErrInvalidConfiguration)
	}
	if opts.ArrowSize < 0 || !finiteValue(opts.ArrowSize) {
		return Dimension{}, fmt.Errorf("arrow size %v: %w", opts.ArrowSize, geom.ErrInvalidConfiguration)
	}
	if !p1.Finite() || !p2.Finite() {
		return Dimension{}, fmt.Errorf("edge %v→%v: non-finite coordinate: %w", p1, p2, geom.ErrDegenerateGeometry)
	}
	px := p1.Dist(p2)
	if px == 0 {
		return Dimension{}, fmt.Errorf("edge at %v has zero length: %w", p1, geom.ErrDegenerateGeometry)
	}

	theta := math.Atan2(p2.Y-p1.Y, p2.X-p1.X)
	off := geom.Pt{X: math.Sin(theta), Y: -math.Cos(theta)}.Mul(opts.Offset)
	q1, q2 := p1.Add(off), p2.Add(off)

	meters, err := units.PixelsToMeters(px, opts.Scale)
	if err != nil {
		return Dimension{}, err
	}
	value, unit := units.LabelFor(meters)
	mid := q1.Lerp(q2, 0.5)
	text := units.FormatMeasurement(meters)
	w, h := MeasureLabel(opts.Faces, text)

	d := Dimension{
		Group:      edgeGroup(p1, p2),
		Edge:       -1,
		From:       p1,
		To:         p2,
		Length:     meters,
		Line:       [2]geom.Pt{q1, q2},
		Extensions: [2][2]geom.Pt{{p1, q1}, {p2, q2}},
		Arrows: [2][3]geom.Pt{
			arrowhead(q1, theta+math.Pi, opts.ArrowSize),
			arrowhead(q2, theta, opts.ArrowSize),
		},
		Label:    units.Label{Value: value, Unit: unit, Position: mid, Angle: LabelAngle(theta)},
		Text:     text,
		LabelBox: labelBox(mid, w, h),
		Color:    opts.Color,
	}
	return d, nil
}

func finiteValue(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// arrowhead returns the tip and the two wing points of an arrow pointing in
// direction dir (radians) at tip.
func arrowhead(tip geom.Pt, dir, size float64) [3]geom.Pt {
	back := dir + math.Pi
	spread := geom.Rad(ArrowAngle)
	return [3]geom.Pt{
		tip,
		tip.Add(geom.Pt{X: math.Cos(back - spread), Y: math.Sin(back - spread)}.Mul(size)),
		tip.Add(geom.Pt{X: math.Cos(back + spread), Y: math.Sin(back + spread)}.Mul(size)),
	}
}

// LabelAngle converts an edge direction in radians to a label rotation in
// degrees within [-90, 90] so text never renders upside down.
func LabelAngle(theta float64) float64 {
	a := geom.Deg(theta)
	if a > 90+angleEps {
		a -= 180
	} else if a < -90-angleEps {
		a += 180
	}
	return a
}

// GroupID is the stable group id of the annotation on edge of shapeID.
func GroupID(shapeID string, edge int) string {
	return uuid.NewSHA1(groupSpace, []byte(shapeID+"#"+strconv.Itoa(edge))).String()
}

func edgeGroup(p1, p2 geom.Pt) string {
	key := strconv.FormatFloat(p1.X, 'g', -1, 64) + "," + strconv.FormatFloat(p1.Y, 'g', -1, 64) + ";" +
		strconv.FormatFloat(p2.X, 'g', -1, 64) + "," + strconv.FormatFloat(p2.Y, 'g', -1, 64)
	return uuid.NewSHA1(groupSpace, []byte(key)).String()
}

// ForShape builds one dimension per measurable edge of s. Zero-length edges
// are skipped; an invalid scale or a polygon with too few vertices fails the
// whole call.
func ForShape(shapeID string, s measure.Shape, opts Options) ([]Dimension, error) {
	if _, err := measure.Measure(s, opts.Scale); err != nil {
		return nil, fmt.Errorf("dimension %s: %w", shapeID, err)
	}
	var out []Dimension
	for _, e := range s.Edges() {
		d, err := Build(e.A, e.B, opts)
		if errors.Is(err, geom.ErrDegenerateGeometry) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("dimension %s edge %d: %w", shapeID, e.Index, err)
		}
		d.Shape = shapeID
		d.Edge = e.Index
		d.Group = GroupID(shapeID, e.Index)
		out = append(out, d)
	}
	return out, nil
}

// ParseColor reads "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("colour %q: want #rrggbb or #rrggbbaa: %w", s, geom.ErrInvalidConfiguration)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("colour %q: %w", s, geom.ErrInvalidConfiguration)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// HexColor formats c as "#rrggbb", or "#rrggbbaa" when not opaque.
func HexColor(c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
