/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dimension

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"siteplan/internal/geom"
	"siteplan/internal/measure"
	"siteplan/internal/units"
)

var tenPPM = units.Scale{Label: "1:100", PixelsPerMeter: 10}

func near(a, b geom.Pt) bool {
	return scalar.EqualWithinAbs(a.X, b.X, 1e-9) && scalar.EqualWithinAbs(a.Y, b.Y, 1e-9)
}

func TestBuildHorizontalEdge(t *testing.T) {
	d, err := Build(geom.P(0, 0), geom.P(100, 0), DefaultOptions(tenPPM))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !near(d.Line[0], geom.P(0, -20)) || !near(d.Line[1], geom.P(100, -20)) {
		t.Fatalf("dimension line not offset above the edge: %v", d.Line)
	}
	if d.Extensions[0][0] != geom.P(0, 0) || !near(d.Extensions[1][1], geom.P(100, -20)) {
		t.Fatalf("extension lines: %v", d.Extensions)
	}
	if d.Text != "10.00 m" || d.Label.Unit != units.Meters || d.Label.Value != 10 {
		t.Fatalf("label: text=%q label=%+v", d.Text, d.Label)
	}
	if !near(d.Label.Position, geom.P(50, -20)) || d.Label.Angle != 0 {
		t.Fatalf("label placement: %+v", d.Label)
	}
	if d.Length != 10 {
		t.Fatalf("length: got %v want 10", d.Length)
	}
}

func TestBuildArrowheads(t *testing.T) {
	d, err := Build(geom.P(0, 0), geom.P(100, 0), DefaultOptions(tenPPM))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	end := d.Arrows[1]
	if !near(end[0], d.Line[1]) {
		t.Fatalf("arrow tip should sit on the line end: %v", end)
	}
	dx := 8 * math.Cos(geom.Rad(30))
	if !near(end[1], geom.P(100-dx, -16)) || !near(end[2], geom.P(100-dx, -24)) {
		t.Fatalf("end arrow wings: %v", end)
	}
	start := d.Arrows[0]
	if !near(start[0], d.Line[0]) || !(start[1].X > 0 && start[2].X > 0) {
		t.Fatalf("start arrow should open towards the line: %v", start)
	}
	for _, w := range []geom.Pt{start[1], start[2], end[1], end[2]} {
		tip := end[0]
		if w.X < 50 {
			tip = start[0]
		}
		if !scalar.EqualWithinAbs(tip.Dist(w), DefaultArrowSize, 1e-9) {
			t.Fatalf("wing %v not at arrow size from tip %v", w, tip)
		}
	}
}

func TestBuildOffsetFollowsDirection(t *testing.T) {
	opts := DefaultOptions(tenPPM)
	d, err := Build(geom.P(100, 0), geom.P(0, 0), opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !near(d.Line[0], geom.P(100, 20)) {
		t.Fatalf("reversed edge should offset below: %v", d.Line)
	}
	if !scalar.EqualWithinAbs(d.Label.Angle, 0, 1e-9) {
		t.Fatalf("reversed edge label angle: got %v want 0", d.Label.Angle)
	}
	v, err := Build(geom.P(0, 0), geom.P(0, 100), opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !near(v.Line[0], geom.P(20, 0)) || !scalar.EqualWithinAbs(v.Label.Angle, 90, 1e-9) {
		t.Fatalf("vertical edge: line=%v angle=%v", v.Line, v.Label.Angle)
	}
}

func TestLabelAngleNormalised(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0}, {45, 45}, {90, 90}, {170, -10}, {-170, 10}, {180, 0}, {-90, -90}, {-135, 45},
	}
	for _, c := range cases {
		got := LabelAngle(geom.Rad(c.in))
		if !scalar.EqualWithinAbs(got, c.want, 1e-9) {
			t.Fatalf("LabelAngle(%v°): got %v want %v", c.in, got, c.want)
		}
		if got < -90-1e-9 || got > 90+1e-9 {
			t.Fatalf("LabelAngle(%v°) out of range: %v", c.in, got)
		}
	}
}

func TestBuildCentimeterLabel(t *testing.T) {
	d, err := Build(geom.P(0, 0), geom.P(3, 4), DefaultOptions(tenPPM))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if d.Text != "50 cm" || d.Label.Unit != units.Centimeters {
		t.Fatalf("label: %q %+v", d.Text, d.Label)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(geom.P(5, 5), geom.P(5, 5), DefaultOptions(tenPPM)); !errors.Is(err, geom.ErrDegenerateGeometry) {
		t.Fatalf("zero-length edge: got %v", err)
	}
	if _, err := Build(geom.P(0, 0), geom.P(math.NaN(), 0), DefaultOptions(tenPPM)); !errors.Is(err, geom.ErrDegenerateGeometry) {
		t.Fatalf("NaN edge: got %v", err)
	}
	if _, err := Build(geom.P(0, 0), geom.P(1, 0), DefaultOptions(units.Scale{})); !errors.Is(err, geom.ErrInvalidConfiguration) {
		t.Fatalf("invalid scale: got %v", err)
	}
	opts := DefaultOptions(tenPPM)
	opts.ArrowSize = -1
	if _, err := Build(geom.P(0, 0), geom.P(1, 0), opts); !errors.Is(err, geom.ErrInvalidConfiguration) {
		t.Fatalf("negative arrow size: got %v", err)
	}
	for _, off := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		opts := DefaultOptions(tenPPM)
		opts.Offset = off
		d, err := Build(geom.P(0, 0), geom.P(100, 0), opts)
		if !errors.Is(err, geom.ErrInvalidConfiguration) {
			t.Fatalf("offset %v: got %v (label at %v)", off, err, d.Label.Position)
		}
	}
	opts = DefaultOptions(tenPPM)
	opts.ArrowSize = math.Inf(1)
	if _, err := Build(geom.P(0, 0), geom.P(1, 0), opts); !errors.Is(err, geom.ErrInvalidConfiguration) {
		t.Fatalf("infinite arrow size: got %v", err)
	}
}

func TestLabelBox(t *testing.T) {
	d, err := Build(geom.P(0, 0), geom.P(100, 0), DefaultOptions(tenPPM))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Face7x13 advances 7px per glyph, ascent 11, descent 2.
	if d.LabelBox.W != 7*7+2*LabelPadding || d.LabelBox.H != 13+2*LabelPadding {
		t.Fatalf("label box size: %+v", d.LabelBox)
	}
	if !near(d.LabelBox.Center(), d.Label.Position) {
		t.Fatalf("label box not centred on label: %+v vs %v", d.LabelBox, d.Label.Position)
	}
}

func TestPrimitives(t *testing.T) {
	d, err := Build(geom.P(0, 0), geom.P(100, 0), DefaultOptions(tenPPM))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ps := d.Primitives()
	if len(ps) != 6 {
		t.Fatalf("expected 6 primitives, got %d", len(ps))
	}
	counts := map[PrimitiveKind]int{}
	for _, p := range ps {
		if p.Group != d.Group || p.Group == "" {
			t.Fatalf("primitive %s has group %q, want %q", p.Kind, p.Group, d.Group)
		}
		counts[p.Kind]++
	}
	want := map[PrimitiveKind]int{KindDimensionLine: 1, KindExtensionLine: 2, KindArrowhead: 2, KindLabel: 1}
	for k, n := range want {
		if counts[k] != n {
			t.Fatalf("%s: got %d want %d", k, counts[k], n)
		}
	}
	if ps[5].Text != "10.00 m" {
		t.Fatalf("label primitive text: %q", ps[5].Text)
	}
}

func TestForShape(t *testing.T) {
	r := measure.Rectangle{Width: 200, Height: 150, ScaleX: 1, ScaleY: 1}
	dims, err := ForShape("r1", r, DefaultOptions(tenPPM))
	if err != nil {
		t.Fatalf("for shape: %v", err)
	}
	if len(dims) != 2 {
		t.Fatalf("expected width and height dimensions, got %d", len(dims))
	}
	if dims[0].Length != 20 || dims[1].Length != 15 {
		t.Fatalf("lengths: %v %v", dims[0].Length, dims[1].Length)
	}
	if dims[0].Group != GroupID("r1", 0) || dims[1].Group != GroupID("r1", 1) || dims[0].Group == dims[1].Group {
		t.Fatalf("group ids: %q %q", dims[0].Group, dims[1].Group)
	}
	again, _ := ForShape("r1", r, DefaultOptions(tenPPM))
	if again[0].Group != dims[0].Group {
		t.Fatalf("group ids are not stable")
	}
	if dims[0].Shape != "r1" || dims[1].Edge != 1 {
		t.Fatalf("shape/edge tags: %+v", dims[1])
	}
}

func TestForShapeSkipsDegenerateEdges(t *testing.T) {
	dims, err := ForShape("z", measure.Rectangle{Width: 0, Height: 0, ScaleX: 1, ScaleY: 1}, DefaultOptions(tenPPM))
	if err != nil || len(dims) != 0 {
		t.Fatalf("zero rectangle: dims=%d err=%v", len(dims), err)
	}
	// A flat rectangle keeps its width dimension only.
	dims, err = ForShape("f", measure.Rectangle{Width: 50, Height: 0, ScaleX: 1, ScaleY: 1}, DefaultOptions(tenPPM))
	if err != nil || len(dims) != 1 || dims[0].Edge != 0 {
		t.Fatalf("flat rectangle: %+v err=%v", dims, err)
	}
	// Repeated vertex gives a zero-length polygon side.
	tri := measure.Polygon{Points: []geom.Pt{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 30, Y: 0}, {X: 0, Y: 40}}}
	dims, err = ForShape("t", tri, DefaultOptions(tenPPM))
	if err != nil || len(dims) != 3 {
		t.Fatalf("polygon with repeated vertex: dims=%d err=%v", len(dims), err)
	}
}

func TestForShapeErrors(t *testing.T) {
	two := measure.Polygon{Points: []geom.Pt{{X: 0, Y: 0}, {X: 10, Y: 0}}}
	if _, err := ForShape("p", two, DefaultOptions(tenPPM)); !errors.Is(err, geom.ErrDegenerateGeometry) {
		t.Fatalf("two-vertex polygon: got %v", err)
	}
	if _, err := ForShape("l", measure.Line{X2: 10}, DefaultOptions(units.Scale{PixelsPerMeter: -1})); !errors.Is(err, geom.ErrInvalidConfiguration) {
		t.Fatalf("invalid scale: got %v", err)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#1e88e5")
	if err != nil || c != DefaultColor {
		t.Fatalf("parse: %v %v", c, err)
	}
	if HexColor(c) != "#1e88e5" {
		t.Fatalf("hex: %s", HexColor(c))
	}
	c, err = ParseColor("ff000080")
	if err != nil || c.R != 0xff || c.A != 0x80 || HexColor(c) != "#ff000080" {
		t.Fatalf("parse with alpha: %v %v", c, err)
	}
	for _, bad := range []string{"", "#12345", "#zzzzzz"} {
		if _, err := ParseColor(bad); !errors.Is(err, geom.ErrInvalidConfiguration) {
			t.Fatalf("%q: expected ErrInvalidConfiguration, got %v", bad, err)
		}
	}
}
