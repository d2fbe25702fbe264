/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package report

import (
	"math"

	"github.com/jung-kurt/gofpdf"

	"siteplan/internal/geom"
	"siteplan/internal/measure"
)

// sheet maps plan pixels onto a page area, preserving aspect ratio.
type sheet struct {
	origin geom.Pt // page position of bounds.Min
	bounds geom.Rect
	k      float64 // mm per plan pixel
}

func fitSheet(bounds geom.Rect, x, y, w, h float64) sheet {
	k := 1.0
	if bounds.W > 0 && bounds.H > 0 {
		k = math.Min(w/bounds.W, h/bounds.H)
	} else if bounds.W > 0 {
		k = w / bounds.W
	} else if bounds.H > 0 {
		k = h / bounds.H
	}
	return sheet{
		origin: geom.Pt{X: x + (w-bounds.W*k)/2, Y: y},
		bounds: bounds,
		k:      k,
	}
}

func (s sheet) page(p geom.Pt) geom.Pt {
	return geom.Pt{
		X: s.origin.X + (p.X-s.bounds.X)*s.k,
		Y: s.origin.Y + (p.Y-s.bounds.Y)*s.k,
	}
}

func (s sheet) points(pts []geom.Pt) []gofpdf.PointType {
	out := make([]gofpdf.PointType, len(pts))
	for i, p := range pts {
		q := s.page(p)
		out[i] = gofpdf.PointType{X: q.X, Y: q.Y}
	}
	return out
}

func planBounds(in Input) geom.Rect {
	var b geom.Rect
	first := true
	grow := func(r geom.Rect) {
		if first {
			b, first = r, false
			return
		}
		b = b.Union(r)
	}
	for _, p := range in.Shapes {
		grow(measure.Bounds(p.ID, p.Shape))
	}
	for _, d := range in.Dimensions {
		grow(geom.BoundsOf("", []geom.Pt{d.Line[0], d.Line[1], d.LabelBox.Min(), d.LabelBox.Max()}, geom.Identity))
	}
	return b
}

func drawPlan(pdf *gofpdf.Fpdf, tr func(string) string, in Input, opt Options) {
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(0, 8, tr("Plan: "+in.Plan), "", 1, "L", false, 0, "")

	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	top := pdf.GetY() + 4
	sh := fitSheet(planBounds(in), left, top, pageW-left-right, pageH-top-bottom-15)

	pdf.SetLineWidth(0.3)
	setDrawColor(pdf, opt.ShapeColor)
	for _, p := range in.Shapes {
		drawShape(pdf, sh, p.Shape)
	}

	pdf.SetLineWidth(0.15)
	pdf.SetFont(fontFamily, "", 7)
	for _, d := range in.Dimensions {
		setDrawColor(pdf, d.Color)
		setFillColor(pdf, d.Color)
		a, b := sh.page(d.Line[0]), sh.page(d.Line[1])
		pdf.Line(a.X, a.Y, b.X, b.Y)
		for _, ext := range d.Extensions {
			a, b := sh.page(ext[0]), sh.page(ext[1])
			pdf.Line(a.X, a.Y, b.X, b.Y)
		}
		for _, arrow := range d.Arrows {
			pdf.Polygon(sh.points(arrow[:]), "F")
		}
		pdf.SetTextColor(int(d.Color.R), int(d.Color.G), int(d.Color.B))
		at := sh.page(d.Label.Position)
		w := pdf.GetStringWidth(d.Text)
		pdf.TransformBegin()
		// gofpdf rotates counter-clockwise; plan angles grow clockwise with y down.
		pdf.TransformRotate(-d.Label.Angle, at.X, at.Y)
		pdf.Text(at.X-w/2, at.Y-1, tr(d.Text))
		pdf.TransformEnd()
	}
	pdf.SetTextColor(0, 0, 0)
}

func drawShape(pdf *gofpdf.Fpdf, sh sheet, s measure.Shape) {
	switch v := s.(type) {
	case measure.Rectangle:
		r := v.Bounds()
		p := sh.page(r.Min())
		pdf.Rect(p.X, p.Y, r.W*sh.k, r.H*sh.k, "D")
	case *measure.Rectangle:
		drawShape(pdf, sh, *v)
	case measure.Polygon:
		pts := v.CanvasPoints()
		if len(pts) >= 2 {
			pdf.Polygon(sh.points(pts), "D")
		}
	case *measure.Polygon:
		drawShape(pdf, sh, *v)
	case measure.Line:
		a, b := sh.page(v.Start()), sh.page(v.End())
		pdf.Line(a.X, a.Y, b.X, b.Y)
	case *measure.Line:
		drawShape(pdf, sh, *v)
	case measure.Circle:
		c := sh.page(v.Center)
		pdf.Circle(c.X, c.Y, v.EffectiveRadius()*sh.k, "D")
	case *measure.Circle:
		drawShape(pdf, sh, *v)
	}
}
