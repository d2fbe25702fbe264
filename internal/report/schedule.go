/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package report renders measurement schedules of a site plan as PDF: a
// table of every measured shape with totals, optionally followed by a sheet
// showing the plan with its dimension annotations.
package report

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"siteplan/internal/dimension"
	"siteplan/internal/measure"
	"siteplan/internal/units"
	"siteplan/internal/version"
)

// Row is one line of the schedule.
type Row struct {
	ShapeID     string
	Label       string
	Measurement measure.Measurement
}

// Placed is a shape drawn on the plan sheet.
type Placed struct {
	ID    string
	Shape measure.Shape
}

// Input is everything a report shows.
type Input struct {
	Plan       string
	Scale      units.Scale
	Rows       []Row
	Shapes     []Placed
	Dimensions []dimension.Dimension
}

// Options controls PDF layout. Units are millimetres.
type Options struct {
	Title       string
	PageSize    string // A3, A4, A5, Letter, Legal; empty means A4
	Orientation string // P or L; empty means P
	IncludePlan bool
	ShapeColor  color.NRGBA
	Generated   time.Time // zero means now
	// NoCompress writes uncompressed content streams, useful when diffing output.
	NoCompress bool
}

const (
	fontFamily = "Helvetica"
	rowHeight  = 7.0
)

type column struct {
	title string
	width float64
	align string
}

var columns = []column{
	{"Shape", 30, "L"},
	{"Label", 44, "L"},
	{"Kind", 22, "L"},
	{"Area", 30, "R"},
	{"Perimeter", 27, "R"},
	{"Length", 27, "R"},
}

// Write renders the report to w.
func Write(w io.Writer, in Input, opt Options) error {
	pdf, err := build(in, opt)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// WriteFile renders the report to path, creating parent directories.
func WriteFile(path string, in Input, opt Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	pdf, err := build(in, opt)
	if err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func build(in Input, opt Options) (*gofpdf.Fpdf, error) {
	if err := in.Scale.Validate(); err != nil {
		return nil, err
	}
	size := strings.TrimSpace(opt.PageSize)
	if size == "" {
		size = "A4"
	}
	orient := strings.ToUpper(strings.TrimSpace(opt.Orientation))
	if orient == "" {
		orient = "P"
	}
	generated := opt.Generated
	if generated.IsZero() {
		generated = time.Now()
	}
	title := opt.Title
	if title == "" {
		title = "Measurement schedule"
	}

	pdf := gofpdf.New(orient, "mm", size, "")
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("page setup %s/%s: %w", size, orient, err)
	}
	pdf.SetCompression(!opt.NoCompress)
	pdf.SetCreationDate(generated)
	pdf.SetTitle(fmt.Sprintf("%s: %s", title, in.Plan), true)
	pdf.SetCreator("siteplan "+version.String(), true)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s  |  page %d/{nb}", generated.Format("2006-01-02 15:04"), pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	writeHeader(pdf, tr, title, in)
	writeTable(pdf, tr, in.Rows)
	if opt.IncludePlan && len(in.Shapes) > 0 {
		pdf.AddPage()
		drawPlan(pdf, tr, in, opt)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}

func writeHeader(pdf *gofpdf.Fpdf, tr func(string) string, title string, in Input) {
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	plan := in.Plan
	if plan == "" {
		plan = "(unnamed plan)"
	}
	pdf.CellFormat(0, 6, tr("Plan: "+plan), "", 1, "L", false, 0, "")
	scale := in.Scale.Label
	if scale == "" {
		scale = "custom"
	}
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Scale: %s (%.4g px/m)", scale, in.Scale.PixelsPerMeter)), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, rows []Row) {
	header := func() {
		pdf.SetFont(fontFamily, "B", 10)
		pdf.SetFillColor(230, 236, 245)
		for _, c := range columns {
			pdf.CellFormat(c.width, rowHeight, c.title, "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(fontFamily, "", 10)
	}
	header()
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	var totalArea, totalLength float64
	for _, r := range rows {
		if pdf.GetY()+rowHeight > pageH-bottom-15 {
			pdf.AddPage()
			header()
		}
		m := r.Measurement
		cells := []string{r.ShapeID, r.Label, string(m.Kind), "", "", ""}
		if m.HasArea() {
			cells[3] = units.FormatArea(m.Area)
			cells[4] = units.FormatMeasurement(m.Perimeter)
			totalArea += m.Area
		}
		switch {
		case m.HasLength():
			cells[5] = units.FormatMeasurement(m.Length)
			totalLength += m.Length
		case m.HasDiameter():
			cells[5] = "Ø " + units.FormatMeasurement(m.Diameter)
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, rowHeight, tr(cells[i]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont(fontFamily, "B", 10)
	lead := columns[0].width + columns[1].width + columns[2].width
	pdf.CellFormat(lead, rowHeight, fmt.Sprintf("Total (%d shapes)", len(rows)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(columns[3].width, rowHeight, tr(units.FormatArea(totalArea)), "1", 0, "R", false, 0, "")
	pdf.CellFormat(columns[4].width, rowHeight, "", "1", 0, "R", false, 0, "")
	pdf.CellFormat(columns[5].width, rowHeight, tr(units.FormatMeasurement(totalLength)), "1", 1, "R", false, 0, "")
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.NRGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.NRGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
