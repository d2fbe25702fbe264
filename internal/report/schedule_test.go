/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"siteplan/internal/dimension"
	"siteplan/internal/geom"
	"siteplan/internal/measure"
	"siteplan/internal/units"
)

func sampleInput(t *testing.T) Input {
	t.Helper()
	scale := units.Scale{Label: "1:100", PixelsPerMeter: 10}
	house := measure.Rectangle{Left: 0, Top: 0, Width: 200, Height: 150, ScaleX: 1, ScaleY: 1}
	fence := measure.Line{X1: 0, Y1: 200, X2: 300, Y2: 200}
	tree := measure.Circle{Center: geom.P(250, 60), Radius: 20, ScaleX: 1}
	in := Input{Plan: "lot 12", Scale: scale}
	for _, s := range []struct {
		id, label string
		shape     measure.Shape
	}{{"house", "House", house}, {"fence", "Fence", fence}, {"tree", "Oak", tree}} {
		m, err := measure.Measure(s.shape, scale)
		if err != nil {
			t.Fatalf("measure %s: %v", s.id, err)
		}
		in.Rows = append(in.Rows, Row{ShapeID: s.id, Label: s.label, Measurement: m})
		in.Shapes = append(in.Shapes, Placed{ID: s.id, Shape: s.shape})
	}
	dims, err := dimension.ForShape("house", house, dimension.DefaultOptions(scale))
	if err != nil {
		t.Fatalf("dimensions: %v", err)
	}
	in.Dimensions = dims
	return in
}

func TestWriteFile_CreatesPDF(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "reports", "lot.pdf")
	if err := WriteFile(out, sampleInput(t), Options{IncludePlan: true}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("missing pdf header: %q", data[:min(len(data), 8)])
	}
}

func TestWrite_ContentAndPages(t *testing.T) {
	in := sampleInput(t)
	cases := []struct {
		name  string
		opt   Options
		pages int
	}{
		{"schedule only", Options{NoCompress: true}, 1},
		{"with plan", Options{NoCompress: true, IncludePlan: true, Orientation: "L", PageSize: "A3"}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.opt.Generated = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			var buf bytes.Buffer
			if err := Write(&buf, in, tc.opt); err != nil {
				t.Fatalf("Write: %v", err)
			}
			s := buf.String()
			if got := strings.Count(s, "/Type /Page\n"); got != tc.pages {
				t.Fatalf("pages: got %d want %d", got, tc.pages)
			}
			for _, want := range []string{"House", "Fence", "Oak", "lot 12", "30.00 m", "3 shapes"} {
				if !strings.Contains(s, want) {
					t.Fatalf("output missing %q", want)
				}
			}
		})
	}
}

func TestWrite_InvalidScale(t *testing.T) {
	in := sampleInput(t)
	in.Scale.PixelsPerMeter = 0
	err := Write(&bytes.Buffer{}, in, Options{})
	if !errors.Is(err, geom.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestWrite_UnknownPageSize(t *testing.T) {
	if err := Write(&bytes.Buffer{}, sampleInput(t), Options{PageSize: "B7x"}); err == nil {
		t.Fatalf("expected error for unknown page size")
	}
}

func TestFitSheet(t *testing.T) {
	sh := fitSheet(geom.R(100, 50, 200, 100), 10, 20, 100, 100)
	if sh.k != 0.5 {
		t.Fatalf("scale: got %v want 0.5", sh.k)
	}
	p := sh.page(geom.P(300, 150))
	if p.X != 110 || p.Y != 70 {
		t.Fatalf("page point: got %+v", p)
	}
	q := sh.page(geom.P(100, 50))
	if q.X != 10 || q.Y != 20 {
		t.Fatalf("origin: got %+v", q)
	}
}
