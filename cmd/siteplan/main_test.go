/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"siteplan/internal/crash"
	"siteplan/internal/dimension"
	"siteplan/internal/plan"
	"siteplan/internal/snap"
	"siteplan/internal/version"
)

// isolate points config and history at a temp dir and copies the sample plan there.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SITEPLAN_CONFIG", filepath.Join(dir, "config.yaml"))
	t.Setenv("SITEPLAN_HISTORY_DB", filepath.Join(dir, "history.db"))
	t.Setenv("SITEPLAN_LOG_LEVEL", "error")
	for _, k := range []string{"SITEPLAN_PIXELS_PER_METER", "SITEPLAN_SCALE_LABEL", "SITEPLAN_GRID_SIZE",
		"SITEPLAN_SNAP_TO_GRID", "SITEPLAN_AUTO_ALIGN", "SITEPLAN_ALIGN_THRESHOLD", "SITEPLAN_LOG_FILE"} {
		t.Setenv(k, "")
	}
	data, err := os.ReadFile(filepath.Join("testdata", "yard.json"))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	path := filepath.Join(dir, "yard.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, []byte) {
	t.Helper()
	var out bytes.Buffer
	code := run(context.Background(), args, &out, &crash.Session{})
	return code, out.Bytes()
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestMeasureCommand(t *testing.T) {
	path := isolate(t)
	code, out := runCLI(t, "measure", "-no-history", path)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	res := decode[measureOutput](t, out)
	if res.Plan != "Yard" || res.Recorded != 0 {
		t.Fatalf("unexpected header: %+v", res)
	}
	if len(res.Shapes) != 4 {
		t.Fatalf("auxiliary shapes must be skipped, got %d shapes", len(res.Shapes))
	}
	byID := map[string]shapeMeasurement{}
	for _, s := range res.Shapes {
		byID[s.ID] = s
	}
	house := byID["house"].Measurement
	if house.Area != 200 || house.Perimeter != 60 {
		t.Fatalf("house: %+v", house)
	}
	if byID["path"].Measurement.Length != 30 {
		t.Fatalf("path: %+v", byID["path"].Measurement)
	}
	if byID["pond"].Measurement.Diameter != 4 {
		t.Fatalf("pond: %+v", byID["pond"].Measurement)
	}
	if got := strings.Join(byID["house"].Display, ", "); got != "area 200.00 m², perimeter 60.00 m" {
		t.Fatalf("display: %q", got)
	}
	wantTotal := 200 + 25 + 4*3.141592653589793
	if !scalar.EqualWithinRel(res.TotalArea, wantTotal, 1e-12) {
		t.Fatalf("total area: got %v want %v", res.TotalArea, wantTotal)
	}
}

func TestMeasureRecordsHistory(t *testing.T) {
	path := isolate(t)
	for i := 0; i < 2; i++ {
		code, out := runCLI(t, "measure", path)
		if code != 0 {
			t.Fatalf("measure exit code %d", code)
		}
		if res := decode[measureOutput](t, out); res.Recorded != 4 {
			t.Fatalf("recorded: %d", res.Recorded)
		}
	}

	code, out := runCLI(t, "history", path)
	if code != 0 {
		t.Fatalf("history exit code %d", code)
	}
	latest := decode[[]recordView](t, out)
	if len(latest) != 4 {
		t.Fatalf("latest per shape: got %d", len(latest))
	}

	_, out = runCLI(t, "history", "-shape", "house", path)
	if recs := decode[[]recordView](t, out); len(recs) != 2 || recs[0].Measurement.Area != 200 {
		t.Fatalf("house history: %+v", recs)
	}

	_, out = runCLI(t, "history", "-prune", "1", path)
	if pruned := decode[map[string]int64](t, out); pruned["pruned"] != 4 {
		t.Fatalf("pruned: %+v", pruned)
	}
}

func TestSnapCommand(t *testing.T) {
	path := isolate(t)
	code, out := runCLI(t, "snap", "-x", "23", "-y", "17", path)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	res := decode[snapOutput](t, out)
	if res.Snapped.X != 20 || res.Snapped.Y != 20 || !res.SnapToGrid || res.GridSize != 10 {
		t.Fatalf("snap: %+v", res)
	}
}

func TestAlignCommand(t *testing.T) {
	path := isolate(t)

	// (397,104) snaps back to (400,100); the shed's top then matches the house.
	code, out := runCLI(t, "align", "-shape", "shed", "-dx", "-3", "-dy", "4", path)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	res := decode[alignOutput](t, out)
	if res.Offset.X != 0 || res.Offset.Y != 0 {
		t.Fatalf("offset: %+v", res.Offset)
	}
	if len(res.Guides) != 1 || res.Guides[0].Orientation != snap.Horizontal || res.Guides[0].RelatedID != "house" || res.Guides[0].Position != 100 {
		t.Fatalf("guides: %+v", res.Guides)
	}
	if res.Written {
		t.Fatalf("plan written without -write")
	}

	// A top mismatch of exactly the threshold does not align.
	code, out = runCLI(t, "align", "-shape", "shed", "-dx", "12", "-dy", "7", "-write", path)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	res = decode[alignOutput](t, out)
	if res.Offset.X != 10 || res.Offset.Y != 10 || len(res.Guides) != 0 || !res.Written {
		t.Fatalf("move: %+v", res)
	}
	doc, err := plan.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	shed, _ := doc.Find("shed")
	if shed.Left != 410 || shed.Top != 110 || shed.Width != 50 {
		t.Fatalf("stored shed: %+v", shed)
	}
}

func TestAlignRejectsAuxiliary(t *testing.T) {
	path := isolate(t)
	if code, _ := runCLI(t, "align", "-shape", "dim-house", "-dx", "5", path); code != 1 {
		t.Fatalf("expected failure for auxiliary shape, got %d", code)
	}
	if code, _ := runCLI(t, "align", path); code != 2 {
		t.Fatalf("expected usage error without -shape, got %d", code)
	}
}

func TestAnnotateCommand(t *testing.T) {
	path := isolate(t)
	code, out := runCLI(t, "annotate", "-shape", "house", path)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	res := decode[[]annotationView](t, out)
	if len(res) != 1 || res[0].ID != "house" || len(res[0].Dimensions) != 2 {
		t.Fatalf("annotations: %+v", res)
	}
	top := res[0].Dimensions[0]
	if top.Text != "20.00 m" || top.Group != dimension.GroupID("house", 0) || len(top.Primitives) != 6 {
		t.Fatalf("top edge: %+v", top)
	}
	for _, p := range top.Primitives {
		if p.Color != dimension.HexColor(dimension.DefaultColor) {
			t.Fatalf("primitive color: %s", p.Color)
		}
	}
	if res[0].Dimensions[1].Text != "10.00 m" {
		t.Fatalf("right edge: %+v", res[0].Dimensions[1])
	}

	_, out = runCLI(t, "annotate", path)
	if all := decode[[]annotationView](t, out); len(all) != 4 {
		t.Fatalf("annotated shapes: %d", len(all))
	}
}

func TestReportCommand(t *testing.T) {
	path := isolate(t)
	dest := filepath.Join(filepath.Dir(path), "out", "yard.pdf")
	code, out := runCLI(t, "report", "-sheet", "-o", dest, path)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(string(out), dest) {
		t.Fatalf("output: %s", out)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a pdf")
	}
}

func TestMiscCommands(t *testing.T) {
	path := isolate(t)
	cases := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"version", []string{"version"}, 0, version.String()},
		{"schema", []string{"schema"}, 0, "Site plan snapshot"},
		{"no args", nil, 2, "Usage:"},
		{"unknown", []string{"explode"}, 2, "Usage:"},
		{"missing plan arg", []string{"measure"}, 2, ""},
		{"missing plan file", []string{"measure", filepath.Join(filepath.Dir(path), "nope.json")}, 1, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, out := runCLI(t, tc.args...)
			if code != tc.code {
				t.Fatalf("exit code: got %d want %d", code, tc.code)
			}
			if tc.want != "" && !strings.Contains(string(out), tc.want) {
				t.Fatalf("output lacks %q: %s", tc.want, out)
			}
		})
	}
}

func TestOpenRegistersCrashSession(t *testing.T) {
	path := isolate(t)
	s := &crash.Session{}
	var out bytes.Buffer
	if code := run(context.Background(), []string{"measure", "-no-history", path}, &out, s); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if s.PlanPath != path || s.Doc == nil || s.Doc.Name != "Yard" {
		t.Fatalf("session: %+v", s)
	}
}
