/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"siteplan/internal/config"
	"siteplan/internal/crash"
	"siteplan/internal/dimension"
	"siteplan/internal/geom"
	"siteplan/internal/gesture"
	applog "siteplan/internal/log"
	"siteplan/internal/measure"
	"siteplan/internal/plan"
	"siteplan/internal/report"
	"siteplan/internal/snap"
	"siteplan/internal/storage"
	"siteplan/internal/units"
)

type app struct {
	out     io.Writer
	session *crash.Session
	log     *slog.Logger
}

// workspace is a loaded plan together with the engine configured for it.
type workspace struct {
	path   string
	name   string
	doc    *plan.Document
	cfg    config.AppConfig
	engine *gesture.Engine
}

func newFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "YAML config file (default: user config)")
	return fs, cfgPath
}

// parsePlanArg parses flags and returns the single plan path argument.
func parsePlanArg(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: %s requires <plan.json>", errUsage, fs.Name())
	}
	return fs.Arg(0), nil
}

func loadConfig(path string) (config.AppConfig, error) {
	if strings.TrimSpace(path) != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// open loads config and plan, reconfigures logging from the config and
// builds the engine. The plan is registered with the crash session.
func (a *app) open(ctx context.Context, cfgPath, planPath string) (context.Context, *workspace, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return ctx, nil, err
	}
	applog.Init(cfg.Logging.LogOptions())
	a.log = applog.WithComponent("cli")

	abs, err := filepath.Abs(planPath)
	if err != nil {
		return ctx, nil, err
	}
	doc, err := plan.Load(abs)
	if err != nil {
		return ctx, nil, err
	}
	if a.session != nil {
		a.session.PlanPath, a.session.Doc = abs, doc
	}
	base, err := cfg.Engine()
	if err != nil {
		return ctx, nil, err
	}
	eng, err := gesture.NewEngine(doc.EngineConfig(base))
	if err != nil {
		return ctx, nil, fmt.Errorf("plan %s: %w", planPath, err)
	}
	name := doc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	ctx = applog.WithPlan(ctx, name)
	a.log.DebugContext(ctx, "plan loaded", slog.String("path", abs), slog.Int("shapes", len(doc.Shapes)))
	return ctx, &workspace{path: abs, name: name, doc: doc, cfg: cfg, engine: eng}, nil
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// measured is the engine result for one measurable shape of a plan.
type measured struct {
	shape  plan.Shape
	geom   measure.Shape
	result gesture.Result
	err    error
}

// measureAll evaluates every measurable shape in document order. Shapes
// that fail keep their error; the rest still get measured.
func (ws *workspace) measureAll(ctx context.Context) []measured {
	var out []measured
	for _, s := range ws.doc.Shapes {
		if !s.Measurable() {
			continue
		}
		m := measured{shape: s}
		m.geom, m.err = s.Geometry()
		if m.err == nil {
			m.result, m.err = ws.engine.Modified(ctx, s.ID, m.geom)
		}
		out = append(out, m)
	}
	return out
}

type shapeMeasurement struct {
	ID          string              `json:"id"`
	Label       string              `json:"label,omitempty"`
	Measurement measure.Measurement `json:"measurement"`
	Display     []string            `json:"display,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type measureOutput struct {
	Plan      string             `json:"plan"`
	Scale     units.Scale        `json:"scale"`
	Shapes    []shapeMeasurement `json:"shapes"`
	TotalArea float64            `json:"totalArea"`
	Recorded  int                `json:"recorded"`
}

func display(m measure.Measurement) []string {
	var out []string
	if m.HasArea() {
		out = append(out, "area "+units.FormatArea(m.Area))
	}
	if m.HasPerimeter() {
		out = append(out, "perimeter "+units.FormatMeasurement(m.Perimeter))
	}
	if m.HasDiameter() {
		out = append(out, "diameter "+units.FormatMeasurement(m.Diameter))
	}
	if m.HasLength() {
		out = append(out, "length "+units.FormatMeasurement(m.Length))
	}
	return out
}

func (a *app) measure(ctx context.Context, args []string) error {
	fs, cfgPath := newFlags("measure")
	noHistory := fs.Bool("no-history", false, "do not record measurements")
	path, err := parsePlanArg(fs, args)
	if err != nil {
		return err
	}
	ctx, ws, err := a.open(ctx, *cfgPath, path)
	if err != nil {
		return err
	}

	res := measureOutput{Plan: ws.name, Scale: ws.doc.Scale, Shapes: []shapeMeasurement{}}
	var recs []storage.Record
	for _, m := range ws.measureAll(ctx) {
		sm := shapeMeasurement{ID: m.shape.ID, Label: m.shape.Label}
		if m.err != nil {
			sm.Error = m.err.Error()
			a.log.WarnContext(applog.WithShape(ctx, m.shape.ID), "shape not measured", slog.Any("err", m.err))
		} else {
			sm.Measurement = m.result.Measurement
			sm.Display = display(sm.Measurement)
			res.TotalArea += sm.Measurement.Area
			recs = append(recs, storage.Record{
				ShapeID:     m.shape.ID,
				Label:       m.shape.Label,
				Measurement: m.result.Measurement,
				Scale:       ws.doc.Scale,
			})
		}
		res.Shapes = append(res.Shapes, sm)
	}

	if ws.cfg.History.Enabled && !*noHistory && len(recs) > 0 {
		h, err := a.openHistory(ws)
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()
		if err := h.Append(ctx, ws.name, recs); err != nil {
			return err
		}
		res.Recorded = len(recs)
	}
	return a.writeJSON(res)
}

func (a *app) openHistory(ws *workspace) (*storage.History, error) {
	path, err := ws.cfg.History.HistoryPath()
	if err != nil {
		return nil, err
	}
	return storage.OpenHistory(path)
}

type primitiveView struct {
	Kind   dimension.PrimitiveKind `json:"kind"`
	Points []geom.Pt               `json:"points"`
	Text   string                  `json:"text,omitempty"`
	Angle  float64                 `json:"angle,omitempty"`
	Box    *geom.Rect              `json:"box,omitempty"`
	Color  string                  `json:"color"`
}

type dimensionView struct {
	Group      string          `json:"group"`
	Edge       int             `json:"edge"`
	Length     float64         `json:"length"`
	Text       string          `json:"text"`
	Primitives []primitiveView `json:"primitives"`
}

type annotationView struct {
	ID         string          `json:"id"`
	Dimensions []dimensionView `json:"dimensions"`
}

func viewDimension(d dimension.Dimension) dimensionView {
	v := dimensionView{Group: d.Group, Edge: d.Edge, Length: d.Length, Text: d.Text}
	for _, p := range d.Primitives() {
		pv := primitiveView{Kind: p.Kind, Points: p.Points, Text: p.Text, Angle: p.Angle, Color: dimension.HexColor(p.Color)}
		if p.Kind == dimension.KindLabel {
			box := p.Box
			pv.Box = &box
		}
		v.Primitives = append(v.Primitives, pv)
	}
	return v
}

func (a *app) annotate(ctx context.Context, args []string) error {
	fs, cfgPath := newFlags("annotate")
	only := fs.String("shape", "", "annotate only this shape")
	path, err := parsePlanArg(fs, args)
	if err != nil {
		return err
	}
	ctx, ws, err := a.open(ctx, *cfgPath, path)
	if err != nil {
		return err
	}

	set := dimension.NewSet()
	for _, s := range ws.doc.Shapes {
		if !s.Measurable() || (*only != "" && s.ID != *only) {
			continue
		}
		g, err := s.Geometry()
		if err != nil {
			return fmt.Errorf("shape %s: %w", s.ID, err)
		}
		if _, _, err := ws.engine.Annotate(ctx, set, s.ID, g); err != nil {
			return fmt.Errorf("shape %s: %w", s.ID, err)
		}
	}
	if *only != "" && set.Len() == 0 {
		return fmt.Errorf("shape %s not found or not measurable", *only)
	}

	out := []annotationView{}
	for _, id := range set.Shapes() {
		dims, _ := set.Get(id)
		av := annotationView{ID: id}
		for _, d := range dims {
			av.Dimensions = append(av.Dimensions, viewDimension(d))
		}
		out = append(out, av)
	}
	a.log.DebugContext(ctx, "annotated", slog.Int("shapes", set.Len()), slog.Int("dimensions", set.Count()))
	return a.writeJSON(out)
}

type snapOutput struct {
	Input      geom.Pt `json:"input"`
	Snapped    geom.Pt `json:"snapped"`
	SnapToGrid bool    `json:"snapToGrid"`
	GridSize   float64 `json:"gridSize"`
}

func (a *app) snap(ctx context.Context, args []string) error {
	fs, cfgPath := newFlags("snap")
	x := fs.Float64("x", 0, "x coordinate in plan pixels")
	y := fs.Float64("y", 0, "y coordinate in plan pixels")
	path, err := parsePlanArg(fs, args)
	if err != nil {
		return err
	}
	_, ws, err := a.open(ctx, *cfgPath, path)
	if err != nil {
		return err
	}
	cfg := ws.engine.Config()
	p := geom.P(*x, *y)
	return a.writeJSON(snapOutput{Input: p, Snapped: ws.engine.SnapPoint(p), SnapToGrid: cfg.SnapToGrid, GridSize: cfg.Grid.Size})
}

type alignOutput struct {
	ID          string              `json:"id"`
	Offset      geom.Pt             `json:"offset"`
	Box         geom.Rect           `json:"box"`
	Guides      []snap.Guide        `json:"guides"`
	Measurement measure.Measurement `json:"measurement"`
	Display     []string            `json:"display,omitempty"`
	Written     bool                `json:"written"`
}

func (a *app) align(ctx context.Context, args []string) error {
	fs, cfgPath := newFlags("align")
	id := fs.String("shape", "", "shape to move (required)")
	dx := fs.Float64("dx", 0, "pointer displacement x")
	dy := fs.Float64("dy", 0, "pointer displacement y")
	write := fs.Bool("write", false, "store the corrected geometry in the plan file")
	path, err := parsePlanArg(fs, args)
	if err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("%w: align requires -shape", errUsage)
	}
	ctx, ws, err := a.open(ctx, *cfgPath, path)
	if err != nil {
		return err
	}

	s, ok := ws.doc.Find(*id)
	if !ok {
		return fmt.Errorf("shape %s not found", *id)
	}
	if !s.Measurable() {
		return fmt.Errorf("shape %s is locked or auxiliary", *id)
	}
	g, err := s.Geometry()
	if err != nil {
		return fmt.Errorf("shape %s: %w", *id, err)
	}
	others, err := ws.doc.AlignmentCandidates(*id)
	if err != nil {
		return err
	}
	res, err := ws.engine.Move(ctx, *id, g, geom.P(*dx, *dy), others)
	if err != nil {
		return fmt.Errorf("shape %s: %w", *id, err)
	}

	out := alignOutput{
		ID:          res.ID,
		Offset:      res.Offset,
		Box:         res.Box,
		Guides:      res.Guides,
		Measurement: res.Measurement,
		Display:     display(res.Measurement),
	}
	if out.Guides == nil {
		out.Guides = []snap.Guide{}
	}
	if *write {
		if err := ws.doc.Apply(*id, res.Shape); err != nil {
			return err
		}
		if err := plan.Save(ws.path, ws.doc); err != nil {
			return err
		}
		out.Written = true
		a.log.InfoContext(applog.WithShape(ctx, *id), "plan updated", slog.String("path", ws.path))
	}
	return a.writeJSON(out)
}

type recordView struct {
	ID             int64               `json:"id"`
	Shape          string              `json:"shape"`
	Label          string              `json:"label,omitempty"`
	Measurement    measure.Measurement `json:"measurement"`
	ScaleLabel     string              `json:"scaleLabel,omitempty"`
	PixelsPerMeter float64             `json:"pixelsPerMeter"`
	RecordedAt     time.Time           `json:"recordedAt"`
}

func viewRecords(recs []storage.Record) []recordView {
	out := make([]recordView, 0, len(recs))
	for _, r := range recs {
		out = append(out, recordView{
			ID:             r.ID,
			Shape:          r.ShapeID,
			Label:          r.Label,
			Measurement:    r.Measurement,
			ScaleLabel:     r.Scale.Label,
			PixelsPerMeter: r.Scale.PixelsPerMeter,
			RecordedAt:     r.RecordedAt,
		})
	}
	return out
}

func (a *app) history(ctx context.Context, args []string) error {
	fs, cfgPath := newFlags("history")
	shape := fs.String("shape", "", "show the history of one shape")
	limit := fs.Int("limit", 20, "maximum records per shape")
	prune := fs.Int("prune", 0, "keep only the newest n records per shape")
	path, err := parsePlanArg(fs, args)
	if err != nil {
		return err
	}
	ctx, ws, err := a.open(ctx, *cfgPath, path)
	if err != nil {
		return err
	}
	h, err := a.openHistory(ws)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	switch {
	case *prune > 0:
		n, err := h.Prune(ctx, ws.name, *prune)
		if err != nil {
			return err
		}
		return a.writeJSON(map[string]int64{"pruned": n})
	case *shape != "":
		recs, err := h.ShapeHistory(ctx, ws.name, *shape, *limit)
		if err != nil {
			return err
		}
		return a.writeJSON(viewRecords(recs))
	default:
		recs, err := h.Latest(ctx, ws.name)
		if err != nil {
			return err
		}
		return a.writeJSON(viewRecords(recs))
	}
}

func (a *app) report(ctx context.Context, args []string) error {
	fs, cfgPath := newFlags("report")
	outPath := fs.String("o", "", "output PDF (default: next to the plan)")
	sheet := fs.Bool("sheet", false, "append a plan sheet with dimensions")
	page := fs.String("page", "", "page size, overrides the config")
	orientation := fs.String("orientation", "", "P or L, overrides the config")
	path, err := parsePlanArg(fs, args)
	if err != nil {
		return err
	}
	ctx, ws, err := a.open(ctx, *cfgPath, path)
	if err != nil {
		return err
	}

	in := report.Input{Plan: ws.name, Scale: ws.doc.Scale}
	for _, m := range ws.measureAll(ctx) {
		if m.err != nil {
			a.log.WarnContext(applog.WithShape(ctx, m.shape.ID), "shape left out of report", slog.Any("err", m.err))
			continue
		}
		in.Rows = append(in.Rows, report.Row{ShapeID: m.shape.ID, Label: m.shape.Label, Measurement: m.result.Measurement})
		in.Shapes = append(in.Shapes, report.Placed{ID: m.shape.ID, Shape: m.geom})
		in.Dimensions = append(in.Dimensions, m.result.Dimensions...)
	}

	opts := report.Options{
		PageSize:    ws.cfg.Report.PageSize,
		Orientation: ws.cfg.Report.Orientation,
		IncludePlan: *sheet,
		ShapeColor:  color.NRGBA{R: 0x37, G: 0x47, B: 0x4f, A: 0xff},
	}
	if *page != "" {
		opts.PageSize = *page
	}
	if *orientation != "" {
		opts.Orientation = *orientation
	}
	dest := *outPath
	if dest == "" {
		dest = strings.TrimSuffix(ws.path, filepath.Ext(ws.path)) + ".pdf"
	}
	if err := report.WriteFile(dest, in, opts); err != nil {
		return err
	}
	a.log.InfoContext(ctx, "report written", slog.String("path", dest), slog.Int("rows", len(in.Rows)))
	_, _ = fmt.Fprintln(a.out, "Wrote report to", dest)
	return nil
}

func (a *app) schema(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: schema takes no arguments", errUsage)
	}
	_, err := a.out.Write(plan.Schema())
	return err
}
