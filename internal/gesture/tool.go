/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"context"
	"fmt"
	"log/slog"

	"siteplan/internal/geom"
	"siteplan/internal/measure"
)

// ToolKind selects what a drawing tool produces.
type ToolKind string

const (
	ToolRectangle ToolKind = "rectangle"
	ToolPolygon   ToolKind = "polygon"
	ToolLine      ToolKind = "line"
	ToolCircle    ToolKind = "circle"
)

// State of a drawing tool.
// Idle: waiting for the first press; Drawing: collecting points;
// Committing: the finished shape is being handed to the host.
type State int

const (
	Idle State = iota
	Drawing
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Committing:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Tool is the state machine of one drawing tool. All input points are
// canvas coordinates and are snapped through the engine. A Tool is owned by
// the host and is not safe for concurrent use.
type Tool struct {
	kind   ToolKind
	engine *Engine
	state  State
	points []geom.Pt
	cursor geom.Pt
	// OnCommit, when set, is called in the Committing state with the finished
	// shape. The tool returns to Idle whatever it returns.
	OnCommit func(Result) error
}

func NewTool(kind ToolKind, e *Engine) (*Tool, error) {
	switch kind {
	case ToolRectangle, ToolPolygon, ToolLine, ToolCircle:
	default:
		return nil, fmt.Errorf("unknown tool %q", kind)
	}
	return &Tool{kind: kind, engine: e}, nil
}

func (t *Tool) Kind() ToolKind { return t.kind }
func (t *Tool) State() State   { return t.state }

// Points returns a copy of the collected points.
func (t *Tool) Points() []geom.Pt { return append([]geom.Pt(nil), t.points...) }

// Press starts a shape, or adds a vertex while a polygon is being drawn.
// A press that repeats the previous polygon vertex is ignored so the first
// click of a double click does not add a duplicate.
func (t *Tool) Press(p geom.Pt) {
	p = t.engine.SnapPoint(p)
	t.cursor = p
	switch t.state {
	case Idle:
		t.points = []geom.Pt{p}
		t.state = Drawing
	case Drawing:
		if t.kind == ToolPolygon && p != t.points[len(t.points)-1] {
			t.points = append(t.points, p)
		}
	}
}

// Hover tracks the pointer while drawing.
func (t *Tool) Hover(p geom.Pt) {
	if t.state == Drawing {
		t.cursor = t.engine.SnapPoint(p)
	}
}

// Preview returns the in-progress shape including the pointer position.
func (t *Tool) Preview() (measure.Shape, bool) {
	if t.state != Drawing {
		return nil, false
	}
	if t.kind == ToolPolygon {
		pts := t.Points()
		if t.cursor != pts[len(pts)-1] {
			pts = append(pts, t.cursor)
		}
		return measure.Polygon{Points: pts}, true
	}
	return t.shapeTo(t.cursor), true
}

// Release finishes a rectangle, line or circle at p. A release on the press
// position discards the shape and returns ok=false. Polygon tools ignore
// releases; they finish on DoubleClick.
func (t *Tool) Release(ctx context.Context, id string, p geom.Pt) (res Result, ok bool, err error) {
	if t.state != Drawing || t.kind == ToolPolygon {
		return Result{}, false, nil
	}
	p = t.engine.SnapPoint(p)
	if p == t.points[0] {
		t.reset()
		return Result{}, false, nil
	}
	return t.commit(ctx, id, t.shapeTo(p))
}

// DoubleClick finishes a polygon. Fewer than three distinct vertices is
// reported as degenerate and the tool keeps drawing.
func (t *Tool) DoubleClick(ctx context.Context, id string, p geom.Pt) (Result, bool, error) {
	if t.state != Drawing || t.kind != ToolPolygon {
		return Result{}, false, nil
	}
	t.Press(p)
	if err := geom.CheckPolygon(t.points); err != nil {
		return Result{}, false, err
	}
	local, xf := geom.Normalize(t.points)
	return t.commit(ctx, id, measure.Polygon{Points: local, Transform: xf})
}

// Cancel abandons the current shape. Nothing has been created yet so there
// is nothing to roll back.
func (t *Tool) Cancel() { t.reset() }

func (t *Tool) reset() {
	t.state = Idle
	t.points = nil
	t.cursor = geom.Pt{}
}

func (t *Tool) commit(ctx context.Context, id string, s measure.Shape) (Result, bool, error) {
	t.state = Committing
	defer t.reset()
	res, err := t.engine.Modified(ctx, id, s)
	if err != nil {
		return Result{}, false, err
	}
	if t.OnCommit != nil {
		if err := t.OnCommit(res); err != nil {
			return Result{}, false, fmt.Errorf("commit %s: %w", t.kind, err)
		}
	}
	t.engine.log.DebugContext(ctx, "shape committed", slog.String("tool", string(t.kind)), slog.String("id", id))
	return res, true, nil
}

// shapeTo builds the two-point shape from the press position to p.
func (t *Tool) shapeTo(p geom.Pt) measure.Shape {
	a := t.points[0]
	switch t.kind {
	case ToolLine:
		return measure.Line{X1: a.X, Y1: a.Y, X2: p.X, Y2: p.Y}
	case ToolCircle:
		return measure.Circle{Center: a, Radius: a.Dist(p), ScaleX: 1}
	default:
		b := geom.BoundsOf("", []geom.Pt{a, p}, geom.Identity)
		return measure.Rectangle{Left: b.X, Top: b.Y, Width: b.W, Height: b.H, ScaleX: 1, ScaleY: 1}
	}
}
