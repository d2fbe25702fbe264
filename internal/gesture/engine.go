/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package gesture runs the per-tick pipeline of an interactive edit: grid
// snap, alignment detection, position correction and re-measurement, in that
// order, inside one synchronous call. Nothing survives between ticks except
// what the caller keeps.
package gesture

import (
	"context"
	"fmt"
	"log/slog"

	"siteplan/internal/dimension"
	"siteplan/internal/geom"
	applog "siteplan/internal/log"
	"siteplan/internal/measure"
	"siteplan/internal/snap"
	"siteplan/internal/units"
)

// DefaultAlignThreshold is the guide tolerance in pixels.
const DefaultAlignThreshold = 10.0

// Config is the editor configuration consumed by the engine. Grid.Enabled
// only controls whether the host draws the grid; SnapToGrid decides whether
// positions are snapped.
type Config struct {
	Scale          units.Scale
	Grid           snap.GridConfig
	SnapToGrid     bool
	AutoAlign      bool
	AlignThreshold float64
	Dimension      dimension.Options
}

// Validate checks every value the enabled features depend on.
func (c Config) Validate() error {
	if err := c.Scale.Validate(); err != nil {
		return err
	}
	if c.SnapToGrid {
		if err := (snap.GridConfig{Size: c.Grid.Size, Enabled: true}).Validate(); err != nil {
			return err
		}
	}
	if c.AutoAlign && !(c.AlignThreshold > 0) {
		return fmt.Errorf("align threshold %v: %w", c.AlignThreshold, geom.ErrInvalidConfiguration)
	}
	return nil
}

// Engine is stateless apart from its configuration.
type Engine struct {
	cfg Config
	log *slog.Logger
}

// NewEngine validates cfg. Zero dimension options pick the defaults; the
// dimension scale always follows cfg.Scale.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Dimension == (dimension.Options{}) {
		cfg.Dimension = dimension.DefaultOptions(cfg.Scale)
	}
	cfg.Dimension.Scale = cfg.Scale
	return &Engine{cfg: cfg, log: applog.WithComponent("gesture")}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Result is the outcome of one tick for the shape being edited.
type Result struct {
	ID string
	// Shape is the corrected geometry the host should apply.
	Shape measure.Shape
	// Box is the corrected canvas bounding box.
	Box geom.Rect
	// Offset is the total translation applied relative to the input shape.
	Offset      geom.Pt
	Guides      []snap.Guide
	Measurement measure.Measurement
	Dimensions  []dimension.Dimension
}

// SnapPoint snaps p to the grid when snapping is on.
func (e *Engine) SnapPoint(p geom.Pt) geom.Pt {
	if !e.cfg.SnapToGrid {
		return p
	}
	q, err := snap.SnapToGrid(p, snap.GridConfig{Size: e.cfg.Grid.Size, Enabled: true})
	if err != nil {
		return p
	}
	return q
}

// Move handles a drag tick: shape is the geometry before the drag started
// and delta the raw pointer displacement. others are the bounding boxes of
// the shapes eligible for alignment; auxiliary shapes must not be among them.
func (e *Engine) Move(ctx context.Context, id string, shape measure.Shape, delta geom.Pt, others []geom.Rect) (Result, error) {
	start := measure.Bounds(id, shape)
	target := e.SnapPoint(start.Min().Add(delta))
	box := geom.Rect{X: target.X, Y: target.Y, W: start.W, H: start.H, ID: id}

	var guides []snap.Guide
	if e.cfg.AutoAlign {
		var err error
		box, guides, err = snap.Align(box, others, e.cfg.AlignThreshold)
		if err != nil {
			return Result{}, err
		}
	}
	offset := box.Min().Sub(start.Min())
	moved, err := measure.Translate(shape, offset)
	if err != nil {
		return Result{}, err
	}
	res, err := e.evaluate(ctx, id, moved)
	if err != nil {
		return Result{}, err
	}
	res.Offset = offset
	res.Guides = guides
	if len(guides) > 0 {
		e.log.DebugContext(applog.WithShape(ctx, id), "aligned", slog.Int("guides", len(guides)),
			slog.Float64("dx", offset.X), slog.Float64("dy", offset.Y))
	}
	return res, nil
}

// Modified re-measures a shape after a scale, rotate or vertex edit. No
// snapping or alignment is applied.
func (e *Engine) Modified(ctx context.Context, id string, shape measure.Shape) (Result, error) {
	return e.evaluate(ctx, id, shape)
}

func (e *Engine) evaluate(ctx context.Context, id string, shape measure.Shape) (Result, error) {
	m, err := measure.Measure(shape, e.cfg.Scale)
	if err != nil {
		e.log.WarnContext(applog.WithShape(ctx, id), "measure failed", slog.Any("err", err))
		return Result{}, err
	}
	dims, err := dimension.ForShape(id, shape, e.cfg.Dimension)
	if err != nil {
		return Result{}, err
	}
	return Result{
		ID:          id,
		Shape:       shape,
		Box:         measure.Bounds(id, shape),
		Measurement: m,
		Dimensions:  dims,
	}, nil
}

// Annotate measures shape and swaps its dimensions in set. It returns the
// replaced dimensions so the host can drop their primitives.
func (e *Engine) Annotate(ctx context.Context, set *dimension.Set, id string, shape measure.Shape) (Result, []dimension.Dimension, error) {
	res, err := e.evaluate(ctx, id, shape)
	if err != nil {
		return Result{}, nil, err
	}
	return res, set.Replace(id, res.Dimensions), nil
}
