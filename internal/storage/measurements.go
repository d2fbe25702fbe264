/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	applog "siteplan/internal/log"
	"siteplan/internal/measure"
)

// timeLayout is fixed width so recorded_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// language=SQL
// dialect=SQLite
const insertMeasurementSQL = `INSERT INTO measurements(plan, shape_id, label, kind, area, perimeter, diameter, length, pixels_per_meter, scale_label, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const measurementColumns = `id, plan, shape_id, COALESCE(label, ''), kind, area, perimeter, diameter, length, pixels_per_meter, COALESCE(scale_label, ''), recorded_at`

// language=SQL
// dialect=SQLite
const selectLatestPerShapeSQL = `SELECT ` + measurementColumns + ` FROM measurements m
WHERE plan = ? AND id = (SELECT MAX(id) FROM measurements WHERE plan = m.plan AND shape_id = m.shape_id)
ORDER BY shape_id`

// language=SQL
// dialect=SQLite
const selectShapeHistorySQL = `SELECT ` + measurementColumns + ` FROM measurements
WHERE plan = ? AND shape_id = ? ORDER BY id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const listPlansSQL = `SELECT plan, COUNT(*), MAX(recorded_at) FROM measurements GROUP BY plan ORDER BY plan`

// language=SQL
// dialect=SQLite
const pruneShapeHistorySQL = `DELETE FROM measurements WHERE plan = ? AND id NOT IN (
	SELECT id FROM measurements m WHERE m.plan = measurements.plan AND m.shape_id = measurements.shape_id ORDER BY id DESC LIMIT ?
)`

// Append stores recs in one transaction. Plan and RecordedAt are filled in
// when empty.
func (h *History) Append(ctx context.Context, plan string, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertMeasurementSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()
	for _, r := range recs {
		if r.Plan == "" {
			r.Plan = plan
		}
		if r.RecordedAt.IsZero() {
			r.RecordedAt = now
		}
		m := r.Measurement
		if _, err := stmt.ExecContext(ctx, r.Plan, r.ShapeID, nullable(r.Label), string(m.Kind), m.Area, m.Perimeter, m.Diameter, m.Length,
			r.Scale.PixelsPerMeter, nullable(r.Scale.Label), r.RecordedAt.UTC().Format(timeLayout)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append %s: %w", r.ShapeID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	applog.WithOperation(h.log, "append").DebugContext(applog.WithPlan(ctx, plan), "measurements stored", slog.Int("count", len(recs)))
	return nil
}

// Latest returns the most recent record of every shape of plan, by shape id.
func (h *History) Latest(ctx context.Context, plan string) ([]Record, error) {
	rows, err := h.db.QueryContext(ctx, selectLatestPerShapeSQL, plan)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	return scanRecords(rows)
}

// ShapeHistory returns up to limit records of one shape, newest first.
func (h *History) ShapeHistory(ctx context.Context, plan, shapeID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, selectShapeHistorySQL, plan, shapeID, limit)
	if err != nil {
		return nil, fmt.Errorf("query shape history: %w", err)
	}
	return scanRecords(rows)
}

// PlanSummary is one line of Plans.
type PlanSummary struct {
	Plan     string
	Records  int
	LastSeen time.Time
}

// Plans lists every plan with stored measurements.
func (h *History) Plans(ctx context.Context) ([]PlanSummary, error) {
	rows, err := h.db.QueryContext(ctx, listPlansSQL)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()
	var out []PlanSummary
	for rows.Next() {
		var s PlanSummary
		var ts string
		if err := rows.Scan(&s.Plan, &s.Records, &ts); err != nil {
			return nil, err
		}
		s.LastSeen, _ = time.Parse(timeLayout, ts)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Prune keeps the newest keep records per shape of plan and returns the
// number of deleted rows.
func (h *History) Prune(ctx context.Context, plan string, keep int) (int64, error) {
	if keep < 0 {
		return 0, errors.New("keep must be >= 0")
	}
	res, err := h.db.ExecContext(ctx, pruneShapeHistorySQL, plan, keep)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return res.RowsAffected()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		var kind, ts string
		if err := rows.Scan(&r.ID, &r.Plan, &r.ShapeID, &r.Label, &kind, &r.Measurement.Area, &r.Measurement.Perimeter,
			&r.Measurement.Diameter, &r.Measurement.Length, &r.Scale.PixelsPerMeter, &r.Scale.Label, &ts); err != nil {
			return nil, err
		}
		r.Measurement.Kind = measure.Kind(kind)
		r.RecordedAt, _ = time.Parse(timeLayout, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
