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
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"siteplan/internal/measure"
	"siteplan/internal/units"

	_ "modernc.org/sqlite"
)

var tenPPM = units.Scale{Label: "1:100", PixelsPerMeter: 10}

func openTemp(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "data", "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func rect(id string, area, perim float64) Record {
	return Record{ShapeID: id, Measurement: measure.Measurement{Kind: measure.KindRectangle, Area: area, Perimeter: perim}, Scale: tenPPM}
}

func TestOpenFreshHistory(t *testing.T) {
	h := openTemp(t)
	v, err := h.SchemaVersion(context.Background())
	if err != nil || v != schemaVersion {
		t.Fatalf("schema version: %d err=%v", v, err)
	}
	if _, err := OpenHistory("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestAppendAndLatest(t *testing.T) {
	h := openTemp(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	first := []Record{rect("house", 300, 70), rect("shed", 12, 14)}
	first[0].Label = "House"
	first[0].RecordedAt = t0
	if err := h.Append(ctx, "lot-7", first); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := h.Append(ctx, "lot-7", []Record{rect("house", 320, 72)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := h.Append(ctx, "other", []Record{rect("house", 1, 4)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	latest, err := h.Latest(ctx, "lot-7")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 2 || latest[0].ShapeID != "house" || latest[0].Measurement.Area != 320 || latest[1].ShapeID != "shed" {
		t.Fatalf("latest: %+v", latest)
	}
	if latest[0].Measurement.Kind != measure.KindRectangle || latest[0].Scale != tenPPM {
		t.Fatalf("round trip lost fields: %+v", latest[0])
	}

	hist, err := h.ShapeHistory(ctx, "lot-7", "house", 0)
	if err != nil {
		t.Fatalf("shape history: %v", err)
	}
	if len(hist) != 2 || hist[0].Measurement.Area != 320 || hist[1].Label != "House" || !hist[1].RecordedAt.Equal(t0) {
		t.Fatalf("shape history: %+v", hist)
	}

	plans, err := h.Plans(ctx)
	if err != nil {
		t.Fatalf("plans: %v", err)
	}
	if len(plans) != 2 || plans[0].Plan != "lot-7" || plans[0].Records != 3 || plans[1].Plan != "other" {
		t.Fatalf("plans: %+v", plans)
	}
}

func TestPrune(t *testing.T) {
	h := openTemp(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := h.Append(ctx, "lot", []Record{rect("a", float64(i), 0), rect("b", float64(i), 0)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	n, err := h.Prune(ctx, "lot", 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected 6 deleted rows, got %d", n)
	}
	hist, _ := h.ShapeHistory(ctx, "lot", "a", 10)
	if len(hist) != 2 || hist[0].Measurement.Area != 4 || hist[1].Measurement.Area != 3 {
		t.Fatalf("kept records: %+v", hist)
	}
	if _, err := h.Prune(ctx, "lot", -1); err == nil {
		t.Fatalf("expected error for negative keep")
	}
}

// TestMigrations_UpgradeV1ToV2 ensures that a v1 database without the label column is migrated.
func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE measurements (id INTEGER PRIMARY KEY, plan TEXT NOT NULL, shape_id TEXT NOT NULL, kind TEXT NOT NULL,
			area REAL NOT NULL DEFAULT 0, perimeter REAL NOT NULL DEFAULT 0, diameter REAL NOT NULL DEFAULT 0, length REAL NOT NULL DEFAULT 0,
			pixels_per_meter REAL NOT NULL, scale_label TEXT, recorded_at TEXT NOT NULL);`,
		`INSERT INTO measurements(plan, shape_id, kind, area, pixels_per_meter, recorded_at) VALUES('lot', 'old', 'rectangle', 5, 10, '2020-01-01T00:00:00.000000000Z');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	db.Close()

	h, err := OpenHistory(path)
	if err != nil {
		t.Fatalf("open after seed: %v", err)
	}
	defer h.Close()
	if v, _ := h.SchemaVersion(ctx); v != 2 {
		t.Fatalf("expected schema 2 after migration, got %d", v)
	}
	if err := h.Append(ctx, "lot", []Record{{ShapeID: "new", Label: "New", Measurement: measure.Measurement{Kind: measure.KindLine, Length: 3}, Scale: tenPPM}}); err != nil {
		t.Fatalf("append after migration: %v", err)
	}
	latest, err := h.Latest(ctx, "lot")
	if err != nil || len(latest) != 2 {
		t.Fatalf("latest after migration: %+v err=%v", latest, err)
	}
	if latest[0].ShapeID != "new" || latest[0].Label != "New" || latest[1].Label != "" || latest[1].Measurement.Area != 5 {
		t.Fatalf("migrated rows: %+v", latest)
	}
}
