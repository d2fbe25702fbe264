/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import (
	"errors"
	"testing"

	"siteplan/internal/geom"
)

func box(id string, x, y, w, h float64) geom.Rect {
	return geom.Rect{X: x, Y: y, W: w, H: h, ID: id}
}

func TestDetectGuides_HalfThresholdGivesOneVerticalGuide(t *testing.T) {
	const eps = 6.0
	other := box("a", 100, 0, 200, 50)
	moving := box("m", 100+eps/2, 400, 40, 30)

	guides, err := DetectGuides(moving, []geom.Rect{other}, eps)
	if err != nil {
		t.Fatalf("DetectGuides: %v", err)
	}
	if len(guides) != 1 {
		t.Fatalf("expected exactly one guide, got %+v", guides)
	}
	g := guides[0]
	if g.Orientation != Vertical || g.Feature != Left || g.Position != 100 || g.RelatedID != "a" {
		t.Fatalf("unexpected guide: %+v", g)
	}
	if g.Kind() != "edge" {
		t.Fatalf("Kind = %q", g.Kind())
	}
}

func TestDetectGuides_TwiceThresholdGivesNone(t *testing.T) {
	const eps = 6.0
	other := box("a", 100, 0, 200, 50)
	moving := box("m", 100+2*eps, 400, 40, 30)

	guides, err := DetectGuides(moving, []geom.Rect{other}, eps)
	if err != nil {
		t.Fatalf("DetectGuides: %v", err)
	}
	if len(guides) != 0 {
		t.Fatalf("expected no guides, got %+v", guides)
	}
}

func TestDetectGuides_ThresholdIsStrict(t *testing.T) {
	guides, _ := DetectGuides(box("m", 106, 400, 40, 30), []geom.Rect{box("a", 100, 0, 200, 50)}, 6)
	if len(guides) != 0 {
		t.Fatalf("a delta equal to the threshold must not match: %+v", guides)
	}
}

func TestDetectGuides_FirstShapeInOrderWins(t *testing.T) {
	// both shapes are within tolerance of the moving left edge; b is closer
	// but a comes first.
	a := box("a", 97, 0, 300, 10)
	b := box("b", 100, 500, 250, 10)
	moving := box("m", 100, 200, 40, 40)
	for i := 0; i < 3; i++ {
		guides, err := DetectGuides(moving, []geom.Rect{a, b}, 5)
		if err != nil {
			t.Fatalf("DetectGuides: %v", err)
		}
		if len(guides) != 1 || guides[0].RelatedID != "a" || guides[0].Position != 97 {
			t.Fatalf("expected deterministic match with a, got %+v", guides)
		}
	}
	guides, _ := DetectGuides(moving, []geom.Rect{b, a}, 5)
	if len(guides) != 1 || guides[0].RelatedID != "b" {
		t.Fatalf("reordering shapes should change the winner, got %+v", guides)
	}
}

func TestDetectGuides_VerticalAndHorizontalFromDifferentShapes(t *testing.T) {
	a := box("a", 0, 1000, 100, 100)   // left edge x=0
	b := box("b", 500, 300, 80, 60)    // top edge y=300
	moving := box("m", 2, 298, 30, 30) // near x=0 and y=300
	guides, err := DetectGuides(moving, []geom.Rect{a, b}, 5)
	if err != nil {
		t.Fatalf("DetectGuides: %v", err)
	}
	if len(guides) != 2 {
		t.Fatalf("expected two guides, got %+v", guides)
	}
	if guides[0].Orientation != Vertical || guides[0].RelatedID != "a" || guides[0].Position != 0 {
		t.Fatalf("unexpected vertical guide: %+v", guides[0])
	}
	if guides[1].Orientation != Horizontal || guides[1].RelatedID != "b" || guides[1].Position != 300 {
		t.Fatalf("unexpected horizontal guide: %+v", guides[1])
	}
	if guides[0].From.Y != 298 || guides[0].To.Y != 1100 {
		t.Fatalf("vertical guide extent wrong: %+v", guides[0])
	}
}

func TestDetectGuides_CenterMatch(t *testing.T) {
	panel := box("p", 0, 0, 200, 100)
	moving := box("m", 100-25+2, 500, 50, 20) // centre x = 102
	guides, _ := DetectGuides(moving, []geom.Rect{panel}, 5)
	if len(guides) != 1 || guides[0].Feature != CenterX || guides[0].Position != 100 || guides[0].Kind() != "center" {
		t.Fatalf("expected a centre guide at x=100, got %+v", guides)
	}
}

func TestDetectGuides_SkipsSelf(t *testing.T) {
	moving := box("m", 10, 10, 10, 10)
	guides, _ := DetectGuides(moving, []geom.Rect{moving}, 5)
	if len(guides) != 0 {
		t.Fatalf("the moving shape must not align with itself: %+v", guides)
	}
}

func TestDetectGuides_InvalidThreshold(t *testing.T) {
	if _, err := DetectGuides(box("m", 0, 0, 1, 1), nil, 0); !errors.Is(err, geom.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestAlign_ClampsOntoGuides(t *testing.T) {
	panel := box("p", 0, 0, 200, 100)
	snapped, guides, err := Align(box("m", 3, 4, 80, 40), []geom.Rect{panel}, 6)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if snapped.X != 0 || snapped.Y != 0 {
		t.Fatalf("expected snap to (0,0), got %+v", snapped)
	}
	if len(guides) != 2 {
		t.Fatalf("expected two guides, got %+v", guides)
	}

	// a right-edge match moves the box so its right edge lands on the guide
	moving := box("m", 150, 500, 48, 10)
	snapped, _, _ = Align(moving, []geom.Rect{box("q", 100, 0, 100, 10)}, 5)
	if snapped.Right() != 200 || snapped.W != 48 {
		t.Fatalf("expected right edge at 200, got %+v", snapped)
	}
}

func TestApplyGuides_IgnoresStaleGuides(t *testing.T) {
	g := Guide{Orientation: Vertical, Feature: Left, Position: 0}
	moving := box("m", 50, 0, 10, 10)
	if out := ApplyGuides(moving, []Guide{g}, 5); out != moving {
		t.Fatalf("stale guide should not move the box: %+v", out)
	}
}
