/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dimension

import "sort"

// Set keeps the current annotations per shape id. Each shape's dimensions are
// replaced as a whole whenever the shape changes; they are never patched in
// place. A Set is owned by the host and is not safe for concurrent use.
type Set struct {
	byShape map[string][]Dimension
	// accounting
	total int
}

func NewSet() *Set { return &Set{byShape: make(map[string][]Dimension)} }

// Replace installs dims for shapeID and returns the previous dimensions, which
// the host must remove from its canvas. An empty dims removes the entry.
func (s *Set) Replace(shapeID string, dims []Dimension) []Dimension {
	prev := s.Remove(shapeID)
	if len(dims) == 0 {
		return prev
	}
	if s.byShape == nil {
		s.byShape = make(map[string][]Dimension)
	}
	s.byShape[shapeID] = dims
	s.total += len(dims)
	return prev
}

// Remove drops the dimensions of shapeID and returns them.
func (s *Set) Remove(shapeID string) []Dimension {
	prev, ok := s.byShape[shapeID]
	if !ok {
		return nil
	}
	delete(s.byShape, shapeID)
	s.total -= len(prev)
	return prev
}

// Get returns the dimensions of shapeID.
func (s *Set) Get(shapeID string) ([]Dimension, bool) {
	d, ok := s.byShape[shapeID]
	return d, ok
}

// Len reports the number of annotated shapes.
func (s *Set) Len() int { return len(s.byShape) }

// Count reports the number of dimensions across all shapes.
func (s *Set) Count() int { return s.total }

// Shapes lists annotated shape ids in sorted order.
func (s *Set) Shapes() []string {
	ids := make([]string, 0, len(s.byShape))
	for id := range s.byShape {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear drops everything and returns all removed dimensions.
func (s *Set) Clear() []Dimension {
	var out []Dimension
	for _, id := range s.Shapes() {
		out = append(out, s.byShape[id]...)
	}
	s.byShape = make(map[string][]Dimension)
	s.total = 0
	return out
}
