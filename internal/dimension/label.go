/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dimension

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"siteplan/internal/geom"
)

// LabelPadding is added on every side of the measured text box.
const LabelPadding = 3

// Metrics are font metrics in pixels for the label face.
type Metrics struct {
	Ascent, Descent float64
}

// FaceProvider resolves the face used to size dimension labels.
type FaceProvider interface {
	Face() (font.Face, Metrics)
}

// BasicFace uses x/image/basicfont Face7x13, which keeps label boxes
// deterministic without loading font files.
type BasicFace struct{}

func (BasicFace) Face() (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
	}
}

// MeasureLabel returns the unrotated width and height of text including padding.
func MeasureLabel(p FaceProvider, text string) (w, h float64) {
	if p == nil {
		p = BasicFace{}
	}
	face, met := p.Face()
	d := &font.Drawer{Face: face}
	w = float64(d.MeasureString(text).Ceil()) + 2*LabelPadding
	h = met.Ascent + met.Descent + 2*LabelPadding
	return w, h
}

// labelBox centres a w×h box on c.
func labelBox(c geom.Pt, w, h float64) geom.Rect {
	return geom.Rect{X: c.X - w/2, Y: c.Y - h/2, W: w, H: h}
}
