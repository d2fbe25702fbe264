/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "errors"

// Error taxonomy of the engine. Operations wrap these with context; callers
// match them with errors.Is and decide whether to skip a guide or annotation.
var (
	// ErrInvalidConfiguration reports a non-positive grid size, scale factor or threshold.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrDegenerateGeometry reports a polygon with fewer than three vertices or a zero-length edge.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)
