/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom provides the geometry primitives of the canvas engine:
// points, rectangles, grid quantization, size clamping, and the sibling
// snap engine. Everything here is pure and deterministic so the
// interaction layer stays unit-testable without a UI.
package geom

import "math"

// Minimum widget dimensions enforced by ConstrainSize. There is no upper
// bound here; type-specific maxima belong to widget renderers.
const (
	MinWidth  = 50
	MinHeight = 30
)

// Pt is a 2D point in canvas or screen units depending on context.
type Pt struct{ X, Y float64 }

// Size is a width/height pair.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle defined by its top-left corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.H }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// OverlapsVertically reports whether the vertical extents of two rects
// intersect. Used to gate width matching in the snap engine.
func (r Rect) OverlapsVertically(o Rect) bool {
	return r.Top() < o.Bottom() && r.Bottom() > o.Top()
}

// OverlapsHorizontally reports whether the horizontal extents intersect.
func (r Rect) OverlapsHorizontally(o Rect) bool {
	return r.Left() < o.Right() && r.Right() > o.Left()
}

// SnapToGrid rounds v to the nearest multiple of grid. A non-positive grid
// disables quantization. Idempotent: SnapToGrid(SnapToGrid(v,g),g) ==
// SnapToGrid(v,g).
func SnapToGrid(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// ConstrainSize clamps a size to the minimum widget dimensions. Total over
// all inputs, including zero and negative values.
func ConstrainSize(sz Size) Size {
	if sz.W < MinWidth {
		sz.W = MinWidth
	}
	if sz.H < MinHeight {
		sz.H = MinHeight
	}
	return sz
}
