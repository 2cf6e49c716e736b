/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Sibling snap engine for interactive drag and resize. The moving rect is
// scanned against every sibling; candidates within SnapThreshold win. Within
// one sibling the first matching edge pair per axis wins, but a later
// sibling overwrites an earlier sibling's candidate. Snap results therefore
// depend on sibling iteration order, not on closest distance. That matches
// the long-standing editor behavior and is covered by tests; do not "fix"
// it to closest-match without revisiting those.

import (
	"math"
	"strings"
)

// SnapThreshold is the maximum edge distance (in unscaled canvas units) at
// which snapping engages. Distances equal to or above it do not snap.
const SnapThreshold = 15

// Candidates holds independent snap proposals per property. A nil field
// means no candidate was found for it.
type Candidates struct {
	X *float64
	Y *float64
	W *float64
	H *float64
}

func fptr(v float64) *float64 { return &v }

func within(a, b, threshold float64) bool {
	return math.Abs(a-b) < threshold
}

// EdgeCandidates computes drag-snap candidates for a moving rect (with its
// proposed position already applied) against its siblings.
func EdgeCandidates(moving Rect, siblings []Rect, threshold float64) Candidates {
	if threshold <= 0 {
		threshold = SnapThreshold
	}
	var c Candidates
	for _, s := range siblings {
		// Horizontal: abutting edges take priority over aligned edges.
		switch {
		case within(moving.Left(), s.Right(), threshold):
			c.X = fptr(s.Right())
		case within(moving.Right(), s.Left(), threshold):
			c.X = fptr(s.Left() - moving.W)
		case within(moving.Left(), s.Left(), threshold):
			c.X = fptr(s.Left())
		case within(moving.Right(), s.Right(), threshold):
			c.X = fptr(s.Right() - moving.W)
		}
		// Vertical mirrors the horizontal logic with top/bottom edges.
		switch {
		case within(moving.Top(), s.Bottom(), threshold):
			c.Y = fptr(s.Bottom())
		case within(moving.Bottom(), s.Top(), threshold):
			c.Y = fptr(s.Top() - moving.H)
		case within(moving.Top(), s.Top(), threshold):
			c.Y = fptr(s.Top())
		case within(moving.Bottom(), s.Bottom(), threshold):
			c.Y = fptr(s.Bottom() - moving.H)
		}
		// Size matching only applies when the rects share extent on the
		// perpendicular axis.
		if moving.OverlapsVertically(s) && within(moving.W, s.W, threshold) {
			c.W = fptr(s.W)
		}
		if moving.OverlapsHorizontally(s) && within(moving.H, s.H, threshold) {
			c.H = fptr(s.H)
		}
	}
	return c
}

// Direction encodes the active resize handle as a compass string containing
// 'n', 's', 'e', 'w' ("n", "se", "nw", ...).
type Direction string

func (d Direction) North() bool { return strings.Contains(string(d), "n") }
func (d Direction) South() bool { return strings.Contains(string(d), "s") }
func (d Direction) East() bool  { return strings.Contains(string(d), "e") }
func (d Direction) West() bool  { return strings.Contains(string(d), "w") }

// RefineResize snaps the dragged edge(s) of a tentative resize rect to
// nearby sibling edges, closing the gap exactly. North/west handles move the
// anchor corner, so those also adjust position. Adjustments that would
// violate the minimum size are discarded.
func RefineResize(r Rect, dir Direction, siblings []Rect, threshold float64) Rect {
	if threshold <= 0 {
		threshold = SnapThreshold
	}
	out := r
	for _, s := range siblings {
		if dir.East() {
			if edge, ok := nearestEdge(r.Right(), s.Left(), s.Right(), threshold); ok && edge-out.X >= MinWidth {
				out.W = edge - out.X
			}
		}
		if dir.West() {
			if edge, ok := nearestEdge(r.Left(), s.Right(), s.Left(), threshold); ok && r.Right()-edge >= MinWidth {
				out.X = edge
				out.W = r.Right() - edge
			}
		}
		if dir.South() {
			if edge, ok := nearestEdge(r.Bottom(), s.Top(), s.Bottom(), threshold); ok && edge-out.Y >= MinHeight {
				out.H = edge - out.Y
			}
		}
		if dir.North() {
			if edge, ok := nearestEdge(r.Top(), s.Bottom(), s.Top(), threshold); ok && r.Bottom()-edge >= MinHeight {
				out.Y = edge
				out.H = r.Bottom() - edge
			}
		}
	}
	return out
}

// nearestEdge checks the two candidate sibling edges against the dragged
// edge position, preferring the first (the abutting edge).
func nearestEdge(dragged, primary, secondary, threshold float64) (float64, bool) {
	if within(dragged, primary, threshold) {
		return primary, true
	}
	if within(dragged, secondary, threshold) {
		return secondary, true
	}
	return 0, false
}
