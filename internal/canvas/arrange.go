/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"dashcanvas/internal/geom"
	"dashcanvas/internal/history"
)

// arrangeGutter is the spacing between widgets laid out by AutoArrange, in
// unscaled canvas units.
const arrangeGutter = 10

// AutoArrange repositions every widget into a left-to-right flow layout:
// widgets keep their sizes and array order, wrap to a new row when the next
// one would overflow the visible row width, and land on grid-snapped
// positions. One undoable action regardless of widget count.
func (c *Controller) AutoArrange() {
	if c.locked || len(c.doc.Widgets) == 0 {
		return
	}
	rowWidth := c.viewW / c.doc.Zoom
	x, y := float64(arrangeGutter), float64(arrangeGutter)
	rowH := 0.0
	for i := range c.doc.Widgets {
		w := &c.doc.Widgets[i]
		sz := geom.ConstrainSize(geom.Size{W: w.Size.W, H: w.Size.H})
		if x > arrangeGutter && x+sz.W+arrangeGutter > rowWidth {
			x = arrangeGutter
			y += rowH + arrangeGutter
			rowH = 0
		}
		w.Position.X = geom.SnapToGrid(x, c.doc.Grid)
		w.Position.Y = geom.SnapToGrid(y, c.doc.Grid)
		w.Size.W, w.Size.H = sz.W, sz.H
		w.Meta.UpdatedAt = c.clock()
		x += sz.W + arrangeGutter
		if sz.H > rowH {
			rowH = sz.H
		}
	}
	c.renderer.SyncDocument(c.doc)
	c.commit(history.KindArrange)
}
