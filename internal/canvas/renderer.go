/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import "dashcanvas/internal/domain"

// Renderer is the visual surface the controller paints onto. It decouples
// the geometry core from any specific UI toolkit; the Fyne shell and the
// test doubles both implement it.
//
// ApplyGeometry is called per frame for the widget being manipulated.
// SyncDocument is called after wholesale document changes (load, undo,
// redo, add, delete, arrange) and must repaint everything.
type Renderer interface {
	ApplyGeometry(id string, pos domain.Position, size domain.Dimensions, z int)
	SetViewport(zoom float64, offset domain.Viewport)
	SetSelection(id string)
	ShowSnapGuides(x, y *float64)
	ClearSnapGuides()
	SyncDocument(doc *domain.Document)
}

// Persister receives committed documents at gesture boundaries. Calls must
// not block: implementations debounce and write asynchronously, and their
// failures are logged rather than surfaced to the interaction layer.
type Persister interface {
	Persist(doc *domain.Document)
}

// NopRenderer discards all paint calls. Useful for headless operation
// (CLI batch edits) and as an embeddable default in tests.
type NopRenderer struct{}

func (NopRenderer) ApplyGeometry(string, domain.Position, domain.Dimensions, int) {}
func (NopRenderer) SetViewport(float64, domain.Viewport)                          {}
func (NopRenderer) SetSelection(string)                                           {}
func (NopRenderer) ShowSnapGuides(*float64, *float64)                             {}
func (NopRenderer) ClearSnapGuides()                                              {}
func (NopRenderer) SyncDocument(*domain.Document)                                 {}

// NopPersister drops documents on the floor.
type NopPersister struct{}

func (NopPersister) Persist(*domain.Document) {}
