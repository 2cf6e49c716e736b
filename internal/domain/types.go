/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for dashboard documents: one
// Document per dashboard, holding placed widgets and view settings.
// Everything serializes to a human-readable JSON manifest.

import (
	"encoding/json"
	"time"
)

// Zoom bounds shared by wheel zoom and pinch zoom.
const (
	MinZoom = 0.1
	MaxZoom = 3.0
)

// DefaultGrid is the snap pitch (in canvas units) for new dashboards.
const DefaultGrid = 8

// Position is a widget's top-left corner in unscaled canvas units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dimensions is a width/height pair in unscaled canvas units.
type Dimensions struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// AutoSize marks dimensions the widget renderer may grow on its own.
// Advisory only; the geometry core never reads it.
type AutoSize struct {
	Width  bool `json:"width"`
	Height bool `json:"height"`
}

// Viewport is the pan offset of the canvas in screen pixels.
type Viewport struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Meta tracks widget lifecycle timestamps. UpdatedAt is bumped on every
// geometry or content mutation.
type Meta struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Widget is one placed, positioned, resizable element on the canvas.
// Type is an open tag resolved through the widget registry; Content is an
// opaque payload owned by the widget-type renderer.
type Widget struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Position Position        `json:"position"`
	Size     Dimensions      `json:"size"`
	AutoSize AutoSize        `json:"autoSize,omitempty"`
	Z        int             `json:"z"`
	Content  json.RawMessage `json:"content,omitempty"`
	Meta     Meta            `json:"meta"`
}

// Document is the serializable state of one dashboard. Exactly one Document
// is active in an editor at a time; it is owned by the interaction/history
// subsystem while open.
type Document struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Widgets           []Widget  `json:"widgets"`
	Theme             string    `json:"theme,omitempty"`
	BackgroundPattern string    `json:"backgroundPattern,omitempty"`
	Grid              float64   `json:"grid"`
	Zoom              float64   `json:"zoom"`
	Viewport          Viewport  `json:"viewport"`
	Version           int       `json:"version"`
}

// NewDocument returns an empty dashboard with default view settings.
func NewDocument(id, name string) *Document {
	return &Document{
		ID:      id,
		Name:    name,
		Widgets: []Widget{},
		Grid:    DefaultGrid,
		Zoom:    1.0,
		Version: 1,
	}
}

// Clone returns a structural deep copy. History snapshots must never alias
// live documents, so every reference field is copied explicitly rather than
// round-tripped through serialization.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Widgets = make([]Widget, len(d.Widgets))
	for i, w := range d.Widgets {
		c.Widgets[i] = w.Clone()
	}
	return &c
}

// Clone deep-copies a widget, including its opaque content bytes.
func (w Widget) Clone() Widget {
	c := w
	if w.Content != nil {
		c.Content = make(json.RawMessage, len(w.Content))
		copy(c.Content, w.Content)
	}
	return c
}

// WidgetByID returns a pointer into Widgets, or nil when the id is unknown.
// Lookup misses are a silent no-op throughout the interaction core.
func (d *Document) WidgetByID(id string) *Widget {
	for i := range d.Widgets {
		if d.Widgets[i].ID == id {
			return &d.Widgets[i]
		}
	}
	return nil
}

// RemoveWidget deletes the widget with the given id and reports whether it
// was present.
func (d *Document) RemoveWidget(id string) bool {
	for i := range d.Widgets {
		if d.Widgets[i].ID == id {
			d.Widgets = append(d.Widgets[:i], d.Widgets[i+1:]...)
			return true
		}
	}
	return false
}

// MaxZ returns the highest z value among widgets, or -1 when empty.
func (d *Document) MaxZ() int {
	maxZ := -1
	for i := range d.Widgets {
		if d.Widgets[i].Z > maxZ {
			maxZ = d.Widgets[i].Z
		}
	}
	return maxZ
}

// ClampZoom bounds a zoom factor to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
