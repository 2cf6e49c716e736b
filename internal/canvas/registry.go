/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"sort"
	"sync"

	"dashcanvas/internal/domain"
)

// DefaultWidgetSize is used for widget types with no registered definition.
// Widget.Type is an open tag: unknown types still get placed and sized.
var DefaultWidgetSize = domain.Dimensions{W: 200, H: 150}

// WidgetDefinition describes a widget type for the geometry core: only the
// default size matters here. Content rendering lives entirely outside.
type WidgetDefinition struct {
	DefaultSize domain.Dimensions
}

// Registry resolves widget type tags to definitions. Safe for concurrent
// registration (plugins may register at init time from several packages).
type Registry struct {
	mu   sync.RWMutex
	defs map[string]WidgetDefinition
}

// NewRegistry returns a registry pre-seeded with the built-in widget types.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]WidgetDefinition)}
	for typ, def := range map[string]WidgetDefinition{
		"text":    {DefaultSize: domain.Dimensions{W: 240, H: 120}},
		"image":   {DefaultSize: domain.Dimensions{W: 320, H: 240}},
		"clock":   {DefaultSize: domain.Dimensions{W: 200, H: 100}},
		"weather": {DefaultSize: domain.Dimensions{W: 260, H: 180}},
		"sensor":  {DefaultSize: domain.Dimensions{W: 200, H: 140}},
		"chat":    {DefaultSize: domain.Dimensions{W: 320, H: 400}},
	} {
		r.defs[typ] = def
	}
	return r
}

// Register adds or replaces a widget type definition.
func (r *Registry) Register(typ string, def WidgetDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[typ] = def
}

// Types lists the registered widget type tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for typ := range r.defs {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// DefaultSize returns the default size for a type, falling back to
// DefaultWidgetSize for unknown tags.
func (r *Registry) DefaultSize(typ string) domain.Dimensions {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.defs[typ]; ok && def.DefaultSize.W > 0 && def.DefaultSize.H > 0 {
		return def.DefaultSize
	}
	return DefaultWidgetSize
}
