/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Workspace is the root of the persisted manifest (canvas.json): a set of
// dashboards plus which one is active. Version is bumped on
// backward-incompatible manifest changes.
type Workspace struct {
	Version    int        `json:"version"`
	Active     string     `json:"active,omitempty"`
	Dashboards []Document `json:"dashboards"`
}

// WorkspaceVersion is the current manifest format version.
const WorkspaceVersion = 1

// NewWorkspace returns an empty workspace at the current version.
func NewWorkspace() Workspace {
	return Workspace{Version: WorkspaceVersion, Dashboards: []Document{}}
}

// DashboardByID returns the dashboard with the given id, or nil.
func (w *Workspace) DashboardByID(id string) *Document {
	for i := range w.Dashboards {
		if w.Dashboards[i].ID == id {
			return &w.Dashboards[i]
		}
	}
	return nil
}

// UpsertDashboard replaces the stored dashboard with the same ID, or
// appends it when new.
func (w *Workspace) UpsertDashboard(d Document) {
	for i := range w.Dashboards {
		if w.Dashboards[i].ID == d.ID {
			w.Dashboards[i] = d
			return
		}
	}
	w.Dashboards = append(w.Dashboards, d)
}

// ActiveDashboard returns the active dashboard, falling back to the first
// one when Active is unset or stale. Returns nil for an empty workspace.
func (w *Workspace) ActiveDashboard() *Document {
	if d := w.DashboardByID(w.Active); d != nil {
		return d
	}
	if len(w.Dashboards) > 0 {
		return &w.Dashboards[0]
	}
	return nil
}
