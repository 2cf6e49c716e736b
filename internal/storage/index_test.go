/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"dashcanvas/internal/domain"
)

func TestInitOrOpenIndexCreatesDatabase(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer db.Close()
	if _, err := os.Stat(IndexPath(root)); err != nil {
		t.Fatalf("index file missing: %v", err)
	}
	var schema int
	if err := db.QueryRow(`SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read version row: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("schema = %d, want %d", schema, schemaVersion)
	}
}

func TestUpdateIndexAndSearch(t *testing.T) {
	root := t.TempDir()
	ws := sampleWorkspace()
	ws.Dashboards[0].Widgets = append(ws.Dashboards[0].Widgets, domain.Widget{
		ID: "w2", Type: "text",
		Position: domain.Position{X: 0, Y: 0},
		Size:     domain.Dimensions{W: 240, H: 120},
		Content:  json.RawMessage(`{"body":"temperature in the greenhouse"}`),
	})
	ctx := context.Background()
	if err := UpdateIndex(ctx, root, ws); err != nil {
		t.Fatalf("UpdateIndex: %v", err)
	}

	hits, err := SearchWidgets(ctx, root, "greenhouse", 10)
	if err != nil {
		t.Fatalf("SearchWidgets: %v", err)
	}
	if len(hits) != 1 || hits[0].WidgetID != "w2" || hits[0].DashboardID != "dash-1" {
		t.Fatalf("hits = %+v, want w2 on dash-1", hits)
	}

	// Re-index after removing the widget: the hit must disappear.
	ws.Dashboards[0].Widgets = ws.Dashboards[0].Widgets[:1]
	if err := UpdateIndex(ctx, root, ws); err != nil {
		t.Fatalf("UpdateIndex: %v", err)
	}
	hits, err = SearchWidgets(ctx, root, "greenhouse", 10)
	if err != nil {
		t.Fatalf("SearchWidgets: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("stale hits after reindex: %+v", hits)
	}
}

func TestDetectAndRebuildIndexOnCorruption(t *testing.T) {
	root := t.TempDir()
	ws := sampleWorkspace()
	ctx := context.Background()
	if err := UpdateIndex(ctx, root, ws); err != nil {
		t.Fatalf("UpdateIndex: %v", err)
	}
	// Clobber the database file.
	if err := os.WriteFile(IndexPath(root), []byte("garbage, not sqlite"), 0o644); err != nil {
		t.Fatalf("corrupt index: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(ctx, root, ws)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if !rebuilt {
		t.Fatalf("expected a rebuild of the corrupt index")
	}
	hits, err := SearchWidgets(ctx, root, "clock", 10)
	if err != nil {
		t.Fatalf("SearchWidgets after rebuild: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("rebuilt index lost widgets: %+v", hits)
	}
}

func TestDetectAndRebuildIndexNoopWhenHealthy(t *testing.T) {
	root := t.TempDir()
	ws := sampleWorkspace()
	ctx := context.Background()
	if err := UpdateIndex(ctx, root, ws); err != nil {
		t.Fatalf("UpdateIndex: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(ctx, root, ws)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if rebuilt {
		t.Fatalf("healthy index should not be rebuilt")
	}
}
