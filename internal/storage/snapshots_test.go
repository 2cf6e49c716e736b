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
	"testing"
	"time"
)

func TestSnapshotSaveAndLatest(t *testing.T) {
	wh, err := InitWorkspace(t.TempDir(), sampleWorkspace())
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	ctx := context.Background()
	doc := wh.Workspace.DashboardByID("dash-1")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := SaveSnapshot(ctx, wh, doc, base); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	doc.Widgets[0].Position.X = 400
	if err := SaveSnapshot(ctx, wh, doc, base.Add(time.Minute)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, ts, err := GetLatestSnapshot(ctx, wh, "dash-1")
	if err != nil {
		t.Fatalf("GetLatestSnapshot: %v", err)
	}
	if got == nil || got.Widgets[0].Position.X != 400 {
		t.Fatalf("latest snapshot is not the newest state: %+v", got)
	}
	if !ts.Equal(base.Add(time.Minute)) {
		t.Fatalf("ts = %v", ts)
	}
}

func TestGetLatestSnapshotEmpty(t *testing.T) {
	wh, err := InitWorkspace(t.TempDir(), sampleWorkspace())
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	got, _, err := GetLatestSnapshot(context.Background(), wh, "nope")
	if err != nil {
		t.Fatalf("GetLatestSnapshot: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for a dashboard without snapshots")
	}
}

func TestListAndPruneSnapshots(t *testing.T) {
	wh, err := InitWorkspace(t.TempDir(), sampleWorkspace())
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	ctx := context.Background()
	doc := wh.Workspace.DashboardByID("dash-1")
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := SaveSnapshot(ctx, wh, doc, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}

	list, err := ListSnapshots(ctx, wh, "dash-1", 3)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(list) != 3 || !list[0].TS.After(list[1].TS) {
		t.Fatalf("expected 3 snapshots newest-first, got %d", len(list))
	}

	removed, err := PruneOldSnapshots(ctx, wh, "dash-1", 2)
	if err != nil {
		t.Fatalf("PruneOldSnapshots: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}
	list, err = ListSnapshots(ctx, wh, "dash-1", 10)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("after prune len = %d, want 2", len(list))
	}
}
