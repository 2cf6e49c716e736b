/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"testing"

	"dashcanvas/internal/domain"
	"dashcanvas/internal/storage"
)

func sheetWorkspace(t *testing.T) *storage.WorkspaceHandle {
	t.Helper()
	doc := domain.NewDocument("dash-1", "Living Room")
	doc.Widgets = []domain.Widget{
		{
			ID: "w1", Type: "clock",
			Position: domain.Position{X: 100, Y: 80},
			Size:     domain.Dimensions{W: 200, H: 100},
			Z:        0,
		},
		{
			ID: "w2", Type: "sensor",
			Position: domain.Position{X: 320, Y: 240},
			Size:     domain.Dimensions{W: 200, H: 140},
			Z:        1,
		},
	}
	ws := domain.NewWorkspace()
	ws.UpsertDashboard(*doc)
	ws.Active = "dash-1"
	wh, err := storage.InitWorkspace(t.TempDir(), ws)
	if err != nil {
		t.Fatalf("init workspace: %v", err)
	}
	return wh
}

func TestExportDashboardPDFCreatesFile(t *testing.T) {
	wh := sheetWorkspace(t)
	out := filepath.Join(wh.Root, "exports", "living-room.pdf")
	if err := ExportDashboardPDF(wh, "dash-1", out, PDFOptions{IncludeGrid: true}); err != nil {
		t.Fatalf("export: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("pdf file empty")
	}
}

func TestExportDashboardPDFRelativePathLandsUnderExports(t *testing.T) {
	wh := sheetWorkspace(t)
	if err := ExportDashboardPDF(wh, "dash-1", "sheet.pdf", PDFOptions{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(wh.Root, "exports", "sheet.pdf")); err != nil {
		t.Fatalf("expected file under exports/: %v", err)
	}
}

func TestExportDashboardPDFUnknownDashboard(t *testing.T) {
	wh := sheetWorkspace(t)
	if err := ExportDashboardPDF(wh, "nope", "x.pdf", PDFOptions{}); err == nil {
		t.Fatalf("expected error for unknown dashboard id")
	}
}

func TestSheetExtentCoversWidgetsWithFloor(t *testing.T) {
	doc := domain.NewDocument("d", "d")
	w, h := sheetExtent(doc)
	if w != 640 || h != 480 {
		t.Fatalf("empty dashboard extent = %gx%g", w, h)
	}
	doc.Widgets = []domain.Widget{{
		ID: "w", Type: "image",
		Position: domain.Position{X: 900, Y: 700},
		Size:     domain.Dimensions{W: 300, H: 200},
	}}
	w, h = sheetExtent(doc)
	if w != 1280 || h != 980 {
		t.Fatalf("extent = %gx%g, want 1280x980", w, h)
	}
}
