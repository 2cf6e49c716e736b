/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportDashboardPNGDrawsWidgetBoxes(t *testing.T) {
	wh := sheetWorkspace(t)
	out := filepath.Join(wh.Root, "exports", "sheet.png")
	if err := ExportDashboardPNG(wh, "dash-1", out, PNGOptions{}); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Minimum sheet: 640x480 at scale 1.
	b := img.Bounds()
	if b.Dx() != 640 || b.Dy() != 480 {
		t.Fatalf("image size = %dx%d, want 640x480", b.Dx(), b.Dy())
	}

	// Background stays white away from any widget.
	if r, g, bb, _ := img.At(5, 5).RGBA(); r>>8 != 255 || g>>8 != 255 || bb>>8 != 255 {
		t.Fatalf("background not white at (5,5)")
	}
	// Widget w1 at (100,80) shifts by the 40 unit margin: border at (140,120).
	if r, g, bb, _ := img.At(140, 120).RGBA(); r>>8 != 0 || g>>8 != 0 || bb>>8 != 0 {
		t.Fatalf("expected black border pixel at widget corner")
	}
	// Interior gets the default off-white fill.
	if r, _, _, _ := img.At(240, 200).RGBA(); r>>8 != 245 {
		t.Fatalf("expected fill pixel inside widget, got r=%d", r>>8)
	}
}

func TestExportDashboardPNGScale(t *testing.T) {
	wh := sheetWorkspace(t)
	out := filepath.Join(wh.Root, "exports", "sheet2x.png")
	if err := ExportDashboardPNG(wh, "dash-1", out, PNGOptions{Scale: 2}); err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1280 || b.Dy() != 960 {
		t.Fatalf("image size = %dx%d, want 1280x960", b.Dx(), b.Dy())
	}
}

func TestExportDashboardSVGContainsWidgets(t *testing.T) {
	wh := sheetWorkspace(t)
	out := filepath.Join(wh.Root, "exports", "sheet.svg")
	if err := ExportDashboardSVG(wh, "dash-1", out, SVGOptions{IncludeGrid: true}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(b)
	for _, want := range []string{
		`viewBox="0 0 640 480"`,
		`<rect x="140" y="120" width="200" height="100"`,
		`>clock</text>`,
		`>sensor</text>`,
		`<line `,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("svg missing %q:\n%s", want, s)
		}
	}
}

func TestBatchExportScreenPreset(t *testing.T) {
	wh := sheetWorkspace(t)
	if err := BatchExport(wh, BatchOptions{Preset: PresetScreen}); err != nil {
		t.Fatalf("batch: %v", err)
	}
	for _, p := range []string{
		filepath.Join(wh.Root, "exports", "screen", "png", "dashboard-dash-1.png"),
		filepath.Join(wh.Root, "exports", "screen", "svg", "dashboard-dash-1.svg"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s: %v", p, err)
		}
	}
	// Screen preset omits PDF.
	if _, err := os.Stat(filepath.Join(wh.Root, "exports", "screen", "pdf")); !os.IsNotExist(err) {
		t.Fatalf("screen preset should not emit pdf")
	}
}

func TestBatchExportRejectsUnknownFormat(t *testing.T) {
	wh := sheetWorkspace(t)
	if err := BatchExport(wh, BatchOptions{Formats: []string{"docx"}}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestPresetDefaults(t *testing.T) {
	if got := presetDefaultFormats(PresetPrint); len(got) != 2 || got[0] != "pdf" {
		t.Fatalf("print formats = %v", got)
	}
	if presetIncludeGrid(PresetScreen) {
		t.Fatalf("screen preset should not draw the grid")
	}
	if presetScale(PresetScreen) != 2 || presetScale(PresetPrint) != 1 {
		t.Fatalf("unexpected preset scales")
	}
}
