/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders dashboard layout sheets to PDF, PNG and SVG.
// A layout sheet is a schematic view: one outlined box per widget with
// its type and id as a label, optionally over the snap grid. Exports are
// derived data and land under the workspace's exports/ folder when the
// output path is relative.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"dashcanvas/internal/domain"
	"dashcanvas/internal/storage"
)

// sheetMargin is the whitespace around the canvas content, in canvas
// units (mapped 1:1 to pt for PDF).
const sheetMargin = 40.0

// Minimum sheet size so near-empty dashboards still produce a usable page.
const (
	minSheetW = 640.0
	minSheetH = 480.0
)

// Style groups the colors shared by all sheet exporters. Zero values
// select defaults: pale gray grid, black widget outlines, off-white fill.
type Style struct {
	GridColor    domain.Color
	WidgetStroke domain.Stroke
	WidgetFill   domain.Color
}

func (s Style) withDefaults() Style {
	if s.GridColor.IsZero() {
		s.GridColor = domain.Color{R: 220, G: 220, B: 220, A: 255}
	}
	if s.WidgetStroke.Width == 0 {
		s.WidgetStroke = domain.Stroke{Color: domain.Color{A: 255}, Width: 1}
	}
	if s.WidgetFill.IsZero() {
		s.WidgetFill = domain.Color{R: 245, G: 245, B: 245, A: 255}
	}
	return s
}

// PDFOptions controls PDF sheet export.
// Units are points; canvas coordinates map 1:1 to pt so a 200x100 widget
// is a 200x100pt box. Built-in Helvetica keeps labels vector without
// font embedding.
type PDFOptions struct {
	IncludeGrid bool
	Style
}

// ExportDashboardPDF renders one dashboard as a single-page PDF layout
// sheet at outPath. A relative outPath is placed under <root>/exports/.
func ExportDashboardPDF(wh *storage.WorkspaceHandle, dashboardID, outPath string, opt PDFOptions) error {
	if wh == nil {
		return fmt.Errorf("workspace handle is nil")
	}
	doc := wh.Workspace.DashboardByID(dashboardID)
	if doc == nil {
		return fmt.Errorf("dashboard %q not found", dashboardID)
	}
	style := opt.Style.withDefaults()

	sheetW, sheetH := sheetExtent(doc)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: sheetW, Ht: sheetH},
		OrientationStr: "",
	})
	pdf.SetTitle(fmt.Sprintf("%s — Dashboard Layout", doc.Name), false)
	pdf.SetAuthor("DashCanvas", false)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: sheetW, Ht: sheetH})

	if opt.IncludeGrid && doc.Grid > 0 {
		setDrawColor(pdf, style.GridColor)
		pdf.SetLineWidth(0.2)
		for x := sheetMargin; x <= sheetW-sheetMargin; x += doc.Grid {
			pdf.Line(x, sheetMargin, x, sheetH-sheetMargin)
		}
		for y := sheetMargin; y <= sheetH-sheetMargin; y += doc.Grid {
			pdf.Line(sheetMargin, y, sheetW-sheetMargin, y)
		}
	}

	setDrawColor(pdf, style.WidgetStroke.Color)
	setFillColor(pdf, style.WidgetFill)
	pdf.SetLineWidth(style.WidgetStroke.Width)
	for _, w := range widgetsByZ(doc) {
		x := w.Position.X + sheetMargin
		y := w.Position.Y + sheetMargin
		pdf.Rect(x, y, w.Size.W, w.Size.H, "FD")

		pdf.SetFont("Helvetica", "B", 10)
		pdf.Text(x+6, y+14, w.Type)
		pdf.SetFont("Helvetica", "", 8)
		pdf.Text(x+6, y+24, shortID(w.ID))
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(wh.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// sheetExtent computes the sheet size covering all widgets plus margins,
// never smaller than the minimum sheet.
func sheetExtent(doc *domain.Document) (w, h float64) {
	w, h = minSheetW, minSheetH
	for _, wd := range doc.Widgets {
		if v := wd.Position.X + wd.Size.W + 2*sheetMargin; v > w {
			w = v
		}
		if v := wd.Position.Y + wd.Size.H + 2*sheetMargin; v > h {
			h = v
		}
	}
	return w, h
}

// widgetsByZ returns widgets in paint order, lowest z first.
func widgetsByZ(doc *domain.Document) []domain.Widget {
	out := make([]domain.Widget, len(doc.Widgets))
	copy(out, doc.Widgets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func setDrawColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
