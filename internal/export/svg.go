/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"dashcanvas/internal/domain"
	"dashcanvas/internal/storage"
)

// SVGOptions controls SVG sheet export. The coordinate system matches
// the canvas (one SVG unit per canvas unit); viewers scale freely.
type SVGOptions struct {
	IncludeGrid bool
	Style
}

// ExportDashboardSVG renders one dashboard as a vector layout sheet at
// outPath. A relative outPath is placed under <root>/exports/.
func ExportDashboardSVG(wh *storage.WorkspaceHandle, dashboardID, outPath string, opt SVGOptions) error {
	if wh == nil {
		return fmt.Errorf("workspace handle is nil")
	}
	doc := wh.Workspace.DashboardByID(dashboardID)
	if doc == nil {
		return fmt.Errorf("dashboard %q not found", dashboardID)
	}
	style := opt.Style.withDefaults()

	sheetW, sheetH := sheetExtent(doc)

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n", sheetW, sheetH, sheetW, sheetH)
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", sheetW, sheetH)

	if opt.IncludeGrid && doc.Grid > 0 {
		gc := svgColor(style.GridColor)
		for x := sheetMargin; x <= sheetW-sheetMargin; x += doc.Grid {
			wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"0.2\"/>\n", x, sheetMargin, x, sheetH-sheetMargin, gc)
		}
		for y := sheetMargin; y <= sheetH-sheetMargin; y += doc.Grid {
			wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"0.2\"/>\n", sheetMargin, y, sheetW-sheetMargin, y, gc)
		}
	}

	sc := svgColor(style.WidgetStroke.Color)
	fc := svgColor(style.WidgetFill)
	for _, w := range widgetsByZ(doc) {
		x := w.Position.X + sheetMargin
		y := w.Position.Y + sheetMargin
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
			x, y, w.Size.W, w.Size.H, fc, sc, style.WidgetStroke.Width)
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, sans-serif\" font-size=\"10\" font-weight=\"bold\" fill=\"%s\">%s</text>\n",
			x+6, y+14, sc, xmlEscape(w.Type))
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, sans-serif\" font-size=\"8\" fill=\"%s\">%s</text>\n",
			x+6, y+24, sc, xmlEscape(shortID(w.ID)))
	}
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(wh.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgColor(c domain.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
