/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"dashcanvas/internal/domain"
	"dashcanvas/internal/storage"
)

// PNGOptions controls PNG sheet export.
// Scale is pixels per canvas unit; <= 0 selects 1 (one pixel per unit).
type PNGOptions struct {
	IncludeGrid bool
	Scale       float64
	Style
}

// ExportDashboardPNG renders one dashboard as a raster layout sheet at
// outPath. A relative outPath is placed under <root>/exports/.
func ExportDashboardPNG(wh *storage.WorkspaceHandle, dashboardID, outPath string, opt PNGOptions) error {
	if wh == nil {
		return fmt.Errorf("workspace handle is nil")
	}
	doc := wh.Workspace.DashboardByID(dashboardID)
	if doc == nil {
		return fmt.Errorf("dashboard %q not found", dashboardID)
	}
	style := opt.Style.withDefaults()
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}

	sheetW, sheetH := sheetExtent(doc)
	pixW := int(math.Round(sheetW * scale))
	pixH := int(math.Round(sheetH * scale))

	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	if opt.IncludeGrid && doc.Grid > 0 {
		gc := toRGBA(style.GridColor)
		x0 := px(sheetMargin, scale)
		y0 := px(sheetMargin, scale)
		x1 := px(sheetW-sheetMargin, scale)
		y1 := px(sheetH-sheetMargin, scale)
		for x := sheetMargin; x <= sheetW-sheetMargin; x += doc.Grid {
			vline(img, px(x, scale), y0, y1, gc)
		}
		for y := sheetMargin; y <= sheetH-sheetMargin; y += doc.Grid {
			hline(img, x0, x1, px(y, scale), gc)
		}
	}

	sc := toRGBA(style.WidgetStroke.Color)
	fc := toRGBA(style.WidgetFill)
	face := basicfont.Face7x13
	for _, w := range widgetsByZ(doc) {
		x := px(w.Position.X+sheetMargin, scale)
		y := px(w.Position.Y+sheetMargin, scale)
		bw := px(w.Size.W, scale)
		bh := px(w.Size.H, scale)
		fillRect(img, x, y, x+bw-1, y+bh-1, fc)
		strokeRect(img, x, y, x+bw-1, y+bh-1, sc)

		drawLabel(img, face, x+5, y+15, w.Type, sc)
		drawLabel(img, face, x+5, y+29, shortID(w.ID), sc)
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(wh.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

func px(v, scale float64) int {
	return int(math.Round(v * scale))
}

func toRGBA(c domain.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	hline(img, x0, x1, y0, col)
	hline(img, x0, x1, y1, col)
	vline(img, x0, y0, y1, col)
	vline(img, x1, y0, y1, col)
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func hline(img *image.RGBA, x0, x1, y int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y, col)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, col color.RGBA) {
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x, y, col)
	}
}

// drawLabel renders a single line of text with the fixed bitmap face;
// (x, y) is the baseline origin in pixels.
func drawLabel(img *image.RGBA, face font.Face, x, y int, text string, col color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
