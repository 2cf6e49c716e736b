/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"dashcanvas/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	// PresetScreen produces raster and vector sheets sized for on-screen
	// review (2x PNG, no grid).
	PresetScreen PresetName = "screen"
	// PresetPrint produces PDF plus a 1x PNG with the snap grid drawn.
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export across formats and dashboards.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created under
//     <workspace>/exports/<preset>/.
//   - Outputs are grouped per format: pdf/, png/, svg/ subfolders, with
//     files named dashboard-<id>.<ext>.
type BatchOptions struct {
	Preset        PresetName
	Formats       []string // allowed: pdf, png, svg; empty means preset defaults
	Dashboards    []string // dashboard ids; empty means all
	ScaleOverride float64  // when > 0 overrides the preset's PNG scale
	IncludeGrid   *bool    // when set, overrides the preset's grid default
	OutDir        string
}

// BatchExport runs sheet exports according to the given preset.
func BatchExport(wh *storage.WorkspaceHandle, opt BatchOptions) error {
	if wh == nil {
		return fmt.Errorf("workspace handle is nil")
	}
	if len(wh.Workspace.Dashboards) == 0 {
		return fmt.Errorf("workspace has no dashboards")
	}

	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	for i := range formats {
		formats[i] = strings.ToLower(strings.TrimSpace(formats[i]))
	}

	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(wh.Root, "exports", baseOut)
	}

	ids := opt.Dashboards
	if len(ids) == 0 {
		for _, d := range wh.Workspace.Dashboards {
			ids = append(ids, d.ID)
		}
	}

	grid := presetIncludeGrid(opt.Preset)
	if opt.IncludeGrid != nil {
		grid = *opt.IncludeGrid
	}
	scale := presetScale(opt.Preset)
	if opt.ScaleOverride > 0 {
		scale = opt.ScaleOverride
	}

	for _, id := range ids {
		for _, f := range formats {
			switch f {
			case "pdf":
				out := filepath.Join(baseOut, "pdf", fmt.Sprintf("dashboard-%s.pdf", id))
				if err := ExportDashboardPDF(wh, id, out, PDFOptions{IncludeGrid: grid}); err != nil {
					return fmt.Errorf("pdf dashboard %s: %w", id, err)
				}
			case "png":
				out := filepath.Join(baseOut, "png", fmt.Sprintf("dashboard-%s.png", id))
				if err := ExportDashboardPNG(wh, id, out, PNGOptions{IncludeGrid: grid, Scale: scale}); err != nil {
					return fmt.Errorf("png dashboard %s: %w", id, err)
				}
			case "svg":
				out := filepath.Join(baseOut, "svg", fmt.Sprintf("dashboard-%s.svg", id))
				if err := ExportDashboardSVG(wh, id, out, SVGOptions{IncludeGrid: grid}); err != nil {
					return fmt.Errorf("svg dashboard %s: %w", id, err)
				}
			default:
				return fmt.Errorf("unknown format: %s", f)
			}
		}
	}
	return nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetScreen:
		return []string{"png", "svg"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"pdf"}
	}
}

func presetIncludeGrid(p PresetName) bool {
	switch p {
	case PresetScreen:
		return false
	case PresetPrint:
		return true
	default:
		return true
	}
}

func presetScale(p PresetName) float64 {
	if p == PresetScreen {
		return 2
	}
	return 1
}
