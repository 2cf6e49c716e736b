/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"dashcanvas/internal/backend"
	"dashcanvas/internal/canvas"
	"dashcanvas/internal/config"
	"dashcanvas/internal/crash"
	"dashcanvas/internal/domain"
	"dashcanvas/internal/export"
	applog "dashcanvas/internal/log"
	"dashcanvas/internal/storage"
	"dashcanvas/internal/telemetry"
	"dashcanvas/internal/ui"
	"dashcanvas/internal/version"
)

func usage() {
	fmt.Println("DashCanvas — dashboard canvas editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dashcanvas version|-v|--version              Show version")
	fmt.Println("  dashcanvas init <dir> [name]                 Create a workspace with one dashboard")
	fmt.Println("  dashcanvas open <dir>                        Open workspace at <dir> and print summary")
	fmt.Println("  dashcanvas save <dir>                        Save workspace at <dir> (creates backup)")
	fmt.Println("  dashcanvas add <dir> <dashboard> <type>      Add a widget to a dashboard")
	fmt.Println("  dashcanvas arrange <dir> <dashboard>         Auto-arrange a dashboard's widgets")
	fmt.Println("  dashcanvas search <dir> <query>              Full-text search over widget content")
	fmt.Println("  dashcanvas export <dir> <dashboard> <fmt>    Export a layout sheet (pdf|png|svg)")
	fmt.Println("  dashcanvas batch <dir> <preset>              Batch export (screen|print)")
	fmt.Println("  dashcanvas push <dir> <dashboard>            Upload a dashboard to the sync server")
	fmt.Println("  dashcanvas pull <dir> <dashboard>            Download a dashboard from the sync server")
	fmt.Println("  dashcanvas serve                             Run the sync server (Postgres)")
	fmt.Println("  dashcanvas ui [<dir>]                        Launch desktop UI (build with -tags fyne)")
}

func fatal(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func openWorkspace(l *slog.Logger, dir string) *storage.WorkspaceHandle {
	abs, _ := filepath.Abs(dir)
	h, err := storage.Open(abs)
	if err != nil {
		fatal(l, "open workspace failed", err)
	}
	return h
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var wh *storage.WorkspaceHandle
	defer func() { crash.Recover(wh) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("DashCanvas — dashboard canvas editor")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 3 {
				fmt.Println("init requires <dir>")
				usage()
				os.Exit(2)
			}
			dir := args[2]
			name := "Dashboard"
			if len(args) >= 4 {
				name = args[3]
			}
			abs, _ := filepath.Abs(dir)
			l.Info("init workspace", slog.String("root", abs), slog.String("name", name))
			ws := domain.NewWorkspace()
			doc := domain.NewDocument(uuid.NewString(), name)
			ws.UpsertDashboard(*doc)
			ws.Active = doc.ID
			h, err := storage.InitWorkspace(abs, ws)
			if err != nil {
				fatal(l, "init failed", err)
			}
			wh = h
			telemetry.Event("workspace.created", nil)
			fmt.Println("Created workspace at", abs)
			fmt.Println("Dashboard:", doc.ID)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <dir>")
				usage()
				os.Exit(2)
			}
			wh = openWorkspace(l, args[2])
			fmt.Printf("Opened workspace: %s\n", wh.Root)
			fmt.Printf("Dashboards: %d\n", len(wh.Workspace.Dashboards))
			for _, d := range wh.Workspace.Dashboards {
				marker := " "
				if d.ID == wh.Workspace.Active {
					marker = "*"
				}
				fmt.Printf("  %s %s  %q  widgets=%d zoom=%.1f\n", marker, d.ID, d.Name, len(d.Widgets), d.Zoom)
			}
			return
		case "save":
			if len(args) < 3 {
				fmt.Println("save requires <dir>")
				usage()
				os.Exit(2)
			}
			wh = openWorkspace(l, args[2])
			if err := storage.Save(wh); err != nil {
				fatal(l, "save failed", err)
			}
			fmt.Println("Saved workspace and created a backup of the previous manifest (if any).")
			return
		case "add":
			if len(args) < 5 {
				fmt.Println("add requires <dir> <dashboard> <type>")
				usage()
				os.Exit(2)
			}
			wh = openWorkspace(l, args[2])
			doc := wh.Workspace.DashboardByID(args[3])
			if doc == nil {
				fatal(l, "dashboard lookup failed", fmt.Errorf("dashboard %q not found", args[3]))
			}
			ctrl := canvas.NewController(doc, canvas.Options{})
			id := ctrl.AddWidget(args[4], nil)
			if id == "" {
				fatal(l, "add widget failed", fmt.Errorf("widget was not added"))
			}
			if err := storage.Save(wh); err != nil {
				fatal(l, "save failed", err)
			}
			idxCtx, idxCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := storage.UpdateIndex(idxCtx, wh.Root, wh.Workspace); err != nil {
				l.Warn("index update failed", slog.Any("err", err))
			}
			idxCancel()
			telemetry.Event("widget.added", map[string]any{"type": args[4]})
			fmt.Println("Added widget", id)
			return
		case "arrange":
			if len(args) < 4 {
				fmt.Println("arrange requires <dir> <dashboard>")
				usage()
				os.Exit(2)
			}
			wh = openWorkspace(l, args[2])
			doc := wh.Workspace.DashboardByID(args[3])
			if doc == nil {
				fatal(l, "dashboard lookup failed", fmt.Errorf("dashboard %q not found", args[3]))
			}
			ctrl := canvas.NewController(doc, canvas.Options{})
			ctrl.AutoArrange()
			if err := storage.Save(wh); err != nil {
				fatal(l, "save failed", err)
			}
			fmt.Printf("Arranged %d widgets on %s\n", len(doc.Widgets), doc.Name)
			return
		case "search":
			if len(args) < 4 {
				fmt.Println("search requires <dir> <query>")
				usage()
				os.Exit(2)
			}
			wh = openWorkspace(l, args[2])
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			hits, err := storage.SearchWidgets(ctx, wh.Root, args[3], 0)
			if err != nil {
				fatal(l, "search failed", err)
			}
			for _, h := range hits {
				fmt.Printf("%s/%s [%s] %s\n", h.DashboardID, h.WidgetID, h.Type, h.Text)
			}
			fmt.Printf("%d hit(s)\n", len(hits))
			return
		case "export":
			if len(args) < 5 {
				fmt.Println("export requires <dir> <dashboard> <format>")
				usage()
				os.Exit(2)
			}
			wh = openWorkspace(l, args[2])
			id, format := args[3], args[4]
			out := fmt.Sprintf("dashboard-%s.%s", id, format)
			if len(args) >= 6 {
				out = args[5]
			}
			var err error
			switch format {
			case "pdf":
				err = export.ExportDashboardPDF(wh, id, out, export.PDFOptions{IncludeGrid: true})
			case "png":
				err = export.ExportDashboardPNG(wh, id, out, export.PNGOptions{IncludeGrid: true})
			case "svg":
				err = export.ExportDashboardSVG(wh, id, out, export.SVGOptions{IncludeGrid: true})
			default:
				err = fmt.Errorf("unknown format %q (pdf|png|svg)", format)
			}
			if err != nil {
				fatal(l, "export failed", err)
			}
			telemetry.Event("export.sheet", map[string]any{"format": format})
			fmt.Println("Exported", out)
			return
		case "batch":
			if len(args) < 4 {
				fmt.Println("batch requires <dir> <preset>")
				usage()
				os.Exit(2)
			}
			wh = openWorkspace(l, args[2])
			if err := export.BatchExport(wh, export.BatchOptions{Preset: export.PresetName(args[3])}); err != nil {
				fatal(l, "batch export failed", err)
			}
			telemetry.Event("export.batch", map[string]any{"preset": args[3]})
			fmt.Println("Batch export complete.")
			return
		case "push", "pull":
			if len(args) < 4 {
				fmt.Printf("%s requires <dir> <dashboard>\n", args[1])
				usage()
				os.Exit(2)
			}
			cfg, token, err := config.Load()
			if err != nil {
				fatal(l, "config load failed", err)
			}
			if cfg.Backend.BaseURL == "" {
				fatal(l, "sync not configured", fmt.Errorf("set backend base_url in config or DCV_BACKEND_URL"))
			}
			wh = openWorkspace(l, args[2])
			client := backend.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.EffectiveTimeout())
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if args[1] == "push" {
				doc := wh.Workspace.DashboardByID(args[3])
				if doc == nil {
					fatal(l, "dashboard lookup failed", fmt.Errorf("dashboard %q not found", args[3]))
				}
				if err := client.PutDashboard(ctx, doc); err != nil {
					fatal(l, "push failed", err)
				}
				fmt.Println("Pushed", doc.ID)
				return
			}
			doc, err := client.GetDashboard(ctx, args[3])
			if err != nil {
				fatal(l, "pull failed", err)
			}
			wh.Workspace.UpsertDashboard(*doc)
			if err := storage.Save(wh); err != nil {
				fatal(l, "save failed", err)
			}
			fmt.Printf("Pulled %s (%d widgets)\n", doc.ID, len(doc.Widgets))
			return
		case "serve":
			if err := backend.Start(); err != nil {
				fatal(l, "server failed", err)
			}
			return
		case "ui":
			var dir string
			if len(args) >= 3 {
				dir = args[2]
			}
			if err := ui.Run(dir); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}
