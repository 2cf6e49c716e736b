//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	fcanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/google/uuid"

	editor "dashcanvas/internal/canvas"
	"dashcanvas/internal/config"
	"dashcanvas/internal/crash"
	"dashcanvas/internal/domain"
	"dashcanvas/internal/export"
	"dashcanvas/internal/geom"
	applog "dashcanvas/internal/log"
	"dashcanvas/internal/storage"
	"dashcanvas/internal/version"
)

// Run starts the Fyne-based desktop editor. An optional workspace
// directory is opened immediately.
func Run(workspaceDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	cfg, _, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	var wh *storage.WorkspaceHandle
	defer func() { crash.Recover(wh) }()

	fyneApp := app.NewWithID("dashcanvas")
	w := fyneApp.NewWindow("DashCanvas")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	dc := NewDashboardCanvas()

	var saver *storage.Saver
	var ctrl *editor.Controller

	// Dashboard navigation (left)
	dashNames := []string{}
	dashIDs := []string{}
	dashList := widget.NewList(
		func() int { return len(dashNames) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(dashNames) {
				o.(*widget.Label).SetText(dashNames[i])
			}
		},
	)

	// Widget inspector (right)
	widgetLines := []string{}
	widgetIDs := []string{}
	widgetList := widget.NewList(
		func() int { return len(widgetLines) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(widgetLines) {
				o.(*widget.Label).SetText(widgetLines[i])
			}
		},
	)

	refreshWidgetList := func() {
		widgetLines = widgetLines[:0]
		widgetIDs = widgetIDs[:0]
		if ctrl != nil {
			for _, wd := range ctrl.Document().Widgets {
				widgetLines = append(widgetLines, fmt.Sprintf("%s (%s)", wd.Type, shortID(wd.ID)))
				widgetIDs = append(widgetIDs, wd.ID)
			}
		}
		widgetList.Refresh()
	}
	dc.OnChanged = refreshWidgetList

	widgetList.OnSelected = func(id widget.ListItemID) {
		if ctrl != nil && int(id) < len(widgetIDs) {
			ctrl.Select(widgetIDs[id])
		}
	}

	refreshDashList := func() {
		dashNames = dashNames[:0]
		dashIDs = dashIDs[:0]
		if wh != nil {
			for _, d := range wh.Workspace.Dashboards {
				dashNames = append(dashNames, d.Name)
				dashIDs = append(dashIDs, d.ID)
			}
		}
		dashList.Refresh()
	}

	loadDashboard := func(doc *domain.Document) {
		ctrl = editor.NewController(doc, editor.Options{
			Renderer: dc,
			Persist:  saver,
		})
		size := dc.Size()
		ctrl.SetViewSize(float64(size.Width), float64(size.Height))
		dc.SetController(ctrl)
		refreshWidgetList()
		status.SetText(fmt.Sprintf("Dashboard: %s", doc.Name))
	}

	openWorkspace := func(dir string) error {
		h, err := storage.Open(dir)
		if err != nil {
			return err
		}
		if saver != nil {
			saver.Close()
		}
		wh = h
		saver = storage.NewSaver(wh, nil, cfg.Editor.AutosaveDebounce())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		rebuilt, err := storage.DetectAndRebuildIndex(ctx, wh.Root, wh.Workspace)
		cancel()
		if err != nil {
			l.Warn("index check failed", slog.Any("err", err))
		} else if rebuilt {
			l.Info("search index rebuilt")
		}
		refreshDashList()
		if doc := wh.Workspace.ActiveDashboard(); doc != nil {
			loadDashboard(doc)
		}
		addRecentWorkspace(prefs, dir)
		l.Info("workspace opened", slog.String("root", wh.Root), slog.Int("dashboards", len(wh.Workspace.Dashboards)))
		return nil
	}

	dashList.OnSelected = func(id widget.ListItemID) {
		if wh == nil || int(id) >= len(dashIDs) {
			return
		}
		wh.Workspace.Active = dashIDs[id]
		if doc := wh.Workspace.DashboardByID(dashIDs[id]); doc != nil {
			loadDashboard(doc)
		}
	}

	// Toolbar: one button per registered widget type, then arrange/lock.
	registry := editor.NewRegistry()
	var toolButtons []fyne.CanvasObject
	for _, typ := range registry.Types() {
		typ := typ
		toolButtons = append(toolButtons, widget.NewButton("+ "+typ, func() {
			if ctrl == nil {
				return
			}
			if id := ctrl.AddWidget(typ, nil); id != "" {
				status.SetText(fmt.Sprintf("Added %s widget", typ))
			}
		}))
	}
	lockCheck := widget.NewCheck("Lock", func(v bool) {
		if ctrl != nil {
			ctrl.SetLocked(v)
		}
	})
	toolButtons = append(toolButtons,
		widget.NewButton("Arrange", func() {
			if ctrl != nil {
				ctrl.AutoArrange()
			}
		}),
		lockCheck,
	)
	toolbar := container.NewHBox(toolButtons...)

	left := container.NewBorder(
		container.NewVBox(widget.NewLabel("Dashboards"), widget.NewSeparator()), nil, nil, nil, dashList)
	right := container.NewBorder(
		container.NewVBox(widget.NewLabel("Widgets"), widget.NewSeparator()), nil, nil, nil, widgetList)

	content := container.NewBorder(toolbar, status, left, right, dc)
	w.SetContent(content)

	// Menus
	openItem := fyne.NewMenuItem("Open Workspace…", func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			if err := openWorkspace(uri.Path()); err != nil {
				dialog.ShowError(err, w)
			}
		}, w)
	})
	newDashItem := fyne.NewMenuItem("New Dashboard", func() {
		if wh == nil {
			dialog.ShowInformation("No workspace", "Open a workspace first", w)
			return
		}
		entry := widget.NewEntry()
		entry.SetPlaceHolder("Dashboard name")
		dialog.ShowForm("New Dashboard", "Create", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("Name", entry)},
			func(ok bool) {
				if !ok || strings.TrimSpace(entry.Text) == "" {
					return
				}
				doc := domain.NewDocument(uuid.NewString(), strings.TrimSpace(entry.Text))
				wh.Workspace.UpsertDashboard(*doc)
				wh.Workspace.Active = doc.ID
				refreshDashList()
				if d := wh.Workspace.DashboardByID(doc.ID); d != nil {
					loadDashboard(d)
				}
			}, w)
	})
	saveItem := fyne.NewMenuItem("Save", func() {
		if saver != nil {
			saver.Flush()
			status.SetText("Saved")
		}
	})
	exportItem := fyne.NewMenuItem("Export Sheets…", func() {
		if wh == nil || ctrl == nil {
			return
		}
		sel := widget.NewSelect([]string{"pdf", "png", "svg"}, nil)
		sel.SetSelected("pdf")
		dialog.ShowForm("Export Layout Sheet", "Export", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("Format", sel)},
			func(ok bool) {
				if !ok {
					return
				}
				doc := ctrl.Document()
				name := fmt.Sprintf("dashboard-%s.%s", doc.ID, sel.Selected)
				var err error
				switch sel.Selected {
				case "png":
					err = export.ExportDashboardPNG(wh, doc.ID, name, export.PNGOptions{IncludeGrid: true})
				case "svg":
					err = export.ExportDashboardSVG(wh, doc.ID, name, export.SVGOptions{IncludeGrid: true})
				default:
					err = export.ExportDashboardPDF(wh, doc.ID, name, export.PDFOptions{IncludeGrid: true})
				}
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				status.SetText("Exported " + name)
			}, w)
	})
	fileMenu := fyne.NewMenu("File", openItem, newDashItem, fyne.NewMenuItemSeparator(), saveItem, exportItem)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", func() {
			if ctrl != nil {
				ctrl.Undo()
			}
		}),
		fyne.NewMenuItem("Redo", func() {
			if ctrl != nil {
				ctrl.Redo()
			}
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete Widget", func() {
			if ctrl != nil {
				ctrl.DeleteWidget(ctrl.Selected())
			}
		}),
		fyne.NewMenuItem("Bring Forward", func() {
			if ctrl != nil {
				ctrl.BringForward(ctrl.Selected())
			}
		}),
	)
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu))

	// Keyboard: undo/redo shortcuts plus arrows, escape and delete.
	canv := w.Canvas()
	canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		if ctrl != nil {
			ctrl.KeyDown(editor.KeyZ, editor.Modifiers{CtrlCmd: true})
		}
	})
	canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl | fyne.KeyModifierShift}, func(fyne.Shortcut) {
		if ctrl != nil {
			ctrl.KeyDown(editor.KeyZ, editor.Modifiers{CtrlCmd: true, Shift: true})
		}
	})
	canv.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ctrl == nil {
			return
		}
		switch ev.Name {
		case fyne.KeyEscape:
			ctrl.KeyDown(editor.KeyEscape, editor.Modifiers{})
		case fyne.KeyLeft:
			ctrl.KeyDown(editor.KeyArrowLeft, editor.Modifiers{})
		case fyne.KeyRight:
			ctrl.KeyDown(editor.KeyArrowRight, editor.Modifiers{})
		case fyne.KeyUp:
			ctrl.KeyDown(editor.KeyArrowUp, editor.Modifiers{})
		case fyne.KeyDown:
			ctrl.KeyDown(editor.KeyArrowDown, editor.Modifiers{})
		case fyne.KeyDelete, fyne.KeyBackspace:
			ctrl.DeleteWidget(ctrl.Selected())
		}
	})

	w.SetOnClosed(func() {
		size := w.Canvas().Size()
		prefs.SetInt("window.width", int(size.Width))
		prefs.SetInt("window.height", int(size.Height))
		if saver != nil {
			saver.Close()
		}
	})

	if workspaceDir != "" {
		if err := openWorkspace(workspaceDir); err != nil {
			return fmt.Errorf("open workspace: %w", err)
		}
	} else if recents := loadRecentWorkspaces(prefs); len(recents) > 0 {
		if err := openWorkspace(recents[0]); err != nil {
			l.Warn("could not reopen recent workspace", slog.String("dir", recents[0]), slog.Any("err", err))
		}
	}

	w.ShowAndRun()
	return nil
}

// DashboardCanvas is the central editing surface. It forwards pointer,
// scroll and key events to the interaction controller and paints the
// dashboard from the controller's live document.
type DashboardCanvas struct {
	widget.BaseWidget

	ctrl     *editor.Controller
	dragging bool

	// Overlay state pushed by the controller through the Renderer
	// interface.
	selected string
	guideX   *float64
	guideY   *float64

	// OnChanged fires after structural document changes (sync, add,
	// delete) so side panels can rebuild.
	OnChanged func()
}

func NewDashboardCanvas() *DashboardCanvas {
	d := &DashboardCanvas{}
	d.ExtendBaseWidget(d)
	return d
}

// SetController attaches the interaction controller driving this canvas.
func (d *DashboardCanvas) SetController(c *editor.Controller) {
	d.ctrl = c
	d.Refresh()
}

func (d *DashboardCanvas) PreferredSize() fyne.Size { return fyne.NewSize(900, 600) }

// Renderer bridge: the controller pushes geometry and overlay updates
// here; painting happens on the next Refresh from the live document.

func (d *DashboardCanvas) ApplyGeometry(string, domain.Position, domain.Dimensions, int) {
	d.Refresh()
}

func (d *DashboardCanvas) SetViewport(float64, domain.Viewport) { d.Refresh() }

func (d *DashboardCanvas) SetSelection(id string) {
	d.selected = id
	d.Refresh()
}

func (d *DashboardCanvas) ShowSnapGuides(x, y *float64) {
	d.guideX, d.guideY = x, y
	d.Refresh()
}

func (d *DashboardCanvas) ClearSnapGuides() {
	d.guideX, d.guideY = nil, nil
	d.Refresh()
}

func (d *DashboardCanvas) SyncDocument(*domain.Document) {
	if d.OnChanged != nil {
		d.OnChanged()
	}
	d.Refresh()
}

// Pointer events. A tap is a press/release pair at one point; drags open
// with a synthetic press at the gesture origin.

func (d *DashboardCanvas) Tapped(e *fyne.PointEvent) {
	if d.ctrl == nil {
		return
	}
	p := geom.Pt{X: float64(e.Position.X), Y: float64(e.Position.Y)}
	d.ctrl.PointerDown(p)
	d.ctrl.PointerUp()
	if d.OnChanged != nil {
		d.OnChanged()
	}
}

func (d *DashboardCanvas) Dragged(e *fyne.DragEvent) {
	if d.ctrl == nil {
		return
	}
	if !d.dragging {
		d.dragging = true
		start := geom.Pt{
			X: float64(e.Position.X - e.Dragged.DX),
			Y: float64(e.Position.Y - e.Dragged.DY),
		}
		d.ctrl.PointerDown(start)
	}
	d.ctrl.PointerMove(geom.Pt{X: float64(e.Position.X), Y: float64(e.Position.Y)})
}

func (d *DashboardCanvas) DragEnd() {
	if d.ctrl == nil || !d.dragging {
		return
	}
	d.dragging = false
	d.ctrl.PointerUp()
	if d.OnChanged != nil {
		d.OnChanged()
	}
}

func (d *DashboardCanvas) Scrolled(e *fyne.ScrollEvent) {
	if d.ctrl == nil {
		return
	}
	p := geom.Pt{X: float64(e.Position.X), Y: float64(e.Position.Y)}
	d.ctrl.Wheel(p, float64(e.Scrolled.DY))
}

func (d *DashboardCanvas) Resize(size fyne.Size) {
	d.BaseWidget.Resize(size)
	if d.ctrl != nil {
		d.ctrl.SetViewSize(float64(size.Width), float64(size.Height))
	}
}

func (d *DashboardCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := fcanvas.NewRectangle(color.RGBA{R: 40, G: 42, B: 46, A: 255})
	return &dashboardCanvasRenderer{dc: d, bg: bg, objects: []fyne.CanvasObject{bg}}
}

// dashboardCanvasRenderer rebuilds its object list from the live
// document on every layout pass. Dashboards hold tens of widgets, not
// thousands, so rebuild simplicity wins over object reuse.
type dashboardCanvasRenderer struct {
	dc      *DashboardCanvas
	bg      *fcanvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *dashboardCanvasRenderer) Destroy()                     {}
func (r *dashboardCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *dashboardCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(400, 300) }

func (r *dashboardCanvasRenderer) Refresh() {
	r.Layout(r.dc.Size())
	fcanvas.Refresh(r.dc)
}

func (r *dashboardCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	objs := []fyne.CanvasObject{r.bg}

	d := r.dc
	if d.ctrl == nil {
		r.objects = objs
		return
	}
	doc := d.ctrl.Document()
	zoom := float32(doc.Zoom)
	ox := float32(doc.Viewport.X)
	oy := float32(doc.Viewport.Y)

	for _, wd := range sortedByZ(doc.Widgets) {
		x := ox + float32(wd.Position.X)*zoom
		y := oy + float32(wd.Position.Y)*zoom
		ww := float32(wd.Size.W) * zoom
		hh := float32(wd.Size.H) * zoom

		box := fcanvas.NewRectangle(color.RGBA{R: 245, G: 245, B: 245, A: 255})
		box.StrokeColor = color.RGBA{R: 30, G: 30, B: 30, A: 255}
		box.StrokeWidth = 1
		if wd.ID == d.selected {
			box.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
			box.StrokeWidth = 2
		}
		box.Move(fyne.NewPos(x, y))
		box.Resize(fyne.NewSize(ww, hh))
		objs = append(objs, box)

		label := fcanvas.NewText(wd.Type, color.RGBA{R: 30, G: 30, B: 30, A: 255})
		label.TextSize = 12
		label.Move(fyne.NewPos(x+5, y+4))
		objs = append(objs, label)
	}

	guideCol := color.RGBA{R: 255, G: 170, B: 0, A: 255}
	if d.guideX != nil {
		gx := ox + float32(*d.guideX)*zoom
		ln := fcanvas.NewLine(guideCol)
		ln.StrokeWidth = 1
		ln.Position1 = fyne.NewPos(gx, 0)
		ln.Position2 = fyne.NewPos(gx, size.Height)
		objs = append(objs, ln)
	}
	if d.guideY != nil {
		gy := oy + float32(*d.guideY)*zoom
		ln := fcanvas.NewLine(guideCol)
		ln.StrokeWidth = 1
		ln.Position1 = fyne.NewPos(0, gy)
		ln.Position2 = fyne.NewPos(size.Width, gy)
		objs = append(objs, ln)
	}

	r.objects = objs
}

func sortedByZ(ws []domain.Widget) []domain.Widget {
	out := append([]domain.Widget(nil), ws...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Z < out[j-1].Z; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Recent workspaces are kept in Fyne preferences, newest first.
func loadRecentWorkspaces(p fyne.Preferences) []string {
	raw := p.StringWithFallback("recent.workspaces", "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, "\n") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func addRecentWorkspace(p fyne.Preferences, path string) {
	items := loadRecentWorkspaces(p)
	out := []string{path}
	for _, it := range items {
		if it != path && len(out) < 8 {
			out = append(out, it)
		}
	}
	p.SetString("recent.workspaces", strings.Join(out, "\n"))
}
