/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas implements the interaction engine of the dashboard editor:
// the pointer/wheel/touch/keyboard state machine driving drag, resize, pan,
// and zoom, plus selection, z-order, and the commit points where transient
// geometry becomes undoable and persisted.
package canvas

import (
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"dashcanvas/internal/domain"
	"dashcanvas/internal/geom"
	"dashcanvas/internal/history"
	applog "dashcanvas/internal/log"
)

const (
	// wheelZoomStep is applied per wheel tick, clamped to the document
	// zoom bounds.
	wheelZoomStep = 0.1
	// handleBand is the width (screen px) of the resize-handle region
	// along widget edges.
	handleBand = 8
	// nudgeMultiplier scales keyboard nudges while Shift is held.
	nudgeMultiplier = 10
)

// Controller owns one active Document and drives all interactive edits on
// it. All methods are called from the host UI's event loop; handlers run to
// completion before the next event, so the controller itself is not locked.
// The only asynchrony is behind the Persister, which must never block.
type Controller struct {
	doc      *domain.Document
	hist     *history.Manager
	renderer Renderer
	persist  Persister
	registry *Registry
	log      *slog.Logger

	state    interactionState
	selected string
	locked   bool

	// pinchDist is the last recorded two-finger distance; zero when no
	// pinch is in progress. Each move re-bases against this value.
	pinchDist float64

	// Host viewport size in screen pixels, for centering new widgets and
	// for auto-arrange row width.
	viewW, viewH float64

	clock func() time.Time

	// OnContentUpdated, when set, receives content-level edits so widget
	// renderers can react. The geometry core treats content as opaque.
	OnContentUpdated func(id string, content json.RawMessage)
}

// Options configures a Controller. Zero values select sensible defaults.
type Options struct {
	Renderer Renderer
	Persist  Persister
	Registry *Registry
	History  *history.Manager
	Clock    func() time.Time
}

// NewController creates a controller around an initial document. The
// document is normalized (grid, zoom bounds) and pushed as the initial
// history snapshot.
func NewController(doc *domain.Document, opts Options) *Controller {
	if opts.Renderer == nil {
		opts.Renderer = NopRenderer{}
	}
	if opts.Persist == nil {
		opts.Persist = NopPersister{}
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.History == nil {
		opts.History = history.NewManager(history.Config{})
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	c := &Controller{
		hist:     opts.History,
		renderer: opts.Renderer,
		persist:  opts.Persist,
		registry: opts.Registry,
		log:      applog.WithComponent("canvas"),
		state:    stateIdle{},
		clock:    opts.Clock,
		viewW:    1280,
		viewH:    800,
	}
	c.Load(doc)
	return c
}

// Load replaces the active document (dashboard switch, initial load) and
// resets history. A nil document loads an empty default dashboard.
func (c *Controller) Load(doc *domain.Document) {
	if doc == nil {
		doc = domain.NewDocument(uuid.NewString(), "Dashboard")
	}
	if doc.Grid <= 0 {
		doc.Grid = domain.DefaultGrid
	}
	if doc.Zoom == 0 {
		doc.Zoom = 1.0
	}
	doc.Zoom = domain.ClampZoom(doc.Zoom)
	if doc.Widgets == nil {
		doc.Widgets = []domain.Widget{}
	}
	c.doc = doc
	c.state = stateIdle{}
	c.selected = ""
	c.pinchDist = 0
	c.hist.Clear()
	c.hist.Push(doc)
	c.renderer.SetSelection("")
	c.renderer.SetViewport(doc.Zoom, doc.Viewport)
	c.renderer.SyncDocument(doc)
}

// Document returns the live document. Callers must treat it as owned by
// the controller while the dashboard is open.
func (c *Controller) Document() *domain.Document { return c.doc }

// Selected returns the selected widget id, or "" when nothing is selected.
func (c *Controller) Selected() string { return c.selected }

// Select sets the selection programmatically (widget list panel, tab
// cycling). Unknown ids clear the selection.
func (c *Controller) Select(id string) {
	if id != "" && c.doc.WidgetByID(id) == nil {
		id = ""
	}
	c.setSelection(id)
}

// Locked reports the global edit-disable flag.
func (c *Controller) Locked() bool { return c.locked }

// SetLocked toggles the read-only mode. Locking cancels any in-flight
// gesture and clears the selection.
func (c *Controller) SetLocked(locked bool) {
	c.locked = locked
	if locked {
		c.state = stateIdle{}
		c.pinchDist = 0
		c.renderer.ClearSnapGuides()
		c.setSelection("")
	}
}

// SetViewSize tells the controller how large the host viewport is, in
// screen pixels. Used to center new widgets and to bound auto-arrange.
func (c *Controller) SetViewSize(w, h float64) {
	if w > 0 {
		c.viewW = w
	}
	if h > 0 {
		c.viewH = h
	}
}

func (c *Controller) setSelection(id string) {
	if c.selected == id {
		return
	}
	c.selected = id
	c.renderer.SetSelection(id)
}

// screenToDoc converts screen coordinates into unscaled canvas units.
func (c *Controller) screenToDoc(p geom.Pt) geom.Pt {
	return geom.Pt{
		X: (p.X - c.doc.Viewport.X) / c.doc.Zoom,
		Y: (p.Y - c.doc.Viewport.Y) / c.doc.Zoom,
	}
}

func (c *Controller) widgetRect(w *domain.Widget) geom.Rect {
	return geom.R(w.Position.X, w.Position.Y, w.Size.W, w.Size.H)
}

// siblingRects collects the rects of every widget except the one given.
func (c *Controller) siblingRects(excludeID string) []geom.Rect {
	out := make([]geom.Rect, 0, len(c.doc.Widgets))
	for i := range c.doc.Widgets {
		if c.doc.Widgets[i].ID == excludeID {
			continue
		}
		out = append(out, c.widgetRect(&c.doc.Widgets[i]))
	}
	return out
}

// hitTest returns the top-most widget under a document-space point and the
// resize direction when the point falls in the handle band along its edges.
func (c *Controller) hitTest(docPt geom.Pt) (id string, dir geom.Direction, ok bool) {
	idx := make([]int, len(c.doc.Widgets))
	for i := range idx {
		idx[i] = i
	}
	// Paint order: higher z on top, array order breaks ties.
	sort.SliceStable(idx, func(a, b int) bool { return c.doc.Widgets[idx[a]].Z < c.doc.Widgets[idx[b]].Z })
	band := handleBand / c.doc.Zoom
	for i := len(idx) - 1; i >= 0; i-- {
		w := &c.doc.Widgets[idx[i]]
		r := c.widgetRect(w)
		if !r.Contains(docPt) {
			continue
		}
		var d geom.Direction
		switch {
		case docPt.Y <= r.Top()+band:
			d = "n"
		case docPt.Y >= r.Bottom()-band:
			d = "s"
		}
		switch {
		case docPt.X <= r.Left()+band:
			d += "w"
		case docPt.X >= r.Right()-band:
			d += "e"
		}
		return w.ID, d, true
	}
	return "", "", false
}

// PointerDown begins a gesture. On a widget's handle band it starts a
// resize, on a widget body a drag, and on empty background a pan. It also
// updates the selection. All input is ignored while locked.
func (c *Controller) PointerDown(p geom.Pt) {
	if c.locked {
		return
	}
	docPt := c.screenToDoc(p)
	id, dir, ok := c.hitTest(docPt)
	if !ok {
		c.setSelection("")
		c.state = statePanning{startViewport: c.doc.Viewport, startMouse: p}
		return
	}
	c.setSelection(id)
	w := c.doc.WidgetByID(id)
	if w == nil {
		// Unknown id from a stale hit: treat as a miss.
		c.state = stateIdle{}
		return
	}
	if dir != "" {
		c.state = stateResizing{widgetID: id, dir: dir, startPos: w.Position, startSize: w.Size, startMouse: p}
		return
	}
	c.state = stateDragging{widgetID: id, startPos: w.Position, startMouse: p}
}

// PointerMove advances the active gesture. Intermediate frames are
// visual-only: nothing is persisted or pushed to history until PointerUp.
func (c *Controller) PointerMove(p geom.Pt) {
	if c.locked {
		return
	}
	switch st := c.state.(type) {
	case stateIdle:
		// no gesture
	case stateDragging:
		c.moveDrag(st, p)
	case stateResizing:
		c.moveResize(st, p)
	case statePanning:
		// Pan applies the raw, unscaled mouse delta and updates the
		// viewport in real time; viewport is not undo-tracked.
		c.doc.Viewport = domain.Viewport{
			X: st.startViewport.X + (p.X - st.startMouse.X),
			Y: st.startViewport.Y + (p.Y - st.startMouse.Y),
		}
		c.renderer.SetViewport(c.doc.Zoom, c.doc.Viewport)
	}
}

func (c *Controller) moveDrag(st stateDragging, p geom.Pt) {
	w := c.doc.WidgetByID(st.widgetID)
	if w == nil {
		return
	}
	// Delta scaled by inverse zoom so drag distance is zoom-independent.
	dx := (p.X - st.startMouse.X) / c.doc.Zoom
	dy := (p.Y - st.startMouse.Y) / c.doc.Zoom
	nx := geom.SnapToGrid(st.startPos.X+dx, c.doc.Grid)
	ny := geom.SnapToGrid(st.startPos.Y+dy, c.doc.Grid)

	moving := geom.R(nx, ny, w.Size.W, w.Size.H)
	cands := geom.EdgeCandidates(moving, c.siblingRects(w.ID), geom.SnapThreshold)
	if cands.X != nil {
		nx = *cands.X
	}
	if cands.Y != nil {
		ny = *cands.Y
	}
	w.Position = domain.Position{X: nx, Y: ny}
	w.Meta.UpdatedAt = c.clock()
	c.renderer.ApplyGeometry(w.ID, w.Position, w.Size, w.Z)
	if cands.X != nil || cands.Y != nil {
		c.renderer.ShowSnapGuides(cands.X, cands.Y)
	} else {
		c.renderer.ClearSnapGuides()
	}
}

func (c *Controller) moveResize(st stateResizing, p geom.Pt) {
	w := c.doc.WidgetByID(st.widgetID)
	if w == nil {
		return
	}
	dx := (p.X - st.startMouse.X) / c.doc.Zoom
	dy := (p.Y - st.startMouse.Y) / c.doc.Zoom

	nx, ny := st.startPos.X, st.startPos.Y
	nw, nh := st.startSize.W, st.startSize.H
	if st.dir.East() {
		nw = st.startSize.W + dx
	}
	if st.dir.West() {
		nw = st.startSize.W - dx
		nx = st.startPos.X + dx
	}
	if st.dir.South() {
		nh = st.startSize.H + dy
	}
	if st.dir.North() {
		nh = st.startSize.H - dy
		ny = st.startPos.Y + dy
	}

	nx = geom.SnapToGrid(nx, c.doc.Grid)
	ny = geom.SnapToGrid(ny, c.doc.Grid)
	nw = geom.SnapToGrid(nw, c.doc.Grid)
	nh = geom.SnapToGrid(nh, c.doc.Grid)

	sz := geom.ConstrainSize(geom.Size{W: nw, H: nh})
	// The clamp must not drift the anchored far edge on n/w handles.
	if st.dir.West() && sz.W != nw {
		nx = st.startPos.X + st.startSize.W - sz.W
	}
	if st.dir.North() && sz.H != nh {
		ny = st.startPos.Y + st.startSize.H - sz.H
	}

	refined := geom.RefineResize(geom.R(nx, ny, sz.W, sz.H), st.dir, c.siblingRects(w.ID), geom.SnapThreshold)
	w.Position = domain.Position{X: refined.X, Y: refined.Y}
	w.Size = domain.Dimensions{W: refined.W, H: refined.H}
	w.Meta.UpdatedAt = c.clock()
	c.renderer.ApplyGeometry(w.ID, w.Position, w.Size, w.Z)

	var gx, gy *float64
	if refined.X != nx || refined.W != sz.W {
		edge := refined.Right()
		if st.dir.West() {
			edge = refined.Left()
		}
		gx = &edge
	}
	if refined.Y != ny || refined.H != sz.H {
		edge := refined.Bottom()
		if st.dir.North() {
			edge = refined.Top()
		}
		gy = &edge
	}
	if gx != nil || gy != nil {
		c.renderer.ShowSnapGuides(gx, gy)
	} else {
		c.renderer.ClearSnapGuides()
	}
}

// PointerUp ends the active gesture. Drag and resize commit to history and
// persistence; a pan persists the viewport but is not undoable.
func (c *Controller) PointerUp() {
	if c.locked {
		return
	}
	st := c.state
	c.state = stateIdle{}
	c.renderer.ClearSnapGuides()
	switch st.(type) {
	case stateDragging:
		c.commit(history.KindDrag)
	case stateResizing:
		c.commit(history.KindResize)
	case statePanning:
		c.persist.Persist(c.doc)
	}
}

// commit is the single path from a completed action to history and
// persistence. The coalescing predicate is consulted exactly once per
// action; coalesced actions skip the history push but still persist.
func (c *Controller) commit(kind history.Kind) {
	if !c.hist.ShouldCoalesce(kind) {
		c.hist.Push(c.doc)
	}
	c.persist.Persist(c.doc)
}

// Wheel adjusts zoom by one step per tick. Ignored while locked or when
// the pointer is over a widget (widgets own their scroll). Zoom changes
// persist immediately but are not undoable.
func (c *Controller) Wheel(p geom.Pt, deltaY float64) {
	if c.locked || deltaY == 0 {
		return
	}
	if id, _, ok := c.hitTest(c.screenToDoc(p)); ok && id != "" {
		return
	}
	step := wheelZoomStep
	if deltaY < 0 {
		step = -wheelZoomStep
	}
	z := domain.ClampZoom(c.doc.Zoom + step)
	if z == c.doc.Zoom {
		return
	}
	c.doc.Zoom = z
	c.renderer.SetViewport(c.doc.Zoom, c.doc.Viewport)
	c.persist.Persist(c.doc)
}

// TouchStart records the initial finger distance of a two-finger gesture.
func (c *Controller) TouchStart(p1, p2 geom.Pt) {
	if c.locked {
		return
	}
	c.pinchDist = math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// TouchMove scales zoom by the ratio against the last recorded distance,
// re-basing on every move rather than against the original distance.
func (c *Controller) TouchMove(p1, p2 geom.Pt) {
	if c.locked || c.pinchDist <= 0 {
		return
	}
	d := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
	if d <= 0 {
		return
	}
	c.doc.Zoom = domain.ClampZoom(c.doc.Zoom * (d / c.pinchDist))
	c.pinchDist = d
	c.renderer.SetViewport(c.doc.Zoom, c.doc.Viewport)
}

// TouchEnd resets pinch tracking and persists the final zoom.
func (c *Controller) TouchEnd() {
	if c.pinchDist == 0 {
		return
	}
	c.pinchDist = 0
	c.persist.Persist(c.doc)
}

// KeyDown handles keyboard input: arrow nudges, Escape, and the undo/redo
// shortcuts.
func (c *Controller) KeyDown(key Key, mods Modifiers) {
	switch key {
	case KeyEscape:
		c.setSelection("")
		return
	case KeyZ:
		if mods.CtrlCmd {
			if mods.Shift {
				c.Redo()
			} else {
				c.Undo()
			}
		}
		return
	}
	if c.locked {
		return
	}
	var dx, dy float64
	switch key {
	case KeyArrowLeft:
		dx = -1
	case KeyArrowRight:
		dx = 1
	case KeyArrowUp:
		dy = -1
	case KeyArrowDown:
		dy = 1
	default:
		return
	}
	w := c.doc.WidgetByID(c.selected)
	if w == nil {
		return
	}
	step := c.doc.Grid
	if step <= 0 {
		step = domain.DefaultGrid
	}
	if mods.Shift {
		step *= nudgeMultiplier
	}
	w.Position.X = geom.SnapToGrid(w.Position.X+dx*step, c.doc.Grid)
	w.Position.Y = geom.SnapToGrid(w.Position.Y+dy*step, c.doc.Grid)
	w.Meta.UpdatedAt = c.clock()
	c.renderer.ApplyGeometry(w.ID, w.Position, w.Size, w.Z)
	// Every nudge is its own mutation; nudges never coalesce.
	c.commit(history.KindNudge)
}

// Undo replaces the live document with the previous snapshot. When no
// earlier state exists the canvas resets to an empty dashboard that keeps
// the current view settings (zoom, viewport, and grid are not meaningful
// to discard on underflow).
func (c *Controller) Undo() {
	d, ok := c.hist.Undo()
	if !ok {
		return
	}
	if d == nil {
		d = domain.NewDocument(c.doc.ID, c.doc.Name)
		d.Grid = c.doc.Grid
		d.Zoom = c.doc.Zoom
		d.Viewport = c.doc.Viewport
		d.Theme = c.doc.Theme
		d.BackgroundPattern = c.doc.BackgroundPattern
	}
	c.replaceDocument(d)
}

// Redo re-applies the most recently undone snapshot, if any.
func (c *Controller) Redo() {
	d, ok := c.hist.Redo()
	if !ok {
		return
	}
	c.replaceDocument(d)
}

func (c *Controller) replaceDocument(d *domain.Document) {
	c.doc = d
	c.state = stateIdle{}
	if c.selected != "" && d.WidgetByID(c.selected) == nil {
		c.setSelection("")
	}
	c.renderer.ClearSnapGuides()
	c.renderer.SetViewport(d.Zoom, d.Viewport)
	c.renderer.SyncDocument(d)
	c.persist.Persist(d)
}

// AddWidget creates a widget of the given type centered in the current
// viewport, selects it, and commits. Returns the new widget's id, or ""
// while locked.
func (c *Controller) AddWidget(typ string, content json.RawMessage) string {
	if c.locked {
		return ""
	}
	size := c.registry.DefaultSize(typ)
	center := c.screenToDoc(geom.Pt{X: c.viewW / 2, Y: c.viewH / 2})
	now := c.clock()
	w := domain.Widget{
		ID:   uuid.NewString(),
		Type: typ,
		Position: domain.Position{
			X: geom.SnapToGrid(center.X-size.W/2, c.doc.Grid),
			Y: geom.SnapToGrid(center.Y-size.H/2, c.doc.Grid),
		},
		Size:    size,
		Z:       len(c.doc.Widgets),
		Content: content,
		Meta:    domain.Meta{CreatedAt: now, UpdatedAt: now},
	}
	c.doc.Widgets = append(c.doc.Widgets, w)
	c.setSelection(w.ID)
	c.renderer.SyncDocument(c.doc)
	c.commit(history.KindAdd)
	c.log.Debug("widget added", slog.String("id", w.ID), slog.String("type", typ))
	return w.ID
}

// DeleteWidget removes a widget by id; unknown ids are a silent no-op.
// Deleting the selected widget clears the selection.
func (c *Controller) DeleteWidget(id string) {
	if c.locked {
		return
	}
	if !c.doc.RemoveWidget(id) {
		return
	}
	if c.selected == id {
		c.setSelection("")
	}
	c.renderer.SyncDocument(c.doc)
	c.commit(history.KindDelete)
}

// UpdateContent replaces a widget's opaque content payload and notifies
// the content listener. Geometry is untouched.
func (c *Controller) UpdateContent(id string, content json.RawMessage) {
	if c.locked {
		return
	}
	w := c.doc.WidgetByID(id)
	if w == nil {
		return
	}
	w.Content = content
	w.Meta.UpdatedAt = c.clock()
	if c.OnContentUpdated != nil {
		c.OnContentUpdated(id, content)
	}
	c.commit(history.KindContent)
}

// BringForward raises a widget above all others by assigning max(z)+1.
// Z values are never compacted; only relative order matters.
func (c *Controller) BringForward(id string) {
	if c.locked {
		return
	}
	w := c.doc.WidgetByID(id)
	if w == nil {
		return
	}
	w.Z = c.doc.MaxZ() + 1
	w.Meta.UpdatedAt = c.clock()
	c.renderer.ApplyGeometry(w.ID, w.Position, w.Size, w.Z)
	c.commit(history.KindRaise)
}
