/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history provides the bounded undo/redo manager for dashboard
// documents. Snapshots are full Document clones; rapid drag/resize commits
// are coalesced so a gesture does not flood the stack.
package history

import (
	"sync"
	"time"

	"dashcanvas/internal/domain"
)

const (
	// DefaultDepth caps the past stack; the oldest snapshot is dropped
	// first when the cap is exceeded.
	DefaultDepth = 50
	// DefaultCoalesceWindow is the interval within which successive
	// drag/resize commits collapse into one undo step.
	DefaultCoalesceWindow = 300 * time.Millisecond
)

// Kind categorizes a candidate action for the coalescing predicate.
type Kind string

const (
	KindDrag    Kind = "drag"
	KindResize  Kind = "resize"
	KindAdd     Kind = "add"
	KindDelete  Kind = "delete"
	KindNudge   Kind = "nudge"
	KindContent Kind = "content"
	KindArrange Kind = "arrange"
	KindRaise   Kind = "raise"
)

// Config controls stack depth and coalescing behavior.
type Config struct {
	Depth          int
	CoalesceWindow time.Duration
	// Clock is overridable in tests; defaults to time.Now.
	Clock func() time.Time
}

// Manager keeps two bounded stacks of Document snapshots. The top of the
// past stack always mirrors the current committed state; Undo returns the
// state to display, which is nil once the stack runs out (the caller resets
// to an empty canvas). It is safe for concurrent use, although the
// interaction core drives it from a single goroutine.
type Manager struct {
	mu     sync.Mutex
	depth  int
	window time.Duration
	clock  func() time.Time

	past   []*domain.Document
	future []*domain.Document

	// lastAction backs the coalescing predicate. Owned here rather than at
	// module level so independent canvases never share hidden state.
	lastAction time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.Depth <= 0 {
		cfg.Depth = DefaultDepth
	}
	if cfg.CoalesceWindow <= 0 {
		cfg.CoalesceWindow = DefaultCoalesceWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Manager{depth: cfg.Depth, window: cfg.CoalesceWindow, clock: cfg.Clock}
}

// Push records a snapshot. The document is deep-cloned on the way in, so
// later mutation of the live document cannot corrupt history. Any push
// clears the redo stack and evicts the oldest entry past the depth cap.
func (m *Manager) Push(doc *domain.Document) {
	if doc == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.past = append(m.past, doc.Clone())
	if len(m.past) > m.depth {
		m.past = append([]*domain.Document{}, m.past[len(m.past)-m.depth:]...)
	}
	m.future = nil
}

// Undo moves the current state onto the redo stack and returns the state to
// display. ok is false when the past stack is empty (pure no-op). When the
// pop empties the stack the returned document is nil with ok true: there is
// no earlier state and the caller should show an empty/initial canvas.
func (m *Manager) Undo() (*domain.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.past)
	if n == 0 {
		return nil, false
	}
	top := m.past[n-1]
	m.past = m.past[:n-1]
	m.future = append(m.future, top)
	if len(m.past) == 0 {
		return nil, true
	}
	return m.past[len(m.past)-1].Clone(), true
}

// Redo pops the redo stack back onto past and returns the popped snapshot,
// or ok=false when there is nothing to redo.
func (m *Manager) Redo() (*domain.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.future)
	if n == 0 {
		return nil, false
	}
	top := m.future[n-1]
	m.future = m.future[:n-1]
	m.past = append(m.past, top)
	return top.Clone(), true
}

// Clear drops both stacks. Used on dashboard switch.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.past = nil
	m.future = nil
	m.lastAction = time.Time{}
}

// ShouldCoalesce reports whether a candidate action is a continuation of
// the previous action and its push should be suppressed. Only drag and
// resize commits coalesce, and only when they land within the window of the
// previous action of any kind. The predicate is stateful: it must be called
// exactly once per candidate action, or the window desynchronizes.
func (m *Manager) ShouldCoalesce(kind Kind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	prev := m.lastAction
	m.lastAction = now
	if prev.IsZero() {
		return false
	}
	if kind != KindDrag && kind != KindResize {
		return false
	}
	return now.Sub(prev) < m.window
}

// Lengths returns the current stack sizes for diagnostics and tests.
func (m *Manager) Lengths() (past, future int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past), len(m.future)
}
