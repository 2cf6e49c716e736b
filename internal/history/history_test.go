/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

import (
	"fmt"
	"testing"
	"time"

	"dashcanvas/internal/domain"
)

func docNamed(name string) *domain.Document {
	return domain.NewDocument("dash-1", name)
}

func TestPushCapKeepsMostRecent(t *testing.T) {
	m := NewManager(Config{})
	for i := 0; i < 60; i++ {
		m.Push(docNamed(fmt.Sprintf("s%d", i)))
	}
	past, _ := m.Lengths()
	if past != 50 {
		t.Fatalf("past length = %d, want 50", past)
	}
	// The top must be the most recent push, and the bottom s10 (s0..s9
	// evicted FIFO).
	top, ok := undoTo(m, 1)
	if !ok || top.Name != "s58" {
		t.Fatalf("after one undo expected display state s58, got %v ok=%v", nameOf(top), ok)
	}
	bottom, ok := undoTo(m, 48)
	if !ok || bottom.Name != "s10" {
		t.Fatalf("expected oldest retained snapshot s10, got %v ok=%v", nameOf(bottom), ok)
	}
}

func undoTo(m *Manager, steps int) (*domain.Document, bool) {
	var d *domain.Document
	var ok bool
	for i := 0; i < steps; i++ {
		d, ok = m.Undo()
		if !ok {
			return d, false
		}
	}
	return d, ok
}

func nameOf(d *domain.Document) string {
	if d == nil {
		return "<nil>"
	}
	return d.Name
}

func TestUndoRedoInverse(t *testing.T) {
	m := NewManager(Config{})
	m.Push(docNamed("s1"))
	m.Push(docNamed("s2"))
	m.Push(docNamed("s3"))

	d, ok := m.Undo()
	if !ok || d.Name != "s2" {
		t.Fatalf("undo: got %v ok=%v, want s2", nameOf(d), ok)
	}
	d, ok = m.Redo()
	if !ok || d.Name != "s3" {
		t.Fatalf("redo after undo: got %v ok=%v, want s3", nameOf(d), ok)
	}
}

func TestRedoClearedByPush(t *testing.T) {
	m := NewManager(Config{})
	m.Push(docNamed("s1"))
	m.Push(docNamed("s2"))
	if _, ok := m.Undo(); !ok {
		t.Fatalf("undo failed")
	}
	m.Push(docNamed("s4"))
	if d, ok := m.Redo(); ok {
		t.Fatalf("redo after push should be a no-op, got %v", nameOf(d))
	}
}

func TestUndoSingleSnapshotYieldsNil(t *testing.T) {
	m := NewManager(Config{})
	m.Push(docNamed("s1"))
	m.Push(docNamed("s2"))

	d, ok := m.Undo()
	if !ok || d == nil || d.Name != "s1" {
		t.Fatalf("first undo: got %v ok=%v, want s1", nameOf(d), ok)
	}
	// Exactly one snapshot remains; undo pops it and yields nil rather than
	// s1, signaling "no earlier state".
	d, ok = m.Undo()
	if !ok || d != nil {
		t.Fatalf("second undo: got %v ok=%v, want nil/true", nameOf(d), ok)
	}
	// The stack is now empty: a further undo is a pure no-op.
	if _, ok := m.Undo(); ok {
		t.Fatalf("undo on empty stack must report ok=false")
	}
}

func TestUndoReturnsClone(t *testing.T) {
	m := NewManager(Config{})
	s1 := docNamed("s1")
	s1.Widgets = append(s1.Widgets, domain.Widget{ID: "w", Position: domain.Position{X: 5}})
	m.Push(s1)
	m.Push(docNamed("s2"))

	d, _ := m.Undo()
	d.Widgets[0].Position.X = 999
	m.Push(docNamed("s3"))
	d2, _ := m.Undo()
	if d2.Widgets[0].Position.X != 5 {
		t.Fatalf("stored snapshot was mutated through the returned copy")
	}
}

func TestCoalescingWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	m := NewManager(Config{Clock: func() time.Time { return now }})

	if m.ShouldCoalesce(KindDrag) {
		t.Fatalf("first action must never coalesce")
	}
	now = now.Add(50 * time.Millisecond)
	if !m.ShouldCoalesce(KindDrag) {
		t.Fatalf("drag 50ms after previous action should coalesce")
	}
	now = now.Add(400 * time.Millisecond)
	if m.ShouldCoalesce(KindDrag) {
		t.Fatalf("drag 400ms after previous action should not coalesce")
	}
	// Discrete actions never coalesce, but still advance the window.
	now = now.Add(10 * time.Millisecond)
	if m.ShouldCoalesce(KindAdd) {
		t.Fatalf("add actions never coalesce")
	}
	now = now.Add(50 * time.Millisecond)
	if !m.ShouldCoalesce(KindResize) {
		t.Fatalf("resize 50ms after an add should coalesce")
	}
}

func TestClear(t *testing.T) {
	m := NewManager(Config{})
	m.Push(docNamed("s1"))
	m.Push(docNamed("s2"))
	m.Undo()
	m.Clear()
	past, future := m.Lengths()
	if past != 0 || future != 0 {
		t.Fatalf("clear left past=%d future=%d", past, future)
	}
}
