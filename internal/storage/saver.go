/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dashcanvas/internal/domain"
	applog "dashcanvas/internal/log"
)

// RemoteUploader pushes a dashboard to the sync backend. Implemented by
// backend.Client; nil disables remote sync.
type RemoteUploader interface {
	PutDashboard(ctx context.Context, doc *domain.Document) error
}

// Saver implements the canvas persistence hook: it debounces the stream of
// committed documents from the interaction layer and writes the newest one
// to the workspace manifest, records a snapshot in the index, and uploads
// to the backend best-effort. Persist never blocks the caller and never
// surfaces errors into the editing flow; failures are logged.
type Saver struct {
	wh       *WorkspaceHandle
	remote   RemoteUploader
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	pending *domain.Document
	timer   *time.Timer
	closed  bool

	// writeMu serializes manifest writes between the debounce timer
	// goroutine and explicit Flush callers.
	writeMu sync.Mutex
}

// NewSaver creates a saver for the given workspace. debounce <= 0 selects
// 500ms. remote may be nil.
func NewSaver(wh *WorkspaceHandle, remote RemoteUploader, debounce time.Duration) *Saver {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Saver{
		wh:       wh,
		remote:   remote,
		debounce: debounce,
		log:      applog.WithComponent("storage"),
	}
}

// Persist schedules the document to be saved. Rapid calls within the
// debounce window collapse into one write of the latest state.
func (s *Saver) Persist(doc *domain.Document) {
	if doc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = doc.Clone()
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flushTimer)
		return
	}
	s.timer.Reset(s.debounce)
}

func (s *Saver) flushTimer() {
	s.mu.Lock()
	doc := s.pending
	s.pending = nil
	s.mu.Unlock()
	if doc != nil {
		s.write(doc)
	}
}

// Flush writes any pending document immediately. Called on dashboard
// switch and app exit.
func (s *Saver) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	doc := s.pending
	s.pending = nil
	s.mu.Unlock()
	if doc != nil {
		s.write(doc)
	}
}

// Close flushes and stops the saver; further Persist calls are dropped.
func (s *Saver) Close() {
	s.Flush()
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
}

func (s *Saver) write(doc *domain.Document) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.wh.Workspace.UpsertDashboard(*doc)
	if err := Save(s.wh); err != nil {
		s.log.Error("autosave manifest failed", slog.Any("err", err), slog.String("dashboard", doc.ID))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SaveSnapshot(ctx, s.wh, doc, time.Now()); err != nil {
		s.log.Warn("snapshot save failed", slog.Any("err", err), slog.String("dashboard", doc.ID))
	}
	if err := UpdateIndex(ctx, s.wh.Root, s.wh.Workspace); err != nil {
		s.log.Warn("index update failed", slog.Any("err", err))
	}
	if s.remote != nil {
		go func(d *domain.Document) {
			rctx, rcancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer rcancel()
			if err := s.remote.PutDashboard(rctx, d); err != nil {
				s.log.Warn("remote sync failed", slog.Any("err", err), slog.String("dashboard", d.ID))
			}
		}(doc.Clone())
	}
}

// AutosaveCrashSnapshot records the live document synchronously. Invoked
// from the crash handler, where debouncing would lose the final state.
func AutosaveCrashSnapshot(wh *WorkspaceHandle, doc *domain.Document) error {
	if wh == nil || doc == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return SaveSnapshot(ctx, wh, doc, time.Now())
}
