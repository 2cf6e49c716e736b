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
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"dashcanvas/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(dashboard_id, ts, doc_blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, doc_blob FROM snapshots WHERE dashboard_id = ? ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, doc_blob FROM snapshots WHERE dashboard_id = ? ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE dashboard_id = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE dashboard_id = ? ORDER BY ts DESC LIMIT ?
)`

// Snapshot is one stored dashboard state with its capture time.
type Snapshot struct {
	TS   time.Time
	Blob []byte
}

// SaveSnapshot stores a full JSON snapshot of a dashboard in the
// workspace index.
func SaveSnapshot(ctx context.Context, wh *WorkspaceHandle, doc *domain.Document, ts time.Time) error {
	if wh == nil {
		return errors.New("nil WorkspaceHandle")
	}
	if doc == nil {
		return errors.New("nil document")
	}
	blob, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSnapshotSQL, doc.ID, ts.UTC().Format(time.RFC3339Nano), blob)
	return err
}

// GetLatestSnapshot returns the newest snapshot for a dashboard, or nil
// when none exists.
func GetLatestSnapshot(ctx context.Context, wh *WorkspaceHandle, dashboardID string) (*domain.Document, time.Time, error) {
	if wh == nil {
		return nil, time.Time{}, errors.New("nil WorkspaceHandle")
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var blob []byte
	err = db.QueryRowContext(ctx, selectLatestSnapshotSQL, dashboardID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	var doc domain.Document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, time.Time{}, err
	}
	ts, _ := time.Parse(time.RFC3339Nano, tsStr)
	return &doc, ts, nil
}

// ListSnapshots returns up to limit most recent snapshots for a dashboard.
func ListSnapshots(ctx context.Context, wh *WorkspaceHandle, dashboardID string, limit int) ([]Snapshot, error) {
	if wh == nil {
		return nil, errors.New("nil WorkspaceHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, dashboardID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var tsStr string
		var s Snapshot
		if err := rows.Scan(&tsStr, &s.Blob); err != nil {
			return nil, err
		}
		s.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneOldSnapshots keeps at most keepLast snapshots for the dashboard and
// deletes the rest. Returns the number of rows removed.
func PruneOldSnapshots(ctx context.Context, wh *WorkspaceHandle, dashboardID string, keepLast int) (int64, error) {
	if wh == nil {
		return 0, errors.New("nil WorkspaceHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, dashboardID, dashboardID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
