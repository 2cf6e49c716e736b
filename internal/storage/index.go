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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dashcanvas/internal/domain"
	applog "dashcanvas/internal/log"
	"dashcanvas/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores per-workspace ephemeral/index data under the
	// workspace root.
	IndexDirName  = ".dcv"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the embedded index schema. Bump on breaking
	// changes and add a step to runMigrations.
	schemaVersion = 2
)

// IndexPath returns the full path of the workspace's index database.
func IndexPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures the per-workspace SQLite index exists at
// .dcv/index.sqlite, opens it in WAL mode, and brings the schema up to
// date. Callers close the returned handle when done.
func InitOrOpenIndex(workspaceRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", workspaceRoot),
	)
	if strings.TrimSpace(workspaceRoot) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(workspaceRoot, IndexDirName), 0o755); err != nil {
		l.Error("create .dcv dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .dcv dir: %w", err)
	}

	path := IndexPath(workspaceRoot)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep the stored schema for migrations; only refresh metadata.
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Never downgrade.
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_widgets_dashboard ON widgets(dashboard_id);`,
				`CREATE INDEX IF NOT EXISTS idx_widgets_type ON widgets(type);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
			// Best-effort FTS optimize outside the tx.
			_, _ = db.ExecContext(ctx, `INSERT INTO fts_widgets(fts_widgets) VALUES('optimize')`)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the index tables and FTS structures.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// One row per widget across all dashboards. text carries the
		// searchable parts of the widget content plus its type tag.
		`CREATE TABLE IF NOT EXISTS widgets (
			id           INTEGER PRIMARY KEY,
			dashboard_id TEXT NOT NULL,
			widget_id    TEXT NOT NULL,
			type         TEXT NOT NULL,
			text         TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_widgets_ids ON widgets(dashboard_id, widget_id);`,

		// Contentless FTS5 index fed from widgets via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_widgets USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,

		// Full-document snapshots per dashboard, for crash recovery and a
		// local change timeline.
		`CREATE TABLE IF NOT EXISTS snapshots (
			id           INTEGER PRIMARY KEY,
			dashboard_id TEXT NOT NULL,
			ts           TEXT NOT NULL,
			doc_blob     BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_dash_ts ON snapshots(dashboard_id, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS widgets_ai AFTER INSERT ON widgets BEGIN
			INSERT INTO fts_widgets(rowid, text) VALUES (new.id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS widgets_ad AFTER DELETE ON widgets BEGIN
			INSERT INTO fts_widgets(fts_widgets, rowid, text) VALUES ('delete', old.id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS widgets_au AFTER UPDATE OF text ON widgets BEGIN
			INSERT INTO fts_widgets(fts_widgets, rowid, text) VALUES ('delete', old.id, old.text);
			INSERT INTO fts_widgets(rowid, text) VALUES (new.id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex checks for corruption or missing schema and
// rebuilds the index from the workspace manifest if needed. Returns true
// when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, workspaceRoot string, ws domain.Workspace) (bool, error) {
	path := IndexPath(workspaceRoot)
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		backupIndexFile(path)
		_ = os.Remove(path)
		if rbErr := RebuildIndex(ctx, workspaceRoot, ws); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	defer db.Close()
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM widgets LIMIT 1;`); err != nil {
			needs = true
		}
	}
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	_ = os.Remove(path)
	if err := RebuildIndex(ctx, workspaceRoot, ws); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index into .dcv/backups with a
// timestamped name.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// UpdateIndex replaces the widget rows from the given workspace manifest.
func UpdateIndex(ctx context.Context, workspaceRoot string, ws domain.Workspace) error {
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildWidgetsFromWorkspace(ctx, db, ws)
}

// RebuildIndex drops and recreates the index tables, then repopulates them
// from the manifest. meta/version are preserved; the index is derived data.
func RebuildIndex(ctx context.Context, workspaceRoot string, ws domain.Workspace) error {
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	drops := []string{
		"DROP TRIGGER IF EXISTS widgets_ai;",
		"DROP TRIGGER IF EXISTS widgets_ad;",
		"DROP TRIGGER IF EXISTS widgets_au;",
		"DROP TABLE IF EXISTS widgets;",
		"DROP TABLE IF EXISTS fts_widgets;",
		"DROP TABLE IF EXISTS snapshots;",
	}
	for _, q := range drops {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return rebuildWidgetsFromWorkspace(ctx, db, ws)
}

// rebuildWidgetsFromWorkspace replaces the widgets table content from the
// manifest. Widget content is opaque JSON; its raw text is indexed as-is,
// which is good enough for substring-ish FTS matches on titles and labels.
func rebuildWidgetsFromWorkspace(ctx context.Context, db *sql.DB, ws domain.Workspace) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM widgets;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear widgets: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO widgets(dashboard_id, widget_id, type, text) VALUES(?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for di := range ws.Dashboards {
		d := &ws.Dashboards[di]
		for wi := range d.Widgets {
			w := &d.Widgets[wi]
			text := w.Type
			if s := strings.TrimSpace(string(w.Content)); s != "" {
				text += " " + s
			}
			if _, err := ins.ExecContext(ctx, d.ID, w.ID, w.Type, text); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert widget: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
