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
	"errors"
	"fmt"
	"strings"
)

// SearchHit is one widget matched by a full-text query. Text is the
// indexed form of the widget's content.
type SearchHit struct {
	DashboardID string
	WidgetID    string
	Type        string
	Text        string
}

// language=SQL
// dialect=SQLite
const searchWidgetsSQL = `
SELECT w.dashboard_id, w.widget_id, w.type, w.text
FROM fts_widgets
JOIN widgets w ON w.id = fts_widgets.rowid
WHERE fts_widgets MATCH ?
ORDER BY rank
LIMIT ?`

// SearchWidgets runs a full-text query over indexed widget content across
// all dashboards. The query string uses FTS5 match syntax; bare words work
// as expected.
func SearchWidgets(ctx context.Context, workspaceRoot, query string, limit int) ([]SearchHit, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, errors.New("empty query")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, searchWidgetsSQL, q, limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.DashboardID, &h.WidgetID, &h.Type, &h.Text); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
