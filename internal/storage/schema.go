/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"fmt"
	"log/slog"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	applog "dashcanvas/internal/log"
)

//go:embed dashboard.schema.json
var workspaceSchema []byte

// ValidateManifest checks raw manifest bytes against the workspace JSON
// schema. A nil error with a non-empty slice means the document parsed but
// violates the schema.
func ValidateManifest(data []byte) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(workspaceSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validate: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}
	return issues, nil
}

// warnIfSchemaInvalid logs schema violations on open without refusing the
// manifest. Old or hand-edited workspaces still load.
func warnIfSchemaInvalid(data []byte) {
	issues, err := ValidateManifest(data)
	if err != nil || len(issues) == 0 {
		return
	}
	l := applog.WithComponent("storage")
	for _, issue := range issues {
		l.Warn("manifest schema violation", slog.String("detail", issue))
	}
}
