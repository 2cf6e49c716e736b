/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"testing"
	"time"
)

func TestEnvOverridesBackendURL(t *testing.T) {
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesGridSize(t *testing.T) {
	t.Setenv(EnvGridSize, "16")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.GridSize != 16 {
		t.Fatalf("Editor.GridSize = %v, want 16", cfg.Editor.GridSize)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestMergeEditorFields(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Editor: EditorConfig{GridSize: 20, HistoryDepth: 100}}
	mergeInto(&dst, &src)
	if dst.Editor.GridSize != 20 || dst.Editor.HistoryDepth != 100 {
		t.Fatalf("editor fields not merged: %#v", dst.Editor)
	}
	// Zero values in the file must not wipe defaults.
	if dst.Editor.AutosaveDebounceMs != Defaults().Editor.AutosaveDebounceMs {
		t.Fatalf("zero debounce overwrote default: %#v", dst.Editor)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/dcv.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/dcv.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/dcv.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/dcv.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestEnvOverrideFor(t *testing.T) {
	t.Setenv(EnvBackendURL, "http://x")
	if name, ok := EnvOverrideFor("backend.base_url"); !ok || name != EnvBackendURL {
		t.Fatalf("EnvOverrideFor = %q %v", name, ok)
	}
	if _, ok := EnvOverrideFor("editor.grid_size"); ok {
		t.Fatalf("grid_size should not report an override when unset")
	}
}

func TestDurations(t *testing.T) {
	if d := (BackendConfig{}).EffectiveTimeout(); d != 15*time.Second {
		t.Fatalf("default timeout = %v", d)
	}
	if d := (BackendConfig{TimeoutMs: 250}).EffectiveTimeout(); d != 250*time.Millisecond {
		t.Fatalf("timeout = %v", d)
	}
	if d := (EditorConfig{AutosaveDebounceMs: 200}).AutosaveDebounce(); d != 200*time.Millisecond {
		t.Fatalf("debounce = %v", d)
	}
}
