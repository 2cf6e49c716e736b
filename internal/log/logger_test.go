/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitWritesStructuredJSONToFile(t *testing.T) {
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("dcv_log_%d.json", time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(fpath) })

	Init(Options{Level: "debug", Format: "json", File: fpath})

	l := WithOperation(WithComponent("canvas"), "drag")
	l.Info("widget moved", slog.String("id", "w1"))

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines written")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if m["app"] != "dashcanvas" {
		t.Fatalf("app attr = %v", m["app"])
	}
	if m["component"] != "canvas" || m["op"] != "drag" {
		t.Fatalf("context attrs missing: %v", m)
	}
	if m["msg"] != "widget moved" {
		t.Fatalf("msg = %v", m["msg"])
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DCV_LOG_LEVEL", "warn")
	t.Setenv("DCV_LOG_FORMAT", "json")
	t.Setenv("DCV_LOG_SOURCE", "true")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("DCV_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestConsoleHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{opts: consoleOpts{Level: slog.LevelWarn}, w: &buf}

	if h.Enabled(nil, slog.LevelInfo) {
		t.Fatalf("info must be filtered at warn level")
	}
	var hh slog.Handler = h.WithAttrs([]slog.Attr{slog.String("k", "v")})
	hh = hh.WithGroup("grp")

	r := slog.Record{Time: time.Now(), Level: slog.LevelError, Message: "boom"}
	r.AddAttrs(slog.Int("n", 42), slog.Bool("ok", true))
	if err := hh.Handle(nil, r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ERR", "boom", "k=v", "grp.n=42", "grp.ok=true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
}
