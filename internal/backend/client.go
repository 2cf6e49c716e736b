/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend contains the optional dashboard sync layer: an HTTP
// client used by the desktop app and a small Postgres-backed server that
// stores dashboard documents per user.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dashcanvas/internal/domain"
)

// Client talks to the sync server. All operations require a bearer token
// obtained from /api/auth/token.
type Client struct {
	BaseURL string
	Token   string
	client  *http.Client
}

// NewClient creates a sync client. A trailing slash on baseURL is
// normalized away; timeout <= 0 selects 10s.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// DashboardInfo is the listing projection returned by the server.
type DashboardInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// ListDashboards returns the dashboards stored on the server.
func (c *Client) ListDashboards(ctx context.Context) ([]DashboardInfo, error) {
	var list []DashboardInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/dashboards", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetDashboard fetches a full dashboard document by id.
func (c *Client) GetDashboard(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	path := "/api/dashboards/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// PutDashboard uploads a dashboard document, creating or replacing the
// server copy.
func (c *Client) PutDashboard(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("dashboard id is required")
	}
	path := "/api/dashboards/" + url.PathEscape(doc.ID)
	return c.doJSON(ctx, http.MethodPut, path, doc, nil)
}

// FetchToken requests a bearer token from the server's auth endpoint.
func FetchToken(ctx context.Context, baseURL, subject string, ttl time.Duration) (string, error) {
	c := NewClient(baseURL, "", 0)
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	body := map[string]any{"subject": subject, "ttl_seconds": int64(ttl / time.Second)}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}
