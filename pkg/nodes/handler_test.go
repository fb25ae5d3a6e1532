// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nodes

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	apperrors "github.com/NVIDIA/nodeview/pkg/errors"
	"github.com/NVIDIA/nodeview/pkg/inventory"
	"github.com/NVIDIA/nodeview/pkg/server"
	"github.com/NVIDIA/nodeview/pkg/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleNodes(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		query        string
		match        string
		inv          inventory.Source
		src          usage.Source
		wantStatus   int
		wantNodes    int
		wantDegraded string
		wantOutcome  string
		wantCode     apperrors.ErrorCode
	}{
		{
			name:         "full usage",
			method:       http.MethodGet,
			inv:          scenarioInventory(),
			src:          &namedUsage{usage: map[string]usage.Usage{"n1": {CPUMilli: 1}, "n2": {CPUMilli: 2}}},
			wantStatus:   http.StatusOK,
			wantNodes:    2,
			wantDegraded: "false",
			wantOutcome:  "full",
		},
		{
			name:         "partial usage is degraded",
			method:       http.MethodGet,
			inv:          scenarioInventory(),
			src:          &namedUsage{usage: scenarioUsage()},
			wantStatus:   http.StatusOK,
			wantNodes:    2,
			wantDegraded: "true",
			wantOutcome:  "partial",
		},
		{
			name:         "metrics down still serves nodes",
			method:       http.MethodGet,
			inv:          scenarioInventory(),
			src:          &namedUsage{err: errors.New("down")},
			wantStatus:   http.StatusOK,
			wantNodes:    2,
			wantDegraded: "true",
			wantOutcome:  "failed",
		},
		{
			name:         "selector",
			method:       http.MethodGet,
			query:        "zone=eu",
			inv:          scenarioInventory(),
			wantStatus:   http.StatusOK,
			wantNodes:    1,
			wantDegraded: "false",
			wantOutcome:  "skipped",
		},
		{
			name:         "match any",
			method:       http.MethodGet,
			query:        "zone=eu,zone=us,bogus",
			match:        "any",
			inv:          scenarioInventory(),
			wantStatus:   http.StatusOK,
			wantNodes:    2,
			wantDegraded: "false",
			wantOutcome:  "skipped",
		},
		{
			name:       "invalid match mode",
			method:     http.MethodGet,
			query:      "zone=eu",
			match:      "some",
			inv:        scenarioInventory(),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeInvalidRequest,
		},
		{
			name:       "invalid selector",
			method:     http.MethodGet,
			query:      "zone in (",
			inv:        scenarioInventory(),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeInvalidRequest,
		},
		{
			name:       "inventory unavailable",
			method:     http.MethodGet,
			inv:        &inventory.StaticSource{Err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.ErrCodeUnavailable,
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			inv:        scenarioInventory(),
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   apperrors.ErrCodeMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []Option{}
			if tt.src != nil {
				opts = append(opts, WithUsageSource(tt.src))
			}
			q := newQuerier(t, tt.inv, opts...)

			params := url.Values{}
			if tt.query != "" {
				params.Set(SelectorParam, tt.query)
			}
			if tt.match != "" {
				params.Set(MatchParam, tt.match)
			}
			target := "/v1/nodes"
			if len(params) > 0 {
				target += "?" + params.Encode()
			}
			req := httptest.NewRequest(tt.method, target, nil)
			w := httptest.NewRecorder()

			q.HandleNodes(w, req)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if tt.wantStatus != http.StatusOK {
				var resp server.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, string(tt.wantCode), resp.Code)
				return
			}

			assert.Equal(t, tt.wantDegraded, w.Header().Get(DegradedHeader))
			assert.Equal(t, tt.wantOutcome, w.Header().Get(MetricsOutcomeHeader))
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

			var body QueriedNodes
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Len(t, body.Nodes, tt.wantNodes)
			assert.NotNil(t, body.Labels)
		})
	}
}

func TestHandleNodes_InventoryUnavailableMessage(t *testing.T) {
	q := newQuerier(t, &inventory.StaticSource{Err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	q.HandleNodes(w, httptest.NewRequest(http.MethodGet, "/v1/nodes", nil))

	var resp server.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cluster inventory unavailable", resp.Message)
	assert.True(t, resp.Retryable)
}
