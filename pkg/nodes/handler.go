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
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/NVIDIA/nodeview/pkg/defaults"
	apperrors "github.com/NVIDIA/nodeview/pkg/errors"
	"github.com/NVIDIA/nodeview/pkg/serializer"
	"github.com/NVIDIA/nodeview/pkg/server"
)

const (
	// SelectorParam is the query parameter carrying a label selector.
	SelectorParam = "selector"
	// MatchParam selects how the selector is read: "all" (default) or "any".
	MatchParam = "match"

	// DegradedHeader is "true" when some usage or link field was defaulted.
	DegradedHeader = "X-Nodeview-Degraded"
	// MetricsOutcomeHeader reports the usage fetch outcome.
	MetricsOutcomeHeader = "X-Nodeview-Metrics-Outcome"
)

// HandleNodes serves GET /v1/nodes. The optional selector query parameter
// uses Kubernetes label selector syntax, e.g. ?selector=zone=us,role!=infra.
// With ?match=any it is a list of key=value pairs of which one must match.
// The body is the QueriedNodes JSON; degradation is reported in headers only.
func (q *Querier) HandleNodes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.NodesHandlerTimeout)
	defer cancel()

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		server.WriteError(w, r, http.StatusMethodNotAllowed, apperrors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, map[string]any{
				"method":  r.Method,
				"allowed": []string{http.MethodGet},
			})
		return
	}

	mode, err := ParseMatchMode(r.URL.Query().Get(MatchParam))
	if err != nil {
		server.WriteError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
			"Invalid match mode", false, map[string]any{
				"match":   r.URL.Query().Get(MatchParam),
				"allowed": MatchModes(),
			})
		return
	}

	raw := r.URL.Query().Get(SelectorParam)
	opts, err := SelectorOptions(raw, mode)
	if err != nil {
		server.WriteError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
			"Invalid label selector", false, map[string]any{
				"selector": raw,
				"error":    err.Error(),
			})
		return
	}

	result, err := q.QueryNodes(ctx, opts...)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to query nodes", nil)
		return
	}

	slog.Debug("serving nodes",
		"requestID", server.RequestID(r.Context()),
		"nodes", len(result.Nodes),
		"degraded", result.Diagnostics.Degraded(),
	)

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set(DegradedHeader, strconv.FormatBool(result.Diagnostics.Degraded()))
	w.Header().Set(MetricsOutcomeHeader, string(result.Diagnostics.MetricsOutcome))

	serializer.RespondJSON(w, http.StatusOK, result)
}
