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

package api

import (
	"context"
	"net/http"

	"github.com/NVIDIA/nodeview/pkg/defaults"
	apperrors "github.com/NVIDIA/nodeview/pkg/errors"
	"github.com/NVIDIA/nodeview/pkg/k8s/client"
	"github.com/NVIDIA/nodeview/pkg/serializer"
	"github.com/NVIDIA/nodeview/pkg/server"
)

// ContextResponse is the body of GET /v1/context.
type ContextResponse struct {
	Context string `json:"context" yaml:"context"`
}

// ContextHandler reports the kubeconfig context the server queries.
type ContextHandler struct {
	kubeconfig string
	resolve    func(kubeconfig string) (string, error)
}

// NewContextHandler returns a handler resolving the current context of
// kubeconfig (empty for automatic discovery).
func NewContextHandler(kubeconfig string) *ContextHandler {
	return &ContextHandler{
		kubeconfig: kubeconfig,
		resolve:    client.CurrentContext,
	}
}

type contextResult struct {
	name string
	err  error
}

// HandleContext serves GET /v1/context.
func (h *ContextHandler) HandleContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		server.WriteError(w, r, http.StatusMethodNotAllowed, apperrors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, map[string]any{
				"method":  r.Method,
				"allowed": []string{http.MethodGet},
			})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.ContextHandlerTimeout)
	defer cancel()

	done := make(chan contextResult, 1)
	go func() {
		name, err := h.resolve(h.kubeconfig)
		done <- contextResult{name: name, err: err}
	}()

	select {
	case <-ctx.Done():
		server.WriteErrorFromErr(w, r,
			apperrors.Wrap(apperrors.ErrCodeTimeout, "timed out resolving kubeconfig context", ctx.Err()),
			"Failed to resolve context", nil)
	case res := <-done:
		if res.err != nil {
			server.WriteErrorFromErr(w, r,
				apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve kubeconfig context", res.err),
				"Failed to resolve context", nil)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		serializer.RespondJSON(w, http.StatusOK, ContextResponse{Context: res.name})
	}
}
