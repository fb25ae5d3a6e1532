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

package server

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/nodeview/pkg/defaults"
	apperrors "github.com/NVIDIA/nodeview/pkg/errors"
	"github.com/NVIDIA/nodeview/pkg/serializer"
)

const checkOK = "ok"

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status    string    `json:"status" yaml:"status"`
	Version   string    `json:"version,omitempty" yaml:"version,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Checks maps each readiness check to "ok" or its error.
	Checks map[string]string `json:"checks,omitempty" yaml:"checks,omitempty"`
}

// ReadinessCheck reports whether a dependency the server cannot work
// without is reachable.
type ReadinessCheck func(ctx context.Context) error

type readinessCheck struct {
	name  string
	check ReadinessCheck
}

// handleHealth serves GET /health. Liveness never depends on upstreams.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	serializer.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   s.config.Version,
		Timestamp: time.Now(),
	})
}

// handleReady serves GET /ready. It is 503 until the listener is up and
// whenever a registered check fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	if !s.isReady() {
		serializer.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "not_ready",
			Version:   s.config.Version,
			Timestamp: time.Now(),
			Reason:    "service is initializing",
		})
		return
	}

	results, failed := s.runChecks(r.Context())
	resp := HealthResponse{
		Status:    "ready",
		Version:   s.config.Version,
		Timestamp: time.Now(),
		Checks:    results,
	}
	status := http.StatusOK
	if len(failed) > 0 {
		status = http.StatusServiceUnavailable
		resp.Status = "not_ready"
		resp.Reason = "unavailable: " + strings.Join(failed, ", ")
	}

	serializer.RespondJSON(w, status, resp)
}

// runChecks runs every check concurrently under ReadinessCheckTimeout and
// returns the per-check results and the sorted names of the failed ones.
func (s *Server) runChecks(ctx context.Context) (map[string]string, []string) {
	if len(s.checks) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.ReadinessCheckTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(s.checks))
		failed  []string
	)

	// Checks report through results; the group never fails early.
	var g errgroup.Group
	for _, c := range s.checks {
		g.Go(func() error {
			err := c.check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				readinessCheckFailures.WithLabelValues(c.name).Inc()
				slog.Warn("readiness check failed", "check", c.name, "error", err)
				results[c.name] = err.Error()
				failed = append(failed, c.name)
				return nil
			}
			results[c.name] = checkOK
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(failed)
	return results, failed
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	WriteError(w, r, http.StatusMethodNotAllowed, apperrors.ErrCodeMethodNotAllowed,
		"Method not allowed", false, map[string]any{
			"method":  r.Method,
			"allowed": []string{http.MethodGet},
		})
	return false
}
