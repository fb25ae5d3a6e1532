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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestNew(t *testing.T) {
	s := New(WithHandler(map[string]http.HandlerFunc{"/v1/nodes": okHandler}))
	require.NotNil(t, s)
	assert.NotNil(t, s.config)
	assert.NotNil(t, s.httpServer)
	assert.NotNil(t, s.rateLimiter)
	assert.Contains(t, s.config.Handlers, "/v1/nodes")
	assert.Contains(t, s.config.Handlers, "/", "default root handler")
	assert.Equal(t, "server", s.config.Name)
}

func TestOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Name = "from-config"
	cfg.Port = 9090
	cfg.RateLimit = 500

	s := New(WithConfig(cfg), WithName("nodeviewd"), WithVersion("1.2.3"))
	assert.Equal(t, "nodeviewd", s.config.Name)
	assert.Equal(t, "1.2.3", s.config.Version)
	assert.Equal(t, 9090, s.config.Port)
	assert.EqualValues(t, 500, s.config.RateLimit)
	assert.Equal(t, ":9090", s.httpServer.Addr)
}

func TestWithHandlerMerges(t *testing.T) {
	s := New(
		WithHandler(map[string]http.HandlerFunc{"/a": okHandler}),
		WithHandler(map[string]http.HandlerFunc{"/b": okHandler}),
	)
	assert.Contains(t, s.config.Handlers, "/a")
	assert.Contains(t, s.config.Handlers, "/b")
}

func TestHealthEndpoint(t *testing.T) {
	s := New()

	w := httptest.NewRecorder()
	s.handleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	s.handleHealth(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestReadyEndpoint(t *testing.T) {
	s := New()

	tests := []struct {
		name   string
		ready  bool
		status int
		want   string
	}{
		{"ready", true, http.StatusOK, "ready"},
		{"not ready", false, http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.setReady(tt.ready)

			w := httptest.NewRecorder()
			s.handleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.status, w.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestReadyEndpoint_Checks(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	tests := []struct {
		name       string
		checks     map[string]ReadinessCheck
		cancelled  bool
		wantStatus int
		wantState  string
		wantChecks map[string]string
		wantReason string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantState:  "ready",
		},
		{
			name:       "all pass",
			checks:     map[string]ReadinessCheck{"inventory": ok},
			wantStatus: http.StatusOK,
			wantState:  "ready",
			wantChecks: map[string]string{"inventory": "ok"},
		},
		{
			name:       "dependency down",
			checks:     map[string]ReadinessCheck{"inventory": down, "metrics": ok},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "not_ready",
			wantChecks: map[string]string{"inventory": "connection refused", "metrics": "ok"},
			wantReason: "unavailable: inventory",
		},
		{
			name:       "request cancelled",
			checks:     map[string]ReadinessCheck{"inventory": slow},
			cancelled:  true,
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "not_ready",
			wantChecks: map[string]string{"inventory": context.Canceled.Error()},
			wantReason: "unavailable: inventory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			for name, check := range tt.checks {
				opts = append(opts, WithReadinessCheck(name, check))
			}
			s := New(opts...)
			s.setReady(true)

			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancelled {
				cancel()
			}
			defer cancel()

			w := httptest.NewRecorder()
			s.handleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil).WithContext(ctx))
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Equal(t, tt.wantChecks, resp.Checks)
			assert.Equal(t, tt.wantReason, resp.Reason)
		})
	}
}

func TestReadyEndpoint_NotReadySkipsChecks(t *testing.T) {
	called := false
	s := New(WithReadinessCheck("inventory", func(context.Context) error {
		called = true
		return nil
	}))

	w := httptest.NewRecorder()
	s.handleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, called)
}

func TestRateLimiting(t *testing.T) {
	cfg := NewConfig()
	cfg.RateLimit = 1
	cfg.RateLimitBurst = 1
	cfg.Handlers = map[string]http.HandlerFunc{"/v1/nodes": okHandler}

	s := New(WithConfig(cfg))
	handler := s.withMiddleware(s.config.Handlers["/v1/nodes"])

	w1 := httptest.NewRecorder()
	handler(w1, httptest.NewRequest(http.MethodGet, "/v1/nodes", nil))
	assert.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	handler(w2, httptest.NewRequest(http.MethodGet, "/v1/nodes", nil))
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	assert.NotEmpty(t, w2.Header().Get("Retry-After"))
}

func TestDefaultRootHandler(t *testing.T) {
	s := New(WithName("nodeviewd"), WithHandler(map[string]http.HandlerFunc{
		"/v1/nodes":   okHandler,
		"/v1/context": okHandler,
	}))
	s.setReady(true)

	w := httptest.NewRecorder()
	s.config.Handlers["/"](w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp RootResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "nodeviewd", resp.Name)
	assert.True(t, resp.Ready)
	assert.Equal(t, []string{"/v1/context", "/v1/nodes", "/health", "/ready", "/metrics"}, resp.Routes)
}

func TestDefaultRootHandlerErrors(t *testing.T) {
	s := New()

	w := httptest.NewRecorder()
	s.config.Handlers["/"](w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	s.config.Handlers["/"](w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomRootHandlerNotOverridden(t *testing.T) {
	called := false
	s := New(WithHandler(map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		},
	}))

	s.config.Handlers["/"](httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestRoutedHandler(t *testing.T) {
	s := New(WithHandler(map[string]http.HandlerFunc{"/v1/nodes": okHandler}))
	h := s.Handler()

	tests := []struct {
		path   string
		status int
	}{
		{"/v1/nodes", http.StatusOK},
		{"/health", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/ready", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}

	// application routes go through the middleware chain
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/nodes", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, DefaultAPIVersion, w.Header().Get("X-API-Version"))
}

func TestGracefulShutdown(t *testing.T) {
	cfg := NewConfig()
	cfg.Address = "127.0.0.1"
	cfg.Port = 18080
	cfg.ShutdownTimeout = 100 * time.Millisecond
	cfg.Handlers = map[string]http.HandlerFunc{"/v1/nodes": okHandler}

	s := New(WithConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start(ctx)
	}()

	require.Eventually(t, s.isReady, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
		assert.False(t, s.isReady())
	case <-time.After(time.Second):
		t.Fatal("shutdown timed out")
	}
}

func TestStartListenError(t *testing.T) {
	cfg := NewConfig()
	cfg.Port = -1
	s := New(WithConfig(cfg))

	err := s.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, s.isReady())
}
