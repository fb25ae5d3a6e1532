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

// Package server provides the HTTP server shared by the nodeview daemon.
//
// The server is stateless. Application routes are supplied by the caller and
// wrapped in a middleware chain:
//
//   - Prometheus request metrics (nodeview_http_*)
//   - API version negotiation via Accept: application/vnd.nvidia.nodeview.v1+json
//   - Request ID tracking (X-Request-Id, UUID)
//   - Panic recovery
//   - Token bucket rate limiting (golang.org/x/time/rate)
//   - Debug request logging
//
// System endpoints bypass the chain:
//
//	GET /health   liveness, always 200
//	GET /ready    readiness, 503 until the listener is up and during shutdown
//	GET /metrics  Prometheus exposition
//
// # Usage
//
//	s := server.New(
//	    server.WithName("nodeviewd"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "/v1/nodes": querier.HandleNodes,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// Run stops on context cancellation, SIGINT or SIGTERM and shuts down
// gracefully within Config.ShutdownTimeout (SHUTDOWN_TIMEOUT_SECONDS).
// Under a systemd Type=notify unit the server reports READY=1 once listening
// and STOPPING=1 on shutdown.
//
// # Errors
//
// Handlers report failures with WriteError or WriteErrorFromErr. Every error
// body has the same shape:
//
//	{
//	  "code": "SERVICE_UNAVAILABLE",
//	  "message": "cluster inventory unavailable",
//	  "details": {"error": "connection refused"},
//	  "requestId": "550e8400-e29b-41d4-a716-446655440000",
//	  "timestamp": "2026-01-02T12:00:00Z",
//	  "retryable": true
//	}
//
// Structured error codes map to HTTP status with HTTPStatusFromCode.
package server
