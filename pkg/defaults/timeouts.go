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

package defaults

import "time"

// Node query timeouts. The engine bounds the total wait of one query; the
// metrics budget is kept below the query budget so a slow metrics backend
// degrades to zero usage instead of failing the whole snapshot.
const (
	// QueryTimeout is the maximum duration of one node query end to end.
	QueryTimeout = 30 * time.Second

	// InventoryTimeout is the timeout for listing nodes from the Kubernetes API.
	InventoryTimeout = 20 * time.Second

	// MetricsTimeout is the timeout for one metrics backend call.
	// On expiry usage falls back to zero for every affected node.
	MetricsTimeout = 5 * time.Second
)

// Inventory paging limits.
const (
	// NodeListPageSize is the number of nodes requested per List page.
	NodeListPageSize int64 = 500

	// NodeListAbsoluteMax caps the number of nodes held in one snapshot.
	NodeListAbsoluteMax int64 = 10000
)

// Handler timeouts for HTTP request processing.
const (
	// NodesHandlerTimeout is the timeout for /v1/nodes requests.
	// Slightly longer than QueryTimeout to leave room for encoding.
	NodesHandlerTimeout = 35 * time.Second

	// ContextHandlerTimeout is the timeout for /v1/context requests.
	ContextHandlerTimeout = 5 * time.Second

	// ReadinessCheckTimeout bounds all dependency checks of one /ready request.
	ReadinessCheckTimeout = 3 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 45 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests (config download, Prometheus).
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second
)

// Output timeouts.
const (
	// ConfigMapWriteTimeout is the timeout for writing a snapshot to a ConfigMap.
	ConfigMapWriteTimeout = 30 * time.Second

	// OCIPushTimeout is the timeout for publishing a snapshot to an OCI registry.
	OCIPushTimeout = 2 * time.Minute
)
