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

// Package defaults provides centralized configuration constants for nodeview.
//
// Timeouts are organized by component:
//
//   - Query timeouts: total, inventory and metrics budgets of one node query
//   - Inventory paging: page size and hard cap for node listing
//   - Handler timeouts: For HTTP request processing
//   - Server timeouts: For HTTP server configuration
//   - HTTP client timeouts: For outbound HTTP requests
//   - Output timeouts: ConfigMap and OCI publishing
//
// # Usage
//
//	import "github.com/NVIDIA/nodeview/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.MetricsTimeout)
//	defer cancel()
//
// # Timeout Guidelines
//
//   - MetricsTimeout < InventoryTimeout < QueryTimeout < NodesHandlerTimeout
//   - A metrics timeout degrades usage to zero, it never fails a query
//   - Server shutdown: 30s for graceful shutdown
package defaults
