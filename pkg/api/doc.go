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

// Package api wires the nodeview HTTP API server.
//
// Serve loads configuration (NODEVIEW_CONFIG, then NODEVIEW_* overrides),
// builds Kubernetes and metrics clients, and serves:
//
//	GET /v1/nodes?selector=<label selector>  node snapshot
//	GET /v1/context                         current kubeconfig context
//
// alongside the /health, /ready and /metrics endpoints provided by
// pkg/server. Setting NODEVIEW_INVENTORY_FILE serves a static inventory
// instead of the cluster.
//
// Version information is set at build time:
//
//	go build -ldflags "-X github.com/NVIDIA/nodeview/pkg/api.version=1.0.0"
package api
