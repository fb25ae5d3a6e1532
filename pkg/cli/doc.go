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

// Package cli implements the nodeview command-line interface.
//
// # Commands
//
// nodes - Query the node snapshot:
//
//	nodeview nodes [--selector pool=gpu] [--format json|yaml|table] [--output path|cm://ns/name|oci://registry/repo:tag]
//
// Lists the cluster's nodes with capacity, current usage, instance type,
// console and dashboard links, plus an index of label keys to their
// distinct values. Missing usage metrics degrade the result (zero usage,
// warning logged) but never fail the command.
//
// context - Print the current kubeconfig context:
//
//	nodeview context [--kubeconfig ~/.kube/staging]
//
// # Global Flags
//
//	--log-level    Log verbosity: debug, info, warn, error (default: info)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// # Configuration
//
// Values are layered: built-in defaults, the --config file (path, URL or
// cm://namespace/name), NODEVIEW_* environment variables, then flags.
//
// # Environment Variables
//
//	LOG_LEVEL                   Logging verbosity
//	KUBECONFIG                  Kubeconfig path when --kubeconfig is unset
//	NODEVIEW_CONFIG             Configuration file when --config is unset
//	NODEVIEW_METRICS_BACKEND    metrics-server, prometheus, auto or none
//	NODEVIEW_PROMETHEUS_ADDRESS Prometheus base URL
//
// # Exit Codes
//
//	0  Success, including degraded results
//	1  Error; "cluster inventory unavailable" when nodes cannot be listed
package cli
