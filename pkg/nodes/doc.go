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

// Package nodes builds point-in-time snapshots of a cluster's nodes.
//
// A Querier lists nodes from an inventory.Source, fetches live usage from a
// usage.Source, renders per-node links with a links.Generator and folds the
// node labels into a value index:
//
//	q, err := nodes.NewQuerier(inv,
//	    nodes.WithUsageSource(usageSrc),
//	    nodes.WithLinks(links.NewDefaultGenerator()),
//	)
//	snapshot, err := q.QueryNodes(ctx)
//
// The snapshot serializes as {"nodes": [...], "labels": {...}}. CPU is
// reported in millicores and memory in bytes.
//
// Metrics and link problems never fail a query: affected fields default to
// zero or the empty string and are recorded in QueriedNodes.Diagnostics,
// the nodeview_* Prometheus metrics and the logs. The only query error wraps
// ErrInventoryUnavailable.
//
// HandleNodes exposes the Querier over HTTP as GET /v1/nodes.
package nodes
