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

// Package usage fetches live node CPU and memory consumption.
//
// Sources answer for a set of node names and may leave names out; a missing
// name means unknown usage, never an error. Fetch wraps a source call into a
// Result tagged full, partial, failed or skipped so callers branch on the
// outcome instead of on errors:
//
//	res := usage.Fetch(ctx, src, names)
//	if res.Outcome.Degraded() {
//	    slog.Warn("usage degraded", "outcome", res.Outcome, "missing", len(res.Missing))
//	}
//
// Backends:
//   - MetricsServerSource reads metrics.k8s.io NodeMetrics
//   - PrometheusSource runs two instant PromQL queries (cores, bytes)
//   - FallbackSource chains sources and fills gaps in order
//
// MetricsServerSource and PrometheusSource also implement AllFetcher, so
// usage can be fetched without waiting for the node list.
//
// CPU is reported in millicores and memory in bytes; negative values are
// clamped to zero by Classify.
package usage
