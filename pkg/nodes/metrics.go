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

package nodes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	queryStatusSuccess  = "success"
	queryStatusDegraded = "degraded"
	queryStatusFailed   = "failed"

	dropReasonMalformed = "malformed"
	dropReasonDuplicate = "duplicate"
)

var (
	queryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nodeview_query_duration_seconds",
			Help:    "Duration of node queries in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	queryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeview_query_total",
			Help: "Total number of node queries by status",
		},
		[]string{"status"},
	)
	metricsFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeview_metrics_fetch_total",
			Help: "Total number of usage fetches by outcome",
		},
		[]string{"outcome"},
	)
	inventoryDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeview_inventory_dropped_total",
			Help: "Total number of inventory entries dropped by reason",
		},
		[]string{"reason"},
	)
	linkFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeview_link_resolution_failures_total",
			Help: "Total number of node links left empty because a template parameter was missing",
		},
		[]string{"link"},
	)
	nodesGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nodeview_nodes",
			Help: "Number of nodes in the most recent snapshot",
		},
	)
)
