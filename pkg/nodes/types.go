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
	"github.com/NVIDIA/nodeview/pkg/links"
	"github.com/NVIDIA/nodeview/pkg/usage"
	"k8s.io/apimachinery/pkg/api/resource"
)

// NodeCapacity is the declared capacity of a node.
// CPU is in millicores, memory in bytes; both are never negative.
type NodeCapacity struct {
	CPU    int64 `json:"cpu" yaml:"cpu"`
	Memory int64 `json:"memory" yaml:"memory"`
}

// NodeUsage is the live consumption of a node, in the same units as
// NodeCapacity. It is zero when metrics are unavailable for the node.
type NodeUsage struct {
	CPU    int64 `json:"cpu" yaml:"cpu"`
	Memory int64 `json:"memory" yaml:"memory"`
}

// Node is one enriched node of a snapshot.
type Node struct {
	Name           string            `json:"name" yaml:"name"`
	Labels         map[string]string `json:"labels" yaml:"labels"`
	ConsolePageURL string            `json:"consolePageURL" yaml:"consolePageURL"`
	DashboardURL   string            `json:"dashboardURL" yaml:"dashboardURL"`
	InstanceType   string            `json:"instanceType" yaml:"instanceType"`
	Usage          NodeUsage         `json:"usage" yaml:"usage"`
	Capacity       NodeCapacity      `json:"capacity" yaml:"capacity"`
}

// QueriedNodes is the point-in-time snapshot returned by a query.
// Nodes keep inventory order; Labels maps each label key to its distinct
// values across Nodes, sorted ascending.
type QueriedNodes struct {
	Nodes  []Node              `json:"nodes" yaml:"nodes"`
	Labels map[string][]string `json:"labels" yaml:"labels"`

	// Diagnostics describes degradations; it is not part of the wire format.
	Diagnostics Diagnostics `json:"-" yaml:"-"`
}

// Diagnostics records what was absorbed while building a snapshot.
type Diagnostics struct {
	MetricsOutcome usage.Outcome
	// MetricsError is the metrics failure, if any.
	MetricsError error
	// NodesWithoutUsage lists returned nodes whose usage defaulted to zero.
	NodesWithoutUsage []string
	DroppedMalformed  int
	DroppedDuplicate  int
	// LinkFailures counts links left empty, per link kind.
	LinkFailures map[links.Kind]int
}

// Degraded reports whether some usage or link field was defaulted.
func (d Diagnostics) Degraded() bool {
	return d.MetricsOutcome.Degraded() || len(d.LinkFailures) > 0
}

// TableHeader implements serializer.Tabular.
func (q *QueriedNodes) TableHeader() []string {
	return []string{"name", "instance type", "cpu used", "cpu capacity", "memory used", "memory capacity"}
}

// TableRows implements serializer.Tabular.
func (q *QueriedNodes) TableRows() [][]string {
	rows := make([][]string, 0, len(q.Nodes))
	for _, n := range q.Nodes {
		rows = append(rows, []string{
			n.Name,
			orDash(n.InstanceType),
			formatMilli(n.Usage.CPU),
			formatMilli(n.Capacity.CPU),
			formatBytes(n.Usage.Memory),
			formatBytes(n.Capacity.Memory),
		})
	}
	return rows
}

func formatMilli(v int64) string {
	return resource.NewMilliQuantity(v, resource.DecimalSI).String()
}

func formatBytes(v int64) string {
	return resource.NewQuantity(v, resource.BinarySI).String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
