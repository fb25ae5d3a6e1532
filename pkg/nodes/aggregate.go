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
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/NVIDIA/nodeview/pkg/inventory"
	"github.com/NVIDIA/nodeview/pkg/links"
	"github.com/NVIDIA/nodeview/pkg/usage"
	"k8s.io/utils/set"
)

const (
	// DefaultInstanceTypeLabel is the well-known instance type label.
	DefaultInstanceTypeLabel = "node.kubernetes.io/instance-type"
	// LegacyInstanceTypeLabel is consulted when the default label is absent.
	LegacyInstanceTypeLabel = "beta.kubernetes.io/instance-type"
)

// ErrInventoryUnavailable is the only failure a query reports: the node
// list could not be read or held no usable entry.
var ErrInventoryUnavailable = errors.New("cluster inventory unavailable")

// Aggregator joins inventory entries with usage and links into Nodes.
type Aggregator struct {
	// InstanceTypeLabel is the label read into Node.InstanceType.
	// Empty means DefaultInstanceTypeLabel.
	InstanceTypeLabel string
	// Links renders console and dashboard URLs; nil leaves them empty.
	Links *links.Generator
}

// Aggregate builds the enriched node list in inventory order. Entries without
// a name are dropped, and only the first entry of a given name is kept.
// Nodes missing from res get zero usage. It fails with ErrInventoryUnavailable
// when no usable entry remains.
func (a *Aggregator) Aggregate(entries []inventory.Entry, res usage.Result) ([]Node, Diagnostics, error) {
	usable, diag := usableEntries(entries)
	nodes, err := a.build(usable, res, &diag)
	return nodes, diag, err
}

// usableEntries drops malformed and duplicate entries, keeping order.
func usableEntries(entries []inventory.Entry) ([]inventory.Entry, Diagnostics) {
	var diag Diagnostics
	usable := make([]inventory.Entry, 0, len(entries))
	seen := set.New[string]()

	for i, e := range entries {
		if err := e.Validate(); err != nil {
			diag.DroppedMalformed++
			slog.Warn("dropping inventory entry", "index", i, "error", err)
			continue
		}
		if seen.Has(e.Name) {
			diag.DroppedDuplicate++
			slog.Warn("dropping duplicate inventory entry, keeping first occurrence",
				"node", e.Name, "index", i, "providerID", e.ProviderID)
			continue
		}
		seen.Insert(e.Name)
		usable = append(usable, e)
	}
	return usable, diag
}

func errNoUsable(diag Diagnostics) error {
	return fmt.Errorf("%w: no usable node entries (malformed=%d, duplicate=%d)",
		ErrInventoryUnavailable, diag.DroppedMalformed, diag.DroppedDuplicate)
}

func names(entries []inventory.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func (a *Aggregator) build(usable []inventory.Entry, res usage.Result, diag *Diagnostics) ([]Node, error) {
	if len(usable) == 0 {
		return nil, errNoUsable(*diag)
	}

	diag.MetricsOutcome = res.Outcome
	diag.MetricsError = res.Err

	nodes := make([]Node, 0, len(usable))
	for _, e := range usable {
		u, ok := res.Usage[e.Name]
		if !ok {
			diag.NodesWithoutUsage = append(diag.NodesWithoutUsage, e.Name)
		}

		l := a.Links.BuildLinks(e.Name, e.ProviderID, e.Labels)
		for _, kind := range l.Failed {
			if diag.LinkFailures == nil {
				diag.LinkFailures = make(map[links.Kind]int)
			}
			diag.LinkFailures[kind]++
		}

		labels := maps.Clone(e.Labels)
		if labels == nil {
			labels = map[string]string{}
		}

		nodes = append(nodes, Node{
			Name:           e.Name,
			Labels:         labels,
			ConsolePageURL: l.ConsolePageURL,
			DashboardURL:   l.DashboardURL,
			InstanceType:   a.instanceType(labels),
			Usage: NodeUsage{
				CPU:    inventory.NonNegative(u.CPUMilli),
				Memory: inventory.NonNegative(u.MemoryBytes),
			},
			Capacity: NodeCapacity{
				CPU:    inventory.NonNegative(e.Capacity.CPUMilli),
				Memory: inventory.NonNegative(e.Capacity.MemoryBytes),
			},
		})
	}
	return nodes, nil
}

func (a *Aggregator) instanceType(labels map[string]string) string {
	key := a.InstanceTypeLabel
	if key == "" {
		key = DefaultInstanceTypeLabel
	}
	if v, ok := labels[key]; ok {
		return v
	}
	if key == DefaultInstanceTypeLabel {
		return labels[LegacyInstanceTypeLabel]
	}
	return ""
}
