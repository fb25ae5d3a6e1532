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

package config

import (
	"fmt"
	"log/slog"

	"github.com/NVIDIA/nodeview/pkg/inventory"
	"github.com/NVIDIA/nodeview/pkg/k8s/client"
	"github.com/NVIDIA/nodeview/pkg/nodes"
	"github.com/NVIDIA/nodeview/pkg/usage"
)

// InventorySource returns a Kubernetes inventory source honoring the
// configured selectors and limit.
func (c *Config) InventorySource(kube client.Interface) *inventory.KubeSource {
	src := inventory.NewKubeSource(kube)
	src.LabelSelector = c.Inventory.LabelSelector
	src.FieldSelector = c.Inventory.FieldSelector
	src.Limit = c.Inventory.Limit
	return src
}

// UsageSource returns the usage source for the configured backend, or nil
// for BackendNone. metrics may be nil when no metrics-server backed source
// is needed.
func (c *Config) UsageSource(metrics client.MetricsInterface) (usage.Source, error) {
	switch c.Metrics.Backend {
	case BackendNone:
		return nil, nil
	case BackendMetricsServer:
		if metrics == nil {
			return nil, fmt.Errorf("metrics-server backend requires a metrics client")
		}
		return usage.NewMetricsServerSource(metrics), nil
	case BackendPrometheus:
		prom, err := usage.NewPrometheusSource(c.prometheusOptions())
		if err != nil {
			return nil, err
		}
		return prom, nil
	case BackendAuto:
		var chain []usage.Source
		if metrics != nil {
			chain = append(chain, usage.NewMetricsServerSource(metrics))
		}
		if c.Metrics.Prometheus.Address != "" {
			prom, err := usage.NewPrometheusSource(c.prometheusOptions())
			if err != nil {
				return nil, err
			}
			chain = append(chain, prom)
		}
		switch len(chain) {
		case 0:
			slog.Warn("no metrics backend available, usage will be zero")
			return nil, nil
		case 1:
			return chain[0], nil
		default:
			return usage.NewFallbackSource(chain...), nil
		}
	default:
		return nil, fmt.Errorf("unsupported metrics backend %q", c.Metrics.Backend)
	}
}

func (c *Config) prometheusOptions() usage.PrometheusOptions {
	p := c.Metrics.Prometheus
	return usage.PrometheusOptions{
		Address:            p.Address,
		CPUQuery:           p.CPUQuery,
		MemoryQuery:        p.MemoryQuery,
		NodeLabel:          p.NodeLabel,
		BearerTokenFile:    p.BearerTokenFile,
		InsecureSkipVerify: p.InsecureSkipVerify,
	}
}

// NewQuerier validates the configuration and wires a Querier reading nodes
// from inv and usage from the configured backend.
func (c *Config) NewQuerier(inv inventory.Source, metrics client.MetricsInterface) (*nodes.Querier, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	gen, err := c.LinkGenerator()
	if err != nil {
		return nil, err
	}

	src, err := c.UsageSource(metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage source: %w", err)
	}

	slog.Debug("querier configured",
		"metricsBackend", c.Metrics.Backend,
		"instanceTypeLabel", c.InstanceTypeLabel,
		"queryTimeout", c.Timeouts.Query,
		"inventoryTimeout", c.Timeouts.Inventory,
		"metricsTimeout", c.Timeouts.Metrics,
	)

	return nodes.NewQuerier(inv,
		nodes.WithUsageSource(src),
		nodes.WithLinks(gen),
		nodes.WithInstanceTypeLabel(c.InstanceTypeLabel),
		nodes.WithQueryTimeout(c.Timeouts.Query.Std()),
		nodes.WithInventoryTimeout(c.Timeouts.Inventory.Std()),
		nodes.WithMetricsTimeout(c.Timeouts.Metrics.Std()),
	)
}

// DropMetricsServer switches a metrics-server backend to auto. Callers with
// no metrics.k8s.io client, such as static inventories, use it so usage can
// still come from Prometheus when an address is configured.
func (c *Config) DropMetricsServer() {
	if c.Metrics.Backend == BackendMetricsServer {
		slog.Info("no metrics-server client, switching metrics backend",
			"from", BackendMetricsServer, "to", BackendAuto)
		c.Metrics.Backend = BackendAuto
	}
}
