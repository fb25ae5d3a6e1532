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

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/nodeview/pkg/config"
	"github.com/NVIDIA/nodeview/pkg/inventory"
	"github.com/NVIDIA/nodeview/pkg/k8s/client"
	"github.com/NVIDIA/nodeview/pkg/nodes"
	"github.com/NVIDIA/nodeview/pkg/oci"
	"github.com/NVIDIA/nodeview/pkg/serializer"
)

type nodesCmdOptions struct {
	selector          string
	match             nodes.MatchMode
	query             []nodes.QueryOption
	format            serializer.Format
	output            string
	configPath        string
	kubeconfig        string
	inventoryFile     string
	metricsBackend    string
	prometheusAddress string
	timeout           time.Duration
	plainHTTP         bool
	insecureTLS       bool
}

func parseNodesCmdOptions(cmd *cli.Command) (*nodesCmdOptions, error) {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return nil, err
	}

	match, err := nodes.ParseMatchMode(cmd.String("match"))
	if err != nil {
		return nil, err
	}

	selector := strings.TrimSpace(cmd.String("selector"))
	query, err := nodes.SelectorOptions(selector, match)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	backend := cmd.String("metrics-backend")
	if backend != "" && !isBackend(backend) {
		return nil, fmt.Errorf("invalid metrics backend %q (supported values: %s)", backend, config.Backends())
	}

	return &nodesCmdOptions{
		selector:          selector,
		match:             match,
		query:             query,
		format:            format,
		output:            strings.TrimSpace(cmd.String("output")),
		configPath:        cmd.String("config"),
		kubeconfig:        cmd.String("kubeconfig"),
		inventoryFile:     cmd.String("inventory-file"),
		metricsBackend:    backend,
		prometheusAddress: cmd.String("prometheus-address"),
		timeout:           cmd.Duration("timeout"),
		plainHTTP:         cmd.Bool("plain-http"),
		insecureTLS:       cmd.Bool("insecure-tls"),
	}, nil
}

func isBackend(v string) bool {
	for _, b := range config.Backends() {
		if b == v {
			return true
		}
	}
	return false
}

func nodesCmd() *cli.Command {
	return &cli.Command{
		Name:                  "nodes",
		EnableShellCompletion: true,
		Usage:                 "Query cluster nodes with capacity, usage and label index",
		Description: `Query the nodes of the current cluster. Each node carries:
  - CPU (millicores) and memory (bytes) capacity
  - Current usage from metrics-server or Prometheus
  - Instance type and external console/dashboard links
  - All labels

The result also indexes every label key to its sorted distinct values.
When usage cannot be fetched the nodes are still returned with zero usage
and a warning is logged. The command fails only when the node inventory
itself cannot be read.

# Examples

All nodes as a table:
  nodeview nodes --format table

Nodes in either of two pools:
  nodeview nodes --match any --selector 'pool=gpu,pool=inference'

GPU nodes in one zone, saved to a ConfigMap:
  nodeview nodes --selector 'pool=gpu,topology.kubernetes.io/zone=us-west-2a' \
    --output cm://monitoring/nodeview-gpu

Publish a snapshot to an OCI registry:
  nodeview nodes --output oci://ghcr.io/acme/nodeview:$(date +%Y%m%d)`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "selector",
				Aliases: []string{"l"},
				Usage:   "Label selector to filter nodes (e.g., 'pool=gpu,zone!=us-east-1a')",
			},
			&cli.StringFlag{
				Name:  "match",
				Value: string(nodes.MatchAll),
				Usage: "How to read --selector: 'all' requires every requirement, 'any' keeps nodes matching one key=value pair",
			},
			&cli.StringFlag{
				Name:  "metrics-backend",
				Usage: fmt.Sprintf("Usage metrics backend (supported values: %s)", config.Backends()),
			},
			&cli.StringFlag{
				Name:  "prometheus-address",
				Usage: "Prometheus base URL for the prometheus and auto backends",
			},
			&cli.StringFlag{
				Name:  "inventory-file",
				Usage: "Read nodes from a static inventory file instead of the cluster",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall query timeout (default: from configuration)",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for oci:// output",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS verification for oci:// output",
			},
			outputFlag(),
			formatFlag(),
			configFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := parseNodesCmdOptions(cmd)
			if err != nil {
				return err
			}
			return runNodes(ctx, opts)
		},
	}
}

func runNodes(ctx context.Context, opts *nodesCmdOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	var (
		inv     inventory.Source
		metrics client.MetricsInterface
	)
	if opts.inventoryFile != "" {
		static, loadErr := inventory.LoadFile(opts.inventoryFile)
		if loadErr != nil {
			return loadErr
		}
		inv = static
		cfg.DropMetricsServer()
	} else {
		clients, buildErr := client.BuildClients(opts.kubeconfig)
		if buildErr != nil {
			slog.Debug("kubernetes client unavailable", "error", buildErr)
			return nodes.ErrInventoryUnavailable
		}
		inv = cfg.InventorySource(clients.Kube)
		metrics = clients.Metrics
	}

	q, err := cfg.NewQuerier(inv, metrics)
	if err != nil {
		return err
	}

	result, err := q.QueryNodes(ctx, opts.query...)
	if err != nil {
		if errors.Is(err, nodes.ErrInventoryUnavailable) {
			slog.Debug("node query failed", "error", err)
			return nodes.ErrInventoryUnavailable
		}
		return err
	}

	if d := result.Diagnostics; d.Degraded() {
		slog.Warn("snapshot degraded",
			"metricsOutcome", d.MetricsOutcome,
			"nodesWithoutUsage", len(d.NodesWithoutUsage),
			"linkFailures", len(d.LinkFailures),
			"error", d.MetricsError)
	}

	ser, err := newSerializer(opts)
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := ser.(serializer.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close serializer", "error", err)
			}
		}
	}()

	return ser.Serialize(ctx, result)
}

// loadConfig layers the configuration file, NODEVIEW_* variables and flags.
func loadConfig(opts *nodesCmdOptions) (*config.Config, error) {
	cfg, err := config.LoadWithKubeconfig(opts.configPath, opts.kubeconfig)
	if err != nil {
		return nil, err
	}
	if err = cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if opts.metricsBackend != "" {
		cfg.Metrics.Backend = config.Backend(opts.metricsBackend)
	}
	if opts.prometheusAddress != "" {
		cfg.Metrics.Prometheus.Address = opts.prometheusAddress
	}
	if opts.timeout > 0 {
		cfg.Timeouts.Query = config.Duration(opts.timeout)
		// Phase budgets never exceed the overall one.
		if cfg.Timeouts.Metrics > cfg.Timeouts.Query {
			cfg.Timeouts.Metrics = cfg.Timeouts.Query
		}
		if cfg.Timeouts.Inventory > cfg.Timeouts.Query {
			cfg.Timeouts.Inventory = cfg.Timeouts.Query
		}
	}
	return cfg, nil
}

// newSerializer picks the writer for --output: an OCI registry, a
// ConfigMap, a file, or stdout.
func newSerializer(opts *nodesCmdOptions) (serializer.Serializer, error) {
	if oci.IsReference(opts.output) {
		return oci.NewWriter(opts.format, opts.output,
			oci.WithPlainHTTP(opts.plainHTTP),
			oci.WithInsecureTLS(opts.insecureTLS),
			oci.WithAnnotations(map[string]string{
				oci.AnnotationSelector: opts.selector,
				oci.AnnotationMatch:    string(opts.match),
			}),
		)
	}

	ser := serializer.NewFileWriterOrStdout(opts.format, opts.output)
	if cm, ok := ser.(*serializer.ConfigMapWriter); ok && opts.kubeconfig != "" {
		kube, _, err := client.BuildKubeClient(opts.kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
		}
		cm.WithClient(kube)
	}
	return ser, nil
}
