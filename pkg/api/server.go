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

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/NVIDIA/nodeview/pkg/config"
	"github.com/NVIDIA/nodeview/pkg/inventory"
	"github.com/NVIDIA/nodeview/pkg/k8s/client"
	"github.com/NVIDIA/nodeview/pkg/logging"
	"github.com/NVIDIA/nodeview/pkg/nodes"
	"github.com/NVIDIA/nodeview/pkg/server"
)

const (
	name           = "nodeviewd"
	versionDefault = "dev"

	// EnvConfigFile names the configuration to load: a path, an http(s) URL
	// or cm://namespace/name.
	EnvConfigFile = "NODEVIEW_CONFIG"
	// EnvInventoryFile serves a static inventory file instead of the cluster.
	EnvInventoryFile = "NODEVIEW_INVENTORY_FILE"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/NVIDIA/nodeview/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the API server and blocks until shutdown.
// It configures logging, wires the node query engine from configuration,
// sets up routes, and handles graceful shutdown.
func Serve() error {
	ctx := context.Background()

	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	svc, err := setup(os.Getenv(EnvConfigFile), os.Getenv(EnvInventoryFile), "")
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return err
	}

	s := server.New(append([]server.Option{
		server.WithName(name),
		server.WithVersion(version),
	}, svc.options()...)...)

	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}

	return nil
}

// service is what setup wires for the server: the API routes and the
// readiness checks of the dependencies a query cannot do without.
type service struct {
	handlers map[string]http.HandlerFunc
	checks   map[string]server.ReadinessCheck
}

func (s *service) options() []server.Option {
	opts := []server.Option{server.WithHandler(s.handlers)}
	for name, check := range s.checks {
		opts = append(opts, server.WithReadinessCheck(name, check))
	}
	return opts
}

// setup loads configuration and builds the API routes. A non-empty
// inventoryFile replaces the Kubernetes inventory and disables the
// metrics-server client.
func setup(configPath, inventoryFile, kubeconfig string) (*service, error) {
	cfg, err := config.LoadWithKubeconfig(configPath, kubeconfig)
	if err != nil {
		return nil, err
	}
	if err = cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	var (
		inv     inventory.Source
		metrics client.MetricsInterface
	)
	if inventoryFile != "" {
		static, loadErr := inventory.LoadFile(inventoryFile)
		if loadErr != nil {
			return nil, loadErr
		}
		slog.Info("serving static inventory", "path", inventoryFile, "nodes", len(static.Entries))
		inv = static
		cfg.DropMetricsServer()
	} else {
		clients, buildErr := client.BuildClients(kubeconfig)
		if buildErr != nil {
			return nil, fmt.Errorf("failed to create kubernetes clients: %w", buildErr)
		}
		inv = cfg.InventorySource(clients.Kube)
		metrics = clients.Metrics
	}

	q, err := cfg.NewQuerier(inv, metrics)
	if err != nil {
		return nil, err
	}

	svc := &service{
		handlers: routes(q, NewContextHandler(kubeconfig)),
		checks:   map[string]server.ReadinessCheck{},
	}
	if p, ok := inv.(inventory.Pinger); ok {
		svc.checks["inventory"] = p.Ping
	}
	return svc, nil
}

func routes(q *nodes.Querier, c *ContextHandler) map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/v1/nodes":   q.HandleNodes,
		"/v1/context": c.HandleContext,
	}
}
