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

package usage

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/NVIDIA/nodeview/pkg/serializer"
	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPrometheusCPUQuery returns per-node CPU usage in cores.
	DefaultPrometheusCPUQuery = `sum by (node) (rate(container_cpu_usage_seconds_total{id="/"}[5m]))`
	// DefaultPrometheusMemoryQuery returns per-node working set memory in bytes.
	DefaultPrometheusMemoryQuery = `sum by (node) (container_memory_working_set_bytes{id="/"})`
	// DefaultPrometheusNodeLabel is the series label carrying the node name.
	DefaultPrometheusNodeLabel = "node"
)

// PrometheusOptions configures a PrometheusSource.
type PrometheusOptions struct {
	Address string
	// CPUQuery must return one sample per node, in cores.
	CPUQuery string
	// MemoryQuery must return one sample per node, in bytes.
	MemoryQuery        string
	NodeLabel          string
	BearerTokenFile    string
	InsecureSkipVerify bool
}

// PrometheusSource reads node usage with two instant PromQL queries.
type PrometheusSource struct {
	api         promv1.API
	cpuQuery    string
	memoryQuery string
	nodeLabel   model.LabelName
}

// NewPrometheusSource builds a source for the Prometheus server at opts.Address.
func NewPrometheusSource(opts PrometheusOptions) (*PrometheusSource, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("prometheus address is required")
	}

	client, err := api.NewClient(api.Config{
		Address: opts.Address,
		RoundTripper: &bearerAuthRoundTripper{
			parent:    serializer.NewHTTPTransport(opts.InsecureSkipVerify),
			tokenFile: opts.BearerTokenFile,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}

	return &PrometheusSource{
		api:         promv1.NewAPI(client),
		cpuQuery:    orDefault(opts.CPUQuery, DefaultPrometheusCPUQuery),
		memoryQuery: orDefault(opts.MemoryQuery, DefaultPrometheusMemoryQuery),
		nodeLabel:   model.LabelName(orDefault(opts.NodeLabel, DefaultPrometheusNodeLabel)),
	}, nil
}

// FetchUsage runs both queries and keeps the requested names.
func (p *PrometheusSource) FetchUsage(ctx context.Context, names []string) (map[string]Usage, error) {
	all, err := p.FetchAllUsage(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, names), nil
}

// FetchAllUsage runs the CPU and memory queries concurrently and joins the
// samples by node label. A node seen in only one query gets zero for the other.
func (p *PrometheusSource) FetchAllUsage(ctx context.Context) (map[string]Usage, error) {
	var cpu, mem model.Vector

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cpu, err = p.query(gctx, p.cpuQuery)
		return err
	})
	g.Go(func() error {
		var err error
		mem, err = p.query(gctx, p.memoryQuery)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetricsUnavailable, err)
	}

	out := make(map[string]Usage, len(cpu))
	for _, s := range cpu {
		node := string(s.Metric[p.nodeLabel])
		if node == "" {
			continue
		}
		u := out[node]
		u.CPUMilli = toInt64(float64(s.Value) * 1000)
		out[node] = u
	}
	for _, s := range mem {
		node := string(s.Metric[p.nodeLabel])
		if node == "" {
			continue
		}
		u := out[node]
		u.MemoryBytes = toInt64(float64(s.Value))
		out[node] = u
	}

	slog.Debug("fetched node metrics", "source", "prometheus", "nodes", len(out))
	return out, nil
}

func (p *PrometheusSource) query(ctx context.Context, q string) (model.Vector, error) {
	value, warnings, err := p.api.Query(ctx, q, time.Now())
	if err != nil {
		return nil, fmt.Errorf("prometheus query %q failed: %w", q, err)
	}
	for _, w := range warnings {
		slog.Warn("prometheus query warning", "query", q, "warning", w)
	}
	vector, ok := value.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("prometheus query %q returned %T, want vector", q, value)
	}
	return vector, nil
}

// toInt64 rounds v, mapping NaN and negative values to zero.
func toInt64(v float64) int64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Round(v))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// bearerAuthRoundTripper adds the token read from tokenFile to each request.
// The file is re-read per request so rotated service account tokens apply.
type bearerAuthRoundTripper struct {
	parent    http.RoundTripper
	tokenFile string
}

func (rt *bearerAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if rt.tokenFile != "" {
		data, err := os.ReadFile(rt.tokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read bearer token file: %w", err)
		}
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(string(data)))
	}
	return rt.parent.RoundTrip(req)
}
