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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/nodeview/pkg/config"
	"github.com/NVIDIA/nodeview/pkg/nodes"
	"github.com/NVIDIA/nodeview/pkg/oci"
	"github.com/NVIDIA/nodeview/pkg/serializer"
)

const testInventory = `nodes:
  - name: gpu-1
    providerID: aws:///us-west-2a/i-0abc
    labels:
      pool: gpu
      node.kubernetes.io/instance-type: p5.48xlarge
    capacity:
      cpu: 192000
      memory: 2199023255552
  - name: cpu-1
    labels:
      pool: cpu
    capacity:
      cpu: 8000
      memory: 34359738368
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.Writer = &out
	err := root.Run(context.Background(), append([]string{name}, args...))
	return out.String(), err
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		wantFormat serializer.Format
		wantErr    bool
	}{
		{name: "valid yaml format", format: "yaml", wantFormat: serializer.FormatYAML},
		{name: "valid json format", format: "json", wantFormat: serializer.FormatJSON},
		{name: "valid table format", format: "table", wantFormat: serializer.FormatTable},
		{name: "invalid format xml", format: "xml", wantErr: true},
		{name: "empty format", format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cli.Command{
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: tt.format,
					},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					got, err := parseOutputFormat(c)
					if (err != nil) != tt.wantErr {
						t.Errorf("parseOutputFormat() error = %v, wantErr %v", err, tt.wantErr)
						return nil
					}
					if !tt.wantErr && got != tt.wantFormat {
						t.Errorf("parseOutputFormat() = %v, want %v", got, tt.wantFormat)
					}
					return nil
				},
			}

			err := cmd.Run(context.Background(), []string{"test"})
			require.NoError(t, err)
		})
	}
}

func TestNodes_StaticInventory(t *testing.T) {
	inv := writeTemp(t, "inventory.yaml", testInventory)

	tests := []struct {
		name      string
		args      []string
		wantNodes []string
	}{
		{
			name:      "all nodes",
			wantNodes: []string{"gpu-1", "cpu-1"},
		},
		{
			name:      "selector",
			args:      []string{"--selector", "pool=gpu"},
			wantNodes: []string{"gpu-1"},
		},
		{
			name:      "selector alias",
			args:      []string{"-l", "pool!=gpu"},
			wantNodes: []string{"cpu-1"},
		},
		{
			name:      "selector matching nothing",
			args:      []string{"--selector", "pool=tpu"},
			wantNodes: []string{},
		},
		{
			name:      "match all requires every pair",
			args:      []string{"--selector", "pool=gpu,pool=cpu"},
			wantNodes: []string{},
		},
		{
			name:      "match any keeps either pair",
			args:      []string{"--match", "any", "--selector", "pool=gpu,pool=cpu"},
			wantNodes: []string{"gpu-1", "cpu-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "nodes.json")
			args := append([]string{"nodes", "--inventory-file", inv, "--metrics-backend", "none", "--output", out}, tt.args...)

			_, err := run(t, args...)
			require.NoError(t, err)

			raw, err := os.ReadFile(out)
			require.NoError(t, err)

			var got nodes.QueriedNodes
			require.NoError(t, json.Unmarshal(raw, &got))

			names := make([]string, 0, len(got.Nodes))
			for _, n := range got.Nodes {
				names = append(names, n.Name)
			}
			assert.Equal(t, tt.wantNodes, names)
			assert.NotNil(t, got.Labels)
		})
	}
}

func TestNodes_Formats(t *testing.T) {
	inv := writeTemp(t, "inventory.yaml", testInventory)

	t.Run("yaml", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "nodes.yaml")
		_, err := run(t, "nodes", "--inventory-file", inv, "--format", "yaml", "--output", out)
		require.NoError(t, err)

		raw, err := os.ReadFile(out)
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, yaml.Unmarshal(raw, &got))
		assert.Contains(t, got, "nodes")
		assert.Contains(t, got, "labels")
	})

	t.Run("table", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "nodes.txt")
		_, err := run(t, "nodes", "--inventory-file", inv, "-t", "table", "-o", out)
		require.NoError(t, err)

		raw, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "gpu-1")
		assert.Contains(t, string(raw), "cpu-1")
	})
}

func TestNodes_Errors(t *testing.T) {
	inv := writeTemp(t, "inventory.yaml", testInventory)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "unknown format",
			args:    []string{"nodes", "--inventory-file", inv, "--format", "xml"},
			wantErr: "unknown output format",
		},
		{
			name:    "invalid selector",
			args:    []string{"nodes", "--inventory-file", inv, "--selector", "pool in (gpu"},
			wantErr: "invalid selector",
		},
		{
			name:    "invalid match mode",
			args:    []string{"nodes", "--inventory-file", inv, "--match", "some"},
			wantErr: "unknown match mode",
		},
		{
			name:    "invalid metrics backend",
			args:    []string{"nodes", "--inventory-file", inv, "--metrics-backend", "graphite"},
			wantErr: "invalid metrics backend",
		},
		{
			name:    "missing inventory file",
			args:    []string{"nodes", "--inventory-file", filepath.Join(t.TempDir(), "missing.yaml")},
			wantErr: "failed to load inventory",
		},
		{
			name:    "invalid oci output",
			args:    []string{"nodes", "--inventory-file", inv, "--output", "oci://INVALID/Repo"},
			wantErr: "invalid OCI reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNodes_InventoryUnavailable(t *testing.T) {
	kubeconfig := writeTemp(t, "kubeconfig", "this is not a kubeconfig: [")

	_, err := run(t, "nodes", "--kubeconfig", kubeconfig)
	require.Error(t, err)
	assert.Equal(t, "cluster inventory unavailable", err.Error())
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
metrics:
  backend: prometheus
  prometheus:
    address: http://file:9090
timeouts:
  query: 10s
`)

	t.Run("file", func(t *testing.T) {
		cfg, err := loadConfig(&nodesCmdOptions{configPath: path})
		require.NoError(t, err)
		assert.Equal(t, config.BackendPrometheus, cfg.Metrics.Backend)
		assert.Equal(t, "http://file:9090", cfg.Metrics.Prometheus.Address)
		assert.Equal(t, "10s", cfg.Timeouts.Query.String())
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv(config.EnvPrometheusAddress, "http://env:9090")
		cfg, err := loadConfig(&nodesCmdOptions{configPath: path})
		require.NoError(t, err)
		assert.Equal(t, "http://env:9090", cfg.Metrics.Prometheus.Address)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv(config.EnvPrometheusAddress, "http://env:9090")
		cfg, err := loadConfig(&nodesCmdOptions{
			configPath:        path,
			metricsBackend:    string(config.BackendAuto),
			prometheusAddress: "http://flag:9090",
			timeout:           3 * time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, config.BackendAuto, cfg.Metrics.Backend)
		assert.Equal(t, "http://flag:9090", cfg.Metrics.Prometheus.Address)
		assert.Equal(t, "3s", cfg.Timeouts.Query.String())
	})
}

func TestLoadConfig_TimeoutCapsPhases(t *testing.T) {
	cfg, err := loadConfig(&nodesCmdOptions{timeout: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "2s", cfg.Timeouts.Query.String())
	assert.LessOrEqual(t, cfg.Timeouts.Metrics, cfg.Timeouts.Query)
	assert.LessOrEqual(t, cfg.Timeouts.Inventory, cfg.Timeouts.Query)
	require.NoError(t, cfg.Validate())

	inv := writeTemp(t, "inventory.yaml", testInventory)
	_, err = run(t, "nodes", "--inventory-file", inv, "--metrics-backend", "none",
		"--timeout", "2s", "--output", filepath.Join(t.TempDir(), "nodes.json"))
	require.NoError(t, err)
}

func TestNewSerializer(t *testing.T) {
	t.Run("oci", func(t *testing.T) {
		ser, err := newSerializer(&nodesCmdOptions{
			format: serializer.FormatJSON,
			output: "oci://localhost:5000/nodeview/snapshots",
		})
		require.NoError(t, err)
		w, ok := ser.(*oci.Writer)
		require.True(t, ok)
		assert.Equal(t, oci.DefaultTag, w.Reference().Tag)
	})

	t.Run("configmap", func(t *testing.T) {
		ser, err := newSerializer(&nodesCmdOptions{
			format: serializer.FormatYAML,
			output: "cm://monitoring/nodeview",
		})
		require.NoError(t, err)
		assert.IsType(t, &serializer.ConfigMapWriter{}, ser)
	})

	t.Run("stdout", func(t *testing.T) {
		ser, err := newSerializer(&nodesCmdOptions{format: serializer.FormatJSON})
		require.NoError(t, err)
		assert.IsType(t, &serializer.Writer{}, ser)
	})
}

func TestContextCommand(t *testing.T) {
	kubeconfig := writeTemp(t, "kubeconfig", `apiVersion: v1
kind: Config
current-context: staging
contexts:
- name: staging
  context:
    cluster: c
    user: u
clusters:
- name: c
  cluster:
    server: https://127.0.0.1:6443
users:
- name: u
  user: {}
`)

	out, err := run(t, "context", "--kubeconfig", kubeconfig)
	require.NoError(t, err)
	assert.Equal(t, "staging", strings.TrimSpace(out))
}
