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
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/NVIDIA/nodeview/pkg/defaults"
	"github.com/NVIDIA/nodeview/pkg/links"
	"github.com/NVIDIA/nodeview/pkg/nodes"
	"github.com/NVIDIA/nodeview/pkg/serializer"
	"github.com/NVIDIA/nodeview/pkg/usage"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/utils/ptr"
)

// Backend selects where node usage comes from.
type Backend string

const (
	// BackendMetricsServer reads metrics.k8s.io NodeMetrics.
	BackendMetricsServer Backend = "metrics-server"
	// BackendPrometheus runs PromQL queries against a Prometheus server.
	BackendPrometheus Backend = "prometheus"
	// BackendAuto uses metrics-server and fills gaps from Prometheus when an
	// address is configured.
	BackendAuto Backend = "auto"
	// BackendNone disables usage; every node reports zero.
	BackendNone Backend = "none"
)

// Backends returns the supported metrics backends.
func Backends() []string {
	return []string{
		string(BackendMetricsServer),
		string(BackendPrometheus),
		string(BackendAuto),
		string(BackendNone),
	}
}

// Config is the nodeview configuration file.
type Config struct {
	// InstanceTypeLabel is the node label reported as the instance type.
	InstanceTypeLabel string          `json:"instanceTypeLabel,omitempty" yaml:"instanceTypeLabel,omitempty"`
	Links             LinksConfig     `json:"links" yaml:"links"`
	Metrics           MetricsConfig   `json:"metrics" yaml:"metrics"`
	Timeouts          TimeoutsConfig  `json:"timeouts" yaml:"timeouts"`
	Inventory         InventoryConfig `json:"inventory" yaml:"inventory"`
}

// LinksConfig holds the link URL templates. A nil template uses the
// built-in default; an empty one disables that link.
type LinksConfig struct {
	Console   *string `json:"console,omitempty" yaml:"console,omitempty"`
	Dashboard *string `json:"dashboard,omitempty" yaml:"dashboard,omitempty"`
}

// MetricsConfig selects and configures the usage backend.
type MetricsConfig struct {
	Backend    Backend          `json:"backend" yaml:"backend"`
	Prometheus PrometheusConfig `json:"prometheus" yaml:"prometheus"`
}

// PrometheusConfig configures the Prometheus usage backend.
type PrometheusConfig struct {
	Address            string `json:"address,omitempty" yaml:"address,omitempty"`
	CPUQuery           string `json:"cpuQuery,omitempty" yaml:"cpuQuery,omitempty"`
	MemoryQuery        string `json:"memoryQuery,omitempty" yaml:"memoryQuery,omitempty"`
	NodeLabel          string `json:"nodeLabel,omitempty" yaml:"nodeLabel,omitempty"`
	BearerTokenFile    string `json:"bearerTokenFile,omitempty" yaml:"bearerTokenFile,omitempty"`
	InsecureSkipVerify bool   `json:"insecureSkipVerify,omitempty" yaml:"insecureSkipVerify,omitempty"`
}

// TimeoutsConfig bounds the phases of one query.
type TimeoutsConfig struct {
	Query     Duration `json:"query" yaml:"query"`
	Inventory Duration `json:"inventory" yaml:"inventory"`
	Metrics   Duration `json:"metrics" yaml:"metrics"`
}

// InventoryConfig narrows the node list read from the API server.
type InventoryConfig struct {
	LabelSelector string `json:"labelSelector,omitempty" yaml:"labelSelector,omitempty"`
	FieldSelector string `json:"fieldSelector,omitempty" yaml:"fieldSelector,omitempty"`
	Limit         int64  `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InstanceTypeLabel: nodes.DefaultInstanceTypeLabel,
		Metrics: MetricsConfig{
			Backend: BackendMetricsServer,
			Prometheus: PrometheusConfig{
				CPUQuery:    usage.DefaultPrometheusCPUQuery,
				MemoryQuery: usage.DefaultPrometheusMemoryQuery,
				NodeLabel:   usage.DefaultPrometheusNodeLabel,
			},
		},
		Timeouts: TimeoutsConfig{
			Query:     Duration(defaults.QueryTimeout),
			Inventory: Duration(defaults.InventoryTimeout),
			Metrics:   Duration(defaults.MetricsTimeout),
		},
	}
}

// Load reads a configuration file over the defaults. The path may be a local
// file, an http(s) URL or a ConfigMap URI (cm://namespace/name).
func Load(path string) (*Config, error) {
	return LoadWithKubeconfig(path, "")
}

// LoadWithKubeconfig is Load with an explicit kubeconfig for cm:// paths.
func LoadWithKubeconfig(path, kubeconfig string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	fromFile, err := serializer.FromFileWithKubeconfig[Config](path, kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.merge(fromFile)
	return cfg, nil
}

// merge overlays the non-zero fields of o.
func (c *Config) merge(o *Config) {
	if o == nil {
		return
	}
	if o.InstanceTypeLabel != "" {
		c.InstanceTypeLabel = o.InstanceTypeLabel
	}
	if o.Links.Console != nil {
		c.Links.Console = o.Links.Console
	}
	if o.Links.Dashboard != nil {
		c.Links.Dashboard = o.Links.Dashboard
	}
	if o.Metrics.Backend != "" {
		c.Metrics.Backend = o.Metrics.Backend
	}

	p := o.Metrics.Prometheus
	setString(&c.Metrics.Prometheus.Address, p.Address)
	setString(&c.Metrics.Prometheus.CPUQuery, p.CPUQuery)
	setString(&c.Metrics.Prometheus.MemoryQuery, p.MemoryQuery)
	setString(&c.Metrics.Prometheus.NodeLabel, p.NodeLabel)
	setString(&c.Metrics.Prometheus.BearerTokenFile, p.BearerTokenFile)
	if p.InsecureSkipVerify {
		c.Metrics.Prometheus.InsecureSkipVerify = true
	}

	if o.Timeouts.Query != 0 {
		c.Timeouts.Query = o.Timeouts.Query
	}
	if o.Timeouts.Inventory != 0 {
		c.Timeouts.Inventory = o.Timeouts.Inventory
	}
	if o.Timeouts.Metrics != 0 {
		c.Timeouts.Metrics = o.Timeouts.Metrics
	}

	setString(&c.Inventory.LabelSelector, o.Inventory.LabelSelector)
	setString(&c.Inventory.FieldSelector, o.Inventory.FieldSelector)
	if o.Inventory.Limit != 0 {
		c.Inventory.Limit = o.Inventory.Limit
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Environment variables read by ApplyEnv.
const (
	EnvInstanceTypeLabel         = "NODEVIEW_INSTANCE_TYPE_LABEL"
	EnvConsoleTemplate           = "NODEVIEW_CONSOLE_TEMPLATE"
	EnvDashboardTemplate         = "NODEVIEW_DASHBOARD_TEMPLATE"
	EnvMetricsBackend            = "NODEVIEW_METRICS_BACKEND"
	EnvPrometheusAddress         = "NODEVIEW_PROMETHEUS_ADDRESS"
	EnvPrometheusBearerTokenFile = "NODEVIEW_PROMETHEUS_BEARER_TOKEN_FILE"
	EnvPrometheusInsecure        = "NODEVIEW_PROMETHEUS_INSECURE_SKIP_VERIFY"
	EnvQueryTimeout              = "NODEVIEW_QUERY_TIMEOUT"
	EnvInventoryTimeout          = "NODEVIEW_INVENTORY_TIMEOUT"
	EnvMetricsTimeout            = "NODEVIEW_METRICS_TIMEOUT"
	EnvInventoryLabelSelector    = "NODEVIEW_LABEL_SELECTOR"
	EnvInventoryFieldSelector    = "NODEVIEW_FIELD_SELECTOR"
)

// ApplyEnv overrides fields from NODEVIEW_* environment variables.
// Link templates may be set to the empty string to disable a link.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvInstanceTypeLabel); v != "" {
		c.InstanceTypeLabel = v
	}
	if v, ok := os.LookupEnv(EnvConsoleTemplate); ok {
		c.Links.Console = ptr.To(v)
	}
	if v, ok := os.LookupEnv(EnvDashboardTemplate); ok {
		c.Links.Dashboard = ptr.To(v)
	}
	if v := os.Getenv(EnvMetricsBackend); v != "" {
		c.Metrics.Backend = Backend(strings.ToLower(v))
	}
	if v := os.Getenv(EnvPrometheusAddress); v != "" {
		c.Metrics.Prometheus.Address = v
	}
	if v := os.Getenv(EnvPrometheusBearerTokenFile); v != "" {
		c.Metrics.Prometheus.BearerTokenFile = v
	}
	if v := os.Getenv(EnvPrometheusInsecure); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPrometheusInsecure, err)
		}
		c.Metrics.Prometheus.InsecureSkipVerify = b
	}

	for env, dst := range map[string]*Duration{
		EnvQueryTimeout:     &c.Timeouts.Query,
		EnvInventoryTimeout: &c.Timeouts.Inventory,
		EnvMetricsTimeout:   &c.Timeouts.Metrics,
	} {
		if v := os.Getenv(env); v != "" {
			if err := dst.set(v); err != nil {
				return fmt.Errorf("invalid %s: %w", env, err)
			}
		}
	}

	if v := os.Getenv(EnvInventoryLabelSelector); v != "" {
		c.Inventory.LabelSelector = v
	}
	if v := os.Getenv(EnvInventoryFieldSelector); v != "" {
		c.Inventory.FieldSelector = v
	}
	return nil
}

// Validate checks the configuration, including link template syntax.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(Backends(), string(c.Metrics.Backend)) {
		errs = append(errs, fmt.Errorf("invalid metrics backend %q (must be one of %s)",
			c.Metrics.Backend, strings.Join(Backends(), ", ")))
	}
	if c.Metrics.Backend == BackendPrometheus && c.Metrics.Prometheus.Address == "" {
		errs = append(errs, errors.New("metrics.prometheus.address is required for the prometheus backend"))
	}

	if c.Timeouts.Query < 0 || c.Timeouts.Inventory < 0 || c.Timeouts.Metrics < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.Timeouts.Query > 0 && c.Timeouts.Metrics > c.Timeouts.Query {
		errs = append(errs, fmt.Errorf("metrics timeout %s exceeds query timeout %s",
			c.Timeouts.Metrics, c.Timeouts.Query))
	}

	if _, err := labels.Parse(c.Inventory.LabelSelector); err != nil {
		errs = append(errs, fmt.Errorf("invalid inventory label selector: %w", err))
	}
	if _, err := fields.ParseSelector(c.Inventory.FieldSelector); err != nil {
		errs = append(errs, fmt.Errorf("invalid inventory field selector: %w", err))
	}
	if c.Inventory.Limit < 0 || c.Inventory.Limit > defaults.NodeListAbsoluteMax {
		errs = append(errs, fmt.Errorf("inventory limit must be between 0 and %d", defaults.NodeListAbsoluteMax))
	}

	if _, err := c.LinkGenerator(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LinkGenerator builds the link generator from the configured templates.
func (c *Config) LinkGenerator() (*links.Generator, error) {
	return links.NewGenerator(
		ptr.Deref(c.Links.Console, links.DefaultConsoleTemplate),
		ptr.Deref(c.Links.Dashboard, links.DefaultDashboardTemplate),
	)
}
