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

package client

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"
)

// Interface is an alias for kubernetes.Interface to allow easier mocking in tests.
// This enables using fake.NewSimpleClientset() which returns kubernetes.Interface.
type Interface = kubernetes.Interface

// MetricsInterface is an alias for the metrics.k8s.io clientset interface.
type MetricsInterface = metricsclient.Interface

// Clients bundles the API clients a node query needs.
type Clients struct {
	// Kube is the core Kubernetes clientset (inventory).
	Kube Interface
	// Metrics is the metrics.k8s.io clientset (usage).
	Metrics MetricsInterface
	// Config is the rest configuration both clients were built from.
	Config *rest.Config
}

var (
	clientOnce   sync.Once
	cachedClient *kubernetes.Clientset
	cachedConfig *rest.Config
	clientErr    error
)

// GetKubeClient returns a singleton Kubernetes client, creating it on first call.
// Subsequent calls return the cached client for connection reuse and reduced overhead.
//
// The client automatically discovers configuration from:
//   - KUBECONFIG environment variable
//   - ~/.kube/config (default location)
//   - In-cluster service account (when running as Kubernetes Pod)
//
// For custom kubeconfig paths, use BuildClients or BuildKubeClient.
func GetKubeClient() (Interface, *rest.Config, error) {
	clientOnce.Do(func() {
		cachedClient, cachedConfig, clientErr = BuildKubeClient("")
	})
	return cachedClient, cachedConfig, clientErr
}

// ResolveKubeconfig returns the kubeconfig path to use for the given argument.
// An empty result means in-cluster configuration should be used.
// Resolution order: explicit argument, KUBECONFIG, ~/.kube/config if it exists.
func ResolveKubeconfig(kubeconfig string) string {
	if kubeconfig != "" {
		return kubeconfig
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(home); err == nil {
		return home
	}
	return ""
}

// BuildRestConfig returns the rest configuration for the given kubeconfig path,
// falling back to in-cluster configuration when no kubeconfig is available.
func BuildRestConfig(kubeconfig string) (*rest.Config, error) {
	path := ResolveKubeconfig(kubeconfig)

	// Use InClusterConfig directly when no kubeconfig is available
	// This avoids the warning: "Neither --kubeconfig nor --master was specified"
	if path == "" {
		config, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
		return config, nil
	}

	config, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, fmt.Errorf("failed to build kube config from %s: %w", path, err)
	}
	return config, nil
}

// BuildKubeClient creates a Kubernetes client from the given kubeconfig file,
// bypassing the singleton cache. An empty path uses automatic discovery.
func BuildKubeClient(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	config, err := BuildRestConfig(kubeconfig)
	if err != nil {
		return nil, nil, err
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return client, config, nil
}

// BuildMetricsClient creates a metrics.k8s.io client sharing the given rest configuration.
func BuildMetricsClient(config *rest.Config) (MetricsInterface, error) {
	if config == nil {
		return nil, fmt.Errorf("rest config is required")
	}
	mc, err := metricsclient.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}
	return mc, nil
}

// BuildClients creates the core and metrics clients for one kubeconfig.
func BuildClients(kubeconfig string) (*Clients, error) {
	kc, config, err := BuildKubeClient(kubeconfig)
	if err != nil {
		return nil, err
	}
	mc, err := BuildMetricsClient(config)
	if err != nil {
		return nil, err
	}
	return &Clients{
		Kube:    kc,
		Metrics: mc,
		Config:  config,
	}, nil
}

// CurrentContext returns the name of the current context of the resolved kubeconfig.
// In-cluster callers have no kubeconfig; they get "in-cluster".
func CurrentContext(kubeconfig string) (string, error) {
	path := ResolveKubeconfig(kubeconfig)
	if path == "" {
		return InClusterContext, nil
	}

	raw, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: path},
		nil,
	).RawConfig()
	if err != nil {
		return "", fmt.Errorf("failed to load kubeconfig %s: %w", path, err)
	}
	return raw.CurrentContext, nil
}

// InClusterContext is reported as the current context when running in-cluster.
const InClusterContext = "in-cluster"
