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

// Package client builds the Kubernetes API clients nodeview reads from.
//
// Two clients are needed for a node snapshot: the core clientset (node
// inventory: names, labels, capacity) and the metrics.k8s.io clientset
// (live node usage from metrics-server). Both are built from the same
// rest configuration:
//
//	clients, err := client.BuildClients(kubeconfig)
//	if err != nil {
//	    return fmt.Errorf("failed to build clients: %w", err)
//	}
//	nodes, err := clients.Kube.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
//
// # Kubeconfig Discovery
//
// ResolveKubeconfig picks, in order:
//   - the explicit path (e.g. --kubeconfig)
//   - the KUBECONFIG environment variable
//   - ~/.kube/config when it exists
//
// When none is available the in-cluster service account configuration is used.
//
// # Singleton
//
// GetKubeClient caches a single core client built with automatic discovery.
// It is used by components that have no kubeconfig of their own, such as the
// ConfigMap output writer.
//
// # Current Context
//
// CurrentContext reports the current-context of the resolved kubeconfig,
// or "in-cluster" when running inside a Pod.
//
// # Testing
//
// Use the client-go and metrics fakes:
//
//	kube := fake.NewSimpleClientset(&corev1.Node{...})
//	metrics := metricsfake.NewSimpleClientset(&metricsv1beta1.NodeMetrics{...})
package client
