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

	"github.com/NVIDIA/nodeview/pkg/k8s/client"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// MetricsServerSource reads node usage from the metrics.k8s.io API.
type MetricsServerSource struct {
	client client.MetricsInterface
}

// NewMetricsServerSource returns a source backed by the given metrics client.
func NewMetricsServerSource(c client.MetricsInterface) *MetricsServerSource {
	return &MetricsServerSource{client: c}
}

// FetchUsage lists all node metrics once and keeps the requested names.
func (s *MetricsServerSource) FetchUsage(ctx context.Context, names []string) (map[string]Usage, error) {
	all, err := s.FetchAllUsage(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, names), nil
}

// FetchAllUsage returns usage for every node metrics-server knows about.
func (s *MetricsServerSource) FetchAllUsage(ctx context.Context) (map[string]Usage, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: metrics client is not configured", ErrMetricsUnavailable)
	}

	list, err := s.client.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list node metrics: %w", ErrMetricsUnavailable, err)
	}

	out := make(map[string]Usage, len(list.Items))
	for _, m := range list.Items {
		u := Usage{}
		if q, ok := m.Usage[corev1.ResourceCPU]; ok {
			u.CPUMilli = q.MilliValue()
		}
		if q, ok := m.Usage[corev1.ResourceMemory]; ok {
			u.MemoryBytes = q.Value()
		}
		out[m.Name] = u
	}

	slog.Debug("fetched node metrics", "source", "metrics-server", "nodes", len(out))
	return out, nil
}
