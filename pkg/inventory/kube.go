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

package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NVIDIA/nodeview/pkg/defaults"
	apperrors "github.com/NVIDIA/nodeview/pkg/errors"
	"github.com/NVIDIA/nodeview/pkg/k8s/client"

	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
)

// KubeSource lists core/v1 Nodes through the Kubernetes API.
type KubeSource struct {
	// Client is the Kubernetes client used for listing.
	Client client.Interface
	// LabelSelector always applies, in addition to the per-call selector.
	LabelSelector string
	// FieldSelector is passed to the API server unchanged.
	FieldSelector string
	// Limit caps the number of nodes returned (0 means the hard cap).
	Limit int64
}

// NewKubeSource returns a source listing nodes with the given client.
func NewKubeSource(c client.Interface) *KubeSource {
	return &KubeSource{Client: c}
}

// ListNodes pages through the node list and converts each node into an Entry.
// Entries are returned in API server order.
func (s *KubeSource) ListNodes(ctx context.Context, selector labels.Selector) ([]Entry, error) {
	if s.Client == nil {
		return nil, apperrors.New(apperrors.ErrCodeInternal, "kubernetes client is not configured")
	}

	nodes, err := s.list(ctx, s.labelSelector(selector))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, entryFromNode(n))
	}
	return entries, nil
}

// Filtered reports whether a configured label or field selector narrows
// every listing.
func (s *KubeSource) Filtered() bool {
	return strings.TrimSpace(s.LabelSelector) != "" || strings.TrimSpace(s.FieldSelector) != ""
}

// Ping lists at most one node with the configured selectors to confirm the
// API server answers and the node list is readable.
func (s *KubeSource) Ping(ctx context.Context) error {
	if s.Client == nil {
		return apperrors.New(apperrors.ErrCodeInternal, "kubernetes client is not configured")
	}
	_, err := s.Client.CoreV1().Nodes().List(ctx, metav1.ListOptions{
		LabelSelector: s.LabelSelector,
		FieldSelector: s.FieldSelector,
		Limit:         1,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to list nodes", err)
	}
	return nil
}

func (s *KubeSource) labelSelector(selector labels.Selector) string {
	parts := make([]string, 0, 2)
	if s.LabelSelector != "" {
		parts = append(parts, s.LabelSelector)
	}
	if selector != nil && !selector.Empty() {
		parts = append(parts, selector.String())
	}
	return strings.Join(parts, ",")
}

func (s *KubeSource) list(ctx context.Context, labelSelector string) ([]*v1.Node, error) {
	// Enforce absolute maximum to prevent memory exhaustion
	effectiveLimit := s.Limit
	if effectiveLimit <= 0 || effectiveLimit > defaults.NodeListAbsoluteMax {
		effectiveLimit = defaults.NodeListAbsoluteMax
	}

	pageSize := defaults.NodeListPageSize
	if effectiveLimit < pageSize {
		pageSize = effectiveLimit
	}

	allNodes := make([]*v1.Node, 0, pageSize)
	continueToken := ""
	totalFetched := int64(0)

	for {
		currentLimit := pageSize
		if totalFetched+currentLimit > effectiveLimit {
			currentLimit = effectiveLimit - totalFetched
		}

		lo := metav1.ListOptions{
			LabelSelector: labelSelector,
			FieldSelector: s.FieldSelector,
			Limit:         currentLimit,
			Continue:      continueToken,
		}

		slog.Debug("fetching nodes",
			slog.Int64("limit", currentLimit),
			slog.Int64("totalSoFar", totalFetched),
			slog.Bool("hasContinueToken", continueToken != ""),
		)

		list, err := s.Client.CoreV1().Nodes().List(ctx, lo)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to list nodes", err)
		}

		for i := range list.Items {
			allNodes = append(allNodes, &list.Items[i])
		}
		totalFetched += int64(len(list.Items))

		slog.Debug("fetched nodes page",
			slog.Int("pageSize", len(list.Items)),
			slog.Int64("totalFetched", totalFetched),
			slog.Bool("hasMore", list.Continue != ""),
		)

		continueToken = list.Continue
		if continueToken == "" || totalFetched >= effectiveLimit {
			break
		}

		if len(list.Items) == 0 {
			slog.Warn("received empty page with continue token, stopping pagination")
			break
		}
	}

	slog.Debug("node list complete",
		slog.Int("totalNodes", len(allNodes)),
		slog.Int64("requestedLimit", s.Limit),
	)

	return allNodes, nil
}

func entryFromNode(n *v1.Node) Entry {
	return Entry{
		Name:       n.Name,
		Labels:     n.Labels,
		ProviderID: n.Spec.ProviderID,
		Capacity: Capacity{
			CPUMilli:    milliValue(n, v1.ResourceCPU),
			MemoryBytes: value(n, v1.ResourceMemory),
		},
	}
}

// quantity returns the declared capacity for a resource, falling back to
// allocatable when capacity does not list it.
func quantity(n *v1.Node, name v1.ResourceName) (resource.Quantity, bool) {
	if q, ok := n.Status.Capacity[name]; ok {
		return q, true
	}
	if q, ok := n.Status.Allocatable[name]; ok {
		return q, true
	}
	slog.Debug("node does not declare resource", "node", n.Name, "resource", string(name))
	return resource.Quantity{}, false
}

func milliValue(n *v1.Node, name v1.ResourceName) int64 {
	q, ok := quantity(n, name)
	if !ok {
		return 0
	}
	return NonNegative(q.MilliValue())
}

func value(n *v1.Node, name v1.ResourceName) int64 {
	q, ok := quantity(n, name)
	if !ok {
		return 0
	}
	return NonNegative(q.Value())
}

// NonNegative clamps v to zero.
func NonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// String describes the source for logs.
func (s *KubeSource) String() string {
	return fmt.Sprintf("kubernetes(labelSelector=%q, fieldSelector=%q, limit=%d)", s.LabelSelector, s.FieldSelector, s.Limit)
}
