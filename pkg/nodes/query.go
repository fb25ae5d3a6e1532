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

package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NVIDIA/nodeview/pkg/defaults"
	apperrors "github.com/NVIDIA/nodeview/pkg/errors"
	"github.com/NVIDIA/nodeview/pkg/inventory"
	"github.com/NVIDIA/nodeview/pkg/links"
	"github.com/NVIDIA/nodeview/pkg/usage"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/labels"
)

// Querier produces QueriedNodes snapshots. It holds no state between
// queries and is safe for concurrent use.
type Querier struct {
	inventory        inventory.Source
	usage            usage.Source
	aggregator       Aggregator
	queryTimeout     time.Duration
	inventoryTimeout time.Duration
	metricsTimeout   time.Duration
}

// Option configures a Querier.
type Option func(*Querier)

// WithUsageSource sets the metrics source. Without one, usage is zero and
// the metrics outcome is "skipped".
func WithUsageSource(src usage.Source) Option {
	return func(q *Querier) {
		q.usage = src
	}
}

// WithLinks sets the link generator.
func WithLinks(g *links.Generator) Option {
	return func(q *Querier) {
		q.aggregator.Links = g
	}
}

// WithInstanceTypeLabel sets the label read into Node.InstanceType.
func WithInstanceTypeLabel(key string) Option {
	return func(q *Querier) {
		q.aggregator.InstanceTypeLabel = key
	}
}

// WithQueryTimeout bounds a whole query.
func WithQueryTimeout(d time.Duration) Option {
	return func(q *Querier) {
		if d > 0 {
			q.queryTimeout = d
		}
	}
}

// WithInventoryTimeout bounds the inventory call.
func WithInventoryTimeout(d time.Duration) Option {
	return func(q *Querier) {
		if d > 0 {
			q.inventoryTimeout = d
		}
	}
}

// WithMetricsTimeout bounds the metrics call. Expiry degrades usage to zero.
func WithMetricsTimeout(d time.Duration) Option {
	return func(q *Querier) {
		if d > 0 {
			q.metricsTimeout = d
		}
	}
}

// NewQuerier returns a Querier reading nodes from inv.
func NewQuerier(inv inventory.Source, opts ...Option) (*Querier, error) {
	if inv == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "inventory source is required")
	}

	q := &Querier{
		inventory:        inv,
		aggregator:       Aggregator{InstanceTypeLabel: DefaultInstanceTypeLabel},
		queryTimeout:     defaults.QueryTimeout,
		inventoryTimeout: defaults.InventoryTimeout,
		metricsTimeout:   defaults.MetricsTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// QueryOption narrows a single query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	selector labels.Selector
	anyOf    AnyOf
}

// WithSelector restricts the query to nodes matching sel. The label index
// is computed over the matching nodes only.
func WithSelector(sel labels.Selector) QueryOption {
	return func(o *queryOptions) {
		o.selector = sel
	}
}

// WithAnyOf keeps only nodes carrying at least one of the pairs in a. The
// inventory is listed in full and filtered here.
func WithAnyOf(a AnyOf) QueryOption {
	return func(o *queryOptions) {
		o.anyOf = a
	}
}

// narrowed reports whether the node list was restricted by a selector, in
// which case an empty list is an answer rather than an inventory failure.
func (q *Querier) narrowed(o queryOptions) bool {
	if o.selector != nil && !o.selector.Empty() {
		return true
	}
	if o.anyOf != nil {
		return true
	}
	f, ok := q.inventory.(inventory.Filtered)
	return ok && f.Filtered()
}

func (o queryOptions) String() string {
	parts := make([]string, 0, 2)
	if o.selector != nil && !o.selector.Empty() {
		parts = append(parts, o.selector.String())
	}
	if o.anyOf != nil {
		parts = append(parts, "any("+o.anyOf.String()+")")
	}
	return strings.Join(parts, " ")
}

// QueryNodes returns one snapshot of the cluster's nodes.
//
// Inventory and usage are fetched concurrently when the usage source
// implements usage.AllFetcher, otherwise usage is fetched for the listed
// names. Any usage failure, including timeout or cancellation after the node
// list arrived, yields zero usage and is recorded in Diagnostics. The only
// error returned is a StructuredError with code ErrCodeUnavailable wrapping
// ErrInventoryUnavailable. A selector matching no node yields an empty
// snapshot, whether the selector came from opts or from the inventory source.
func (q *Querier) QueryNodes(ctx context.Context, opts ...QueryOption) (*QueriedNodes, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	defer func() {
		queryDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, q.queryTimeout)
	defer cancel()

	entries, all, allErr, fetchedAll, err := q.fetch(ctx, o.selector)
	if err != nil {
		queryTotal.WithLabelValues(queryStatusFailed).Inc()
		slog.Error("node query failed", "error", err)
		return nil, inventoryUnavailable(err)
	}

	if o.anyOf != nil {
		entries = o.anyOf.filter(entries)
	}

	if len(entries) == 0 && q.narrowed(o) {
		slog.Debug("no nodes match selector", "selector", o.String())
		result := &QueriedNodes{
			Nodes:       []Node{},
			Labels:      map[string][]string{},
			Diagnostics: Diagnostics{MetricsOutcome: usage.OutcomeSkipped},
		}
		q.record(result)
		return result, nil
	}

	usable, diag := usableEntries(entries)
	recordDropped(diag)
	if len(usable) == 0 {
		err = errNoUsable(diag)
		queryTotal.WithLabelValues(queryStatusFailed).Inc()
		slog.Error("node query failed", "error", err)
		return nil, inventoryUnavailable(err)
	}
	names := names(usable)

	var res usage.Result
	if fetchedAll {
		res = usage.Classify(names, all, allErr)
	} else {
		mctx, mcancel := context.WithTimeout(ctx, q.metricsTimeout)
		res = usage.Fetch(mctx, q.usage, names)
		mcancel()
	}
	metricsFetchTotal.WithLabelValues(string(res.Outcome)).Inc()

	nodes, err := q.aggregator.build(usable, res, &diag)
	if err != nil {
		queryTotal.WithLabelValues(queryStatusFailed).Inc()
		slog.Error("node query failed", "error", err)
		return nil, inventoryUnavailable(err)
	}

	result := &QueriedNodes{
		Nodes:       nodes,
		Labels:      IndexLabels(nodes),
		Diagnostics: diag,
	}
	q.record(result)
	return result, nil
}

// fetch reads the inventory and, for AllFetcher sources, usage in parallel.
// Only an inventory failure is returned as err.
func (q *Querier) fetch(ctx context.Context, sel labels.Selector) (
	entries []inventory.Entry, all map[string]usage.Usage, allErr error, fetchedAll bool, err error,
) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ictx, icancel := context.WithTimeout(gctx, q.inventoryTimeout)
		defer icancel()

		list, lerr := q.inventory.ListNodes(ictx, sel)
		if lerr != nil {
			return lerr
		}
		entries = list
		return nil
	})

	if af, ok := q.usage.(usage.AllFetcher); ok {
		fetchedAll = true
		g.Go(func() error {
			mctx, mcancel := context.WithTimeout(gctx, q.metricsTimeout)
			defer mcancel()

			// Usage failures never cancel the inventory call.
			all, allErr = af.FetchAllUsage(mctx)
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return nil, nil, nil, false, err
	}
	return entries, all, allErr, fetchedAll, nil
}

func (q *Querier) record(result *QueriedNodes) {
	d := result.Diagnostics

	for kind, n := range d.LinkFailures {
		linkFailuresTotal.WithLabelValues(string(kind)).Add(float64(n))
	}
	nodesGauge.Set(float64(len(result.Nodes)))

	status := queryStatusSuccess
	if d.Degraded() {
		status = queryStatusDegraded
		slog.Warn("node query degraded",
			"nodes", len(result.Nodes),
			"metricsOutcome", d.MetricsOutcome,
			"nodesWithoutUsage", len(d.NodesWithoutUsage),
			"linkFailures", d.LinkFailures,
			"error", d.MetricsError,
		)
	}
	queryTotal.WithLabelValues(status).Inc()

	slog.Debug("node query complete",
		"nodes", len(result.Nodes),
		"labelKeys", len(result.Labels),
		"metricsOutcome", d.MetricsOutcome,
		"droppedMalformed", d.DroppedMalformed,
		"droppedDuplicate", d.DroppedDuplicate,
	)
}

func recordDropped(d Diagnostics) {
	if d.DroppedMalformed > 0 {
		inventoryDroppedTotal.WithLabelValues(dropReasonMalformed).Add(float64(d.DroppedMalformed))
	}
	if d.DroppedDuplicate > 0 {
		inventoryDroppedTotal.WithLabelValues(dropReasonDuplicate).Add(float64(d.DroppedDuplicate))
	}
}

func inventoryUnavailable(cause error) error {
	if !errors.Is(cause, ErrInventoryUnavailable) {
		cause = fmt.Errorf("%w: %w", ErrInventoryUnavailable, cause)
	}
	return apperrors.Wrap(apperrors.ErrCodeUnavailable, ErrInventoryUnavailable.Error(), cause)
}
