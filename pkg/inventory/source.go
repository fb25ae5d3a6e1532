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
	"errors"
	"fmt"

	"github.com/NVIDIA/nodeview/pkg/serializer"
	"k8s.io/apimachinery/pkg/labels"
)

// ErrMalformedEntry identifies an inventory entry that lacks a node name.
// Sources return such entries as-is; the aggregation step drops and counts them.
var ErrMalformedEntry = errors.New("malformed inventory entry")

// Capacity is the declared capacity of a node.
// CPU is expressed in millicores, memory in bytes.
type Capacity struct {
	CPUMilli    int64 `json:"cpu" yaml:"cpu"`
	MemoryBytes int64 `json:"memory" yaml:"memory"`
}

// Entry is one node as reported by an inventory source.
type Entry struct {
	Name       string            `json:"name" yaml:"name"`
	Labels     map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	ProviderID string            `json:"providerID,omitempty" yaml:"providerID,omitempty"`
	Capacity   Capacity          `json:"capacity" yaml:"capacity"`
}

// Validate reports ErrMalformedEntry when the entry has no name.
func (e Entry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: missing node name (providerID=%q)", ErrMalformedEntry, e.ProviderID)
	}
	return nil
}

// Source lists the nodes of a cluster in a stable order.
// A nil or empty selector matches every node.
type Source interface {
	ListNodes(ctx context.Context, selector labels.Selector) ([]Entry, error)
}

// Filtered is implemented by sources that apply a selector of their own.
// Filtered reports whether such a selector is set.
type Filtered interface {
	Filtered() bool
}

// Pinger is implemented by sources that can cheaply confirm the inventory
// is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StaticSource serves a fixed list of entries.
type StaticSource struct {
	Entries []Entry
	// Err, when set, is returned by every ListNodes call.
	Err error
}

// NewStaticSource returns a source serving the given entries in order.
func NewStaticSource(entries ...Entry) *StaticSource {
	return &StaticSource{Entries: entries}
}

// ListNodes returns the entries matching selector, preserving order.
func (s *StaticSource) ListNodes(ctx context.Context, selector labels.Selector) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]Entry, 0, len(s.Entries))
	for _, e := range s.Entries {
		if selector != nil && !selector.Empty() && !selector.Matches(labels.Set(e.Labels)) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Ping reports Err.
func (s *StaticSource) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Err
}

// File is the on-disk layout read by LoadFile.
type File struct {
	Nodes []Entry `json:"nodes" yaml:"nodes"`
}

// LoadFile reads a static inventory from a local file, an http(s) URL or a
// ConfigMap (cm://namespace/name). JSON and YAML are both accepted.
func LoadFile(path string) (*StaticSource, error) {
	f, err := serializer.FromFile[File](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory from %s: %w", path, err)
	}
	return NewStaticSource(f.Nodes...), nil
}
