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
	"fmt"
	"log/slog"
	"strings"

	"github.com/NVIDIA/nodeview/pkg/inventory"
	"k8s.io/apimachinery/pkg/labels"
)

// MatchMode selects how a selector string is read.
type MatchMode string

const (
	// MatchAll reads Kubernetes label selector syntax; a node must satisfy
	// every requirement.
	MatchAll MatchMode = "all"
	// MatchAny reads comma-separated key=value pairs; a node matching any
	// one pair is kept.
	MatchAny MatchMode = "any"
)

// MatchModes returns the supported match modes.
func MatchModes() []MatchMode {
	return []MatchMode{MatchAll, MatchAny}
}

// ParseMatchMode parses a match mode. An empty string means MatchAll.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchAll:
		return MatchAll, nil
	case MatchAny:
		return MatchAny, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (supported values: %s, %s)", s, MatchAll, MatchAny)
	}
}

// AnyOf matches label sets carrying at least one of its key=value pairs.
// A non-nil AnyOf without pairs matches nothing.
type AnyOf []labels.Set

// ParseAnyOf splits raw on commas into key=value pairs. Pairs without "="
// are skipped.
func ParseAnyOf(raw string) AnyOf {
	out := AnyOf{}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			slog.Debug("skipping selector pair without '='", "pair", pair)
			continue
		}
		out = append(out, labels.Set{strings.TrimSpace(k): strings.TrimSpace(v)})
	}
	return out
}

// Matches reports whether l carries any of the pairs.
func (a AnyOf) Matches(l labels.Labels) bool {
	for _, set := range a {
		if labels.SelectorFromValidatedSet(set).Matches(l) {
			return true
		}
	}
	return false
}

func (a AnyOf) String() string {
	parts := make([]string, 0, len(a))
	for _, set := range a {
		parts = append(parts, set.String())
	}
	return strings.Join(parts, ",")
}

func (a AnyOf) filter(entries []inventory.Entry) []inventory.Entry {
	out := make([]inventory.Entry, 0, len(entries))
	for _, e := range entries {
		if a.Matches(labels.Set(e.Labels)) {
			out = append(out, e)
		}
	}
	return out
}

// SelectorOptions turns a raw selector into query options for mode.
// A blank selector yields no options.
func SelectorOptions(raw string, mode MatchMode) ([]QueryOption, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if mode == MatchAny {
		return []QueryOption{WithAnyOf(ParseAnyOf(raw))}, nil
	}

	sel, err := labels.Parse(raw)
	if err != nil {
		return nil, err
	}
	return []QueryOption{WithSelector(sel)}, nil
}
