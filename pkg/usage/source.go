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
	"errors"
	"fmt"
	"sort"
)

// ErrMetricsUnavailable marks a metrics backend that could not answer.
var ErrMetricsUnavailable = errors.New("metrics unavailable")

// Usage is the live consumption of a node.
// CPU is expressed in millicores, memory in bytes.
type Usage struct {
	CPUMilli    int64
	MemoryBytes int64
}

// Source fetches usage for a set of node names. Names absent from the
// returned map have unknown usage; that is not an error.
type Source interface {
	FetchUsage(ctx context.Context, names []string) (map[string]Usage, error)
}

// AllFetcher is implemented by sources that can return usage for every node
// without knowing the names up front, which lets callers fetch usage and
// inventory in parallel.
type AllFetcher interface {
	FetchAllUsage(ctx context.Context) (map[string]Usage, error)
}

// Outcome tags how much of a fetch succeeded.
type Outcome string

const (
	// OutcomeFull means every requested node has usage.
	OutcomeFull Outcome = "full"
	// OutcomePartial means some requested nodes have usage.
	OutcomePartial Outcome = "partial"
	// OutcomeFailed means no node has usage.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means no metrics source is configured.
	OutcomeSkipped Outcome = "skipped"
)

// Degraded reports whether some node ended up without usage.
func (o Outcome) Degraded() bool {
	return o == OutcomePartial || o == OutcomeFailed
}

// Result is the tagged outcome of one metrics fetch.
// Usage is never nil and holds only non-negative values.
type Result struct {
	Usage   map[string]Usage
	Outcome Outcome
	// Missing lists requested names without usage, sorted.
	Missing []string
	// Err is set when Outcome is OutcomeFailed.
	Err error
}

// Fetch calls src for names and classifies the answer. It never returns an
// error; failures are reported through Result.Outcome and Result.Err.
// A nil source yields OutcomeSkipped.
func Fetch(ctx context.Context, src Source, names []string) Result {
	if src == nil {
		return Result{Usage: map[string]Usage{}, Outcome: OutcomeSkipped}
	}
	got, err := src.FetchUsage(ctx, names)
	return Classify(names, got, err)
}

// Classify builds a Result for names from a raw fetch answer.
// Entries for names that were not requested are discarded.
func Classify(names []string, got map[string]Usage, err error) Result {
	if err != nil {
		if !errors.Is(err, ErrMetricsUnavailable) {
			err = fmt.Errorf("%w: %w", ErrMetricsUnavailable, err)
		}
		return Result{
			Usage:   map[string]Usage{},
			Outcome: OutcomeFailed,
			Missing: sortedCopy(names),
			Err:     err,
		}
	}

	res := Result{Usage: make(map[string]Usage, len(names))}
	for _, name := range names {
		u, ok := got[name]
		if !ok {
			res.Missing = append(res.Missing, name)
			continue
		}
		res.Usage[name] = u.clamped()
	}
	sort.Strings(res.Missing)

	switch {
	case len(res.Missing) == 0:
		res.Outcome = OutcomeFull
	case len(res.Usage) > 0:
		res.Outcome = OutcomePartial
	default:
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("%w: no usage reported for any of %d nodes", ErrMetricsUnavailable, len(names))
	}
	return res
}

func (u Usage) clamped() Usage {
	if u.CPUMilli < 0 {
		u.CPUMilli = 0
	}
	if u.MemoryBytes < 0 {
		u.MemoryBytes = 0
	}
	return u
}

func sortedCopy(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}

// filter keeps the entries of all whose key is in names.
func filter(all map[string]Usage, names []string) map[string]Usage {
	out := make(map[string]Usage, len(names))
	for _, name := range names {
		if u, ok := all[name]; ok {
			out[name] = u
		}
	}
	return out
}
