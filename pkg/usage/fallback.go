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
	"log/slog"
)

// FallbackSource asks each source in order for the nodes still missing
// usage, stopping once every node is covered.
type FallbackSource struct {
	sources []Source
}

// NewFallbackSource chains sources; nil entries are ignored.
func NewFallbackSource(sources ...Source) *FallbackSource {
	fs := &FallbackSource{}
	for _, s := range sources {
		if s != nil {
			fs.sources = append(fs.sources, s)
		}
	}
	return fs
}

// FetchUsage returns the merged answer of the chained sources. It fails only
// when every source failed.
func (f *FallbackSource) FetchUsage(ctx context.Context, names []string) (map[string]Usage, error) {
	out := make(map[string]Usage, len(names))
	remaining := names
	var errs []error

	for i, src := range f.sources {
		if len(remaining) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			if len(out) == 0 {
				return nil, fmt.Errorf("%w: %w", ErrMetricsUnavailable, err)
			}
			break
		}

		got, err := src.FetchUsage(ctx, remaining)
		if err != nil {
			slog.Warn("metrics source failed, trying next", "index", i, "error", err)
			errs = append(errs, err)
			continue
		}

		next := make([]string, 0, len(remaining))
		for _, name := range remaining {
			if u, ok := got[name]; ok {
				out[name] = u
			} else {
				next = append(next, name)
			}
		}
		remaining = next
	}

	if len(errs) > 0 && len(errs) == len(f.sources) {
		return nil, fmt.Errorf("%w: all metrics sources failed: %w", ErrMetricsUnavailable, errors.Join(errs...))
	}
	return out, nil
}
