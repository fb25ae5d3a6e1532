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

import "k8s.io/utils/set"

// IndexLabels maps every label key seen on nodes to its distinct values,
// sorted ascending. The result does not depend on node order.
func IndexLabels(nodes []Node) map[string][]string {
	values := make(map[string]set.Set[string])
	for _, n := range nodes {
		for k, v := range n.Labels {
			s, ok := values[k]
			if !ok {
				s = set.New[string]()
				values[k] = s
			}
			s.Insert(v)
		}
	}

	index := make(map[string][]string, len(values))
	for k, s := range values {
		index[k] = s.SortedList()
	}
	return index
}
