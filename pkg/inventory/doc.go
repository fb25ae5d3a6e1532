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

// Package inventory reads the authoritative node list of a cluster.
//
// An inventory Entry carries the node name, its labels, the cloud provider ID
// and the declared capacity (CPU in millicores, memory in bytes). Sources never
// drop entries themselves: entries without a name are returned unchanged so the
// aggregation step can count and skip them.
//
// Two sources are provided:
//
//	// Live cluster, paged 500 nodes at a time, capped at 10000.
//	src := inventory.NewKubeSource(kubeClient)
//	src.LabelSelector = "node-role.kubernetes.io/worker"
//
//	// Fixed list, e.g. from --inventory-file.
//	src, err := inventory.LoadFile("nodes.yaml")
//
// Listing failures from the API server are returned as StructuredError with
// code ErrCodeUnavailable.
package inventory
