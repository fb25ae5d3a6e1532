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

// Package oci publishes node snapshots to OCI registries.
//
// An output target of the form oci://registry/repository[:tag] is parsed
// into a Reference. Writer implements serializer.Serializer: each value is
// marshaled in the requested format, staged in an in-memory store as a
// single layer under an OCI 1.1 manifest with ArtifactType, tagged and
// copied to the registry using ORAS.
//
// Registry credentials come from the Docker credential store when one is
// configured; otherwise the push is anonymous.
//
// Usage:
//
//	w, err := oci.NewWriter(serializer.FormatJSON, "oci://ghcr.io/acme/nodes:2025-01-01")
//	if err != nil {
//	    return err
//	}
//	if err := w.Serialize(ctx, snapshot); err != nil {
//	    return err
//	}
package oci
