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

// Package serializer encodes node snapshots and decodes configuration in
// JSON, YAML and (write-only) table form.
//
// # Writing
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatTable, output)
//	defer func() {
//	    if c, ok := w.(serializer.Closer); ok {
//	        _ = c.Close()
//	    }
//	}()
//	err := w.Serialize(ctx, snapshot)
//
// The destination selects the implementation:
//   - "" writes to stdout
//   - cm://namespace/name applies a ConfigMap (server-side apply)
//   - any other value is a local file path
//
// Values implementing Tabular render as one row per item in table format.
// Everything else is flattened into FIELD/VALUE pairs with dotted keys.
//
// # Reading
//
//	cfg, err := serializer.FromFile[config.Config]("nodeview.yaml")
//
// FromFile accepts local paths, http(s) URLs and cm://namespace/name.
// The format is taken from the file extension; ConfigMaps declare it in
// their "format" key.
//
// # HTTP
//
// RespondJSON buffers the encoded body before writing headers so a failed
// encode never produces a partial 200 response.
package serializer
