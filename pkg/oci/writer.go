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

package oci

import (
	"context"
	"log/slog"
	"time"

	oras "oras.land/oras-go/v2"

	apperrors "github.com/NVIDIA/nodeview/pkg/errors"
	"github.com/NVIDIA/nodeview/pkg/serializer"
)

// snapshotFileBase is the layer title stem; the format extension is appended.
const snapshotFileBase = "nodes"

// Writer is a serializer.Serializer that publishes each serialized value
// as an OCI artifact.
type Writer struct {
	ref         *Reference
	format      serializer.Format
	annotations map[string]string
	plainHTTP   bool
	insecureTLS bool
	created     time.Time
	target      oras.Target
	last        *PushResult
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithPlainHTTP talks to the registry over HTTP.
func WithPlainHTTP(v bool) WriterOption {
	return func(w *Writer) { w.plainHTTP = v }
}

// WithInsecureTLS skips registry certificate verification.
func WithInsecureTLS(v bool) WriterOption {
	return func(w *Writer) { w.insecureTLS = v }
}

// WithAnnotations adds manifest annotations.
func WithAnnotations(a map[string]string) WriterOption {
	return func(w *Writer) {
		for k, v := range a {
			w.annotations[k] = v
		}
	}
}

// WithCreated pins the manifest creation timestamp.
func WithCreated(t time.Time) WriterOption {
	return func(w *Writer) { w.created = t }
}

// WithTarget replaces the remote repository with another oras target.
func WithTarget(t oras.Target) WriterOption {
	return func(w *Writer) { w.target = t }
}

// NewWriter parses an oci:// target and returns a Writer for it.
// A target without a tag is published as DefaultTag.
func NewWriter(format serializer.Format, target string, opts ...WriterOption) (*Writer, error) {
	ref, err := ParseReference(target)
	if err != nil {
		return nil, err
	}
	if ref.Tag == "" {
		ref = ref.WithTag(DefaultTag)
	}
	if format.IsUnknown() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "unsupported output format: "+string(format))
	}

	w := &Writer{
		ref:    ref,
		format: format,
		annotations: map[string]string{
			AnnotationFormat: string(format),
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Reference returns the destination of the writer.
func (w *Writer) Reference() *Reference {
	return w.ref
}

// Result returns the outcome of the last successful Serialize, or nil.
func (w *Writer) Result() *PushResult {
	return w.last
}

// Serialize marshals v and pushes it.
func (w *Writer) Serialize(ctx context.Context, v any) error {
	content, err := serializer.Marshal(w.format, v)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to serialize snapshot", err)
	}

	res, err := Push(ctx, content, PushOptions{
		Reference:   w.ref,
		MediaType:   MediaTypeFor(w.format),
		FileName:    snapshotFileBase + "." + w.format.Extension(),
		Annotations: w.annotations,
		PlainHTTP:   w.plainHTTP,
		InsecureTLS: w.insecureTLS,
		Created:     w.created,
		Target:      w.target,
	})
	if err != nil {
		return err
	}

	w.last = res
	slog.Info("snapshot published", "reference", res.Reference, "digest", res.Digest)
	return nil
}

// Close is a no-op; pushes hold no resources between calls.
func (w *Writer) Close() error {
	return nil
}

// MediaTypeFor returns the layer media type used for a format.
func MediaTypeFor(format serializer.Format) string {
	switch format {
	case serializer.FormatYAML:
		return ArtifactType + "+yaml"
	case serializer.FormatTable:
		return "text/plain"
	default:
		return ArtifactType + "+json"
	}
}
