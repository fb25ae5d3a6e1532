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
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/NVIDIA/nodeview/pkg/defaults"
	apperrors "github.com/NVIDIA/nodeview/pkg/errors"
)

// ArtifactType is the artifact type of published node snapshots.
const ArtifactType = "application/vnd.nvidia.nodeview.snapshot.v1"

// Annotation keys set on the snapshot manifest.
const (
	AnnotationFormat   = "com.nvidia.nodeview.format"
	AnnotationSelector = "com.nvidia.nodeview.selector"
	AnnotationMatch    = "com.nvidia.nodeview.match"
)

// PushOptions configures a snapshot push.
type PushOptions struct {
	// Reference is the destination. Its tag must be set.
	Reference *Reference
	// MediaType is the layer media type of the content.
	MediaType string
	// FileName is recorded as the layer title (e.g., "nodes.json").
	FileName string
	// Annotations are added to the manifest.
	Annotations map[string]string
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
	// Created overrides the manifest creation timestamp (reproducible pushes).
	Created time.Time
	// Target overrides the remote repository as the copy destination.
	Target oras.Target
}

// PushResult contains the result of a successful OCI push.
type PushResult struct {
	// Digest is the SHA256 digest of the pushed manifest.
	Digest string
	// Reference is the full image reference (registry/repository:tag).
	Reference string
}

// Push packs content as a single-layer OCI artifact and copies it to the
// registry named by opts.Reference.
func Push(ctx context.Context, content []byte, opts PushOptions) (*PushResult, error) {
	if opts.Reference == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "OCI reference is required")
	}
	if opts.Reference.Tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required to push OCI artifact")
	}
	if err := ValidateRegistryReference(opts.Reference.Registry, opts.Reference.Repository); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.OCIPushTimeout)
	defer cancel()

	mediaType := opts.MediaType
	if mediaType == "" {
		mediaType = ociv1.MediaTypeImageLayer
	}

	store := memory.New()

	layer, err := oras.PushBytes(ctx, store, mediaType, content)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to stage snapshot layer", err)
	}
	if opts.FileName != "" {
		layer.Annotations = map[string]string{ociv1.AnnotationTitle: opts.FileName}
	}

	packOpts := oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layer},
		ManifestAnnotations: manifestAnnotations(opts),
	}

	manifest, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, ArtifactType, packOpts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to pack manifest", err)
	}

	tag := opts.Reference.Tag
	if err = store.Tag(ctx, manifest, tag); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to tag manifest in local store", err)
	}

	dst := opts.Target
	if dst == nil {
		repo, repoErr := newRepository(opts)
		if repoErr != nil {
			return nil, repoErr
		}
		dst = repo
	}

	slog.Debug("pushing snapshot artifact",
		"reference", opts.Reference.ImageReference(),
		"mediaType", mediaType,
		"bytes", len(content),
	)

	desc, err := oras.Copy(ctx, store, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to push artifact to registry", err)
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: opts.Reference.ImageReference(),
	}, nil
}

func manifestAnnotations(opts PushOptions) map[string]string {
	out := make(map[string]string, len(opts.Annotations)+1)
	for k, v := range opts.Annotations {
		out[k] = v
	}
	if !opts.Created.IsZero() {
		out[ociv1.AnnotationCreated] = opts.Created.UTC().Format(time.RFC3339)
	}
	return out
}

func newRepository(opts PushOptions) (*remote.Repository, error) {
	registryHost := stripProtocol(opts.Reference.Registry)
	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", registryHost, opts.Reference.Repository))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)
	return repo, nil
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credential store unavailable, pushing anonymously", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
