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
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/header"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/serializer"
	"github.com/NVIDIA/energy-benchmark/pkg/store"
)

const (
	// ArtifactType identifies a published benchmark library.
	ArtifactType = "application/vnd.nvidia.ebench.benchmarks"
	// EntryMediaType is the media type of one benchmark entry layer.
	EntryMediaType = "application/vnd.nvidia.ebench.benchmark.v1+json"
)

// PublishOptions configures publishing and pulling.
type PublishOptions struct {
	// Version is recorded as org.opencontainers.image.version.
	Version string
	// Annotations are merged over the default manifest annotations.
	Annotations map[string]string
	// Created fixes org.opencontainers.image.created for reproducible manifests.
	Created time.Time
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// Result describes a published or pulled artifact.
type Result struct {
	Digest    string `json:"digest" yaml:"digest"`
	Reference string `json:"reference" yaml:"reference"`
	Entries   int    `json:"entries" yaml:"entries"`
}

// Publish pushes every entry of src to the registry addressed by ref.
func Publish(ctx context.Context, src store.Store, ref *Reference, opts PublishOptions) (*Result, error) {
	repo, err := NewRepository(ref, opts.PlainHTTP, opts.InsecureTLS)
	if err != nil {
		return nil, err
	}
	res, err := PublishTo(ctx, src, repo, ref.TagOrDefault(), opts)
	if err != nil {
		return nil, err
	}
	res.Reference = ref.WithTag(ref.TagOrDefault()).ImageReference()
	return res, nil
}

// PublishTo packs every entry of src into an artifact tagged tag on dst.
func PublishTo(ctx context.Context, src store.Store, dst oras.Target, tag string, opts PublishOptions) (*Result, error) {
	entries, err := src.List(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, eberrors.New(eberrors.ErrCodeInvalidRequest, "benchmark library is empty, nothing to publish")
	}

	staging := memory.New()
	layers := make([]ocispec.Descriptor, 0, len(entries))
	for _, e := range entries {
		data, err := serializer.Marshal(serializer.FormatJSON, e)
		if err != nil {
			return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to encode benchmark", err)
		}
		desc := content.NewDescriptorFromBytes(EntryMediaType, data)
		desc.Annotations = map[string]string{ocispec.AnnotationTitle: store.FileName(e.ID())}
		if err := staging.Push(ctx, desc, bytes.NewReader(data)); err != nil {
			return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to stage benchmark layer", err)
		}
		layers = append(layers, desc)
	}

	manifest, err := oras.PackManifest(ctx, staging, oras.PackManifestVersion1_1, ArtifactType,
		oras.PackManifestOptions{
			Layers:              layers,
			ManifestAnnotations: annotations(opts),
		})
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to pack manifest", err)
	}
	if err := staging.Tag(ctx, manifest, tag); err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to tag manifest", err)
	}

	desc, err := oras.Copy(ctx, staging, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to push benchmark library", err)
	}

	slog.Info("benchmark library published", "tag", tag, "digest", desc.Digest.String(), "entries", len(layers))
	return &Result{Digest: desc.Digest.String(), Reference: tag, Entries: len(layers)}, nil
}

// Pull fetches the artifact addressed by ref and writes its entries to dst.
func Pull(ctx context.Context, ref *Reference, dst store.Store, opts PublishOptions) (*Result, error) {
	repo, err := NewRepository(ref, opts.PlainHTTP, opts.InsecureTLS)
	if err != nil {
		return nil, err
	}
	res, err := PullFrom(ctx, repo, ref.TagOrDefault(), dst)
	if err != nil {
		return nil, err
	}
	res.Reference = ref.WithTag(ref.TagOrDefault()).ImageReference()
	return res, nil
}

// PullFrom reads the artifact tagged tag from src and puts each entry layer
// into dst. Layers of other media types are ignored.
func PullFrom(ctx context.Context, src oras.ReadOnlyTarget, tag string, dst store.Store) (*Result, error) {
	desc, err := src.Resolve(ctx, tag)
	if err != nil {
		return nil, eberrors.WrapWithContext(eberrors.ErrCodeNotFound, "failed to resolve benchmark library", err,
			map[string]any{"tag": tag})
	}
	raw, err := content.FetchAll(ctx, src, desc)
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to fetch manifest", err)
	}
	manifest, err := serializer.Decode[ocispec.Manifest](serializer.FormatJSON, raw)
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to decode manifest", err)
	}
	if manifest.ArtifactType != ArtifactType {
		return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest, "artifact is not a benchmark library",
			map[string]any{"artifactType": manifest.ArtifactType})
	}

	n := 0
	for _, layer := range manifest.Layers {
		if layer.MediaType != EntryMediaType {
			continue
		}
		data, err := content.FetchAll(ctx, src, layer)
		if err != nil {
			return nil, eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to fetch benchmark layer", err)
		}
		e, err := serializer.Decode[index.Entry](serializer.FormatJSON, data)
		if err == nil {
			err = e.Expect(header.KindBenchmarkEntry)
		}
		if err != nil || e.Record == nil {
			slog.Warn("skipping unreadable benchmark layer", "digest", layer.Digest.String(), "error", err)
			continue
		}
		if err := dst.Put(ctx, e); err != nil {
			return nil, err
		}
		n++
	}

	slog.Info("benchmark library pulled", "tag", tag, "digest", desc.Digest.String(), "entries", n)
	return &Result{Digest: desc.Digest.String(), Reference: tag, Entries: n}, nil
}

// NewRepository returns an authenticated client for the repository of ref.
func NewRepository(ref *Reference, plainHTTP, insecureTLS bool) (*remote.Repository, error) {
	name := fmt.Sprintf("%s/%s", stripProtocol(ref.Registry), ref.Repository)
	repo, err := remote.NewRepository(name)
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = plainHTTP
	repo.Client = createAuthClient(plainHTTP, insecureTLS)
	return repo, nil
}

func annotations(opts PublishOptions) map[string]string {
	a := map[string]string{
		ocispec.AnnotationVendor: "NVIDIA",
		ocispec.AnnotationTitle:  "Energy Benchmark Library",
		ocispec.AnnotationSource: "https://github.com/NVIDIA/energy-benchmark",
	}
	if opts.Version != "" {
		a[ocispec.AnnotationVersion] = opts.Version
	}
	if !opts.Created.IsZero() {
		a[ocispec.AnnotationCreated] = opts.Created.UTC().Format(time.RFC3339)
	}
	for k, v := range opts.Annotations {
		a[k] = v
	}
	return a
}

func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	registry = strings.TrimPrefix(registry, "http://")
	return registry
}

// createAuthClient returns an HTTP client with Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	c := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Warn("docker credentials unavailable, using anonymous access", "error", err)
		return c
	}
	c.Credential = credentials.Credential(credStore)
	return c
}
