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
	"testing"
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/kpi"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/NVIDIA/energy-benchmark/pkg/serializer"
	"github.com/NVIDIA/energy-benchmark/pkg/store"
)

func testEntry(t *testing.T, id string, cat schema.Category) *index.Entry {
	t.Helper()
	rec := &record.CanonicalRecord{
		Metadata: record.Metadata{SourceID: id, Category: cat, PublicationYear: 2020, Authors: []string{"A. Doe"}},
		Energy: map[string]record.Quantity{
			"total_energy":    {Value: 2, Unit: "kWh"},
			"output_quantity": {Value: 8, Unit: "unit"},
		},
		Valid: true,
	}
	e, err := index.NewEntry(kpi.New().Normalize(rec), "test")
	require.NoError(t, err)
	return e
}

func seededStore(t *testing.T, ids ...string) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	for _, id := range ids {
		require.NoError(t, st.Put(context.Background(), testEntry(t, id, schema.CategoryMilling)))
	}
	return st
}

func fetchManifest(t *testing.T, target oras.ReadOnlyTarget, tag string) *ocispec.Manifest {
	t.Helper()
	ctx := context.Background()
	desc, err := target.Resolve(ctx, tag)
	require.NoError(t, err)
	data, err := content.FetchAll(ctx, target, desc)
	require.NoError(t, err)
	m, err := serializer.Decode[ocispec.Manifest](serializer.FormatJSON, data)
	require.NoError(t, err)
	return m
}

func TestPublishTo(t *testing.T) {
	ctx := context.Background()
	dst := memory.New()

	res, err := PublishTo(ctx, seededStore(t, "Li2019", "Roe2021"), dst, "v1", PublishOptions{Version: "1.2.3"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Entries)
	assert.Equal(t, "v1", res.Reference)
	assert.Contains(t, res.Digest, "sha256:")

	m := fetchManifest(t, dst, "v1")
	assert.Equal(t, ArtifactType, m.ArtifactType)
	assert.Equal(t, "1.2.3", m.Annotations[ocispec.AnnotationVersion])
	assert.Equal(t, "NVIDIA", m.Annotations[ocispec.AnnotationVendor])
	require.Len(t, m.Layers, 2)
	for _, l := range m.Layers {
		assert.Equal(t, EntryMediaType, l.MediaType)
		assert.NotEmpty(t, l.Annotations[ocispec.AnnotationTitle])
	}
}

func TestPublishTo_Reproducible(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := PublishOptions{Version: "1", Created: created, Annotations: map[string]string{"team": "energy"}}

	src := seededStore(t, "Li2019")
	a, err := PublishTo(ctx, src, memory.New(), "v1", opts)
	require.NoError(t, err)
	dst := memory.New()
	b, err := PublishTo(ctx, src, dst, "v1", opts)
	require.NoError(t, err)
	assert.Equal(t, a.Digest, b.Digest)

	m := fetchManifest(t, dst, "v1")
	assert.Equal(t, "2025-01-01T00:00:00Z", m.Annotations[ocispec.AnnotationCreated])
	assert.Equal(t, "energy", m.Annotations["team"])
}

func TestPublishTo_Empty(t *testing.T) {
	_, err := PublishTo(context.Background(), store.NewMemoryStore(), memory.New(), "v1", PublishOptions{})
	require.Error(t, err)
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidRequest))
}

func TestPullFrom(t *testing.T) {
	ctx := context.Background()
	registry := memory.New()
	_, err := PublishTo(ctx, seededStore(t, "Li2019", "Roe2021"), registry, "v1", PublishOptions{})
	require.NoError(t, err)

	dst := store.NewMemoryStore()
	res, err := PullFrom(ctx, registry, "v1", dst)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Entries)

	got, err := dst.Get(ctx, "Roe2021")
	require.NoError(t, err)
	assert.Equal(t, schema.CategoryMilling, got.Category())
	assert.True(t, got.Record.Valid)
}

func TestPullFrom_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing tag", func(t *testing.T) {
		_, err := PullFrom(ctx, memory.New(), "v9", store.NewMemoryStore())
		require.Error(t, err)
		assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeNotFound))
	})

	t.Run("foreign artifact", func(t *testing.T) {
		src := memory.New()
		layer := content.NewDescriptorFromBytes("text/plain", []byte("hello"))
		require.NoError(t, src.Push(ctx, layer, bytes.NewReader([]byte("hello"))))
		desc, err := oras.PackManifest(ctx, src, oras.PackManifestVersion1_1, "application/vnd.example.other",
			oras.PackManifestOptions{Layers: []ocispec.Descriptor{layer}})
		require.NoError(t, err)
		require.NoError(t, src.Tag(ctx, desc, "v1"))

		_, err = PullFrom(ctx, src, "v1", store.NewMemoryStore())
		require.Error(t, err)
		assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidRequest))
	})
}

func TestNewRepository(t *testing.T) {
	ref, err := ParseReference("oci://localhost:5000/benchmarks:dev")
	require.NoError(t, err)

	repo, err := NewRepository(ref, true, false)
	require.NoError(t, err)
	assert.True(t, repo.PlainHTTP)
	assert.Equal(t, "localhost:5000", repo.Reference.Registry)
	assert.Equal(t, "benchmarks", repo.Reference.Repository)
}

func TestStripProtocol(t *testing.T) {
	assert.Equal(t, "ghcr.io", stripProtocol("https://ghcr.io"))
	assert.Equal(t, "localhost:5000", stripProtocol("http://localhost:5000"))
	assert.Equal(t, "ghcr.io", stripProtocol("ghcr.io"))
}
