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

package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/kpi"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/NVIDIA/energy-benchmark/pkg/store"
)

func paperRaw(id, title string, authors ...string) map[string]any {
	a := make([]any, 0, len(authors))
	for _, s := range authors {
		a = append(a, s)
	}
	return map[string]any{
		"metadata": map[string]any{
			"source_id":        id,
			"title":            title,
			"authors":          a,
			"publication_year": 2019,
			"process_category": "milling",
		},
		"parameters": map[string]any{
			"spindle_speed": map[string]any{"value": 8000, "unit": "rpm"},
			"feed_rate":     "1200 mm/min",
			"depth_of_cut":  "1.5 mm",
		},
		"energy": map[string]any{
			"total_energy":    map[string]any{"value": 1500, "unit": "Wh"},
			"active_power":    "6 kW",
			"idle_power":      "1800 W",
			"cycle_time":      "15 min",
			"active_time":     "600 s",
			"output_quantity": 10,
		},
	}
}

func newLibrary(t *testing.T, st store.Store) *Library {
	t.Helper()
	if st == nil {
		st = store.NewMemoryStore()
	}
	return New(WithStore(st), WithVersion("test"))
}

func TestAddBenchmark(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	lib := newLibrary(t, st)

	id, report, err := lib.AddBenchmark(ctx, paperRaw("Li2019", "Energy consumption of face milling", "Li, W."))
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "Li2019", id)
	assert.True(t, report.Valid)

	e, err := lib.Get(id)
	require.NoError(t, err)
	assert.Equal(t, record.SourceLiterature, e.Record.Metadata.SourceType)
	assert.Equal(t, schema.CategoryMilling, e.Category())
	sec, ok := e.Record.KPIs[kpi.SpecificEnergyConsumption].Get()
	require.True(t, ok)
	assert.InDelta(t, 0.15, sec, 1e-9)

	stored, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, stored.ID())
	assert.Equal(t, 1, lib.Index().Len())
}

func TestAddBenchmark_Rejected(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	lib := newLibrary(t, st)

	raw := paperRaw("Bad2020", "Broken extraction")
	delete(raw["metadata"].(map[string]any), "process_category")

	id, report, err := lib.AddBenchmark(ctx, raw)
	require.Error(t, err)
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeValidation))
	assert.Empty(t, id)
	require.NotNil(t, report)
	assert.False(t, report.Valid)

	assert.Equal(t, 0, lib.Index().Len())
	all, err := st.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAddBenchmark_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, report, err := newLibrary(t, nil).AddBenchmark(ctx, paperRaw("Li2019", "t"))
	require.Error(t, err)
	assert.Nil(t, report)
}

func TestRemoveBenchmark(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	lib := newLibrary(t, st)

	id, _, err := lib.AddBenchmark(ctx, paperRaw("Li2019", "t"))
	require.NoError(t, err)

	require.NoError(t, lib.RemoveBenchmark(ctx, id))
	_, err = lib.Get(id)
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeNotFound))
	_, err = st.Get(ctx, id)
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeNotFound))

	err = lib.RemoveBenchmark(ctx, id)
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeNotFound))
}

func TestListBenchmarks(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t, nil)
	for _, id := range []string{"b", "a", "c"} {
		_, _, err := lib.AddBenchmark(ctx, paperRaw(id, "t"))
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		category schema.Category
		want     []string
		wantErr  bool
	}{
		{name: "all", category: "", want: []string{"a", "b", "c"}},
		{name: "milling", category: schema.CategoryMilling, want: []string{"a", "b", "c"}},
		{name: "turning", category: schema.CategoryTurning, want: []string{}},
		{name: "unknown", category: "welding", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lib.ListBenchmarks(ctx, tt.category)
			if tt.wantErr {
				assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidRequest))
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID())
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t, nil)
	_, _, err := lib.AddBenchmark(ctx, paperRaw("Li2019", "Energy consumption of face milling", "Li, W.", "Kara, S."))
	require.NoError(t, err)
	_, _, err = lib.AddBenchmark(ctx, paperRaw("Diaz2011", "Strategies for minimum energy operation", "Diaz, N."))
	require.NoError(t, err)

	tests := []struct {
		query string
		want  []string
	}{
		{"FACE milling", []string{"Li2019"}},
		{"kara", []string{"Li2019"}},
		{"energy", []string{"Diaz2011", "Li2019"}},
		{"diaz2011", []string{"Diaz2011"}},
		{"2019", []string{"Li2019"}},
		{"grinding", []string{}},
		{"  ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ids := make([]string, 0)
			for _, e := range lib.Search(tt.query) {
				ids = append(ids, e.ID())
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestDeprecate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	lib := newLibrary(t, st)
	for _, id := range []string{"old", "new"} {
		_, _, err := lib.AddBenchmark(ctx, paperRaw(id, "t"))
		require.NoError(t, err)
	}

	_, err := lib.Deprecate(ctx, "old", "old")
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidRequest))
	_, err = lib.Deprecate(ctx, "old", "missing")
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeNotFound))
	_, err = lib.Deprecate(ctx, "missing", "")
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeNotFound))

	e, err := lib.Deprecate(ctx, "old", "new")
	require.NoError(t, err)
	assert.False(t, e.Admissible())
	assert.Equal(t, "new", e.SupersededBy)

	stored, err := st.Get(ctx, "old")
	require.NoError(t, err)
	assert.True(t, stored.Deprecated)

	cands := lib.Index().Retrieve(e.Record, schema.CategoryMilling, 5)
	require.Len(t, cands, 1)
	assert.Equal(t, "new", cands[0].Entry.ID())
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	first := newLibrary(t, st)
	for _, id := range []string{"Li2019", "Diaz2011"} {
		_, _, err := first.AddBenchmark(ctx, paperRaw(id, "t"))
		require.NoError(t, err)
	}
	_, err = first.Deprecate(ctx, "Diaz2011", "")
	require.NoError(t, err)

	// A stored entry whose record no longer validates is skipped.
	broken, err := first.Get("Li2019")
	require.NoError(t, err)
	bad := broken.Copy()
	rec := broken.Record.Clone()
	rec.Metadata.SourceID = "Broken2020"
	rec.Metadata.Category = "welding"
	bad.Record = rec
	require.NoError(t, st.Put(ctx, bad))

	second := newLibrary(t, st)
	res, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Loaded)
	assert.Equal(t, []string{"Broken2020"}, res.Skipped)

	e, err := second.Get("Diaz2011")
	require.NoError(t, err)
	assert.True(t, e.Deprecated)
	assert.Equal(t, record.SourceLiterature, e.Record.Metadata.SourceType)
	_, ok := e.Record.KPIs[kpi.SpecificEnergyConsumption].Get()
	assert.True(t, ok)
}

func TestNew_Defaults(t *testing.T) {
	lib := New()
	assert.NotNil(t, lib.Store())
	assert.IsType(t, &index.Index{}, lib.Index())
	assert.Equal(t, 0, lib.Index().Len())
}

func TestBenchmarkList_Table(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t, nil)
	_, _, err := lib.AddBenchmark(ctx, paperRaw("Li2019", "Energy consumption of face milling", "Li, W."))
	require.NoError(t, err)
	_, _, err = lib.AddBenchmark(ctx, paperRaw("Li2021", "Face milling revisited", "Li, W."))
	require.NoError(t, err)
	_, err = lib.Deprecate(ctx, "Li2019", "Li2021")
	require.NoError(t, err)

	items, err := lib.ListBenchmarks(ctx, "")
	require.NoError(t, err)
	list := NewBenchmarkList(items, "test")
	assert.Equal(t, "test", list.Metadata["version"])
	assert.Equal(t, []string{"ID", "CATEGORY", "YEAR", "TITLE", "DEPRECATED"}, list.TableHeader())
	assert.Contains(t, list.TableRows(), []string{"Li2019", "milling", "2019", "Energy consumption of face milling", "by Li2021"})
	assert.Contains(t, list.TableRows(), []string{"Li2021", "milling", "2019", "Face milling revisited", "-"})

	assert.NotNil(t, NewBenchmarkList(nil, "test").Items)
}
