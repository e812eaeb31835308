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

package index

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/NVIDIA/energy-benchmark/pkg/config"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T, id string, cat schema.Category, year int, params map[string]float64) *record.CanonicalRecord {
	t.Helper()
	reg := schema.MustDefault()
	rec := &record.CanonicalRecord{
		Metadata: record.Metadata{SourceID: id, Category: cat, PublicationYear: year},
		Energy:   map[string]record.Quantity{},
		Valid:    true,
	}
	for _, f := range reg.FieldsIn(schema.SectionParameters) {
		if v, ok := params[f.Name]; ok {
			rec.Parameters = append(rec.Parameters, record.Parameter{Name: f.Name, Value: v, Unit: f.Unit})
		}
	}
	return rec
}

func newEntry(t *testing.T, id string, cat schema.Category, year int, params map[string]float64) *Entry {
	t.Helper()
	e, err := NewEntry(newRecord(t, id, cat, year, params), "test")
	require.NoError(t, err)
	return e
}

func ids(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Entry.ID())
	}
	return out
}

func TestNewEntry(t *testing.T) {
	rec := newRecord(t, "Doe2020", schema.CategoryMilling, 2020, nil)
	rec.Metadata.SourceType = record.SourceMeasurement

	e, err := NewEntry(rec, "v1")
	require.NoError(t, err)
	assert.Equal(t, "Doe2020", e.ID())
	assert.Equal(t, "Doe2020", e.PaperID)
	assert.Equal(t, 2020, e.PublicationYear)
	assert.Equal(t, record.SourceLiterature, e.Record.Metadata.SourceType)
	assert.Equal(t, record.SourceMeasurement, rec.Metadata.SourceType, "input must not be modified")
	assert.False(t, e.AddedAt.IsZero())
	assert.True(t, e.Admissible())

	rec.Valid = false
	_, err = NewEntry(rec, "v1")
	require.Error(t, err)
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeValidation))

	_, err = NewEntry(nil, "v1")
	require.Error(t, err)
}

func TestIndex_AddGetRemove(t *testing.T) {
	ix := New()
	e := newEntry(t, "a", schema.CategoryMilling, 2020, nil)
	require.NoError(t, ix.Add(e))
	assert.Equal(t, 1, ix.Len())

	got, ok := ix.Get("a")
	require.True(t, ok)
	assert.Same(t, e, got)

	require.NoError(t, ix.Remove("a"))
	assert.Equal(t, 0, ix.Len())

	err := ix.Remove("a")
	require.Error(t, err)
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeNotFound))
}

func TestIndex_AddRejectsInvalid(t *testing.T) {
	ix := New()

	e := newEntry(t, "a", schema.CategoryMilling, 2020, nil)
	e.Record.Valid = false
	assert.Error(t, ix.Add(e))
	assert.Error(t, ix.Add(nil))
	assert.Error(t, ix.Add(&Entry{}))
	assert.Equal(t, 0, ix.Len())
}

func TestRetrieve_CategoryFilter(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(newEntry(t, "mill-1", schema.CategoryMilling, 2020, map[string]float64{"spindle_speed": 12000})))
	require.NoError(t, ix.Add(newEntry(t, "mill-2", schema.CategoryMilling, 2018, map[string]float64{"spindle_speed": 8000})))
	require.NoError(t, ix.Add(newEntry(t, "turn-1", schema.CategoryTurning, 2021, map[string]float64{"cutting_speed": 200})))

	subject := newRecord(t, "subj", schema.CategoryMilling, 0, map[string]float64{"spindle_speed": 12000})
	got := ix.Retrieve(subject, schema.CategoryMilling, 10)
	assert.Equal(t, []string{"mill-1", "mill-2"}, ids(got))

	assert.Empty(t, ix.Retrieve(subject, schema.CategoryGrinding, 10))
}

func TestRetrieve_ExcludesNonAdmissible(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(newEntry(t, "kept", schema.CategoryMilling, 2020, nil)))

	dep := newEntry(t, "deprecated", schema.CategoryMilling, 2020, nil)
	dep.Deprecated = true
	require.NoError(t, ix.Add(dep))

	sup := newEntry(t, "superseded", schema.CategoryMilling, 2020, nil)
	sup.SupersededBy = "kept"
	require.NoError(t, ix.Add(sup))

	subject := newRecord(t, "subj", schema.CategoryMilling, 0, nil)
	assert.Equal(t, []string{"kept"}, ids(ix.Retrieve(subject, schema.CategoryMilling, 10)))
	assert.Len(t, ix.List(schema.CategoryMilling), 3, "list includes non-admissible entries")
}

func TestRetrieve_RebuildsAfterUpdate(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(newEntry(t, "a", schema.CategoryMilling, 2020, nil)))
	subject := newRecord(t, "subj", schema.CategoryMilling, 0, nil)
	require.Len(t, ix.Retrieve(subject, schema.CategoryMilling, 3), 1)

	old, _ := ix.Get("a")
	updated, err := ix.Update("a", func(e *Entry) { e.Deprecated = true })
	require.NoError(t, err)
	assert.True(t, updated.Deprecated)
	assert.False(t, old.Deprecated, "entries already handed out are not modified")

	assert.Empty(t, ix.Retrieve(subject, schema.CategoryMilling, 3))

	_, err = ix.Update("missing", func(*Entry) {})
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeNotFound))
}

func TestRetrieve_TieBreaks(t *testing.T) {
	ix := New()
	params := map[string]float64{"spindle_speed": 10000}
	require.NoError(t, ix.Add(newEntry(t, "b-2019", schema.CategoryMilling, 2019, params)))
	require.NoError(t, ix.Add(newEntry(t, "c-2022", schema.CategoryMilling, 2022, params)))
	require.NoError(t, ix.Add(newEntry(t, "a-2019", schema.CategoryMilling, 2019, params)))
	require.NoError(t, ix.Add(newEntry(t, "far", schema.CategoryMilling, 2030, map[string]float64{"spindle_speed": 20000})))

	subject := newRecord(t, "subj", schema.CategoryMilling, 0, params)
	got := ix.Retrieve(subject, schema.CategoryMilling, 10)
	assert.Equal(t, []string{"c-2022", "a-2019", "b-2019", "far"}, ids(got))
}

func TestRetrieve_K(t *testing.T) {
	ix := New()
	for i := range 5 {
		require.NoError(t, ix.Add(newEntry(t, fmt.Sprintf("e%d", i), schema.CategoryDrilling, 2020, nil)))
	}
	subject := newRecord(t, "subj", schema.CategoryDrilling, 0, nil)

	assert.Len(t, ix.Retrieve(subject, schema.CategoryDrilling, 2), 2)
	assert.Len(t, ix.Retrieve(subject, schema.CategoryDrilling, 0), 3, "default k comes from the registry")

	small := New(WithSettings(config.Default().WithRetrievalK(1)))
	for _, e := range ix.List("") {
		require.NoError(t, small.Add(e))
	}
	assert.Len(t, small.Retrieve(subject, schema.CategoryDrilling, 0), 1)
}

func TestSimilarity(t *testing.T) {
	s := config.Default()
	cat := schema.CategoryMilling

	tests := []struct {
		name      string
		subject   map[string]float64
		benchmark map[string]float64
		want      float64
		distance  float64
		coverage  float64
	}{
		{
			name:      "identical",
			subject:   map[string]float64{"spindle_speed": 12000, "feed_rate": 2000},
			benchmark: map[string]float64{"spindle_speed": 12000, "feed_rate": 2000},
			want:      1,
			coverage:  1,
		},
		{
			name:      "weighted distance",
			subject:   map[string]float64{"spindle_speed": 12000, "feed_rate": 2000},
			benchmark: map[string]float64{"spindle_speed": 14400, "feed_rate": 2000},
			distance:  math.Sqrt(3 * 0.01 / 5),
			want:      1 / (1 + math.Sqrt(3*0.01/5)),
			coverage:  1,
		},
		{
			name:      "partial coverage",
			subject:   map[string]float64{"spindle_speed": 12000, "feed_rate": 2000},
			benchmark: map[string]float64{"spindle_speed": 12000},
			want:      0.6,
			coverage:  0.6,
		},
		{
			name:      "nothing shared",
			subject:   map[string]float64{"spindle_speed": 12000},
			benchmark: map[string]float64{"feed_rate": 2000},
			want:      0,
		},
		{
			name: "no parameters on either side",
			want: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject := newRecord(t, "subj", cat, 0, tt.subject)
			e := newEntry(t, "bench", cat, 2020, tt.benchmark)
			c := Similarity(s, cat, subject, e)
			assert.InDelta(t, tt.want, c.Similarity, 1e-9)
			assert.InDelta(t, tt.distance, c.Distance, 1e-9)
			assert.InDelta(t, tt.coverage, c.Coverage, 1e-9)
			assert.GreaterOrEqual(t, c.Similarity, 0.0)
			assert.LessOrEqual(t, c.Similarity, 1.0)
		})
	}
}

func TestSimilarity_ParameterWeightOverride(t *testing.T) {
	cat := schema.CategoryMilling
	subject := newRecord(t, "subj", cat, 0, map[string]float64{"spindle_speed": 12000, "feed_rate": 2000})
	e := newEntry(t, "bench", cat, 2020, map[string]float64{"spindle_speed": 12000})

	s := config.Default().WithParameterWeight(cat, "feed_rate", 0)
	c := Similarity(s, cat, subject, e)
	assert.InDelta(t, 1.0, c.Similarity, 1e-9, "zero-weight parameters do not reduce coverage")
}

func TestIndex_Concurrent(t *testing.T) {
	ix := New()
	subject := newRecord(t, "subj", schema.CategoryMilling, 0, map[string]float64{"spindle_speed": 12000})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := range 20 {
				id := fmt.Sprintf("w%d-%d", i, j)
				e, err := NewEntry(newRecord(t, id, schema.CategoryMilling, 2000+j, map[string]float64{"spindle_speed": float64(1000 * j)}), "test")
				if err == nil {
					_ = ix.Add(e)
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for range 20 {
				for _, c := range ix.Retrieve(subject, schema.CategoryMilling, 5) {
					_ = c.Similarity
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 160, ix.Len())
	assert.Len(t, ix.Retrieve(subject, schema.CategoryMilling, 5), 5)
}
