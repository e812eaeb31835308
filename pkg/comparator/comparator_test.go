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

package comparator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/NVIDIA/energy-benchmark/pkg/advisory"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/kpi"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sameParams = map[string]float64{"spindle_speed": 12000}

// withKPIs builds a valid record whose computable KPIs are exactly kpis.
func withKPIs(id string, cat schema.Category, kpis map[string]float64) *record.CanonicalRecord {
	reg := schema.MustDefault()
	rec := &record.CanonicalRecord{
		Metadata: record.Metadata{SourceID: id, Category: cat, PublicationYear: 2020},
		Energy:   map[string]record.Quantity{},
		KPIs:     map[string]record.KPI{},
		Valid:    true,
	}
	for name, v := range sameParams {
		f, _ := reg.Describe(name)
		rec.Parameters = append(rec.Parameters, record.Parameter{Name: name, Value: v, Unit: f.Unit})
	}
	for _, spec := range reg.KPIs {
		if v, ok := kpis[spec.Name]; ok {
			rec.KPIs[spec.Name] = record.Computed(v, spec.Unit)
		} else {
			rec.KPIs[spec.Name] = record.NotComputable(spec.Unit, "missing input "+spec.Denominator.Name())
		}
	}
	return rec
}

func newIndex(t *testing.T, recs ...*record.CanonicalRecord) *index.Index {
	t.Helper()
	ix := index.New()
	for _, r := range recs {
		e, err := index.NewEntry(r, "test")
		require.NoError(t, err)
		require.NoError(t, ix.Add(e))
	}
	return ix
}

func TestCompare_SECAboveTolerance(t *testing.T) {
	ix := newIndex(t, withKPIs("Doe2020", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 100}))
	c := New(ix)

	res, err := c.Compare(context.Background(), withKPIs("audit", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 120}))
	require.NoError(t, err)

	assert.Equal(t, "audit", res.SubjectID)
	assert.Equal(t, "Doe2020", res.BenchmarkID)
	require.Len(t, res.MatchedBenchmarks, 1)
	assert.InDelta(t, 1.0, res.MatchedBenchmarks[0].Similarity, 1e-9)

	d := res.Deviations[kpi.SpecificEnergyConsumption]
	assert.Equal(t, StatusAbove, d.Status)
	require.NotNil(t, d.RelativePercent)
	assert.InDelta(t, 20.0, *d.RelativePercent, 1e-9)
	assert.InDelta(t, 20.0, *d.Absolute, 1e-9)
	assert.InDelta(t, 10.0, d.TolerancePercent, 1e-9)
	assert.Equal(t, "kWh/unit", d.Unit)
	assert.InDelta(t, 0.0, res.Score, 1e-9)

	// one of five expected KPIs is comparable at similarity 1
	assert.InDelta(t, 0.2, res.Confidence, 1e-9)
	assert.True(t, res.LowConfidence)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "ComparisonResult", string(res.Kind))
}

func TestDeviation(t *testing.T) {
	reg := schema.MustDefault()

	tests := []struct {
		name     string
		kpi      string
		subject  float64
		bench    float64
		tol      float64
		status   Status
		goodness float64
	}{
		{"exactly at tolerance above", kpi.SpecificEnergyConsumption, 110, 100, 10, StatusWithin, 1},
		{"exactly at tolerance below", kpi.SpecificEnergyConsumption, 90, 100, 10, StatusWithin, 1},
		{"identical", kpi.SpecificEnergyConsumption, 100, 100, 10, StatusWithin, 1},
		{"half decayed", kpi.SpecificEnergyConsumption, 115, 100, 10, StatusAbove, 0.5},
		{"floor at twice tolerance", kpi.SpecificEnergyConsumption, 120, 100, 10, StatusAbove, 0},
		{"floor far above", kpi.SpecificEnergyConsumption, 300, 100, 10, StatusAbove, 0},
		{"better than state of the art", kpi.SpecificEnergyConsumption, 50, 100, 10, StatusBelow, 1},
		{"idle ratio above", kpi.IdleRatio, 0.33, 0.25, 20, StatusAbove, 0.4},
		{"duty cycle below is worse", kpi.DutyCycle, 80, 100, 10, StatusBelow, 0},
		{"duty cycle above is better", kpi.DutyCycle, 120, 100, 10, StatusAbove, 1},
		{"neutral above", kpi.AveragePower, 130, 100, 15, StatusAbove, 0},
		{"neutral below", kpi.AveragePower, 80, 100, 15, StatusBelow, 2.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := reg.KPI(tt.kpi)
			require.True(t, ok)
			s := withKPIs("s", schema.CategoryMilling, map[string]float64{tt.kpi: tt.subject})
			b := withKPIs("b", schema.CategoryMilling, map[string]float64{tt.kpi: tt.bench})

			d := deviation(spec, tt.tol, s, b)
			assert.Equal(t, tt.status, d.Status)
			require.NotNil(t, d.Goodness)
			assert.InDelta(t, tt.goodness, *d.Goodness, 1e-9)
			assert.GreaterOrEqual(t, *d.Goodness, 0.0)
			assert.LessOrEqual(t, *d.Goodness, 1.0)
		})
	}
}

func TestDeviation_NotComputable(t *testing.T) {
	spec, _ := schema.MustDefault().KPI(kpi.SpecificEnergyConsumption)

	tests := []struct {
		name    string
		subject map[string]float64
		bench   map[string]float64
		reason  string
	}{
		{"subject missing", nil, map[string]float64{kpi.SpecificEnergyConsumption: 1}, "subject"},
		{"benchmark missing", map[string]float64{kpi.SpecificEnergyConsumption: 1}, nil, "benchmark b"},
		{"benchmark zero", map[string]float64{kpi.SpecificEnergyConsumption: 1}, map[string]float64{kpi.SpecificEnergyConsumption: 0}, "zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := deviation(spec, 10,
				withKPIs("s", schema.CategoryMilling, tt.subject),
				withKPIs("b", schema.CategoryMilling, tt.bench))
			assert.Equal(t, StatusNotComputable, d.Status)
			assert.Nil(t, d.Goodness)
			assert.Nil(t, d.RelativePercent)
			assert.Contains(t, d.Reason, tt.reason)
		})
	}
}

func TestCompare_WeightedScore(t *testing.T) {
	bench := withKPIs("b", schema.CategoryMilling, map[string]float64{
		kpi.SpecificEnergyConsumption: 100,
		kpi.IdleRatio:                 0.3,
		kpi.AveragePower:              10,
	})
	subject := withKPIs("s", schema.CategoryMilling, map[string]float64{
		kpi.SpecificEnergyConsumption: 105,
		kpi.IdleRatio:                 0.3,
		kpi.AveragePower:              13,
	})

	res, err := New(newIndex(t, bench)).Compare(context.Background(), subject)
	require.NoError(t, err)

	// weights 3, 1 and 1 with goodness 1, 1 and 0
	assert.InDelta(t, 0.8, res.Score, 1e-9)
	assert.InDelta(t, 0.6, res.Confidence, 1e-9)
	assert.False(t, res.LowConfidence)
	assert.Len(t, res.Deviations, 5)
	assert.Equal(t, StatusNotComputable, res.Deviations[kpi.DutyCycle].Status)
}

func TestCompare_MissingOutputQuantity(t *testing.T) {
	energy := func(withOutput bool) map[string]record.Quantity {
		m := map[string]record.Quantity{
			"total_energy":   {Value: 1.5, Unit: "kWh"},
			"active_power":   {Value: 6, Unit: "kW"},
			"idle_power":     {Value: 1.8, Unit: "kW"},
			"cycle_time":     {Value: 900, Unit: "s"},
			"active_time":    {Value: 600, Unit: "s"},
			"removed_volume": {Value: 120000, Unit: "mm3"},
		}
		if withOutput {
			m["output_quantity"] = record.Quantity{Value: 10, Unit: "unit"}
		}
		return m
	}
	mk := func(id string, withOutput bool) *record.CanonicalRecord {
		r := withKPIs(id, schema.CategoryMilling, nil)
		r.KPIs = nil
		r.Energy = energy(withOutput)
		return r
	}

	bench := kpi.New().Normalize(mk("bench", true))
	res, err := New(newIndex(t, bench)).Compare(context.Background(), mk("audit", false))
	require.NoError(t, err)

	d := res.Deviations[kpi.SpecificEnergyConsumption]
	assert.Equal(t, StatusNotComputable, d.Status)
	assert.Contains(t, d.Reason, "output_quantity")

	found := false
	for _, n := range res.Notes {
		if strings.Contains(n, kpi.SpecificEnergyConsumption) && strings.Contains(n, "output_quantity") {
			found = true
		}
	}
	assert.True(t, found, "notes: %v", res.Notes)

	assert.Equal(t, StatusWithin, res.Deviations[kpi.IdleRatio].Status)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
}

func TestCompare_EmptyCategory(t *testing.T) {
	ix := newIndex(t, withKPIs("mill", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 1}))

	res, err := New(ix).Compare(context.Background(), withKPIs("audit", schema.CategoryTurning, map[string]float64{kpi.SpecificEnergyConsumption: 1}))
	require.NoError(t, err)
	assert.Empty(t, res.MatchedBenchmarks)
	assert.NotNil(t, res.MatchedBenchmarks)
	assert.Empty(t, res.Deviations)
	assert.Zero(t, res.Score)
	assert.Zero(t, res.Confidence)
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "no admissible benchmark for category turning")
}

func TestCompare_NoComputableKPIs(t *testing.T) {
	ix := newIndex(t, withKPIs("bench", schema.CategoryMilling, nil))

	res, err := New(ix).Compare(context.Background(), withKPIs("audit", schema.CategoryMilling, nil))
	require.NoError(t, err)
	assert.Equal(t, "bench", res.BenchmarkID)
	require.NotEmpty(t, res.Deviations)
	for name, d := range res.Deviations {
		assert.Equal(t, StatusNotComputable, d.Status, name)
		assert.Nil(t, d.Goodness, name)
	}
	assert.Zero(t, res.Score)
	assert.Zero(t, res.Confidence)
	assert.True(t, res.LowConfidence)
	assert.NotEmpty(t, res.Notes)
}

func TestCompare_InvalidSubject(t *testing.T) {
	c := New(index.New())

	invalid := withKPIs("audit", schema.CategoryMilling, nil)
	invalid.Valid = false
	noCategory := withKPIs("audit", "", nil)

	for _, s := range []*record.CanonicalRecord{nil, invalid, noCategory} {
		_, err := c.Compare(context.Background(), s)
		require.Error(t, err)
		assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidSubject))
	}
}

func TestCompare_Options(t *testing.T) {
	ix := newIndex(t,
		withKPIs("b1", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 100}),
		withKPIs("b2", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 200}),
		withKPIs("b3", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 300}),
	)
	subject := withKPIs("audit", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 115})

	c := New(ix,
		WithK(2),
		WithTolerance(schema.CategoryMilling, kpi.SpecificEnergyConsumption, 20),
		WithAlternates(true),
		WithConfidenceThreshold(0.1),
	)
	res, err := c.Compare(context.Background(), subject)
	require.NoError(t, err)

	assert.Len(t, res.MatchedBenchmarks, 2)
	assert.Equal(t, "b1", res.BenchmarkID)
	assert.Equal(t, StatusWithin, res.Deviations[kpi.SpecificEnergyConsumption].Status)
	assert.False(t, res.LowConfidence)
	require.Len(t, res.Alternates, 1)
	assert.Equal(t, "b2", res.Alternates[0].BenchmarkID)
	assert.Equal(t, StatusBelow, res.Alternates[0].Deviations[kpi.SpecificEnergyConsumption].Status)
	assert.InDelta(t, 1.0, res.Alternates[0].Score, 1e-9)

	// index settings are untouched
	assert.InDelta(t, 10.0, ix.Settings().Tolerance(schema.CategoryMilling, kpi.SpecificEnergyConsumption), 1e-9)
}

func TestCompare_Advisory(t *testing.T) {
	bench := withKPIs("b", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 100})
	subject := withKPIs("s", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 120})
	ix := newIndex(t, bench)

	t.Run("annotation", func(t *testing.T) {
		var got advisory.Request
		judge := advisory.JudgeFunc(func(_ context.Context, req advisory.Request) (*advisory.Annotation, error) {
			got = req
			return &advisory.Annotation{Source: "test", Text: "reduce idle time"}, nil
		})
		res, err := New(ix, WithJudge(judge)).Compare(context.Background(), subject)
		require.NoError(t, err)
		require.NotNil(t, res.Advisory)
		assert.Equal(t, "reduce idle time", res.Advisory.Text)
		assert.Equal(t, "b", got.Benchmark.ID())
		assert.Len(t, got.Findings, 5)
	})

	t.Run("failure becomes note", func(t *testing.T) {
		judge := advisory.JudgeFunc(func(context.Context, advisory.Request) (*advisory.Annotation, error) {
			return nil, errors.New("model offline")
		})
		res, err := New(ix, WithJudge(judge)).Compare(context.Background(), subject)
		require.NoError(t, err)
		assert.Nil(t, res.Advisory)
		assert.InDelta(t, 0.0, res.Score, 1e-9)
		assert.Contains(t, strings.Join(res.Notes, "\n"), "advisory annotation unavailable")
	})

	t.Run("timeout becomes note", func(t *testing.T) {
		slow := advisory.JudgeFunc(func(ctx context.Context, _ advisory.Request) (*advisory.Annotation, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		guard := advisory.NewGuard(slow, advisory.WithTimeout(20*time.Millisecond))
		res, err := New(ix, WithJudge(guard)).Compare(context.Background(), subject)
		require.NoError(t, err)
		assert.Contains(t, strings.Join(res.Notes, "\n"), "ADVISORY_TIMEOUT")
	})
}

func TestCompare_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(index.New()).Compare(ctx, withKPIs("s", schema.CategoryMilling, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompareAll(t *testing.T) {
	ix := newIndex(t, withKPIs("b", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 100}))
	invalid := withKPIs("bad", schema.CategoryMilling, nil)
	invalid.Valid = false

	subjects := []*record.CanonicalRecord{
		withKPIs("s0", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 100}),
		invalid,
		withKPIs("s2", schema.CategoryMilling, map[string]float64{kpi.SpecificEnergyConsumption: 150}),
	}

	results, err := New(ix).CompareAll(context.Background(), subjects, 2)
	require.Error(t, err)
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidSubject))
	require.Len(t, results, 3)
	assert.Equal(t, "s0", results[0].SubjectID)
	assert.Nil(t, results[1])
	assert.Equal(t, "s2", results[2].SubjectID)

	results, err = New(ix).CompareAll(context.Background(), subjects[:1], 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestTracker(t *testing.T) {
	var tr tracker
	assert.Error(t, tr.advance(PhaseScoring))
	require.NoError(t, tr.advance(PhaseRetrieving))
	require.NoError(t, tr.advance(PhaseScoring))
	assert.Error(t, tr.advance(PhaseRetrieving))
	require.NoError(t, tr.advance(PhaseDone))
	assert.Error(t, tr.advance(PhaseDone))

	var short tracker
	require.NoError(t, short.advance(PhaseRetrieving))
	require.NoError(t, short.advance(PhaseDone))
}

func TestResult_TableRows(t *testing.T) {
	ix := newIndex(t, withKPIs("b", schema.CategoryLaserCutting, map[string]float64{kpi.SpecificEnergyConsumption: 100}))
	res, err := New(ix).Compare(context.Background(), withKPIs("s", schema.CategoryLaserCutting, map[string]float64{kpi.SpecificEnergyConsumption: 120}))
	require.NoError(t, err)

	rows := res.TableRows()
	assert.Equal(t, []string{"subject", "s", "b", "", "", "", ""}, rows[0])
	assert.Equal(t, kpi.SpecificEnergyConsumption, rows[3][0])
	assert.Equal(t, "above_tolerance", rows[3][6])
	for _, r := range rows {
		assert.Len(t, r, len(res.TableHeader()))
		assert.NotEqual(t, kpi.SpecificCuttingEnergy, r[0], "laser cutting does not expect cutting energy")
	}
}
