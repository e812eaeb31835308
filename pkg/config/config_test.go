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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

func TestResolve_Defaults(t *testing.T) {
	reg := schema.MustDefault()
	s, err := Resolve(reg, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, s.RetrievalK)
	assert.InDelta(t, 0.5, s.ConfidenceThreshold, 1e-9)
	assert.InDelta(t, 0.5, s.UnmatchedSimilarity, 1e-9)
	assert.False(t, s.ReportAlternates)
	assert.Equal(t, 20*time.Second, s.AdvisoryTimeout)
	assert.InDelta(t, 10.0, s.Tolerance(schema.CategoryMilling, "specific_energy_consumption"), 1e-9)
	assert.Same(t, reg, s.Registry())
}

func TestResolve_Overrides(t *testing.T) {
	cfg := &Config{
		RetrievalK:          ptr.To(5),
		ConfidenceThreshold: ptr.To(0.7),
		ReportAlternates:    ptr.To(true),
		AdvisoryTimeout:     "5s",
		Categories: map[schema.Category]CategoryOverrides{
			schema.CategoryMilling: {
				Tolerances:       map[string]float64{"specific_energy_consumption": 12},
				KPIWeights:       map[string]float64{"duty_cycle": 0},
				ParameterWeights: map[string]float64{"feed_rate": 7},
			},
		},
	}
	s, err := Resolve(schema.MustDefault(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, s.RetrievalK)
	assert.InDelta(t, 0.7, s.ConfidenceThreshold, 1e-9)
	assert.True(t, s.ReportAlternates)
	assert.Equal(t, 5*time.Second, s.AdvisoryTimeout)

	assert.InDelta(t, 12.0, s.Tolerance(schema.CategoryMilling, "specific_energy_consumption"), 1e-9)
	assert.InDelta(t, 10.0, s.Tolerance(schema.CategoryTurning, "specific_energy_consumption"), 1e-9)
	assert.InDelta(t, 7.0, s.ParameterWeight(schema.CategoryMilling, "feed_rate"), 1e-9)
	assert.NotContains(t, s.ExpectedKPIs(schema.CategoryMilling), "duty_cycle")
	assert.Contains(t, s.ExpectedKPIs(schema.CategoryTurning), "duty_cycle")

	// later changes to cfg do not leak into resolved settings
	cfg.Categories[schema.CategoryMilling].Tolerances["specific_energy_consumption"] = 99
	assert.InDelta(t, 12.0, s.Tolerance(schema.CategoryMilling, "specific_energy_consumption"), 1e-9)
}

func TestValidate(t *testing.T) {
	reg := schema.MustDefault()

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"zero k", &Config{RetrievalK: ptr.To(0)}},
		{"threshold above one", &Config{ConfidenceThreshold: ptr.To(1.5)}},
		{"negative unmatched similarity", &Config{UnmatchedSimilarity: ptr.To(-0.1)}},
		{"bad timeout", &Config{AdvisoryTimeout: "soon"}},
		{"negative timeout", &Config{AdvisoryTimeout: "-1s"}},
		{"unknown category", &Config{Categories: map[schema.Category]CategoryOverrides{"welding": {}}}},
		{"unknown kpi", &Config{Categories: map[schema.Category]CategoryOverrides{
			schema.CategoryMilling: {Tolerances: map[string]float64{"carbon": 5}},
		}}},
		{"zero tolerance", &Config{Categories: map[schema.Category]CategoryOverrides{
			schema.CategoryMilling: {Tolerances: map[string]float64{"idle_ratio": 0}},
		}}},
		{"energy field as parameter", &Config{Categories: map[schema.Category]CategoryOverrides{
			schema.CategoryMilling: {ParameterWeights: map[string]float64{"total_energy": 1}},
		}}},
		{"negative kpi weight", &Config{Categories: map[schema.Category]CategoryOverrides{
			schema.CategoryMilling: {KPIWeights: map[string]float64{"idle_ratio": -1}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(reg)
			require.Error(t, err)
			assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidRequest))

			_, err = Resolve(reg, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ebench.yaml")
	content := `retrievalK: 4
unmatchedSimilarity: 0.25
advisoryTimeout: 3s
categories:
  grinding:
    tolerances:
      specific_cutting_energy: 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.RetrievalK)
	assert.Equal(t, 4, *cfg.RetrievalK)

	s, err := Resolve(schema.MustDefault(), cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, s.UnmatchedSimilarity, 1e-9)
	assert.InDelta(t, 25.0, s.Tolerance(schema.CategoryGrinding, "specific_cutting_energy"), 1e-9)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWithMethodsCopy(t *testing.T) {
	base := Default()
	changed := base.WithTolerance(schema.CategoryDrilling, "idle_ratio", 33).WithKPIWeight(schema.CategoryDrilling, "idle_ratio", 5)

	assert.InDelta(t, 33.0, changed.Tolerance(schema.CategoryDrilling, "idle_ratio"), 1e-9)
	assert.InDelta(t, 5.0, changed.KPIWeight(schema.CategoryDrilling, "idle_ratio"), 1e-9)
	assert.InDelta(t, 20.0, base.Tolerance(schema.CategoryDrilling, "idle_ratio"), 1e-9)
	assert.InDelta(t, 1.0, base.KPIWeight(schema.CategoryDrilling, "idle_ratio"), 1e-9)
}
