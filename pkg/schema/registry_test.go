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

package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", r.Version)
	assert.Equal(t, 3, r.Defaults.RetrievalK)
	assert.Len(t, r.KPIs, 5)

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, r, again, "embedded registry should be cached")

	for _, c := range Categories() {
		assert.NotEmpty(t, r.ExpectedKPIs(c), "category %s has no expected KPIs", c)
	}
}

func TestDescribe(t *testing.T) {
	r := MustDefault()

	tests := []struct {
		field     string
		wantPath  string
		wantType  FieldType
		wantUnit  string
		wantDim   Dimension
		wantError bool
	}{
		{"energy.total_energy", "energy.total_energy", TypeQuantity, "kWh", DimensionEnergy, false},
		{"total_energy", "energy.total_energy", TypeQuantity, "kWh", DimensionEnergy, false},
		{"spindle_speed", "parameters.spindle_speed", TypeQuantity, "rpm", DimensionRotationalSpeed, false},
		{"metadata.process_category", "metadata.process_category", TypeEnum, "", "", false},
		{"energy.unknown", "", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f, err := r.Describe(tt.field)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, f.Path)
			assert.Equal(t, tt.wantType, f.Type)
			assert.Equal(t, tt.wantUnit, f.Unit)
			assert.Equal(t, tt.wantDim, f.Dimension)
		})
	}
}

func TestRequiredFields(t *testing.T) {
	r := MustDefault()

	tests := []struct {
		category Category
		want     string
		notWant  string
	}{
		{CategoryGrinding, "parameters.wheel_speed", "parameters.spindle_speed"},
		{CategoryMilling, "parameters.spindle_speed", "parameters.wheel_speed"},
		{CategoryDrilling, "parameters.spindle_speed", "parameters.laser_power"},
		{CategoryTurning, "parameters.cutting_speed", "parameters.spindle_speed"},
		{CategoryLaserCutting, "parameters.laser_power", "parameters.cutting_speed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			got := r.RequiredFields(tt.category)
			assert.Contains(t, got, "metadata.source_id")
			assert.Contains(t, got, "metadata.process_category")
			assert.Contains(t, got, tt.want)
			assert.NotContains(t, got, tt.notWant)
		})
	}
}

func TestFieldSpec_InRange(t *testing.T) {
	r := MustDefault()
	f, err := r.Describe("active_power")
	require.NoError(t, err)

	assert.True(t, f.InRange(0), "lower bound is inclusive")
	assert.True(t, f.InRange(12.5))
	assert.False(t, f.InRange(-0.1))
}

func TestFieldsIn_PreservesOrder(t *testing.T) {
	r := MustDefault()
	var names []string
	for _, f := range r.FieldsIn(SectionParameters) {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"spindle_speed", "wheel_speed", "cutting_speed", "feed_rate",
		"depth_of_cut", "material_removal_rate", "laser_power",
	}, names)
}

func TestTolerancesAndWeights(t *testing.T) {
	r := MustDefault()
	assert.InDelta(t, 10.0, r.Tolerance(CategoryMilling, "specific_energy_consumption"), 1e-9)
	assert.InDelta(t, r.Defaults.TolerancePercent, r.Tolerance(CategoryLaserCutting, "specific_cutting_energy"), 1e-9)
	assert.Zero(t, r.KPIWeight(CategoryLaserCutting, "specific_cutting_energy"))
	assert.NotContains(t, r.ExpectedKPIs(CategoryLaserCutting), "specific_cutting_energy")
	assert.InDelta(t, 3.0, r.ParameterWeight(CategoryMilling, "spindle_speed"), 1e-9)
	assert.InDelta(t, 1.0, r.ParameterWeight(CategoryMilling, "laser_power"), 1e-9, "unlisted parameters weigh 1")
}

func TestParse_Invalid(t *testing.T) {
	base := string(registryYAML)

	tests := []struct {
		name    string
		mutate  func(string) string
		wantMsg string
	}{
		{
			name:    "missing version",
			mutate:  func(s string) string { return strings.Replace(s, "version: v1.0.0", "", 1) },
			wantMsg: "version is required",
		},
		{
			name:    "malformed version",
			mutate:  func(s string) string { return strings.Replace(s, "version: v1.0.0", "version: first", 1) },
			wantMsg: "version component is not numeric",
		},
		{
			name:    "unsupported major version",
			mutate:  func(s string) string { return strings.Replace(s, "version: v1.0.0", "version: v2.0.0", 1) },
			wantMsg: "is not supported",
		},
		{
			name: "unknown unit",
			mutate: func(s string) string {
				return strings.Replace(s, "unit: rpm", "unit: furlongs", 1)
			},
			wantMsg: "unknown unit",
		},
		{
			name: "kpi operand dimension mismatch",
			mutate: func(s string) string {
				return strings.Replace(s, "numerator: {field: energy.total_energy, unit: kWh}",
					"numerator: {field: energy.total_energy, unit: kW}", 1)
			},
			wantMsg: "incompatible unit",
		},
		{
			name:    "bad kind",
			mutate:  func(s string) string { return strings.Replace(s, "kind: Registry", "kind: Snapshot", 1) },
			wantMsg: "unexpected document kind",
		},
		{
			name:    "not yaml",
			mutate:  func(string) string { return "fields: [" },
			wantMsg: "failed to parse registry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(base)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidRequest))
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	custom := strings.Replace(string(registryYAML), "version: v1.0.0", "version: v1.1.0-site", 1)
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v1.1.0-site", r.Version)

	f, err := r.Describe("wheel_speed")
	require.NoError(t, err)
	assert.Equal(t, SectionParameters, f.Section)
}
