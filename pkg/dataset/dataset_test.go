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

package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/header"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/NVIDIA/energy-benchmark/pkg/validator"
)

const trace = `elapsedTime,Power1,Power2
0,100,50
10,200,50
20,100,50
`

func parse(t *testing.T, data string) *Frame {
	t.Helper()
	f, err := Parse(strings.NewReader(data), "")
	require.NoError(t, err)
	return f
}

func TestParse(t *testing.T) {
	f := parse(t, trace)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"Power1", "Power2"}, f.Columns())
	assert.InDelta(t, 20.0, f.Duration(), 1e-9)
	p1, ok := f.Column("Power1")
	require.True(t, ok)
	assert.Equal(t, []float64{100, 200, 100}, p1)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "no time column", data: "t,Power1\n0,1\n1,2\n"},
		{name: "non-numeric", data: "elapsedTime,Power1\n0,1\n1,abc\n"},
		{name: "time decreases", data: "elapsedTime,Power1\n5,1\n1,2\n"},
		{name: "single sample", data: "elapsedTime,Power1\n0,1\n"},
		{name: "duplicate column", data: "elapsedTime,Power1,Power1\n0,1,1\n1,2,2\n"},
		{name: "ragged row", data: "elapsedTime,Power1\n0,1\n1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.data), "")
			require.Error(t, err)
			assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidRequest))
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "trace.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(trace), 0o600))

	f, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())

	_, err = ReadFile(filepath.Join(dir, "trace.xlsx"))
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidRequest))

	_, err = ReadFile(filepath.Join(dir, "missing.csv"))
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeNotFound))

	custom := filepath.Join(dir, "custom.csv")
	require.NoError(t, os.WriteFile(custom, []byte("t,Power1\n0,100\n1,200\n"), 0o600))
	f, err = ReadFileWithTimeColumn(custom, "t")
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "t", f.TimeColumn)
}

func TestSummarize_Metrics(t *testing.T) {
	s, err := Summarize(parse(t, trace), WithGroup("electrical", "Power1", "Power2"), WithVersion("test"))
	require.NoError(t, err)
	assert.Equal(t, header.KindDatasetSummary, s.Kind)
	require.Len(t, s.Groups, 1)

	g := s.Groups[0]
	require.Len(t, g.Variables, 2)
	p1 := g.Variables[0].Stats
	assert.InDelta(t, 133.333, p1.Mean, 1e-3)
	assert.InDelta(t, 100.0, p1.Median, 1e-9)
	assert.InDelta(t, 200.0, p1.Max, 1e-9)
	assert.InDelta(t, 100.0, p1.Min, 1e-9)
	assert.InDelta(t, 100.0, p1.Range, 1e-9)
	assert.InDelta(t, 47.14, p1.StdDev, 1e-2)
	assert.InDelta(t, 10.0, p1.TimeOfPeak, 1e-9)
	// (100+200)/2*10 + (200+100)/2*10 = 3000 W·s
	assert.InDelta(t, 3000/3.6e6, p1.EnergyKWh, 1e-12)

	assert.InDelta(t, 250.0, g.Total.Max, 1e-9)
	assert.InDelta(t, 150.0, g.Total.Min, 1e-9)
	assert.InDelta(t, (3000+1000)/3.6e6, g.Total.EnergyKWh, 1e-12)
	assert.InDelta(t, g.Total.EnergyKWh, s.TotalEnergyKWh, 1e-12)
	assert.InDelta(t, s.TotalEnergyKWh/(20.0/3600), s.EnergyRateKWhPerHour, 1e-9)
}

func TestSummarize_DutyCycle(t *testing.T) {
	f := parse(t, "elapsedTime,Power1\n0,0\n1,100\n2,100\n3,0\n4,100\n")
	s, err := Summarize(f)
	require.NoError(t, err)
	require.Len(t, s.Groups, 1)
	assert.Equal(t, DefaultGroup, s.Groups[0].Name)

	// Mean is 60, so samples above 6 W are active: 3 of 5.
	assert.InDelta(t, 60.0, s.Groups[0].DutyCyclePercent, 1e-9)
	assert.InDelta(t, 60.0, s.DutyCyclePercent, 1e-9)
	// Samples at t=1, t=2 are active for one second each; the last has no interval.
	assert.InDelta(t, 2.0, s.ActiveTimeSeconds, 1e-9)
	require.NotNil(t, s.ActivePowerW)
	require.NotNil(t, s.IdlePowerW)
	assert.InDelta(t, 100.0, *s.ActivePowerW, 1e-9)
	assert.InDelta(t, 0.0, *s.IdlePowerW, 1e-9)
}

func TestSummarize_Groups(t *testing.T) {
	f := parse(t, trace)

	s, err := Summarize(f,
		WithGroup("electrical", "Power1", "Hauptversorgung"),
		WithGroup("pneumatic", "AirPower_Blum"),
		WithGroup("auxiliary", "Power2", "Power1"))
	require.NoError(t, err)
	require.Len(t, s.Groups, 2)
	assert.Equal(t, "electrical", s.Groups[0].Name)
	assert.Equal(t, []string{"Hauptversorgung"}, s.Groups[0].Missing)
	assert.Equal(t, "auxiliary", s.Groups[1].Name)

	// Power1 appears in two groups but counts once overall.
	assert.InDelta(t, (3000+1000)/3.6e6, s.TotalEnergyKWh, 1e-12)

	_, err = Summarize(f, WithGroup("pneumatic", "AirPower_Blum"))
	assert.True(t, eberrors.IsCode(err, eberrors.ErrCodeInvalidRequest))
}

func TestSummary_TableRows(t *testing.T) {
	s, err := Summarize(parse(t, trace))
	require.NoError(t, err)
	rows := s.TableRows()
	require.Len(t, rows, 3)
	assert.Len(t, s.TableHeader(), len(rows[0]))
	assert.Equal(t, []string{"total", "Power1", "133.33", "100.00", "200.00", "100.00", "47.14", "0.0008", "10.00"}, rows[0])
	assert.Equal(t, "(total)", rows[2][1])
}

func TestSummary_ToRawValidates(t *testing.T) {
	f := parse(t, "elapsedTime,Spindle,Pumps\n0,0,200\n60,4000,200\n120,4000,200\n180,0,200\n")
	s, err := Summarize(f, WithGroup("electrical", "Spindle", "Pumps"))
	require.NoError(t, err)

	parts := 4.0
	raw := s.ToRaw(Metadata{
		SourceID:       "audit-7",
		Category:       schema.CategoryMilling,
		MachineModel:   "DMU 65",
		OutputQuantity: &parts,
		Parameters: map[string]any{
			"spindle_speed": "8000 rpm",
			"feed_rate":     "1200 mm/min",
			"depth_of_cut":  "1.5 mm",
		},
	})

	rec, report, err := validator.New().Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, report.Valid, "issues: %v", report.Issues)
	assert.Equal(t, record.SourceMeasurement, rec.Metadata.SourceType)

	total, ok := rec.EnergyQuantity("total_energy")
	require.True(t, ok)
	assert.Greater(t, total.Value, 0.0)
}
