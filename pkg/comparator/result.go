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
	"fmt"
	"sort"
	"strconv"

	"github.com/NVIDIA/energy-benchmark/pkg/advisory"
	"github.com/NVIDIA/energy-benchmark/pkg/header"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

// Status classifies a KPI deviation.
type Status string

const (
	StatusWithin        Status = "within_tolerance"
	StatusAbove         Status = "above_tolerance"
	StatusBelow         Status = "below_tolerance"
	StatusNotComputable Status = "not_computable"
)

// Deviation compares one KPI of the subject with the benchmark.
type Deviation struct {
	Absolute         *float64 `json:"absolute" yaml:"absolute"`
	RelativePercent  *float64 `json:"relative_percent" yaml:"relative_percent"`
	Status           Status   `json:"status" yaml:"status"`
	SubjectValue     *float64 `json:"subject_value" yaml:"subject_value"`
	BenchmarkValue   *float64 `json:"benchmark_value" yaml:"benchmark_value"`
	Unit             string   `json:"unit" yaml:"unit"`
	TolerancePercent float64  `json:"tolerance_percent" yaml:"tolerance_percent"`
	Goodness         *float64 `json:"goodness,omitempty" yaml:"goodness,omitempty"`
	Reason           string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Computable reports whether the deviation has a value.
func (d Deviation) Computable() bool {
	return d.Status != StatusNotComputable
}

// Match is one retrieved benchmark.
type Match struct {
	ID              string  `json:"id" yaml:"id"`
	Similarity      float64 `json:"similarity" yaml:"similarity"`
	Distance        float64 `json:"distance" yaml:"distance"`
	Coverage        float64 `json:"coverage" yaml:"coverage"`
	PublicationYear int     `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
}

// Alternate is the scoring against a lower-ranked benchmark.
type Alternate struct {
	BenchmarkID string               `json:"benchmark_id" yaml:"benchmark_id"`
	Similarity  float64              `json:"similarity" yaml:"similarity"`
	Score       float64              `json:"score" yaml:"score"`
	Deviations  map[string]Deviation `json:"deviations" yaml:"deviations"`
}

// Result is the outcome of one comparison.
type Result struct {
	header.Header `json:",inline" yaml:",inline"`

	ID                string               `json:"id" yaml:"id"`
	SubjectID         string               `json:"subject_id" yaml:"subject_id"`
	Category          schema.Category      `json:"process_category" yaml:"process_category"`
	BenchmarkID       string               `json:"benchmark_id,omitempty" yaml:"benchmark_id,omitempty"`
	MatchedBenchmarks []Match              `json:"matched_benchmarks" yaml:"matched_benchmarks"`
	Deviations        map[string]Deviation `json:"deviations" yaml:"deviations"`
	Score             float64              `json:"score" yaml:"score"`
	Confidence        float64              `json:"confidence" yaml:"confidence"`
	LowConfidence     bool                 `json:"low_confidence" yaml:"low_confidence"`
	Notes             []string             `json:"notes,omitempty" yaml:"notes,omitempty"`
	Alternates        []Alternate          `json:"alternates,omitempty" yaml:"alternates,omitempty"`
	Advisory          *advisory.Annotation `json:"advisory,omitempty" yaml:"advisory,omitempty"`

	kpiOrder []string
}

func (r *Result) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// TableHeader implements serializer.Tabular.
func (r *Result) TableHeader() []string {
	return []string{"KPI", "SUBJECT", "BENCHMARK", "UNIT", "DEVIATION %", "TOLERANCE %", "STATUS"}
}

// TableRows implements serializer.Tabular.
func (r *Result) TableRows() [][]string {
	rows := [][]string{
		{"subject", r.SubjectID, r.BenchmarkID, "", "", "", ""},
		{"score", formatFloat(&r.Score), "", "", "", "", ""},
		{"confidence", formatFloat(&r.Confidence), "", "", "", "", lowConfidenceLabel(r.LowConfidence)},
	}
	for _, name := range r.order() {
		d := r.Deviations[name]
		rows = append(rows, []string{
			name,
			formatFloat(d.SubjectValue),
			formatFloat(d.BenchmarkValue),
			d.Unit,
			formatFloat(d.RelativePercent),
			strconv.FormatFloat(d.TolerancePercent, 'g', -1, 64),
			string(d.Status),
		})
	}
	for _, n := range r.Notes {
		rows = append(rows, []string{"note", n, "", "", "", "", ""})
	}
	return rows
}

func (r *Result) order() []string {
	if len(r.kpiOrder) > 0 {
		return r.kpiOrder
	}
	names := make([]string, 0, len(r.Deviations))
	for name := range r.Deviations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lowConfidenceLabel(low bool) string {
	if low {
		return "low_confidence"
	}
	return ""
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', 6, 64)
}
