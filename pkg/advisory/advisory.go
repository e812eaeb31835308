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

package advisory

import (
	"context"

	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

// Finding summarizes one KPI deviation for the judge.
type Finding struct {
	KPI             string   `json:"kpi"`
	Status          string   `json:"status"`
	SubjectValue    *float64 `json:"subject_value,omitempty"`
	BenchmarkValue  *float64 `json:"benchmark_value,omitempty"`
	Unit            string   `json:"unit"`
	RelativePercent *float64 `json:"relative_percent,omitempty"`
}

// Request is what a judge sees of a comparison.
type Request struct {
	Category  schema.Category
	Subject   *record.CanonicalRecord
	Benchmark *record.CanonicalRecord
	Findings  []Finding
	Score     float64
}

// Annotation is the judge's commentary.
type Annotation struct {
	Source string `json:"source" yaml:"source"`
	Text   string `json:"text" yaml:"text"`
}

// Judge produces an annotation for a comparison.
type Judge interface {
	Annotate(ctx context.Context, req Request) (*Annotation, error)
}

// JudgeFunc adapts a function to Judge.
type JudgeFunc func(ctx context.Context, req Request) (*Annotation, error)

// Annotate calls f.
func (f JudgeFunc) Annotate(ctx context.Context, req Request) (*Annotation, error) {
	return f(ctx, req)
}

// Nop is a judge that never annotates.
type Nop struct{}

// Annotate returns nil.
func (Nop) Annotate(context.Context, Request) (*Annotation, error) {
	return nil, nil
}
