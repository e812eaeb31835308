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

package validator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/header"
)

// Reason classifies a field issue.
type Reason string

const (
	// ReasonMissing indicates an absent or placeholder value.
	ReasonMissing Reason = "missing"

	// ReasonWrongType indicates a value of the wrong shape.
	ReasonWrongType Reason = "wrong_type"

	// ReasonOutOfRange indicates a value outside the registry bounds or enum.
	ReasonOutOfRange Reason = "out_of_range"

	// ReasonUnitUnconvertible indicates an unknown unit or a dimension mismatch.
	ReasonUnitUnconvertible Reason = "unit_unconvertible"
)

// Status is the overall validation outcome.
type Status string

const (
	// StatusPass indicates a valid record without issues.
	StatusPass Status = "pass"

	// StatusPartial indicates a valid record with dropped optional fields.
	StatusPartial Status = "partial"

	// StatusFail indicates an invalid record.
	StatusFail Status = "fail"
)

// Issue describes one violated field.
type Issue struct {
	// Field is the dotted path, e.g. "energy.total_energy".
	Field string `json:"field" yaml:"field"`

	Reason Reason `json:"reason" yaml:"reason"`

	// Required reports whether the issue invalidates the record.
	Required bool `json:"required" yaml:"required"`

	Message string `json:"message" yaml:"message"`

	// Value is a rendering of the offending input, if any.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Summary contains aggregate counts.
type Summary struct {
	Issues     int           `json:"issues" yaml:"issues"`
	Required   int           `json:"required" yaml:"required"`
	Optional   int           `json:"optional" yaml:"optional"`
	Extensions int           `json:"extensions" yaml:"extensions"`
	Status     Status        `json:"status" yaml:"status"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Report lists every issue found while validating one record.
type Report struct {
	header.Header `json:",inline" yaml:",inline"`

	RecordID string  `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Valid    bool    `json:"valid" yaml:"valid"`
	Summary  Summary `json:"summary" yaml:"summary"`
	Issues   []Issue `json:"issues" yaml:"issues"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{Issues: make([]Issue, 0)}
}

func (r *Report) add(is Issue) {
	r.Issues = append(r.Issues, is)
}

// HasIssue reports whether the report contains an issue for field with reason.
func (r *Report) HasIssue(field string, reason Reason) bool {
	for _, is := range r.Issues {
		if is.Field == field && is.Reason == reason {
			return true
		}
	}
	return false
}

// RequiredIssues returns the issues that invalidate the record.
func (r *Report) RequiredIssues() []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Required {
			out = append(out, is)
		}
	}
	return out
}

func (r *Report) summarize(extensions int, start time.Time) {
	r.Summary = Summary{Issues: len(r.Issues), Extensions: extensions}
	for _, is := range r.Issues {
		if is.Required {
			r.Summary.Required++
		} else {
			r.Summary.Optional++
		}
	}
	r.Valid = r.Summary.Required == 0
	switch {
	case !r.Valid:
		r.Summary.Status = StatusFail
	case r.Summary.Optional > 0:
		r.Summary.Status = StatusPartial
	default:
		r.Summary.Status = StatusPass
	}
	r.Summary.Duration = time.Since(start)
}

// Err returns a VALIDATION_FAILED error listing the required issues, or nil
// when the record is valid.
func (r *Report) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	req := r.RequiredIssues()
	fields := make([]string, 0, len(req))
	for _, is := range req {
		fields = append(fields, fmt.Sprintf("%s (%s)", is.Field, is.Reason))
	}
	return eberrors.NewWithContext(eberrors.ErrCodeValidation,
		"record failed validation: "+strings.Join(fields, ", "),
		map[string]any{
			"record": r.RecordID,
			"issues": r.Issues,
		})
}

// TableHeader implements serializer.Tabular.
func (r *Report) TableHeader() []string {
	return []string{"FIELD", "REASON", "REQUIRED", "MESSAGE"}
}

// TableRows implements serializer.Tabular. A report without issues renders
// a single status row.
func (r *Report) TableRows() [][]string {
	if len(r.Issues) == 0 {
		return [][]string{{"-", string(r.Summary.Status), "-", "no issues"}}
	}
	rows := make([][]string, 0, len(r.Issues))
	for _, is := range r.Issues {
		rows = append(rows, []string{is.Field, string(is.Reason), strconv.FormatBool(is.Required), is.Message})
	}
	return rows
}
