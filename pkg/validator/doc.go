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

// Package validator checks raw candidate records against the schema registry
// and normalizes them into canonical records.
//
// # Overview
//
// Raw records come from an upstream extraction step and may be incomplete,
// mistyped or expressed in arbitrary units. Validation is exhaustive: every
// field is checked in one pass and all issues are reported together.
//
// # Input Forms
//
// Quantities are accepted as an object or as a string with a unit:
//
//	"total_energy": {"value": 12.5, "unit": "kWh"}
//	"total_energy": {"value": "12.5", "unit": "kwh"}
//	"total_energy": "12.5 kWh"
//
// Bare numbers are rejected as wrong_type unless the field is dimensionless
// (counts and ratios). The strings "not specified", "n/a", "" and null are
// treated as missing.
//
// # Issue Reasons
//
//   - missing: a required field is absent or a placeholder
//   - wrong_type: the value has the wrong shape (e.g. bare number, list)
//   - out_of_range: the converted value is outside the registry bounds
//   - unit_unconvertible: the unit is unknown or of another dimension
//
// Issues on required fields make the record invalid. Issues on optional
// fields are reported with required=false and the field is dropped.
//
// # Extensions
//
// Unknown top-level keys are kept under extensions by name; unknown keys
// inside metadata, parameters or energy are kept as "<section>.<key>".
//
// # Usage
//
//	v := validator.New(validator.WithVersion(version))
//	rec, report, err := v.Validate(ctx, raw)
//	if err != nil {
//	    return err // context cancelled
//	}
//	if !report.Valid {
//	    return report.Err()
//	}
//
// Validation is idempotent: validating rec.ToRaw() yields rec again.
package validator
