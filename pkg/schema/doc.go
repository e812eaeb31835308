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

// Package schema is the single source of truth for canonical field names,
// types, units, physical ranges and KPI formulas of energy records.
//
// # Registry
//
// The registry is a versioned YAML document embedded in the binary
// (data/registry.yaml). It declares:
//
//   - Fields: every metadata, parameter and energy field with its type,
//     canonical unit, valid range and required-ness (globally or per process
//     category).
//   - KPIs: formulas of the form scale * numerator / denominator with the
//     input units each operand is converted to before computation.
//   - Categories: per process category tolerances, KPI weights and
//     parameter weights used by retrieval and scoring.
//   - Defaults: retrieval k, confidence threshold and the similarity used
//     when neither record declares parameters.
//
// Load the embedded registry once and share it:
//
//	reg, err := schema.Default()
//	spec, err := reg.Describe("energy.total_energy")
//
// # Units
//
// Units are grouped into physical dimensions. Convert only succeeds within a
// dimension:
//
//	v, err := schema.Convert(1500, "W", "kW")   // 1.5
//	_, err = schema.Convert(1, "kW", "kWh")     // ErrCodeUnitMismatch
//
// Common spellings are accepted through aliases (kwh, mm³, U/min, min^-1).
package schema
