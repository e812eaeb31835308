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

// Package dataset reduces measured power traces to energy figures.
//
// A trace is a CSV file with one time column (seconds, default "elapsedTime")
// and one column per power variable in watts. Variables are organized into
// named groups, such as the electrical and pneumatic consumers of a machine.
// For every variable the package computes descriptive statistics and the
// energy integrated over time with the trapezoidal rule:
//
//	f, err := dataset.ReadFile("trace.csv")
//	sum, err := dataset.Summarize(f,
//	    dataset.WithGroup("electrical", "Hauptversorgung", "Antriebe"),
//	    dataset.WithGroup("pneumatic", "AirPower_Hauptversorgung"))
//	raw := sum.ToRaw(dataset.Metadata{SourceID: "audit-7", Category: schema.CategoryMilling})
//
// ToRaw produces a candidate record in the raw document form accepted by the
// validator, so measured audits follow the same path as literature records.
package dataset
