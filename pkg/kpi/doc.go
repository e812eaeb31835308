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

// Package kpi derives standardized energy KPIs from normalized records.
//
// Every KPI is declared in the schema registry as
//
//	value = scale * numerator / denominator
//
// with each operand converted to a declared input unit before the division,
// so results are expressed in the KPI unit whatever units the record uses.
//
// A KPI whose input is missing, whose divisor is not positive or whose result
// is not finite is returned with Computable=false and a reason. Values are
// never defaulted to zero, NaN or Inf.
//
// Normalize is pure: it returns a new record and leaves its input untouched.
//
//	n := kpi.New()
//	enriched := n.Normalize(rec)
//	sec := enriched.KPIs[kpi.SpecificEnergyConsumption]
package kpi
