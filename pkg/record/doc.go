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

// Package record defines the canonical energy record and the raw value union
// used to read untrusted extracted input.
//
// A CanonicalRecord is produced by the validator, enriched with KPIs by the
// kpi package and consumed by the index and comparator. Records are treated
// as immutable: every transformation returns a new record (see Clone).
//
// Raw input maps are decoded into RawValue, a tagged union with the variants
// missing, number, string, bool, list and object:
//
//	v := record.FromAny(raw["energy"])
//	total := v.Get("total_energy")
//	if total.IsMissing() { ... }
//
// ToRaw turns a canonical record back into the raw form accepted by the
// validator, so validating it again yields the same record.
package record
