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

// Package library manages the literature benchmark collection.
//
// A Library ties together the record validator, the KPI normalizer, a
// persistent store and the in-memory benchmark index. Adding a benchmark
// validates the raw record, computes its KPIs, persists the entry and then
// indexes it; only records that pass validation are ever stored.
//
//	lib := library.New(library.WithStore(st), library.WithIndex(ix))
//	if _, err := lib.Load(ctx); err != nil {
//	    return err
//	}
//	id, report, err := lib.AddBenchmark(ctx, raw)
//
// Load rehydrates the index from the store, re-validating each entry against
// the current registry. Entries that no longer validate are skipped and
// logged, never indexed.
package library
