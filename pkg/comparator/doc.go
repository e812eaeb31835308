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

// Package comparator scores a subject record against its most similar
// literature benchmarks.
//
// A comparison runs in three phases. Retrieving asks the index for the top-k
// admissible benchmarks of the subject's category. Scoring computes the
// deviation of every expected KPI against the closest benchmark:
//
//	absolute         = subject - benchmark
//	relative_percent = absolute / benchmark * 100
//
// A deviation within the category tolerance (inclusive) scores 1. Outside the
// tolerance the goodness decays linearly to 0 at twice the tolerance. Falling
// below a lower-is-better benchmark, or above a higher-is-better one, counts
// as better than the state of the art and scores 1. The result score is the
// KPI-weighted mean goodness of the computable deviations.
//
// Confidence is the share of expected KPIs computable on both sides times the
// benchmark similarity. Done is reached with or without a match; a category
// without admissible benchmarks yields an empty result with a note.
//
// An optional advisory judge annotates the result. Its failures become notes
// and never affect the score.
package comparator
