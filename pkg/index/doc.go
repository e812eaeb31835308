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

// Package index holds literature benchmarks and retrieves the ones most
// similar to a subject record.
//
// Retrieval only considers admissible entries (not deprecated, not superseded)
// of exactly the subject's process category. Similarity is computed over the
// process parameters both records share:
//
//	d          = sqrt( Σ w_p ((s_p - b_p) / range_p)² / Σ w_p )   shared p
//	coverage   = Σ w_p (shared) / Σ w_p (present on either side)
//	similarity = coverage / (1 + d)
//
// range_p is the width of the registry typical range of p and w_p the
// category parameter weight. When neither record carries parameters the
// registry unmatched similarity is used.
//
// The index is read-mostly. Writers take a single lock and invalidate the
// current snapshot; the next query rebuilds it once and readers keep using the
// immutable snapshot they loaded.
package index
