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

package library

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

var libraryOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ebench_library_operations_total",
		Help: "Total number of benchmark library operations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

var libraryLoadSkippedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "ebench_library_load_skipped_total",
		Help: "Total number of stored benchmarks skipped on load because they no longer validate",
	},
)
