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

package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	indexRebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ebench_index_rebuilds_total",
			Help: "Total number of benchmark index snapshot rebuilds",
		},
	)

	indexEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ebench_index_admissible_entries",
			Help: "Number of admissible entries in the latest index snapshot",
		},
	)

	indexRetrievals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebench_index_retrievals_total",
			Help: "Total number of benchmark retrievals by category and outcome",
		},
		[]string{"category", "outcome"},
	)
)
