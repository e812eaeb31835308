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

package comparator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	comparisonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebench_comparisons_total",
			Help: "Total number of comparisons by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	comparisonScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ebench_comparison_score",
			Help:    "Distribution of comparison scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"category"},
	)

	comparisonDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ebench_comparison_duration_seconds",
			Help:    "Duration of comparisons including advisory annotation",
			Buckets: prometheus.DefBuckets,
		},
	)
)
