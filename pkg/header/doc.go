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

// Package header provides the common resource header carried by ebench documents.
//
// Every document the engine emits (comparison results, validation reports,
// benchmark entries, the unit registry) starts with a Kubernetes-style header:
//
//	kind: ComparisonResult
//	apiVersion: ebench.nvidia.com/v1alpha1
//	metadata:
//	  timestamp: "2025-12-30T10:30:00Z"
//	  version: v0.4.0
//
// Create one with Init:
//
//	var h header.Header
//	h.Init(header.KindComparisonResult, header.APIVersion, version)
//
// Stores and the registry loader reject foreign documents with Expect:
//
//	if err := e.Expect(header.KindBenchmarkEntry); err != nil {
//	    return nil, err
//	}
package header
