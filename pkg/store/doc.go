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

// Package store persists benchmark entries.
//
// Three backends implement Store:
//
//   - MemoryStore keeps entries in process memory (mem://)
//   - FileStore keeps one JSON document per entry in a directory
//   - ConfigMapStore keeps one ConfigMap per entry in a Kubernetes
//     namespace (cm://namespace), labeled by process category
//
// Open selects a backend from a URI:
//
//	s, err := store.Open("cm://energy")
//	entries, err := s.List(ctx, schema.CategoryMilling)
//
// Stores are the durable source of truth. The index is rebuilt from a store
// on startup.
package store
