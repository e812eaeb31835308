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

// Package engine assembles the benchmark engine from its parts.
//
// Both the ebench CLI and the ebenchd server need the same wiring: a unit
// registry, resolved settings, a benchmark store, the library and index
// built over it, and a comparator with an optional advisory judge. Open
// performs that wiring and loads the stored benchmarks:
//
//	eng, err := engine.Open(ctx, engine.OptionsFromEnv())
//	res, err := eng.Comparator.Compare(ctx, subject)
//
// Options can be taken from the environment:
//
//	EBENCH_STORE           store URI: mem://, cm://<namespace> or a directory
//	EBENCH_CONFIG          engine config file (YAML or JSON, path or URL)
//	EBENCH_REGISTRY        registry file replacing the embedded one
//	EBENCH_ADVISORY_URL    Ollama host; the advisory judge is off when empty
//	EBENCH_ADVISORY_MODEL  Ollama model name
package engine
