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

// Package config holds the engine configuration object.
//
// A Config is an optional overlay on the registry defaults. Every unset field
// falls back to the value documented in the schema registry; there are no
// other hidden defaults.
//
//	retrievalK: 5
//	confidenceThreshold: 0.6
//	reportAlternates: true
//	advisoryTimeout: 15s
//	categories:
//	  milling:
//	    tolerances:
//	      specific_energy_consumption: 12
//	    parameterWeights:
//	      spindle_speed: 4
//
// Resolve merges a Config with a registry into Settings, the concrete values
// consumed by the index and the comparator:
//
//	cfg, err := config.Load("ebench.yaml")
//	settings, err := config.Resolve(reg, cfg)
package config
