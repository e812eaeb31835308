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

// Package api implements the ebenchd HTTP API.
//
// Serve wires the engine from the EBENCH_* environment variables, loads the
// stored benchmarks and runs the server from pkg/server:
//
//	if err := api.Serve(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
//	POST   /v1/validate          validate a raw record, returns the record and report
//	POST   /v1/compare           validate, normalize and compare a subject record
//	GET    /v1/benchmarks        list benchmarks (?category=milling, ?q=search)
//	POST   /v1/benchmarks        add a benchmark from a raw record
//	GET    /v1/benchmarks/{id}   get one benchmark
//	DELETE /v1/benchmarks/{id}   remove a benchmark
//
// Request bodies are JSON by default; YAML is accepted when the Content-Type
// says so. The compare endpoint takes optional query parameters k (number
// of benchmarks retrieved) and alternates (true to score every retrieved
// benchmark).
//
// Example:
//
//	curl -s -X POST localhost:8080/v1/compare?k=5 -d @audit.json
package api
