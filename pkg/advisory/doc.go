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

// Package advisory annotates comparison results with free-text commentary
// from an external judge, typically a language model.
//
// Annotations are advisory only. They never change a score, and a judge that
// fails or times out is reported as a note on the result:
//
//	judge := advisory.NewGuard(
//	    advisory.NewOllamaJudge(advisory.WithHost("http://localhost:11434")),
//	    advisory.WithTimeout(20*time.Second),
//	)
//	ann, err := judge.Annotate(ctx, req)
//
// Guard bounds every call with a timeout and a token-bucket rate limit and
// never retries.
package advisory
