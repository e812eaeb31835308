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

// Package serializer reads and writes ebench documents.
//
// Three formats are supported. JSON and YAML round-trip; table output is
// write-only and meant for terminals:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatTable, "")
//	defer w.Close()
//	if err := w.Serialize(ctx, result); err != nil {
//		return err
//	}
//
// A value implementing Tabular controls its own table rows. Any other value
// is flattened into dotted JSON keys.
//
// Reading detects the format from the file extension and accepts local paths
// as well as http(s) URLs:
//
//	reg, err := serializer.FromFile[schema.Registry]("https://example.com/registry.yaml")
//
// HTTP handlers use RespondJSON, which encodes before writing headers so a
// failed encoding never produces a partial response.
package serializer
