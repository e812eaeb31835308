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

package advisory

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemInstruction frames the judge as a domain expert.
const SystemInstruction = "You are an expert in machine energy efficiency. " +
	"Answer concisely and only from the data provided."

// BuildPrompt renders the user prompt for a request.
func BuildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Process: %s\n", req.Category.DisplayName())
	fmt.Fprintf(&b, "Comparison score: %.2f (0 = far from benchmark, 1 = at or better than benchmark)\n\n", req.Score)

	b.WriteString("--- Audit Data ---\n")
	b.WriteString(indentJSON(req.Subject))
	b.WriteString("\n\n--- Literature Benchmark ---\n")
	b.WriteString(indentJSON(req.Benchmark))
	b.WriteString("\n\n--- KPI Deviations ---\n")
	b.WriteString(indentJSON(req.Findings))

	b.WriteString("\n\nTask:\n")
	b.WriteString("1. Evaluate the energy efficiency of the audited machine against the benchmark.\n")
	b.WriteString("2. Identify significant differences in power consumption and KPIs.\n")
	b.WriteString("3. Suggest specific energy optimization measures for the audited machine.\n")
	b.WriteString("4. Provide a short structured summary.\n")
	return b.String()
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("<unavailable: %v>", err)
	}
	return string(data)
}
