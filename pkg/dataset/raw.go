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

package dataset

import (
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

// Metadata describes the audited machine. The trace itself carries no
// process parameters, so they are supplied here in raw form, for example
// {"spindle_speed": "8000 rpm"}.
type Metadata struct {
	SourceID     string
	Category     schema.Category
	MachineModel string
	Material     string
	Description  string
	// OutputQuantity is the number of parts produced during the trace.
	OutputQuantity *float64
	Parameters     map[string]any
}

// ToRaw returns a measurement-sourced candidate record. Power levels and
// times come from the overall active/idle split.
func (s *Summary) ToRaw(md Metadata) map[string]any {
	meta := map[string]any{
		"source_id":          md.SourceID,
		"source_type":        string(record.SourceMeasurement),
		"process_category":   string(md.Category),
		"measurement_method": "power trace",
	}
	for k, v := range map[string]string{
		"machine_model": md.MachineModel,
		"material":      md.Material,
		"description":   md.Description,
	} {
		if v != "" {
			meta[k] = v
		}
	}

	energy := map[string]any{
		"total_energy": quantity(s.TotalEnergyKWh, "kWh"),
		"cycle_time":   quantity(s.DurationSeconds, "s"),
		"active_time":  quantity(s.ActiveTimeSeconds, "s"),
	}
	if s.ActivePowerW != nil {
		energy["active_power"] = quantity(*s.ActivePowerW, "W")
	}
	if s.IdlePowerW != nil {
		energy["idle_power"] = quantity(*s.IdlePowerW, "W")
	}
	if md.OutputQuantity != nil {
		energy["output_quantity"] = *md.OutputQuantity
	}

	params := make(map[string]any, len(md.Parameters))
	for k, v := range md.Parameters {
		params[k] = v
	}

	return map[string]any{
		record.KeyMetadata:   meta,
		record.KeyParameters: params,
		record.KeyEnergy:     energy,
	}
}

func quantity(v float64, unit string) map[string]any {
	return map[string]any{"value": v, "unit": unit}
}
