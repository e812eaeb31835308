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

package schema

import (
	"math"
	"strings"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
)

// Dimension is a physical dimension. Units convert only within a dimension.
type Dimension string

// Supported dimensions.
const (
	DimensionEnergy               Dimension = "energy"
	DimensionPower                Dimension = "power"
	DimensionTime                 Dimension = "time"
	DimensionRotationalSpeed      Dimension = "rotational_speed"
	DimensionVelocity             Dimension = "velocity"
	DimensionLength               Dimension = "length"
	DimensionVolume               Dimension = "volume"
	DimensionVolumeRate           Dimension = "volume_rate"
	DimensionCount                Dimension = "count"
	DimensionRatio                Dimension = "ratio"
	DimensionSpecificEnergyPart   Dimension = "specific_energy_part"
	DimensionSpecificEnergyVolume Dimension = "specific_energy_volume"
)

// Dimensionless reports whether bare numbers are accepted for the dimension.
func (d Dimension) Dimensionless() bool {
	return d == DimensionCount || d == DimensionRatio
}

// Unit is a unit symbol with its factor to the dimension's base unit.
type Unit struct {
	Symbol    string
	Dimension Dimension
	Factor    float64
}

var unitTable = []Unit{
	{"J", DimensionEnergy, 1},
	{"kJ", DimensionEnergy, 1e3},
	{"MJ", DimensionEnergy, 1e6},
	{"Wh", DimensionEnergy, 3600},
	{"kWh", DimensionEnergy, 3.6e6},
	{"MWh", DimensionEnergy, 3.6e9},

	{"mW", DimensionPower, 1e-3},
	{"W", DimensionPower, 1},
	{"kW", DimensionPower, 1e3},
	{"MW", DimensionPower, 1e6},

	{"ms", DimensionTime, 1e-3},
	{"s", DimensionTime, 1},
	{"min", DimensionTime, 60},
	{"h", DimensionTime, 3600},

	{"rpm", DimensionRotationalSpeed, 1},
	{"rps", DimensionRotationalSpeed, 60},
	{"1/min", DimensionRotationalSpeed, 1},
	{"rad/s", DimensionRotationalSpeed, 60 / (2 * math.Pi)},

	{"mm/s", DimensionVelocity, 1e-3},
	{"mm/min", DimensionVelocity, 1e-3 / 60},
	{"m/s", DimensionVelocity, 1},
	{"m/min", DimensionVelocity, 1.0 / 60},
	{"km/h", DimensionVelocity, 1 / 3.6},

	{"um", DimensionLength, 1e-6},
	{"mm", DimensionLength, 1e-3},
	{"cm", DimensionLength, 1e-2},
	{"m", DimensionLength, 1},

	{"mm3", DimensionVolume, 1},
	{"cm3", DimensionVolume, 1e3},
	{"dm3", DimensionVolume, 1e6},
	{"l", DimensionVolume, 1e6},
	{"m3", DimensionVolume, 1e9},

	{"mm3/s", DimensionVolumeRate, 1},
	{"mm3/min", DimensionVolumeRate, 1.0 / 60},
	{"cm3/s", DimensionVolumeRate, 1e3},
	{"cm3/min", DimensionVolumeRate, 1e3 / 60},
	{"l/h", DimensionVolumeRate, 1e6 / 3600},

	{"unit", DimensionCount, 1},
	{"part", DimensionCount, 1},
	{"parts", DimensionCount, 1},
	{"pcs", DimensionCount, 1},
	{"piece", DimensionCount, 1},

	{"ratio", DimensionRatio, 1},
	{"%", DimensionRatio, 0.01},

	{"J/unit", DimensionSpecificEnergyPart, 1},
	{"kJ/unit", DimensionSpecificEnergyPart, 1e3},
	{"Wh/unit", DimensionSpecificEnergyPart, 3600},
	{"kWh/unit", DimensionSpecificEnergyPart, 3.6e6},

	{"J/mm3", DimensionSpecificEnergyVolume, 1},
	{"J/cm3", DimensionSpecificEnergyVolume, 1e-3},
	{"kWh/cm3", DimensionSpecificEnergyVolume, 3.6e3},
}

// unitAliases maps lowercased, whitespace-free spellings to symbols.
// Spellings that are ambiguous once lowercased (mW and MW) are not listed.
var unitAliases = map[string]string{
	"j": "J", "joule": "J", "joules": "J",
	"kj": "kJ", "mj": "MJ",
	"wh": "Wh", "kwh": "kWh", "kw·h": "kWh", "kw-h": "kWh",
	"w": "W", "watt": "W", "watts": "W",
	"kw": "kW", "kilowatt": "kW", "kilowatts": "kW",
	"sec": "s", "secs": "s", "second": "s", "seconds": "s",
	"mins": "min", "minute": "min", "minutes": "min",
	"hr": "h", "hrs": "h", "hour": "h", "hours": "h",
	"u/min": "rpm", "min^-1": "rpm", "min-1": "rpm", "rev/min": "rpm", "r/min": "rpm",
	"rev/s": "rps",
	"µm": "um", "μm": "um", "micron": "um", "microns": "um",
	"liter": "l", "litre": "l", "liters": "l", "litres": "l", "ltr": "l",
	"mm^3": "mm3", "cm^3": "cm3", "m^3": "m3", "dm^3": "dm3", "ccm": "cm3",
	"mm^3/s": "mm3/s", "mm^3/min": "mm3/min", "cm^3/min": "cm3/min", "cm^3/s": "cm3/s",
	"units": "unit", "pc": "pcs", "pieces": "piece",
	"percent": "%",
	"kwh/part": "kWh/unit", "kwh/pc": "kWh/unit", "kwh/piece": "kWh/unit",
	"j/mm^3": "J/mm3", "j/cm^3": "J/cm3",
}

var unitsBySymbol = func() map[string]Unit {
	m := make(map[string]Unit, len(unitTable))
	for _, u := range unitTable {
		m[u.Symbol] = u
	}
	return m
}()

var superscripts = strings.NewReplacer("³", "3", "²", "2", "⁻¹", "^-1", " ", "")

// NormalizeUnit resolves a unit spelling to its canonical symbol.
func NormalizeUnit(symbol string) (string, bool) {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return "", false
	}
	if _, ok := unitsBySymbol[s]; ok {
		return s, true
	}
	s = superscripts.Replace(s)
	if _, ok := unitsBySymbol[s]; ok {
		return s, true
	}
	if alias, ok := unitAliases[strings.ToLower(s)]; ok {
		return alias, true
	}
	return "", false
}

// LookupUnit returns the unit for a symbol or any accepted alias.
func LookupUnit(symbol string) (Unit, bool) {
	s, ok := NormalizeUnit(symbol)
	if !ok {
		return Unit{}, false
	}
	return unitsBySymbol[s], true
}

// UnitsOf returns the canonical symbols of a dimension in declaration order.
func UnitsOf(d Dimension) []string {
	var out []string
	for _, u := range unitTable {
		if u.Dimension == d {
			out = append(out, u.Symbol)
		}
	}
	return out
}

// Convert converts value between two units of the same dimension.
// It fails with ErrCodeUnknownUnit for unknown symbols and with
// ErrCodeUnitMismatch when the dimensions differ.
func Convert(value float64, from, to string) (float64, error) {
	fu, ok := LookupUnit(from)
	if !ok {
		return 0, eberrors.NewWithContext(eberrors.ErrCodeUnknownUnit,
			"unknown unit", map[string]any{"unit": from})
	}
	tu, ok := LookupUnit(to)
	if !ok {
		return 0, eberrors.NewWithContext(eberrors.ErrCodeUnknownUnit,
			"unknown unit", map[string]any{"unit": to})
	}
	if fu.Dimension != tu.Dimension {
		return 0, eberrors.NewWithContext(eberrors.ErrCodeUnitMismatch,
			"cannot convert between dimensions", map[string]any{
				"from":          fu.Symbol,
				"to":            tu.Symbol,
				"fromDimension": string(fu.Dimension),
				"toDimension":   string(tu.Dimension),
			})
	}
	if fu.Factor == tu.Factor {
		return value, nil
	}
	return value * fu.Factor / tu.Factor, nil
}
