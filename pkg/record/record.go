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

package record

import (
	"maps"
	"slices"

	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

// SourceType tells where a record came from.
type SourceType string

// Source types.
const (
	SourceLiterature  SourceType = "literature"
	SourceMeasurement SourceType = "measurement"
)

// Top-level keys of the raw record document.
const (
	KeyMetadata   = "metadata"
	KeyParameters = "parameters"
	KeyEnergy     = "energy"
	KeyKPIs       = "kpis"
	KeyValid      = "valid"
	KeyExtensions = "extensions"
)

// Quantity is a number with an explicit unit.
type Quantity struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// In returns the quantity converted to unit.
func (q Quantity) In(unit string) (float64, error) {
	return schema.Convert(q.Value, q.Unit, unit)
}

// Parameter is a named process parameter.
type Parameter struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// Quantity returns the parameter value with its unit.
func (p Parameter) Quantity() Quantity {
	return Quantity{Value: p.Value, Unit: p.Unit}
}

// Metadata identifies the source and context of a record.
type Metadata struct {
	// SourceID is the paper citation or dataset id. It is the record id.
	SourceID          string          `json:"source_id" yaml:"source_id"`
	SourceType        SourceType      `json:"source_type,omitempty" yaml:"source_type,omitempty"`
	Title             string          `json:"title,omitempty" yaml:"title,omitempty"`
	Authors           []string        `json:"authors,omitempty" yaml:"authors,omitempty"`
	PublicationYear   int             `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	Category          schema.Category `json:"process_category" yaml:"process_category"`
	MachineModel      string          `json:"machine_model,omitempty" yaml:"machine_model,omitempty"`
	MachineClass      string          `json:"machine_class,omitempty" yaml:"machine_class,omitempty"`
	Material          string          `json:"material,omitempty" yaml:"material,omitempty"`
	MeasurementMethod string          `json:"measurement_method,omitempty" yaml:"measurement_method,omitempty"`
	Description       string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// KPI is one derived indicator. Value is nil when the KPI is not computable.
type KPI struct {
	Value      *float64 `json:"value" yaml:"value"`
	Unit       string   `json:"unit" yaml:"unit"`
	Computable bool     `json:"computable" yaml:"computable"`
	Reason     string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Get returns the KPI value and whether it is computable.
func (k KPI) Get() (float64, bool) {
	if !k.Computable || k.Value == nil {
		return 0, false
	}
	return *k.Value, true
}

// Computed returns a computable KPI.
func Computed(value float64, unit string) KPI {
	return KPI{Value: &value, Unit: unit, Computable: true}
}

// NotComputable returns a KPI flagged as not computable with a reason.
func NotComputable(unit, reason string) KPI {
	return KPI{Unit: unit, Reason: reason}
}

// CanonicalRecord is a validated, unit-normalized energy profile.
type CanonicalRecord struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`

	// Parameters are ordered by registry declaration order.
	Parameters []Parameter `json:"parameters" yaml:"parameters"`

	// Energy holds the measured quantities in canonical units.
	Energy map[string]Quantity `json:"energy" yaml:"energy"`

	// KPIs is filled by the kpi normalizer.
	KPIs map[string]KPI `json:"kpis,omitempty" yaml:"kpis,omitempty"`

	// Extensions keeps unknown input keys; nested keys are "<section>.<key>".
	Extensions map[string]any `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	// Valid is set by the validator only.
	Valid bool `json:"valid" yaml:"valid"`
}

// ID returns the record id.
func (r *CanonicalRecord) ID() string {
	return r.Metadata.SourceID
}

// Category returns the process category.
func (r *CanonicalRecord) Category() schema.Category {
	return r.Metadata.Category
}

// Parameter returns a parameter by name.
func (r *CanonicalRecord) Parameter(name string) (Parameter, bool) {
	for _, p := range r.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// EnergyQuantity returns an energy quantity by name.
func (r *CanonicalRecord) EnergyQuantity(name string) (Quantity, bool) {
	q, ok := r.Energy[name]
	return q, ok
}

// Quantity returns a parameter or energy quantity by name.
func (r *CanonicalRecord) Quantity(name string) (Quantity, bool) {
	if q, ok := r.Energy[name]; ok {
		return q, true
	}
	if p, ok := r.Parameter(name); ok {
		return p.Quantity(), true
	}
	return Quantity{}, false
}

// KPI returns a KPI by name.
func (r *CanonicalRecord) KPI(name string) (KPI, bool) {
	k, ok := r.KPIs[name]
	return k, ok
}

// Clone returns a deep copy of the record.
func (r *CanonicalRecord) Clone() *CanonicalRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Metadata.Authors = slices.Clone(r.Metadata.Authors)
	c.Parameters = slices.Clone(r.Parameters)
	c.Energy = maps.Clone(r.Energy)
	if r.KPIs != nil {
		c.KPIs = make(map[string]KPI, len(r.KPIs))
		for k, v := range r.KPIs {
			if v.Value != nil {
				val := *v.Value
				v.Value = &val
			}
			c.KPIs[k] = v
		}
	}
	if r.Extensions != nil {
		c.Extensions = make(map[string]any, len(r.Extensions))
		for k, v := range r.Extensions {
			c.Extensions[k] = deepCopy(v)
		}
	}
	return &c
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

func quantityRaw(value float64, unit string) map[string]any {
	return map[string]any{"value": value, "unit": unit}
}

// ToRaw converts the record back to the raw document form accepted by the
// validator. KPIs and the valid flag are derived and therefore not emitted.
// Extensions are emitted under the extensions key, as in stored documents.
func (r *CanonicalRecord) ToRaw() map[string]any {
	md := map[string]any{
		"source_id":        r.Metadata.SourceID,
		"process_category": string(r.Metadata.Category),
	}
	setString := func(key, val string) {
		if val != "" {
			md[key] = val
		}
	}
	setString("source_type", string(r.Metadata.SourceType))
	setString("title", r.Metadata.Title)
	setString("machine_model", r.Metadata.MachineModel)
	setString("machine_class", r.Metadata.MachineClass)
	setString("material", r.Metadata.Material)
	setString("measurement_method", r.Metadata.MeasurementMethod)
	setString("description", r.Metadata.Description)
	if len(r.Metadata.Authors) > 0 {
		authors := make([]any, len(r.Metadata.Authors))
		for i, a := range r.Metadata.Authors {
			authors[i] = a
		}
		md["authors"] = authors
	}
	if r.Metadata.PublicationYear != 0 {
		md["publication_year"] = float64(r.Metadata.PublicationYear)
	}

	params := make(map[string]any, len(r.Parameters))
	for _, p := range r.Parameters {
		params[p.Name] = quantityRaw(p.Value, p.Unit)
	}

	energy := make(map[string]any, len(r.Energy))
	for name, q := range r.Energy {
		energy[name] = quantityRaw(q.Value, q.Unit)
	}

	raw := map[string]any{
		KeyMetadata:   md,
		KeyParameters: params,
		KeyEnergy:     energy,
	}
	// Extensions stay in their own bucket so they never shadow a section or
	// a known field on re-validation.
	if len(r.Extensions) > 0 {
		ext := make(map[string]any, len(r.Extensions))
		for key, val := range r.Extensions {
			ext[key] = deepCopy(val)
		}
		raw[KeyExtensions] = ext
	}
	return raw
}
