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
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/header"
	"github.com/NVIDIA/energy-benchmark/pkg/serializer"
	"github.com/NVIDIA/energy-benchmark/pkg/version"
	"gopkg.in/yaml.v3"
)

//go:embed data/registry.yaml
var registryYAML []byte

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Section is a top-level section of a record.
type Section string

// Record sections.
const (
	SectionMetadata   Section = "metadata"
	SectionParameters Section = "parameters"
	SectionEnergy     Section = "energy"
)

// Sections returns the record sections in canonical order.
func Sections() []Section {
	return []Section{SectionMetadata, SectionParameters, SectionEnergy}
}

// FieldType is the expected value type of a field.
type FieldType string

// Field types.
const (
	TypeString     FieldType = "string"
	TypeStringList FieldType = "string_list"
	TypeInteger    FieldType = "integer"
	TypeEnum       FieldType = "enum"
	TypeQuantity   FieldType = "quantity"
)

// Direction says which way a KPI improves.
type Direction string

// KPI directions.
const (
	LowerIsBetter  Direction = "lower_is_better"
	HigherIsBetter Direction = "higher_is_better"
	Neutral        Direction = "neutral"
)

// FieldSpec describes one canonical field.
type FieldSpec struct {
	// Path is the dotted path, e.g. "energy.total_energy".
	Path string `json:"path" yaml:"path"`

	// Name is the last path element.
	Name string `json:"name" yaml:"-"`

	// Section is the first path element.
	Section Section `json:"section" yaml:"-"`

	Type FieldType `json:"type" yaml:"type"`

	// Unit is the canonical unit values are stored in (quantities only).
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// Dimension is derived from Unit.
	Dimension Dimension `json:"dimension,omitempty" yaml:"-"`

	// Min and Max are inclusive bounds in the canonical unit.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Enum lists the allowed values of enum fields.
	Enum []string `json:"enum,omitempty" yaml:"enum,omitempty"`

	// Required fields must be present in every record.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// RequiredIn lists categories that require the field.
	RequiredIn []Category `json:"requiredIn,omitempty" yaml:"requiredIn,omitempty"`

	// TypicalRange is [low, high] used to normalize parameter distances.
	TypicalRange []float64 `json:"typicalRange,omitempty" yaml:"typicalRange,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsRequired reports whether the field is required for category c.
func (f FieldSpec) IsRequired(c Category) bool {
	if f.Required {
		return true
	}
	for _, rc := range f.RequiredIn {
		if rc == c {
			return true
		}
	}
	return false
}

// InRange reports whether v lies within the inclusive bounds.
func (f FieldSpec) InRange(v float64) bool {
	if f.Min != nil && v < *f.Min {
		return false
	}
	if f.Max != nil && v > *f.Max {
		return false
	}
	return true
}

// Span returns the width of the typical range, or 0 when none is declared.
func (f FieldSpec) Span() float64 {
	if len(f.TypicalRange) != 2 {
		return 0
	}
	return f.TypicalRange[1] - f.TypicalRange[0]
}

// Operand is one side of a KPI formula.
type Operand struct {
	// Field is the dotted path of a quantity field.
	Field string `json:"field" yaml:"field"`

	// Unit is the unit the field is converted to before computation.
	Unit string `json:"unit" yaml:"unit"`
}

// Name returns the field name without the section prefix.
func (o Operand) Name() string {
	_, name, _ := strings.Cut(o.Field, ".")
	return name
}

// KPISpec declares a KPI as Scale * Numerator / Denominator.
type KPISpec struct {
	Name        string    `json:"name" yaml:"name"`
	Unit        string    `json:"unit" yaml:"unit"`
	Direction   Direction `json:"direction" yaml:"direction"`
	Scale       float64   `json:"scale" yaml:"scale"`
	Numerator   Operand   `json:"numerator" yaml:"numerator"`
	Denominator Operand   `json:"denominator" yaml:"denominator"`
}

// Inputs returns the field names the KPI depends on.
func (k KPISpec) Inputs() []string {
	return []string{k.Numerator.Name(), k.Denominator.Name()}
}

// CategorySpec holds per-category comparison settings.
type CategorySpec struct {
	// Tolerances maps KPI name to tolerance percentage.
	Tolerances map[string]float64 `json:"tolerances,omitempty" yaml:"tolerances,omitempty"`

	// KPIWeights maps KPI name to scoring weight. Listed KPIs are expected.
	KPIWeights map[string]float64 `json:"kpiWeights,omitempty" yaml:"kpiWeights,omitempty"`

	// ParameterWeights maps parameter name to retrieval weight.
	// Parameters not listed weigh 1.
	ParameterWeights map[string]float64 `json:"parameterWeights,omitempty" yaml:"parameterWeights,omitempty"`
}

// Defaults holds registry-wide defaults.
type Defaults struct {
	RetrievalK          int     `json:"retrievalK" yaml:"retrievalK"`
	ConfidenceThreshold float64 `json:"confidenceThreshold" yaml:"confidenceThreshold"`
	UnmatchedSimilarity float64 `json:"unmatchedSimilarity" yaml:"unmatchedSimilarity"`
	TolerancePercent    float64 `json:"tolerancePercent" yaml:"tolerancePercent"`
}

// SupportedVersion is the registry format version this build reads.
const SupportedVersion = "1"

var supportedVersion = version.MustParse(SupportedVersion)

// Registry is the versioned catalogue of fields, KPIs and category settings.
// A Registry is immutable after loading and safe for concurrent use.
type Registry struct {
	header.Header `json:",inline" yaml:",inline"`

	Version    string                    `json:"version" yaml:"version"`
	Defaults   Defaults                  `json:"defaults" yaml:"defaults"`
	Fields     []FieldSpec               `json:"fields" yaml:"fields"`
	KPIs       []KPISpec                 `json:"kpis" yaml:"kpis"`
	Categories map[Category]CategorySpec `json:"categories" yaml:"categories"`

	byPath map[string]int
	byName map[string]int
	kpis   map[string]int
}

// Default returns the embedded registry. It is parsed once per process.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Parse(registryYAML)
		if defaultErr == nil {
			slog.Debug("loaded embedded registry",
				"version", defaultRegistry.Version,
				"fields", len(defaultRegistry.Fields),
				"kpis", len(defaultRegistry.KPIs))
		}
	})
	return defaultRegistry, defaultErr
}

// MustDefault returns the embedded registry and panics if it is malformed.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Parse decodes and checks a registry YAML document.
func Parse(data []byte) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "failed to parse registry", err)
	}
	if err := r.finalize(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadFile loads a registry from a local YAML/JSON file or HTTP URL.
func LoadFile(path string) (*Registry, error) {
	r, err := serializer.FromFile[Registry](path)
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "failed to load registry", err)
	}
	if err := r.finalize(); err != nil {
		return nil, err
	}
	slog.Info("loaded registry", "path", path, "version", r.Version)
	return r, nil
}

func invalid(format string, args ...any) error {
	return eberrors.New(eberrors.ErrCodeInvalidRequest, "invalid registry: "+fmt.Sprintf(format, args...))
}

// finalize derives computed fields and checks internal consistency.
func (r *Registry) finalize() error {
	if err := r.Expect(header.KindRegistry); err != nil {
		return eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "invalid registry", err)
	}
	if r.Version == "" {
		return invalid("version is required")
	}
	v, err := version.Parse(r.Version)
	if err != nil {
		return invalid("version %q: %v", r.Version, err)
	}
	if !v.CompatibleWith(supportedVersion) {
		return invalid("version %s is not supported, expected %s.x", r.Version, supportedVersion)
	}
	if r.Defaults.RetrievalK < 1 {
		return invalid("defaults.retrievalK must be at least 1")
	}
	if r.Defaults.ConfidenceThreshold < 0 || r.Defaults.ConfidenceThreshold > 1 {
		return invalid("defaults.confidenceThreshold must be within [0,1]")
	}
	if r.Defaults.UnmatchedSimilarity < 0 || r.Defaults.UnmatchedSimilarity > 1 {
		return invalid("defaults.unmatchedSimilarity must be within [0,1]")
	}
	if r.Defaults.TolerancePercent <= 0 {
		return invalid("defaults.tolerancePercent must be positive")
	}

	r.byPath = make(map[string]int, len(r.Fields))
	r.byName = make(map[string]int, len(r.Fields))
	for i := range r.Fields {
		f := &r.Fields[i]
		section, name, ok := strings.Cut(f.Path, ".")
		if !ok || name == "" || strings.Contains(name, ".") {
			return invalid("field path %q must be <section>.<name>", f.Path)
		}
		f.Section, f.Name = Section(section), name
		switch f.Section {
		case SectionMetadata, SectionParameters, SectionEnergy:
		default:
			return invalid("field %q has unknown section", f.Path)
		}
		if _, dup := r.byName[name]; dup {
			return invalid("duplicate field name %q", name)
		}
		if err := f.check(); err != nil {
			return err
		}
		r.byPath[f.Path] = i
		r.byName[name] = i
	}

	r.kpis = make(map[string]int, len(r.KPIs))
	for i := range r.KPIs {
		k := &r.KPIs[i]
		if k.Scale == 0 {
			k.Scale = 1
		}
		if _, ok := LookupUnit(k.Unit); !ok {
			return invalid("kpi %q has unknown unit %q", k.Name, k.Unit)
		}
		switch k.Direction {
		case LowerIsBetter, HigherIsBetter, Neutral:
		case "":
			k.Direction = Neutral
		default:
			return invalid("kpi %q has unknown direction %q", k.Name, k.Direction)
		}
		for _, op := range []Operand{k.Numerator, k.Denominator} {
			idx, ok := r.byPath[op.Field]
			if !ok || r.Fields[idx].Type != TypeQuantity {
				return invalid("kpi %q references unknown quantity %q", k.Name, op.Field)
			}
			u, ok := LookupUnit(op.Unit)
			if !ok || u.Dimension != r.Fields[idx].Dimension {
				return invalid("kpi %q converts %q to incompatible unit %q", k.Name, op.Field, op.Unit)
			}
		}
		if _, dup := r.kpis[k.Name]; dup {
			return invalid("duplicate kpi %q", k.Name)
		}
		r.kpis[k.Name] = i
	}

	for c, cs := range r.Categories {
		if !c.IsValid() {
			return invalid("unknown category %q", c)
		}
		for name, tol := range cs.Tolerances {
			if _, ok := r.kpis[name]; !ok {
				return invalid("category %s: tolerance for unknown kpi %q", c, name)
			}
			if tol <= 0 {
				return invalid("category %s: tolerance for %q must be positive", c, name)
			}
		}
		for name, w := range cs.KPIWeights {
			if _, ok := r.kpis[name]; !ok {
				return invalid("category %s: weight for unknown kpi %q", c, name)
			}
			if w < 0 {
				return invalid("category %s: weight for %q must not be negative", c, name)
			}
		}
		for name, w := range cs.ParameterWeights {
			f, ok := r.field(name)
			if !ok || f.Section != SectionParameters {
				return invalid("category %s: weight for unknown parameter %q", c, name)
			}
			if w < 0 {
				return invalid("category %s: weight for %q must not be negative", c, name)
			}
		}
	}
	return nil
}

func (f *FieldSpec) check() error {
	switch f.Type {
	case TypeString, TypeStringList, TypeInteger:
	case TypeEnum:
		if len(f.Enum) == 0 {
			return invalid("enum field %q has no values", f.Path)
		}
	case TypeQuantity:
		u, ok := LookupUnit(f.Unit)
		if !ok {
			return invalid("field %q has unknown unit %q", f.Path, f.Unit)
		}
		f.Unit, f.Dimension = u.Symbol, u.Dimension
	default:
		return invalid("field %q has unknown type %q", f.Path, f.Type)
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return invalid("field %q has min greater than max", f.Path)
	}
	if f.TypicalRange != nil && (len(f.TypicalRange) != 2 || f.TypicalRange[1] <= f.TypicalRange[0]) {
		return invalid("field %q typicalRange must be [low, high] with high > low", f.Path)
	}
	for _, c := range f.RequiredIn {
		if !c.IsValid() {
			return invalid("field %q required in unknown category %q", f.Path, c)
		}
	}
	return nil
}

func (r *Registry) field(name string) (FieldSpec, bool) {
	if i, ok := r.byPath[name]; ok {
		return r.Fields[i], true
	}
	if i, ok := r.byName[name]; ok {
		return r.Fields[i], true
	}
	return FieldSpec{}, false
}

// Describe returns the FieldSpec of a field by dotted path or bare name.
func (r *Registry) Describe(field string) (FieldSpec, error) {
	f, ok := r.field(field)
	if !ok {
		return FieldSpec{}, eberrors.NewWithContext(eberrors.ErrCodeNotFound,
			"unknown field", map[string]any{"field": field})
	}
	return f, nil
}

// FieldsIn returns the fields of a section in declaration order.
func (r *Registry) FieldsIn(s Section) []FieldSpec {
	var out []FieldSpec
	for _, f := range r.Fields {
		if f.Section == s {
			out = append(out, f)
		}
	}
	return out
}

// RequiredFields returns the paths of fields required for category c.
func (r *Registry) RequiredFields(c Category) []string {
	var out []string
	for _, f := range r.Fields {
		if f.IsRequired(c) {
			out = append(out, f.Path)
		}
	}
	return out
}

// KPI returns a KPI spec by name.
func (r *Registry) KPI(name string) (KPISpec, bool) {
	i, ok := r.kpis[name]
	if !ok {
		return KPISpec{}, false
	}
	return r.KPIs[i], true
}

// Category returns the settings of category c.
func (r *Registry) Category(c Category) CategorySpec {
	return r.Categories[c]
}

// Tolerance returns the tolerance percentage of a KPI in category c.
func (r *Registry) Tolerance(c Category, kpi string) float64 {
	if t, ok := r.Categories[c].Tolerances[kpi]; ok {
		return t
	}
	return r.Defaults.TolerancePercent
}

// KPIWeight returns the scoring weight of a KPI in category c, 0 when unlisted.
func (r *Registry) KPIWeight(c Category, kpi string) float64 {
	return r.Categories[c].KPIWeights[kpi]
}

// ParameterWeight returns the retrieval weight of a parameter in category c.
func (r *Registry) ParameterWeight(c Category, param string) float64 {
	if w, ok := r.Categories[c].ParameterWeights[param]; ok {
		return w
	}
	return 1
}

// ExpectedKPIs returns the KPIs with a positive weight in category c, in
// declaration order.
func (r *Registry) ExpectedKPIs(c Category) []string {
	var out []string
	for _, k := range r.KPIs {
		if r.KPIWeight(c, k.Name) > 0 {
			out = append(out, k.Name)
		}
	}
	return out
}

// Convert converts value between units of the same dimension.
func (r *Registry) Convert(value float64, from, to string) (float64, error) {
	return Convert(value, from, to)
}
