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

package validator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/energy-benchmark/pkg/header"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

// Validator checks raw records against a schema registry.
// A Validator is safe for concurrent use.
type Validator struct {
	// Version is the validator version (typically the CLI version).
	Version string

	registry *schema.Registry
}

// Option is a functional option for configuring Validator instances.
type Option func(*Validator)

// WithVersion returns an Option that sets the Validator version string.
func WithVersion(version string) Option {
	return func(v *Validator) {
		v.Version = version
	}
}

// WithRegistry returns an Option that sets the registry to validate against.
// The embedded registry is used by default.
func WithRegistry(r *schema.Registry) Option {
	return func(v *Validator) {
		v.registry = r
	}
}

// New creates a new Validator with the provided options.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	if v.registry == nil {
		v.registry = schema.MustDefault()
	}
	return v
}

// Registry returns the registry the validator checks against.
func (v *Validator) Registry() *schema.Registry {
	return v.registry
}

// run carries the state of one validation pass.
type run struct {
	reg      *schema.Registry
	report   *Report
	rec      *record.CanonicalRecord
	category schema.Category
}

func (r *run) issue(field string, required bool, fe *fieldError, val record.RawValue) {
	is := Issue{
		Field:    field,
		Reason:   fe.reason,
		Required: required,
		Message:  fe.message,
	}
	if !val.IsMissing() {
		is.Value = val.GoString()
	}
	r.report.add(is)
}

func (r *run) extend(key string, val record.RawValue) {
	if r.rec.Extensions == nil {
		r.rec.Extensions = make(map[string]any)
	}
	r.rec.Extensions[key] = val.Any()
}

// Validate checks raw against the registry and returns the normalized record
// together with a report listing every issue. The record is always returned;
// its Valid flag mirrors report.Valid. The error is non-nil only when ctx is
// done.
func (v *Validator) Validate(ctx context.Context, raw map[string]any) (*record.CanonicalRecord, *Report, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	r := &run{
		reg:    v.registry,
		report: NewReport(),
		rec: &record.CanonicalRecord{
			Parameters: make([]record.Parameter, 0),
			Energy:     make(map[string]record.Quantity),
		},
	}
	r.report.Init(header.KindValidationReport, header.APIVersion, v.Version)

	root := record.FromAny(raw)
	if raw == nil {
		root = record.FromAny(map[string]any{})
	}

	sections := make(map[schema.Section]record.RawValue, 3)
	for _, key := range root.Keys() {
		val := root.Get(key)
		switch key {
		case record.KeyMetadata, record.KeyParameters, record.KeyEnergy:
			sections[schema.Section(key)] = val
		case record.KeyKPIs, record.KeyValid:
			// derived; recomputed downstream
		case record.KeyExtensions:
			if !val.IsObject() {
				r.extend(key, val)
				continue
			}
			for _, ek := range val.Keys() {
				r.extend(ek, val.Get(ek))
			}
		default:
			r.extend(key, val)
		}
	}

	r.validateMetadata(sections[schema.SectionMetadata])
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	r.validateQuantities(schema.SectionParameters, sections[schema.SectionParameters])
	r.validateQuantities(schema.SectionEnergy, sections[schema.SectionEnergy])
	r.checkConsistency()

	extensions := len(r.rec.Extensions)
	r.report.RecordID = r.rec.Metadata.SourceID
	r.report.summarize(extensions, start)
	r.rec.Valid = r.report.Valid

	validationsTotal.WithLabelValues(string(r.report.Summary.Status)).Inc()
	for _, is := range r.report.Issues {
		validationIssuesTotal.WithLabelValues(string(is.Reason), strconv.FormatBool(is.Required)).Inc()
	}

	slog.Debug("record validated",
		"id", r.rec.Metadata.SourceID,
		"category", r.category,
		"status", r.report.Summary.Status,
		"issues", r.report.Summary.Issues,
		"extensions", extensions,
		"duration", r.report.Summary.Duration)

	return r.rec, r.report, nil
}

// section returns the members of a section as an object, reporting a
// required issue when the section is absent or malformed.
func (r *run) section(name schema.Section, val record.RawValue) (record.RawValue, bool) {
	switch {
	case val.IsMissing():
		r.issue(string(name), true, fail(ReasonMissing, "section %q is required", name), val)
		return record.RawValue{}, false
	case val.IsObject():
		return val, true
	}

	list, ok := val.AsList()
	if !ok || name != schema.SectionParameters {
		r.issue(string(name), true, fail(ReasonWrongType, "section %q must be an object", name), val)
		return record.RawValue{}, false
	}

	// parameters may also be a list of {name, value, unit}
	obj := make(map[string]any, len(list))
	for i, el := range list {
		pname, ok := el.Get("name").AsString()
		if !ok || strings.TrimSpace(pname) == "" {
			r.issue(fmt.Sprintf("%s[%d]", name, i), false, fail(ReasonWrongType, "parameter entry needs a name"), el)
			continue
		}
		entry := el.Any().(map[string]any)
		delete(entry, "name")
		obj[strings.TrimSpace(pname)] = entry
	}
	return record.FromAny(obj), true
}

func (r *run) validateMetadata(val record.RawValue) {
	md, ok := r.section(schema.SectionMetadata, val)
	fields := r.reg.FieldsIn(schema.SectionMetadata)

	// The category decides which other fields are required.
	var catSpec schema.FieldSpec
	for _, f := range fields {
		if f.Name == "process_category" {
			catSpec = f
		}
	}
	if ok {
		if s, fe := parseEnum(md.Get(catSpec.Name), catSpec); fe == nil && s != "" {
			r.category = schema.Category(s)
		}
	}
	r.rec.Metadata.Category = r.category

	if !ok {
		return
	}

	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.Name] = struct{}{}
		raw := md.Get(f.Name)
		required := f.IsRequired(r.category)

		if isAbsent(raw) {
			if required {
				r.issue(f.Path, true, fail(ReasonMissing, "%s is required", f.Path), raw)
			}
			continue
		}

		var fe *fieldError
		m := &r.rec.Metadata
		switch f.Type {
		case schema.TypeString:
			var s string
			s, fe = parseString(raw)
			if fe == nil {
				setMetadataString(m, f.Name, s)
			}
		case schema.TypeStringList:
			var list []string
			list, fe = parseStringList(raw)
			if fe == nil && f.Name == "authors" {
				m.Authors = list
			}
		case schema.TypeInteger:
			var n int
			n, fe = parseInteger(raw, f)
			if fe == nil && f.Name == "publication_year" {
				m.PublicationYear = n
			}
		case schema.TypeEnum:
			var s string
			s, fe = parseEnum(raw, f)
			if fe == nil {
				switch f.Name {
				case "source_type":
					m.SourceType = record.SourceType(s)
				case "process_category":
					m.Category = schema.Category(s)
				}
			}
		}
		if fe != nil {
			r.issue(f.Path, required, fe, raw)
		}
	}

	for _, key := range md.Keys() {
		if _, ok := known[key]; !ok {
			r.extend(string(schema.SectionMetadata)+"."+key, md.Get(key))
		}
	}
}

func setMetadataString(m *record.Metadata, name, s string) {
	switch name {
	case "source_id":
		m.SourceID = s
	case "title":
		m.Title = s
	case "machine_model":
		m.MachineModel = s
	case "machine_class":
		m.MachineClass = s
	case "material":
		m.Material = s
	case "measurement_method":
		m.MeasurementMethod = s
	case "description":
		m.Description = s
	}
}

func (r *run) validateQuantities(name schema.Section, val record.RawValue) {
	sec, ok := r.section(name, val)
	fields := r.reg.FieldsIn(name)
	if !ok {
		for _, f := range fields {
			if f.IsRequired(r.category) {
				r.issue(f.Path, true, fail(ReasonMissing, "%s is required", f.Path), record.Missing())
			}
		}
		return
	}

	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.Name] = struct{}{}
		raw := sec.Get(f.Name)
		required := f.IsRequired(r.category)

		q, fe := parseQuantity(raw, f)
		switch {
		case fe != nil:
			r.issue(f.Path, required, fe, raw)
		case q == nil:
			if required {
				r.issue(f.Path, true, fail(ReasonMissing, "%s is required for %s", f.Path, r.categoryLabel()), raw)
			}
		case name == schema.SectionParameters:
			r.rec.Parameters = append(r.rec.Parameters, record.Parameter{Name: f.Name, Value: q.Value, Unit: q.Unit})
		default:
			r.rec.Energy[f.Name] = *q
		}
	}

	for _, key := range sec.Keys() {
		if _, ok := known[key]; !ok {
			r.extend(string(name)+"."+key, sec.Get(key))
		}
	}
}

func (r *run) categoryLabel() string {
	if r.category == "" {
		return "every category"
	}
	return string(r.category)
}

// checkConsistency applies cross-field rules. Offending optional fields are
// dropped like any other optional issue.
func (r *run) checkConsistency() {
	active, okA := r.rec.Energy["active_time"]
	cycle, okC := r.rec.Energy["cycle_time"]
	if okA && okC && active.Value > cycle.Value*(1+1e-9) {
		f, err := r.reg.Describe("active_time")
		if err != nil {
			return
		}
		required := f.IsRequired(r.category)
		r.issue(f.Path, required,
			fail(ReasonOutOfRange, "active_time %g s exceeds cycle_time %g s", active.Value, cycle.Value),
			record.Number(active.Value))
		delete(r.rec.Energy, "active_time")
	}
}

func parseString(v record.RawValue) (string, *fieldError) {
	s, ok := v.AsString()
	if !ok {
		return "", fail(ReasonWrongType, "expected string, got %s", v.Kind())
	}
	return strings.TrimSpace(s), nil
}

func parseStringList(v record.RawValue) ([]string, *fieldError) {
	if s, ok := v.AsString(); ok {
		return []string{strings.TrimSpace(s)}, nil
	}
	list, ok := v.AsList()
	if !ok {
		return nil, fail(ReasonWrongType, "expected list of strings, got %s", v.Kind())
	}
	out := make([]string, 0, len(list))
	for i, el := range list {
		if isAbsent(el) {
			continue
		}
		s, ok := el.AsString()
		if !ok {
			return nil, fail(ReasonWrongType, "element %d is %s, expected string", i, el.Kind())
		}
		out = append(out, strings.TrimSpace(s))
	}
	if len(out) == 0 {
		return nil, fail(ReasonWrongType, "list has no usable strings")
	}
	return out, nil
}

func parseInteger(v record.RawValue, f schema.FieldSpec) (int, *fieldError) {
	n, ok := parseNumber(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fail(ReasonWrongType, "expected integer, got %s", v.Kind())
	}
	if n != math.Trunc(n) {
		return 0, fail(ReasonWrongType, "expected integer, got %g", n)
	}
	if !f.InRange(n) {
		return 0, fail(ReasonOutOfRange, "%g is outside %s", n, rangeString(f))
	}
	return int(n), nil
}

func parseEnum(v record.RawValue, f schema.FieldSpec) (string, *fieldError) {
	if isAbsent(v) {
		return "", nil
	}
	s, ok := v.AsString()
	if !ok {
		return "", fail(ReasonWrongType, "expected string, got %s", v.Kind())
	}
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, allowed := range f.Enum {
		if norm == allowed {
			return norm, nil
		}
	}
	return "", fail(ReasonOutOfRange, "%q is not one of %s", s, strings.Join(f.Enum, ", "))
}
