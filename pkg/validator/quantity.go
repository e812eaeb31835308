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
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

var placeholders = map[string]struct{}{
	"":              {},
	"not specified": {},
	"not_specified": {},
	"unspecified":   {},
	"not available": {},
	"n/a":           {},
	"na":            {},
	"none":          {},
	"null":          {},
	"unknown":       {},
	"-":             {},
}

// isAbsent reports whether v carries no information.
func isAbsent(v record.RawValue) bool {
	if v.IsMissing() {
		return true
	}
	s, ok := v.AsString()
	if !ok {
		return false
	}
	_, ph := placeholders[strings.ToLower(strings.TrimSpace(s))]
	return ph
}

// fieldError is a single field failure produced while parsing.
type fieldError struct {
	reason  Reason
	message string
}

func (e *fieldError) Error() string { return e.message }

func fail(reason Reason, format string, args ...any) *fieldError {
	return &fieldError{reason: reason, message: fmt.Sprintf(format, args...)}
}

// splitNumberUnit splits "12.5 kWh" or "12.5kWh" into number and unit.
func splitNumberUnit(s string) (float64, string, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		isExp := (c == 'e' || c == 'E') && end > 0 && end+1 < len(s) &&
			(s[end+1] >= '0' && s[end+1] <= '9' || s[end+1] == '-' || s[end+1] == '+')
		if (c >= '0' && c <= '9') || c == '.' || isExp ||
			((c == '-' || c == '+') && (end == 0 || s[end-1] == 'e' || s[end-1] == 'E')) {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, "", false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, "", false
	}
	return v, strings.TrimSpace(s[end:]), true
}

// parseNumber accepts a number or a numeric string.
func parseNumber(v record.RawValue) (float64, bool) {
	if n, ok := v.AsNumber(); ok {
		return n, true
	}
	if s, ok := v.AsString(); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return n, err == nil
	}
	return 0, false
}

// parseQuantity reads a quantity field and converts it to the canonical unit.
// A nil quantity and nil error mean the value is absent.
func parseQuantity(v record.RawValue, f schema.FieldSpec) (*record.Quantity, *fieldError) {
	if isAbsent(v) {
		return nil, nil
	}

	var (
		value float64
		unit  string
	)
	switch v.Kind() {
	case record.KindNumber:
		if !f.Dimension.Dimensionless() {
			return nil, fail(ReasonWrongType, "bare number without unit, expected %s", f.Unit)
		}
		value, _ = v.AsNumber()
		unit = f.Unit

	case record.KindString:
		s, _ := v.AsString()
		n, u, ok := splitNumberUnit(s)
		if !ok {
			return nil, fail(ReasonWrongType, "expected \"<number> <unit>\", got %q", s)
		}
		value, unit = n, u

	case record.KindObject:
		val := v.Get("value")
		if isAbsent(val) {
			return nil, nil
		}
		n, ok := parseNumber(val)
		if !ok {
			return nil, fail(ReasonWrongType, "value must be numeric")
		}
		value = n
		if u, ok := v.Get("unit").AsString(); ok && strings.TrimSpace(u) != "" {
			unit = u
		} else if !v.Get("unit").IsMissing() && v.Get("unit").Kind() != record.KindString {
			return nil, fail(ReasonWrongType, "unit must be a string")
		}

	default:
		return nil, fail(ReasonWrongType, "expected quantity, got %s", v.Kind())
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fail(ReasonWrongType, "value must be finite")
	}

	if unit == "" {
		if !f.Dimension.Dimensionless() {
			return nil, fail(ReasonWrongType, "missing unit, expected %s", f.Unit)
		}
		unit = f.Unit
	}

	converted, err := schema.Convert(value, unit, f.Unit)
	if err != nil {
		return nil, fail(ReasonUnitUnconvertible, "cannot convert %q to %s: %v", unit, f.Unit, err)
	}
	if !f.InRange(converted) {
		return nil, fail(ReasonOutOfRange, "%g %s is outside %s", converted, f.Unit, rangeString(f))
	}
	return &record.Quantity{Value: converted, Unit: f.Unit}, nil
}

func rangeString(f schema.FieldSpec) string {
	lo, hi := "-inf", "+inf"
	if f.Min != nil {
		lo = strconv.FormatFloat(*f.Min, 'g', -1, 64)
	}
	if f.Max != nil {
		hi = strconv.FormatFloat(*f.Max, 'g', -1, 64)
	}
	return "[" + lo + ", " + hi + "]"
}
