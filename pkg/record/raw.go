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
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies the variant held by a RawValue.
type Kind int

// RawValue variants.
const (
	KindMissing Kind = iota
	KindNumber
	KindString
	KindBool
	KindList
	KindObject
	KindOther
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "other"
	}
}

// RawValue is one value of an untrusted input document.
// The zero value is Missing.
type RawValue struct {
	kind  Kind
	num   float64
	str   string
	flag  bool
	list  []RawValue
	obj   map[string]RawValue
	other any
}

// Missing returns the missing variant.
func Missing() RawValue { return RawValue{} }

// Number returns a number variant.
func Number(f float64) RawValue { return RawValue{kind: KindNumber, num: f} }

// String returns a string variant.
func String(s string) RawValue { return RawValue{kind: KindString, str: s} }

// FromAny converts a decoded JSON or YAML value into a RawValue.
func FromAny(v any) RawValue {
	switch t := v.(type) {
	case nil:
		return Missing()
	case RawValue:
		return t
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return Number(f)
		}
		return String(string(t))
	case string:
		return String(t)
	case bool:
		return RawValue{kind: KindBool, flag: t}
	case []any:
		list := make([]RawValue, len(t))
		for i, e := range t {
			list[i] = FromAny(e)
		}
		return RawValue{kind: KindList, list: list}
	case []string:
		list := make([]RawValue, len(t))
		for i, e := range t {
			list[i] = String(e)
		}
		return RawValue{kind: KindList, list: list}
	case map[string]any:
		obj := make(map[string]RawValue, len(t))
		for k, e := range t {
			obj[k] = FromAny(e)
		}
		return RawValue{kind: KindObject, obj: obj}
	case map[any]any:
		obj := make(map[string]RawValue, len(t))
		for k, e := range t {
			obj[fmt.Sprint(k)] = FromAny(e)
		}
		return RawValue{kind: KindObject, obj: obj}
	default:
		return RawValue{kind: KindOther, other: v}
	}
}

// Kind returns the variant.
func (v RawValue) Kind() Kind { return v.kind }

// IsMissing reports whether v is the missing variant.
func (v RawValue) IsMissing() bool { return v.kind == KindMissing }

// AsNumber returns the number held by v.
func (v RawValue) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsString returns the string held by v.
func (v RawValue) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsList returns the elements held by v.
func (v RawValue) AsList() ([]RawValue, bool) { return v.list, v.kind == KindList }

// IsObject reports whether v is the object variant.
func (v RawValue) IsObject() bool { return v.kind == KindObject }

// Get returns the member key of an object, or Missing.
func (v RawValue) Get(key string) RawValue {
	if v.kind != KindObject {
		return Missing()
	}
	return v.obj[key]
}

// Has reports whether an object has member key, even if its value is null.
func (v RawValue) Has(key string) bool {
	_, ok := v.obj[key]
	return ok
}

// Keys returns the sorted member names of an object.
func (v RawValue) Keys() []string {
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Any converts v back to plain Go values: float64, string, bool, []any,
// map[string]any or nil.
func (v RawValue) Any() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.flag
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Any()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.Any()
		}
		return out
	case KindOther:
		return v.other
	default:
		return nil
	}
}

// GoString renders the value for diagnostics.
func (v RawValue) GoString() string {
	switch v.kind {
	case KindMissing:
		return "<missing>"
	case KindString:
		return strconv.Quote(v.str)
	default:
		return fmt.Sprintf("%v", v.Any())
	}
}
