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
package header

import (
	"testing"
	"time"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
)

func TestKind_IsValid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want bool
	}{
		{"comparison result", KindComparisonResult, true},
		{"validation report", KindValidationReport, true},
		{"benchmark entry", KindBenchmarkEntry, true},
		{"registry", KindRegistry, true},
		{"empty", Kind(""), false},
		{"unknown", Kind("Snapshot"), false},
		{"case sensitive", Kind("comparisonresult"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.want {
				t.Errorf("Kind.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeader_Init(t *testing.T) {
	h := Header{Metadata: map[string]string{"stale": "yes"}}
	h.Init(KindComparisonResult, APIVersion, "v1.2.3")

	if h.Kind != KindComparisonResult {
		t.Errorf("Kind = %v, want %v", h.Kind, KindComparisonResult)
	}
	if _, ok := h.Metadata["stale"]; ok {
		t.Error("Init should reset metadata")
	}
	if h.Version() != "v1.2.3" {
		t.Errorf("Version() = %q, want v1.2.3", h.Version())
	}
	ts := h.Timestamp()
	if ts.IsZero() {
		t.Fatalf("timestamp not RFC3339: %q", h.Metadata["timestamp"])
	}
	if time.Since(ts) > time.Minute {
		t.Errorf("timestamp too old: %v", ts)
	}
}

func TestHeader_InitWithoutVersion(t *testing.T) {
	var h Header
	h.Init(KindRegistry, APIVersion, "")
	if _, ok := h.Metadata["version"]; ok {
		t.Error("version should be omitted when empty")
	}
	if h.Version() != "" {
		t.Errorf("Version() = %q, want empty", h.Version())
	}
}

func TestHeader_Timestamp_Malformed(t *testing.T) {
	h := Header{Metadata: map[string]string{"timestamp": "yesterday"}}
	if !h.Timestamp().IsZero() {
		t.Errorf("Timestamp() = %v, want zero", h.Timestamp())
	}
	var empty Header
	if !empty.Timestamp().IsZero() {
		t.Error("Timestamp() on empty header should be zero")
	}
}

func TestHeader_Expect(t *testing.T) {
	tests := []struct {
		name    string
		header  Header
		wantErr bool
	}{
		{"matching", Header{Kind: KindBenchmarkEntry, APIVersion: APIVersion}, false},
		{"omitted fields", Header{}, false},
		{"kind only", Header{Kind: KindBenchmarkEntry}, false},
		{"other kind", Header{Kind: KindValidationReport}, true},
		{"other api version", Header{Kind: KindBenchmarkEntry, APIVersion: "ebench.nvidia.com/v2"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.header.Expect(KindBenchmarkEntry)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !eberrors.IsCode(err, eberrors.ErrCodeInvalidRequest) {
				t.Errorf("Expect() code = %v, want %v", eberrors.CodeOf(err), eberrors.ErrCodeInvalidRequest)
			}
		})
	}
}
