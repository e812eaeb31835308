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
	"fmt"
	"time"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
)

// APIVersion is the API version stamped on every ebench document.
const APIVersion = "ebench.nvidia.com/v1alpha1"

// Kind represents the type of ebench resource.
type Kind string

// Valid Kind constants for all ebench resource types.
const (
	KindComparisonResult Kind = "ComparisonResult"
	KindValidationReport Kind = "ValidationReport"
	KindBenchmarkEntry   Kind = "BenchmarkEntry"
	KindBenchmarkList    Kind = "BenchmarkList"
	KindRegistry         Kind = "Registry"
	KindDatasetSummary   Kind = "DatasetSummary"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the Kind is one of the recognized kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindComparisonResult, KindValidationReport, KindBenchmarkEntry,
		KindBenchmarkList, KindRegistry, KindDatasetSummary:
		return true
	default:
		return false
	}
}

// Header contains metadata and versioning information for ebench documents.
type Header struct {
	// Kind is the type of the document.
	Kind Kind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// APIVersion is the API version of the document.
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`

	// Metadata contains key-value pairs such as timestamp and tool version.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Init sets Kind and APIVersion and resets Metadata to a fresh timestamp and
// the given tool version.
func (h *Header) Init(kind Kind, apiVersion string, version string) {
	h.Kind = kind
	h.APIVersion = apiVersion
	h.Metadata = make(map[string]string)

	h.Metadata["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	if version != "" {
		h.Metadata["version"] = version
	}
}

// Expect checks a decoded document header. Empty fields are accepted so
// hand-written documents may omit them.
func (h *Header) Expect(kind Kind) error {
	if h.Kind != "" && h.Kind != kind {
		return eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unexpected document kind %q, expected %q", h.Kind, kind),
			map[string]any{"kind": string(h.Kind)})
	}
	if h.APIVersion != "" && h.APIVersion != APIVersion {
		return eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported apiVersion %q, expected %q", h.APIVersion, APIVersion),
			map[string]any{"apiVersion": h.APIVersion})
	}
	return nil
}

// Version returns the tool version recorded by Init, if any.
func (h *Header) Version() string {
	return h.Metadata["version"]
}

// Timestamp returns the time recorded by Init. It is zero when absent or
// malformed.
func (h *Header) Timestamp() time.Time {
	ts, err := time.Parse(time.RFC3339, h.Metadata["timestamp"])
	if err != nil {
		return time.Time{}
	}
	return ts
}
