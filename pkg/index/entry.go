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

package index

import (
	"time"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/header"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

// Entry is a literature benchmark. Entries must not be modified after they
// are added to an Index; use Update to change admissibility.
type Entry struct {
	header.Header `json:",inline" yaml:",inline"`

	Record *record.CanonicalRecord `json:"record" yaml:"record"`

	// Provenance.
	PaperID         string    `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	AddedAt         time.Time `json:"added_at" yaml:"added_at"`

	// Admissibility.
	Deprecated   bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	SupersededBy string `json:"superseded_by,omitempty" yaml:"superseded_by,omitempty"`
}

// NewEntry wraps a valid, normalized record as a literature benchmark.
// The record is copied and tagged literature-sourced.
func NewEntry(rec *record.CanonicalRecord, version string) (*Entry, error) {
	if rec == nil {
		return nil, eberrors.New(eberrors.ErrCodeInvalidRequest, "benchmark record is required")
	}
	if !rec.Valid {
		return nil, eberrors.NewWithContext(eberrors.ErrCodeValidation,
			"only valid records can become benchmarks", map[string]any{"id": rec.ID()})
	}
	if rec.ID() == "" {
		return nil, eberrors.New(eberrors.ErrCodeInvalidRequest, "benchmark record has no source_id")
	}

	r := rec.Clone()
	r.Metadata.SourceType = record.SourceLiterature

	e := &Entry{
		Record:          r,
		PaperID:         r.Metadata.SourceID,
		PublicationYear: r.Metadata.PublicationYear,
		AddedAt:         time.Now().UTC(),
	}
	e.Init(header.KindBenchmarkEntry, header.APIVersion, version)
	return e, nil
}

// ID returns the entry id, which is the record source id.
func (e *Entry) ID() string {
	if e.Record == nil {
		return ""
	}
	return e.Record.ID()
}

// Category returns the process category of the benchmark.
func (e *Entry) Category() schema.Category {
	if e.Record == nil {
		return ""
	}
	return e.Record.Category()
}

// Year returns the publication year, preferring the provenance field.
func (e *Entry) Year() int {
	if e.PublicationYear != 0 {
		return e.PublicationYear
	}
	if e.Record != nil {
		return e.Record.Metadata.PublicationYear
	}
	return 0
}

// Admissible reports whether the entry may be matched.
func (e *Entry) Admissible() bool {
	return e.Record != nil && e.Record.Valid && !e.Deprecated && e.SupersededBy == ""
}

// Copy returns a shallow copy that shares the immutable record.
func (e *Entry) Copy() *Entry {
	c := *e
	return &c
}
