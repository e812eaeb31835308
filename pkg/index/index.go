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
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/NVIDIA/energy-benchmark/pkg/config"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

// Candidate is one retrieved benchmark.
type Candidate struct {
	Entry      *Entry
	Similarity float64
	Distance   float64
	Coverage   float64
}

// snapshot is the immutable read view: admissible entries per category,
// sorted by id.
type snapshot struct {
	byCategory map[schema.Category][]*Entry
}

// Index is a concurrency-safe benchmark index.
type Index struct {
	settings *config.Settings

	mu      sync.RWMutex
	entries map[string]*Entry

	snap atomic.Pointer[snapshot]
}

// Option is a functional option for configuring Index instances.
type Option func(*Index)

// WithSettings returns an Option that sets the retrieval settings.
func WithSettings(s *config.Settings) Option {
	return func(ix *Index) {
		ix.settings = s
	}
}

// New creates an empty Index using the embedded registry defaults unless
// settings are provided.
func New(opts ...Option) *Index {
	ix := &Index{entries: make(map[string]*Entry)}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.settings == nil {
		ix.settings = config.Default()
	}
	return ix
}

// Settings returns the retrieval settings of the index.
func (ix *Index) Settings() *config.Settings {
	return ix.settings
}

// Add inserts or replaces an entry.
func (ix *Index) Add(e *Entry) error {
	if e == nil || e.Record == nil {
		return eberrors.New(eberrors.ErrCodeInvalidRequest, "benchmark entry has no record")
	}
	if e.ID() == "" {
		return eberrors.New(eberrors.ErrCodeInvalidRequest, "benchmark entry has no id")
	}
	if !e.Record.Valid {
		return eberrors.NewWithContext(eberrors.ErrCodeValidation,
			"only valid records can be indexed", map[string]any{"id": e.ID()})
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[e.ID()] = e
	ix.snap.Store(nil)
	slog.Debug("benchmark indexed", "id", e.ID(), "category", e.Category())
	return nil
}

// Update applies fn to a copy of the entry with the given id and stores the
// result.
func (ix *Index) Update(id string, fn func(*Entry)) (*Entry, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	cur, ok := ix.entries[id]
	if !ok {
		return nil, notFound(id)
	}
	next := cur.Copy()
	fn(next)
	ix.entries[id] = next
	ix.snap.Store(nil)
	return next, nil
}

// Remove deletes an entry.
func (ix *Index) Remove(id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.entries[id]; !ok {
		return notFound(id)
	}
	delete(ix.entries, id)
	ix.snap.Store(nil)
	slog.Debug("benchmark removed from index", "id", id)
	return nil
}

// Get returns the entry with the given id.
func (ix *Index) Get(id string) (*Entry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.entries[id]
	return e, ok
}

// Len returns the number of entries, admissible or not.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// List returns all entries of a category, or all entries when category is
// empty, sorted by id. Non-admissible entries are included.
func (ix *Index) List(category schema.Category) []*Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]*Entry, 0, len(ix.entries))
	for _, e := range ix.entries {
		if category == "" || e.Category() == category {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (ix *Index) current() *snapshot {
	if s := ix.snap.Load(); s != nil {
		return s
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if s := ix.snap.Load(); s != nil {
		return s
	}

	s := &snapshot{byCategory: make(map[schema.Category][]*Entry)}
	admissible := 0
	for _, e := range ix.entries {
		if !e.Admissible() {
			continue
		}
		s.byCategory[e.Category()] = append(s.byCategory[e.Category()], e)
		admissible++
	}
	for _, list := range s.byCategory {
		sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	}
	ix.snap.Store(s)

	indexRebuilds.Inc()
	indexEntries.Set(float64(admissible))
	slog.Debug("benchmark index rebuilt", "entries", len(ix.entries), "admissible", admissible)
	return s
}

// RetrieveOption adjusts a single retrieval.
type RetrieveOption func(*retrieveOptions)

type retrieveOptions struct {
	settings *config.Settings
}

// UsingSettings scores a retrieval with s instead of the index settings.
func UsingSettings(s *config.Settings) RetrieveOption {
	return func(o *retrieveOptions) {
		if s != nil {
			o.settings = s
		}
	}
}

// Retrieve returns up to k admissible benchmarks of category ranked by
// similarity to subject. k <= 0 uses the configured retrieval k. Ties are
// broken by more recent publication year, then by id.
func (ix *Index) Retrieve(subject *record.CanonicalRecord, category schema.Category, k int, opts ...RetrieveOption) []Candidate {
	o := retrieveOptions{settings: ix.settings}
	for _, opt := range opts {
		opt(&o)
	}
	if k <= 0 {
		k = o.settings.RetrievalK
	}

	pool := ix.current().byCategory[category]
	if len(pool) == 0 || subject == nil {
		indexRetrievals.WithLabelValues(string(category), "empty").Inc()
		return nil
	}

	out := make([]Candidate, 0, len(pool))
	for _, e := range pool {
		out = append(out, Similarity(o.settings, category, subject, e))
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Entry.Year() != b.Entry.Year() {
			return a.Entry.Year() > b.Entry.Year()
		}
		return a.Entry.ID() < b.Entry.ID()
	})
	if len(out) > k {
		out = out[:k]
	}

	indexRetrievals.WithLabelValues(string(category), "matched").Inc()
	return out
}

// Similarity scores one benchmark against subject.
func Similarity(s *config.Settings, category schema.Category, subject *record.CanonicalRecord, e *Entry) Candidate {
	c := Candidate{Entry: e}
	reg := s.Registry()

	var unionW, sharedW, sum float64
	for _, f := range reg.FieldsIn(schema.SectionParameters) {
		sp, sok := subject.Parameter(f.Name)
		bp, bok := e.Record.Parameter(f.Name)
		if !sok && !bok {
			continue
		}
		w := s.ParameterWeight(category, f.Name)
		unionW += w
		if !sok || !bok || w == 0 {
			continue
		}

		sv, err := sp.Quantity().In(f.Unit)
		if err != nil {
			continue
		}
		bv, err := bp.Quantity().In(f.Unit)
		if err != nil {
			continue
		}

		sharedW += w
		sum += w * sq(normalizedDiff(sv, bv, f.Span()))
	}

	switch {
	case unionW == 0:
		c.Similarity = s.UnmatchedSimilarity
	case sharedW == 0:
		c.Similarity = 0
	default:
		c.Distance = math.Sqrt(sum / sharedW)
		c.Coverage = sharedW / unionW
		c.Similarity = c.Coverage / (1 + c.Distance)
	}
	return c
}

// normalizedDiff scales a difference by the typical span, falling back to
// the larger magnitude when no span is declared.
func normalizedDiff(a, b, span float64) float64 {
	d := a - b
	if span <= 0 {
		span = math.Max(math.Abs(a), math.Abs(b))
	}
	if span == 0 {
		return 0
	}
	return d / span
}

func sq(v float64) float64 {
	return v * v
}

func notFound(id string) error {
	return eberrors.NewWithContext(eberrors.ErrCodeNotFound, "benchmark not found", map[string]any{"id": id})
}
