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


package library

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/kpi"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/NVIDIA/energy-benchmark/pkg/store"
	"github.com/NVIDIA/energy-benchmark/pkg/validator"
)

// DefaultLoadConcurrency is the number of entries re-validated in parallel by Load.
const DefaultLoadConcurrency = 8

// Library is the literature benchmark collection.
type Library struct {
	validator  *validator.Validator
	normalizer *kpi.Normalizer
	store      store.Store
	index      *index.Index
	version    string
}

// Option is a functional option for configuring Library instances.
type Option func(*Library)

// WithValidator sets the validator used for incoming records.
func WithValidator(v *validator.Validator) Option {
	return func(l *Library) {
		l.validator = v
	}
}

// WithNormalizer sets the KPI normalizer.
func WithNormalizer(n *kpi.Normalizer) Option {
	return func(l *Library) {
		l.normalizer = n
	}
}

// WithStore sets the persistent store. An in-memory store is used by default.
func WithStore(s store.Store) Option {
	return func(l *Library) {
		l.store = s
	}
}

// WithIndex sets the index that receives admitted benchmarks.
func WithIndex(ix *index.Index) Option {
	return func(l *Library) {
		l.index = ix
	}
}

// WithVersion sets the version stamped on new entries.
func WithVersion(version string) Option {
	return func(l *Library) {
		l.version = version
	}
}

// New creates a Library with the provided options.
func New(opts ...Option) *Library {
	l := &Library{}
	for _, opt := range opts {
		opt(l)
	}
	if l.validator == nil {
		l.validator = validator.New(validator.WithVersion(l.version))
	}
	if l.normalizer == nil {
		l.normalizer = kpi.New(kpi.WithRegistry(l.validator.Registry()))
	}
	if l.store == nil {
		l.store = store.NewMemoryStore()
	}
	if l.index == nil {
		l.index = index.New()
	}
	return l
}

// Index returns the benchmark index served by the library.
func (l *Library) Index() *index.Index {
	return l.index
}

// Store returns the backing store.
func (l *Library) Store() store.Store {
	return l.store
}

// AddBenchmark validates raw, computes its KPIs, persists it and indexes it.
// The validation report is always returned. A record that fails validation
// is rejected with a VALIDATION_FAILED error and is neither stored nor
// indexed. Adding an id that already exists replaces the entry.
func (l *Library) AddBenchmark(ctx context.Context, raw map[string]any) (string, *validator.Report, error) {
	rec, report, err := l.validator.Validate(ctx, raw)
	if err != nil {
		libraryOperationsTotal.WithLabelValues("add", outcomeError).Inc()
		return "", nil, err
	}
	if !report.Valid {
		libraryOperationsTotal.WithLabelValues("add", outcomeRejected).Inc()
		return "", report, report.Err()
	}

	e, err := index.NewEntry(l.normalizer.Normalize(rec), l.version)
	if err != nil {
		libraryOperationsTotal.WithLabelValues("add", outcomeRejected).Inc()
		return "", report, err
	}

	if err := l.store.Put(ctx, e); err != nil {
		libraryOperationsTotal.WithLabelValues("add", outcomeError).Inc()
		return "", report, eberrors.WrapWithContext(eberrors.ErrCodeUnavailable,
			"failed to persist benchmark", err, map[string]any{"id": e.ID()})
	}
	if err := l.index.Add(e); err != nil {
		libraryOperationsTotal.WithLabelValues("add", outcomeError).Inc()
		return "", report, err
	}

	libraryOperationsTotal.WithLabelValues("add", outcomeSuccess).Inc()
	slog.Info("benchmark added", "id", e.ID(), "category", e.Category(), "status", report.Summary.Status)
	return e.ID(), report, nil
}

// RemoveBenchmark deletes a benchmark from the store and the index.
func (l *Library) RemoveBenchmark(ctx context.Context, id string) error {
	if err := l.store.Delete(ctx, id); err != nil {
		outcome := outcomeError
		if eberrors.IsCode(err, eberrors.ErrCodeNotFound) {
			outcome = outcomeRejected
		}
		libraryOperationsTotal.WithLabelValues("remove", outcome).Inc()
		return err
	}
	if err := l.index.Remove(id); err != nil && !eberrors.IsCode(err, eberrors.ErrCodeNotFound) {
		libraryOperationsTotal.WithLabelValues("remove", outcomeError).Inc()
		return err
	}
	libraryOperationsTotal.WithLabelValues("remove", outcomeSuccess).Inc()
	slog.Info("benchmark removed", "id", id)
	return nil
}

// ListBenchmarks returns the indexed benchmarks of category, or all of them
// when category is empty, sorted by id. Deprecated entries are included.
func (l *Library) ListBenchmarks(ctx context.Context, category schema.Category) ([]*index.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if category != "" && !category.IsValid() {
		return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
			"unknown process category", map[string]any{"category": category})
	}
	return l.index.List(category), nil
}

// Get returns the indexed benchmark with the given id.
func (l *Library) Get(id string) (*index.Entry, error) {
	e, ok := l.index.Get(id)
	if !ok {
		return nil, eberrors.NewWithContext(eberrors.ErrCodeNotFound, "benchmark not found", map[string]any{"id": id})
	}
	return e, nil
}

// Search returns the benchmarks whose id, title or any author contains query,
// case-insensitively. An empty query matches nothing.
func (l *Library) Search(query string) []*index.Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*index.Entry{}
	}
	out := make([]*index.Entry, 0)
	for _, e := range l.index.List("") {
		if matches(e, q) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e *index.Entry, q string) bool {
	if strings.Contains(strings.ToLower(e.ID()), q) {
		return true
	}
	md := e.Record.Metadata
	if strings.Contains(strings.ToLower(md.Title), q) {
		return true
	}
	for _, a := range md.Authors {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	return false
}

// Deprecate marks a benchmark inadmissible. supersededBy, when set, names the
// benchmark that replaces it and must exist.
func (l *Library) Deprecate(ctx context.Context, id, supersededBy string) (*index.Entry, error) {
	if supersededBy != "" {
		if supersededBy == id {
			return nil, eberrors.New(eberrors.ErrCodeInvalidRequest, "a benchmark cannot supersede itself")
		}
		if _, ok := l.index.Get(supersededBy); !ok {
			return nil, eberrors.NewWithContext(eberrors.ErrCodeNotFound,
				"superseding benchmark not found", map[string]any{"id": supersededBy})
		}
	}

	cur, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	next := cur.Copy()
	next.Deprecated = true
	next.SupersededBy = supersededBy
	if err := l.store.Put(ctx, next); err != nil {
		libraryOperationsTotal.WithLabelValues("deprecate", outcomeError).Inc()
		return nil, eberrors.WrapWithContext(eberrors.ErrCodeUnavailable,
			"failed to persist benchmark", err, map[string]any{"id": id})
	}

	updated, err := l.index.Update(id, func(e *index.Entry) {
		e.Deprecated = true
		e.SupersededBy = supersededBy
	})
	if err != nil {
		libraryOperationsTotal.WithLabelValues("deprecate", outcomeError).Inc()
		return nil, err
	}
	libraryOperationsTotal.WithLabelValues("deprecate", outcomeSuccess).Inc()
	slog.Info("benchmark deprecated", "id", id, "superseded_by", supersededBy)
	return updated, nil
}

// LoadResult summarizes a Load.
type LoadResult struct {
	Loaded  int      `json:"loaded" yaml:"loaded"`
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Load reads every stored entry, re-validates and re-normalizes its record
// and indexes the ones that still pass. Admissibility flags and provenance
// are kept from the stored entry.
func (l *Library) Load(ctx context.Context) (*LoadResult, error) {
	stored, err := l.store.List(ctx, "")
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to list stored benchmarks", err)
	}

	fresh := make([]*index.Entry, len(stored))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultLoadConcurrency)
	for i, e := range stored {
		g.Go(func() error {
			rec, report, err := l.validator.Validate(gctx, e.Record.ToRaw())
			if err != nil {
				return err
			}
			if !report.Valid {
				slog.Warn("stored benchmark no longer validates", "id", e.ID(), "error", report.Err())
				return nil
			}
			next := e.Copy()
			next.Record = l.normalizer.Normalize(rec)
			next.Record.Metadata.SourceType = e.Record.Metadata.SourceType
			fresh[i] = next
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to load benchmarks", err)
	}

	res := &LoadResult{}
	for i, e := range fresh {
		if e == nil {
			res.Skipped = append(res.Skipped, stored[i].ID())
			libraryLoadSkippedTotal.Inc()
			continue
		}
		if err := l.index.Add(e); err != nil {
			return nil, fmt.Errorf("failed to index benchmark %s: %w", e.ID(), err)
		}
		res.Loaded++
	}
	sort.Strings(res.Skipped)

	libraryOperationsTotal.WithLabelValues("load", outcomeSuccess).Inc()
	slog.Info("benchmark library loaded", "loaded", res.Loaded, "skipped", len(res.Skipped))
	return res, nil
}
