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

package comparator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/NVIDIA/energy-benchmark/pkg/advisory"
	"github.com/NVIDIA/energy-benchmark/pkg/config"
	"github.com/NVIDIA/energy-benchmark/pkg/defaults"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/header"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/kpi"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// toleranceEpsilon absorbs floating point noise at the tolerance boundary.
const toleranceEpsilon = 1e-9

// Comparator scores subjects against an index. It is safe for concurrent use.
type Comparator struct {
	index    *index.Index
	settings *config.Settings
	judge    advisory.Judge
	version  string
}

// Option is a functional option for configuring Comparator instances.
type Option func(*Comparator)

// WithSettings replaces the settings taken from the index.
func WithSettings(s *config.Settings) Option {
	return func(c *Comparator) {
		if s != nil {
			c.settings = s
		}
	}
}

// WithK sets how many benchmarks are retrieved.
func WithK(k int) Option {
	return func(c *Comparator) {
		if k > 0 {
			c.settings = c.settings.WithRetrievalK(k)
		}
	}
}

// WithTolerance overrides the tolerance of one KPI in one category.
func WithTolerance(cat schema.Category, kpiName string, pct float64) Option {
	return func(c *Comparator) {
		if pct > 0 {
			c.settings = c.settings.WithTolerance(cat, kpiName, pct)
		}
	}
}

// WithConfidenceThreshold sets the threshold below which results are flagged.
func WithConfidenceThreshold(v float64) Option {
	return func(c *Comparator) {
		n := *c.settings
		n.ConfidenceThreshold = v
		c.settings = &n
	}
}

// WithAlternates enables scoring against every retrieved benchmark.
func WithAlternates(enabled bool) Option {
	return func(c *Comparator) {
		n := *c.settings
		n.ReportAlternates = enabled
		c.settings = &n
	}
}

// WithJudge sets the advisory judge. Judges that are not already a Guard are
// wrapped in one using the configured advisory timeout.
func WithJudge(j advisory.Judge) Option {
	return func(c *Comparator) {
		c.judge = j
	}
}

// WithVersion sets the tool version stamped on results.
func WithVersion(v string) Option {
	return func(c *Comparator) {
		c.version = v
	}
}

// New creates a Comparator over ix.
func New(ix *index.Index, opts ...Option) *Comparator {
	c := &Comparator{index: ix, settings: ix.Settings()}
	for _, opt := range opts {
		opt(c)
	}
	if c.judge != nil {
		if _, ok := c.judge.(*advisory.Guard); !ok {
			c.judge = advisory.NewGuard(c.judge, advisory.WithTimeout(c.settings.AdvisoryTimeout))
		}
	}
	return c
}

// Version returns the version stamped on results.
func (c *Comparator) Version() string {
	return c.version
}

// Judge returns the advisory judge, or nil when annotation is off.
func (c *Comparator) Judge() advisory.Judge {
	return c.judge
}

// Settings returns the effective settings.
func (c *Comparator) Settings() *config.Settings {
	return c.settings
}

// Compare scores subject against its closest benchmarks. Only invalid
// subjects and cancellation return an error; a missing match is reported in
// the result notes.
func (c *Comparator) Compare(ctx context.Context, subject *record.CanonicalRecord) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.checkSubject(subject); err != nil {
		comparisonsTotal.WithLabelValues("", "invalid").Inc()
		return nil, err
	}

	start := time.Now()
	cat := subject.Category()
	subject = c.ensureKPIs(subject)

	res := &Result{
		ID:                uuid.New().String(),
		SubjectID:         subject.ID(),
		Category:          cat,
		MatchedBenchmarks: []Match{},
		Deviations:        map[string]Deviation{},
		kpiOrder:          c.settings.ExpectedKPIs(cat),
	}
	res.Init(header.KindComparisonResult, header.APIVersion, c.version)

	var t tracker
	if err := t.advance(PhaseRetrieving); err != nil {
		return nil, err
	}
	cands := c.index.Retrieve(subject, cat, c.settings.RetrievalK, index.UsingSettings(c.settings))
	for _, cand := range cands {
		res.MatchedBenchmarks = append(res.MatchedBenchmarks, Match{
			ID:              cand.Entry.ID(),
			Similarity:      cand.Similarity,
			Distance:        cand.Distance,
			Coverage:        cand.Coverage,
			PublicationYear: cand.Entry.Year(),
		})
	}

	if len(cands) == 0 {
		if err := t.advance(PhaseDone); err != nil {
			return nil, err
		}
		noMatch := eberrors.NewWithContext(eberrors.ErrCodeNoBenchmarkMatch,
			"no admissible benchmark", map[string]any{"category": string(cat)})
		res.LowConfidence = true
		res.note("no admissible benchmark for category %s", cat)
		slog.Debug("comparison without benchmark", "subject", subject.ID(), "error", noMatch.Error())
		comparisonsTotal.WithLabelValues(string(cat), "no_match").Inc()
		comparisonDuration.Observe(time.Since(start).Seconds())
		return res, nil
	}

	if err := t.advance(PhaseScoring); err != nil {
		return nil, err
	}
	top := cands[0]
	bench := c.ensureKPIs(top.Entry.Record)
	res.BenchmarkID = top.Entry.ID()
	res.Deviations, res.Score = c.score(cat, subject, bench)

	expected := len(res.kpiOrder)
	computable := 0
	for _, name := range res.kpiOrder {
		d := res.Deviations[name]
		if d.Computable() {
			computable++
			continue
		}
		res.note("%s not computable: %s", name, d.Reason)
	}
	if expected > 0 {
		res.Confidence = clamp01(float64(computable) / float64(expected) * top.Similarity)
	}
	if res.Confidence < c.settings.ConfidenceThreshold {
		res.LowConfidence = true
		res.note("low confidence %.2f (threshold %.2f): %d of %d KPIs comparable, similarity %.2f",
			res.Confidence, c.settings.ConfidenceThreshold, computable, expected, top.Similarity)
	}

	if c.settings.ReportAlternates {
		for _, alt := range cands[1:] {
			devs, score := c.score(cat, subject, c.ensureKPIs(alt.Entry.Record))
			res.Alternates = append(res.Alternates, Alternate{
				BenchmarkID: alt.Entry.ID(),
				Similarity:  alt.Similarity,
				Score:       score,
				Deviations:  devs,
			})
		}
	}

	if c.judge != nil {
		if err := c.annotate(ctx, res, subject, bench); err != nil {
			return nil, err
		}
	}

	if err := t.advance(PhaseDone); err != nil {
		return nil, err
	}

	comparisonsTotal.WithLabelValues(string(cat), "matched").Inc()
	comparisonScore.WithLabelValues(string(cat)).Observe(res.Score)
	comparisonDuration.Observe(time.Since(start).Seconds())
	slog.Debug("comparison completed",
		"subject", res.SubjectID,
		"benchmark", res.BenchmarkID,
		"score", res.Score,
		"confidence", res.Confidence)
	return res, nil
}

func (c *Comparator) checkSubject(subject *record.CanonicalRecord) error {
	if subject == nil {
		return eberrors.New(eberrors.ErrCodeInvalidSubject, "subject record is required")
	}
	if !subject.Valid {
		return eberrors.NewWithContext(eberrors.ErrCodeInvalidSubject,
			"subject record is not valid", map[string]any{"id": subject.ID()})
	}
	if !subject.Category().IsValid() {
		return eberrors.NewWithContext(eberrors.ErrCodeInvalidSubject,
			"subject has no valid process category", map[string]any{"id": subject.ID(), "category": string(subject.Category())})
	}
	return nil
}

// ensureKPIs normalizes records that have not been through the normalizer.
func (c *Comparator) ensureKPIs(rec *record.CanonicalRecord) *record.CanonicalRecord {
	if rec.KPIs != nil {
		return rec
	}
	return kpi.New(kpi.WithRegistry(c.settings.Registry())).Normalize(rec)
}

// score computes the deviations of the expected KPIs of cat and their
// weighted goodness.
func (c *Comparator) score(cat schema.Category, subject, bench *record.CanonicalRecord) (map[string]Deviation, float64) {
	reg := c.settings.Registry()
	devs := make(map[string]Deviation)

	var weighted, total float64
	for _, name := range c.settings.ExpectedKPIs(cat) {
		spec, ok := reg.KPI(name)
		if !ok {
			continue
		}
		d := deviation(spec, c.settings.Tolerance(cat, name), subject, bench)
		devs[name] = d
		if d.Goodness == nil {
			continue
		}
		w := c.settings.KPIWeight(cat, name)
		weighted += w * *d.Goodness
		total += w
	}
	if total == 0 {
		return devs, 0
	}
	return devs, clamp01(weighted / total)
}

func deviation(spec schema.KPISpec, tol float64, subject, bench *record.CanonicalRecord) Deviation {
	d := Deviation{Unit: spec.Unit, TolerancePercent: tol, Status: StatusNotComputable}

	sk, _ := subject.KPI(spec.Name)
	bk, _ := bench.KPI(spec.Name)
	sv, sok := sk.Get()
	bv, bok := bk.Get()
	if sok {
		d.SubjectValue = &sv
	}
	if bok {
		d.BenchmarkValue = &bv
	}

	switch {
	case !sok:
		d.Reason = "subject: " + reasonOr(sk.Reason, "not computed")
		return d
	case !bok:
		d.Reason = fmt.Sprintf("benchmark %s: %s", bench.ID(), reasonOr(bk.Reason, "not computed"))
		return d
	case bv == 0:
		d.Reason = "benchmark value is zero"
		return d
	}

	abs := sv - bv
	rel := abs / bv * 100
	if math.IsNaN(rel) || math.IsInf(rel, 0) {
		d.Reason = "relative deviation is not finite"
		return d
	}
	d.Absolute = &abs
	d.RelativePercent = &rel

	g := 1.0
	mag := math.Abs(rel)
	switch {
	case mag <= tol+toleranceEpsilon:
		d.Status = StatusWithin
	case rel > 0:
		d.Status = StatusAbove
		if spec.Direction != schema.HigherIsBetter {
			g = decay(mag, tol)
		}
	default:
		d.Status = StatusBelow
		if spec.Direction != schema.LowerIsBetter {
			g = decay(mag, tol)
		}
	}
	d.Goodness = &g
	return d
}

// decay is the goodness of a deviation outside the tolerance.
func decay(mag, tol float64) float64 {
	if tol <= 0 {
		return 0
	}
	return math.Max(0, 1-(mag-tol)/tol)
}

func (c *Comparator) annotate(ctx context.Context, res *Result, subject, bench *record.CanonicalRecord) error {
	req := advisory.Request{
		Category:  res.Category,
		Subject:   subject,
		Benchmark: bench,
		Score:     res.Score,
	}
	for _, name := range res.kpiOrder {
		d := res.Deviations[name]
		req.Findings = append(req.Findings, advisory.Finding{
			KPI:             name,
			Status:          string(d.Status),
			SubjectValue:    d.SubjectValue,
			BenchmarkValue:  d.BenchmarkValue,
			Unit:            d.Unit,
			RelativePercent: d.RelativePercent,
		})
	}

	ann, err := c.judge.Annotate(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		slog.Warn("advisory annotation failed", "subject", res.SubjectID, "error", err)
		res.note("advisory annotation unavailable: %v", err)
		return nil
	}
	res.Advisory = ann
	return nil
}

// CompareAll compares subjects in parallel with at most concurrency workers
// (defaults.CompareConcurrency when <= 0). Results keep the input order; a
// subject that fails has a nil result and its error is included in the
// joined error. Cancellation stops outstanding work.
func (c *Comparator) CompareAll(ctx context.Context, subjects []*record.CanonicalRecord, concurrency int) ([]*Result, error) {
	if concurrency <= 0 {
		concurrency = defaults.CompareConcurrency
	}

	results := make([]*Result, len(subjects))
	failures := make([]error, len(subjects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, s := range subjects {
		g.Go(func() error {
			res, err := c.Compare(gctx, s)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = fmt.Errorf("subject %d: %w", i, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, errors.Join(failures...)
}

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
