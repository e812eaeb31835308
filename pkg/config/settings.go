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

package config

import (
	"maps"
	"time"

	"github.com/NVIDIA/energy-benchmark/pkg/defaults"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"k8s.io/utils/ptr"
)

// Settings are the resolved values used by retrieval and scoring.
// Settings are immutable; the With* methods return modified copies.
type Settings struct {
	RetrievalK          int
	ConfidenceThreshold float64
	UnmatchedSimilarity float64
	ReportAlternates    bool
	AdvisoryTimeout     time.Duration

	registry  *schema.Registry
	overrides map[schema.Category]CategoryOverrides
}

// Resolve merges cfg over the registry defaults. A nil cfg yields the
// registry defaults.
func Resolve(reg *schema.Registry, cfg *Config) (*Settings, error) {
	if err := cfg.Validate(reg); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}

	s := &Settings{
		RetrievalK:          ptr.Deref(cfg.RetrievalK, reg.Defaults.RetrievalK),
		ConfidenceThreshold: ptr.Deref(cfg.ConfidenceThreshold, reg.Defaults.ConfidenceThreshold),
		UnmatchedSimilarity: ptr.Deref(cfg.UnmatchedSimilarity, reg.Defaults.UnmatchedSimilarity),
		ReportAlternates:    ptr.Deref(cfg.ReportAlternates, false),
		AdvisoryTimeout:     defaults.AdvisoryTimeout,
		registry:            reg,
		overrides:           make(map[schema.Category]CategoryOverrides, len(cfg.Categories)),
	}
	if cfg.AdvisoryTimeout != "" {
		// validated above
		s.AdvisoryTimeout, _ = time.ParseDuration(cfg.AdvisoryTimeout)
	}
	for c, o := range cfg.Categories {
		s.overrides[c] = CategoryOverrides{
			Tolerances:       maps.Clone(o.Tolerances),
			KPIWeights:       maps.Clone(o.KPIWeights),
			ParameterWeights: maps.Clone(o.ParameterWeights),
		}
	}
	return s, nil
}

// Default returns the settings of the embedded registry without overrides.
func Default() *Settings {
	s, err := Resolve(schema.MustDefault(), nil)
	if err != nil {
		panic(err)
	}
	return s
}

// Registry returns the registry the settings were resolved against.
func (s *Settings) Registry() *schema.Registry {
	return s.registry
}

// Tolerance returns the tolerance percentage of a KPI in category c.
func (s *Settings) Tolerance(c schema.Category, kpi string) float64 {
	if t, ok := s.overrides[c].Tolerances[kpi]; ok {
		return t
	}
	return s.registry.Tolerance(c, kpi)
}

// KPIWeight returns the scoring weight of a KPI in category c.
func (s *Settings) KPIWeight(c schema.Category, kpi string) float64 {
	if w, ok := s.overrides[c].KPIWeights[kpi]; ok {
		return w
	}
	return s.registry.KPIWeight(c, kpi)
}

// ParameterWeight returns the retrieval weight of a parameter in category c.
func (s *Settings) ParameterWeight(c schema.Category, param string) float64 {
	if w, ok := s.overrides[c].ParameterWeights[param]; ok {
		return w
	}
	return s.registry.ParameterWeight(c, param)
}

// ExpectedKPIs returns the KPIs with positive weight in category c in
// registry order.
func (s *Settings) ExpectedKPIs(c schema.Category) []string {
	var out []string
	for _, k := range s.registry.KPIs {
		if s.KPIWeight(c, k.Name) > 0 {
			out = append(out, k.Name)
		}
	}
	return out
}

func (s *Settings) clone() *Settings {
	c := *s
	c.overrides = make(map[schema.Category]CategoryOverrides, len(s.overrides))
	for cat, o := range s.overrides {
		c.overrides[cat] = CategoryOverrides{
			Tolerances:       maps.Clone(o.Tolerances),
			KPIWeights:       maps.Clone(o.KPIWeights),
			ParameterWeights: maps.Clone(o.ParameterWeights),
		}
	}
	return &c
}

// WithTolerance returns a copy with the tolerance of kpi in c set to pct.
func (s *Settings) WithTolerance(c schema.Category, kpi string, pct float64) *Settings {
	n := s.clone()
	o := n.overrides[c]
	if o.Tolerances == nil {
		o.Tolerances = make(map[string]float64)
	}
	o.Tolerances[kpi] = pct
	n.overrides[c] = o
	return n
}

// WithKPIWeight returns a copy with the weight of kpi in c set to w.
func (s *Settings) WithKPIWeight(c schema.Category, kpi string, w float64) *Settings {
	n := s.clone()
	o := n.overrides[c]
	if o.KPIWeights == nil {
		o.KPIWeights = make(map[string]float64)
	}
	o.KPIWeights[kpi] = w
	n.overrides[c] = o
	return n
}

// WithParameterWeight returns a copy with the weight of param in c set to w.
func (s *Settings) WithParameterWeight(c schema.Category, param string, w float64) *Settings {
	n := s.clone()
	o := n.overrides[c]
	if o.ParameterWeights == nil {
		o.ParameterWeights = make(map[string]float64)
	}
	o.ParameterWeights[param] = w
	n.overrides[c] = o
	return n
}

// WithRetrievalK returns a copy with the retrieval k set.
func (s *Settings) WithRetrievalK(k int) *Settings {
	n := s.clone()
	n.RetrievalK = k
	return n
}
