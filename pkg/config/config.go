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
	"fmt"
	"log/slog"
	"time"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/NVIDIA/energy-benchmark/pkg/serializer"
)

// CategoryOverrides replaces individual registry values of one category.
type CategoryOverrides struct {
	Tolerances       map[string]float64 `json:"tolerances,omitempty" yaml:"tolerances,omitempty"`
	KPIWeights       map[string]float64 `json:"kpiWeights,omitempty" yaml:"kpiWeights,omitempty"`
	ParameterWeights map[string]float64 `json:"parameterWeights,omitempty" yaml:"parameterWeights,omitempty"`
}

// Config is the user-supplied engine configuration. Nil fields keep the
// registry defaults.
type Config struct {
	RetrievalK          *int     `json:"retrievalK,omitempty" yaml:"retrievalK,omitempty"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold,omitempty" yaml:"confidenceThreshold,omitempty"`
	UnmatchedSimilarity *float64 `json:"unmatchedSimilarity,omitempty" yaml:"unmatchedSimilarity,omitempty"`
	ReportAlternates    *bool    `json:"reportAlternates,omitempty" yaml:"reportAlternates,omitempty"`

	// AdvisoryTimeout is a Go duration string such as "15s".
	AdvisoryTimeout string `json:"advisoryTimeout,omitempty" yaml:"advisoryTimeout,omitempty"`

	Categories map[schema.Category]CategoryOverrides `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Load reads a Config from a YAML or JSON file (or HTTP URL).
func Load(path string) (*Config, error) {
	cfg, err := serializer.FromFile[Config](path)
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "failed to load engine config", err)
	}
	slog.Debug("loaded engine config", "path", path, "categories", len(cfg.Categories))
	return cfg, nil
}

// Validate checks the config against a registry.
func (c *Config) Validate(reg *schema.Registry) error {
	if c == nil {
		return nil
	}
	if c.RetrievalK != nil && *c.RetrievalK < 1 {
		return invalid("retrievalK must be at least 1, got %d", *c.RetrievalK)
	}
	if c.ConfidenceThreshold != nil && (*c.ConfidenceThreshold < 0 || *c.ConfidenceThreshold > 1) {
		return invalid("confidenceThreshold must be within [0,1], got %g", *c.ConfidenceThreshold)
	}
	if c.UnmatchedSimilarity != nil && (*c.UnmatchedSimilarity < 0 || *c.UnmatchedSimilarity > 1) {
		return invalid("unmatchedSimilarity must be within [0,1], got %g", *c.UnmatchedSimilarity)
	}
	if c.AdvisoryTimeout != "" {
		d, err := time.ParseDuration(c.AdvisoryTimeout)
		if err != nil {
			return invalid("advisoryTimeout %q: %v", c.AdvisoryTimeout, err)
		}
		if d <= 0 {
			return invalid("advisoryTimeout must be positive")
		}
	}
	for cat, o := range c.Categories {
		if !cat.IsValid() {
			return invalid("unknown category %q", cat)
		}
		for name, tol := range o.Tolerances {
			if _, ok := reg.KPI(name); !ok {
				return invalid("category %s: unknown kpi %q", cat, name)
			}
			if tol <= 0 {
				return invalid("category %s: tolerance for %q must be positive", cat, name)
			}
		}
		for name, w := range o.KPIWeights {
			if _, ok := reg.KPI(name); !ok {
				return invalid("category %s: unknown kpi %q", cat, name)
			}
			if w < 0 {
				return invalid("category %s: weight for %q must not be negative", cat, name)
			}
		}
		for name, w := range o.ParameterWeights {
			f, err := reg.Describe(name)
			if err != nil || f.Section != schema.SectionParameters {
				return invalid("category %s: unknown parameter %q", cat, name)
			}
			if w < 0 {
				return invalid("category %s: weight for %q must not be negative", cat, name)
			}
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return eberrors.New(eberrors.ErrCodeInvalidRequest, "invalid engine config: "+fmt.Sprintf(format, args...))
}
