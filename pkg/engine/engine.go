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

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/NVIDIA/energy-benchmark/pkg/advisory"
	"github.com/NVIDIA/energy-benchmark/pkg/comparator"
	"github.com/NVIDIA/energy-benchmark/pkg/config"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/kpi"
	"github.com/NVIDIA/energy-benchmark/pkg/library"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/NVIDIA/energy-benchmark/pkg/store"
	"github.com/NVIDIA/energy-benchmark/pkg/validator"
)

// Environment variables read by OptionsFromEnv.
const (
	EnvStore         = "EBENCH_STORE"
	EnvConfig        = "EBENCH_CONFIG"
	EnvRegistry      = "EBENCH_REGISTRY"
	EnvAdvisoryURL   = "EBENCH_ADVISORY_URL"
	EnvAdvisoryModel = "EBENCH_ADVISORY_MODEL"
)

// Options select the engine's inputs. Empty values use the defaults.
type Options struct {
	StoreURI      string
	ConfigPath    string
	RegistryPath  string
	AdvisoryURL   string
	AdvisoryModel string
	Version       string

	// Store, when set, takes precedence over StoreURI.
	Store store.Store
	// Judge, when set, takes precedence over AdvisoryURL.
	Judge advisory.Judge
}

// OptionsFromEnv reads Options from the EBENCH_* environment variables.
func OptionsFromEnv() Options {
	return Options{
		StoreURI:      os.Getenv(EnvStore),
		ConfigPath:    os.Getenv(EnvConfig),
		RegistryPath:  os.Getenv(EnvRegistry),
		AdvisoryURL:   os.Getenv(EnvAdvisoryURL),
		AdvisoryModel: os.Getenv(EnvAdvisoryModel),
	}
}

// Engine holds the wired components.
type Engine struct {
	Registry   *schema.Registry
	Settings   *config.Settings
	Validator  *validator.Validator
	Normalizer *kpi.Normalizer
	Library    *library.Library
	Comparator *comparator.Comparator
}

// Open wires the engine and loads the stored benchmarks into the index.
func Open(ctx context.Context, opts Options) (*Engine, error) {
	reg, err := loadRegistry(opts.RegistryPath)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if opts.ConfigPath != "" {
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return nil, err
		}
	}
	settings, err := config.Resolve(reg, cfg)
	if err != nil {
		return nil, err
	}

	st := opts.Store
	if st == nil {
		if st, err = store.Open(opts.StoreURI); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		Registry:   reg,
		Settings:   settings,
		Validator:  validator.New(validator.WithRegistry(reg), validator.WithVersion(opts.Version)),
		Normalizer: kpi.New(kpi.WithRegistry(reg)),
	}
	ix := index.New(index.WithSettings(settings))
	e.Library = library.New(
		library.WithValidator(e.Validator),
		library.WithNormalizer(e.Normalizer),
		library.WithStore(st),
		library.WithIndex(ix),
		library.WithVersion(opts.Version),
	)

	copts := []comparator.Option{comparator.WithVersion(opts.Version)}
	if j := judge(opts); j != nil {
		copts = append(copts, comparator.WithJudge(j))
	}
	e.Comparator = comparator.New(ix, copts...)

	res, err := e.Library.Load(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("engine ready",
		"registry", reg.Version,
		"benchmarks", res.Loaded,
		"skipped", len(res.Skipped),
		"advisory", opts.AdvisoryURL != "" || opts.Judge != nil)
	return e, nil
}

func loadRegistry(path string) (*schema.Registry, error) {
	if path == "" {
		return schema.Default()
	}
	return schema.LoadFile(path)
}

func judge(opts Options) advisory.Judge {
	if opts.Judge != nil {
		return opts.Judge
	}
	if opts.AdvisoryURL == "" {
		return nil
	}
	jopts := []advisory.OllamaOption{advisory.WithHost(opts.AdvisoryURL)}
	if opts.AdvisoryModel != "" {
		jopts = append(jopts, advisory.WithModel(opts.AdvisoryModel))
	}
	return advisory.NewOllamaJudge(jopts...)
}

// Compare validates raw, computes its KPIs and compares it against the
// library. An invalid record yields a VALIDATION_FAILED error carrying the
// report issues, plus the report itself.
func (e *Engine) Compare(ctx context.Context, raw map[string]any, opts ...comparator.Option) (*comparator.Result, *validator.Report, error) {
	rec, report, err := e.Validator.Validate(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	if !report.Valid {
		return nil, report, report.Err()
	}

	res, err := e.comparatorWith(opts).Compare(ctx, e.Normalizer.Normalize(rec))
	return res, report, err
}

// CompareAll validates every raw record and compares them in parallel with at
// most concurrency workers. When any record is invalid nothing is compared
// and the joined VALIDATION_FAILED errors are returned with all reports.
func (e *Engine) CompareAll(ctx context.Context, raws []map[string]any, concurrency int, opts ...comparator.Option) ([]*comparator.Result, []*validator.Report, error) {
	subjects := make([]*record.CanonicalRecord, len(raws))
	reports := make([]*validator.Report, len(raws))
	var invalid []error
	for i, raw := range raws {
		rec, report, err := e.Validator.Validate(ctx, raw)
		if err != nil {
			return nil, reports, err
		}
		reports[i] = report
		if !report.Valid {
			invalid = append(invalid, fmt.Errorf("subject %d: %w", i, report.Err()))
			continue
		}
		subjects[i] = e.Normalizer.Normalize(rec)
	}
	if len(invalid) > 0 {
		return nil, reports, errors.Join(invalid...)
	}

	res, err := e.comparatorWith(opts).CompareAll(ctx, subjects, concurrency)
	return res, reports, err
}

func (e *Engine) comparatorWith(opts []comparator.Option) *comparator.Comparator {
	if len(opts) == 0 {
		return e.Comparator
	}
	return comparator.New(e.Library.Index(), append([]comparator.Option{
		comparator.WithSettings(e.Comparator.Settings()),
		comparator.WithVersion(e.Comparator.Version()),
		comparator.WithJudge(e.Comparator.Judge()),
	}, opts...)...)
}
