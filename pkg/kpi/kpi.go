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

package kpi

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// KPI names declared by the embedded registry.
const (
	SpecificEnergyConsumption = "specific_energy_consumption"
	SpecificCuttingEnergy     = "specific_cutting_energy"
	IdleRatio                 = "idle_ratio"
	AveragePower              = "average_power"
	DutyCycle                 = "duty_cycle"
)

var kpiComputations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ebench_kpi_computations_total",
		Help: "Total number of KPI computations by KPI and computability",
	},
	[]string{"kpi", "computable"},
)

// Normalizer computes registry KPIs. It holds no mutable state.
type Normalizer struct {
	registry *schema.Registry
}

// Option is a functional option for configuring Normalizer instances.
type Option func(*Normalizer)

// WithRegistry returns an Option that sets the registry holding the formulas.
func WithRegistry(r *schema.Registry) Option {
	return func(n *Normalizer) {
		n.registry = r
	}
}

// New creates a Normalizer. The embedded registry is used by default.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	if n.registry == nil {
		n.registry = schema.MustDefault()
	}
	return n
}

// Normalize returns a copy of rec with every registry KPI computed.
func (n *Normalizer) Normalize(rec *record.CanonicalRecord) *record.CanonicalRecord {
	out := rec.Clone()
	out.KPIs = make(map[string]record.KPI, len(n.registry.KPIs))
	computable := 0
	for _, spec := range n.registry.KPIs {
		k := Compute(rec, spec)
		out.KPIs[spec.Name] = k
		kpiComputations.WithLabelValues(spec.Name, strconv.FormatBool(k.Computable)).Inc()
		if k.Computable {
			computable++
		}
	}
	slog.Debug("kpis normalized",
		"id", rec.ID(),
		"computable", computable,
		"total", len(n.registry.KPIs))
	return out
}

// Compute evaluates one KPI formula against rec.
func Compute(rec *record.CanonicalRecord, spec schema.KPISpec) record.KPI {
	num, reason := operand(rec, spec.Numerator)
	if reason != "" {
		return record.NotComputable(spec.Unit, reason)
	}
	den, reason := operand(rec, spec.Denominator)
	if reason != "" {
		return record.NotComputable(spec.Unit, reason)
	}
	if num < 0 {
		return record.NotComputable(spec.Unit, fmt.Sprintf("negative %s", spec.Numerator.Name()))
	}
	if den <= 0 {
		return record.NotComputable(spec.Unit, fmt.Sprintf("non-positive divisor %s", spec.Denominator.Name()))
	}
	v := spec.Scale * num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return record.NotComputable(spec.Unit, "result is not finite")
	}
	return record.Computed(v, spec.Unit)
}

func operand(rec *record.CanonicalRecord, op schema.Operand) (float64, string) {
	q, ok := rec.Quantity(op.Name())
	if !ok {
		return 0, fmt.Sprintf("missing input %s", op.Name())
	}
	v, err := q.In(op.Unit)
	if err != nil {
		return 0, fmt.Sprintf("cannot convert %s from %s to %s", op.Name(), q.Unit, op.Unit)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Sprintf("%s is not finite", op.Name())
	}
	return v, ""
}
