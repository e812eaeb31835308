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

package dataset

import (
	"log/slog"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/header"
)

const (
	// DefaultGroup names the group used when no groups are configured.
	DefaultGroup = "total"

	// DefaultActiveThreshold is the share of the mean power a sample must
	// exceed to count as active.
	DefaultActiveThreshold = 0.1

	wattSecondsPerKWh = 3_600_000.0
)

// Stats describes one power series in watts.
type Stats struct {
	Mean      float64 `json:"mean" yaml:"mean"`
	Median    float64 `json:"median" yaml:"median"`
	Max       float64 `json:"max" yaml:"max"`
	Min       float64 `json:"min" yaml:"min"`
	StdDev    float64 `json:"std_dev" yaml:"std_dev"`
	Range     float64 `json:"range" yaml:"range"`
	EnergyKWh float64 `json:"total_energy_kwh" yaml:"total_energy_kwh"`
	// TimeOfPeak is the elapsed time of the first maximum in seconds.
	TimeOfPeak float64 `json:"time_of_peak" yaml:"time_of_peak"`
}

// Variable is the reduction of one column.
type Variable struct {
	Name  string `json:"name" yaml:"name"`
	Stats Stats  `json:"stats" yaml:"stats"`
}

// Group is the reduction of a named set of columns.
type Group struct {
	Name      string     `json:"name" yaml:"name"`
	Variables []Variable `json:"variables" yaml:"variables"`
	// Total describes the row-wise sum of the group's columns.
	Total Stats `json:"total" yaml:"total"`
	// DutyCyclePercent is the share of samples whose row mean exceeds the
	// active threshold of the total's mean.
	DutyCyclePercent float64 `json:"duty_cycle_percent" yaml:"duty_cycle_percent"`
	// Missing lists configured columns absent from the data.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Summary is the reduction of a whole trace.
type Summary struct {
	header.Header `json:",inline" yaml:",inline"`

	Samples         int     `json:"samples" yaml:"samples"`
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
	Groups          []Group `json:"groups" yaml:"groups"`

	// Overall figures over the union of all grouped columns.
	TotalEnergyKWh       float64  `json:"total_energy_kwh" yaml:"total_energy_kwh"`
	MeanPowerW           float64  `json:"mean_power_w" yaml:"mean_power_w"`
	EnergyRateKWhPerHour float64  `json:"energy_rate_kwh_per_hour" yaml:"energy_rate_kwh_per_hour"`
	ActivePowerW         *float64 `json:"active_power_w" yaml:"active_power_w"`
	IdlePowerW           *float64 `json:"idle_power_w" yaml:"idle_power_w"`
	ActiveTimeSeconds    float64  `json:"active_time_seconds" yaml:"active_time_seconds"`
	DutyCyclePercent     float64  `json:"duty_cycle_percent" yaml:"duty_cycle_percent"`
}

type groupSpec struct {
	name    string
	columns []string
}

type options struct {
	groups    []groupSpec
	threshold float64
	version   string
}

// Option is a functional option for Summarize.
type Option func(*options)

// WithGroup adds a named group of power columns.
func WithGroup(name string, columns ...string) Option {
	return func(o *options) {
		o.groups = append(o.groups, groupSpec{name: name, columns: columns})
	}
}

// WithActiveThreshold sets the share of the mean power above which a sample
// counts as active.
func WithActiveThreshold(fraction float64) Option {
	return func(o *options) {
		o.threshold = fraction
	}
}

// WithVersion sets the version stamped on the summary header.
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// Summarize reduces f. Without groups every column forms one group.
// Groups with none of their columns present are left out; it is an error
// when no group has any column.
func Summarize(f *Frame, opts ...Option) (*Summary, error) {
	o := &options{threshold: DefaultActiveThreshold}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.groups) == 0 {
		o.groups = []groupSpec{{name: DefaultGroup, columns: f.Columns()}}
	}

	s := &Summary{
		Samples:         f.Len(),
		DurationSeconds: f.Duration(),
		Groups:          make([]Group, 0, len(o.groups)),
	}
	s.Init(header.KindDatasetSummary, header.APIVersion, o.version)

	seen := make(map[string]bool)
	var union []string
	for _, gs := range o.groups {
		g, ok := reduceGroup(f, gs, o.threshold)
		if !ok {
			slog.Warn("dataset group has no columns", "group", gs.name, "missing", gs.columns)
			continue
		}
		s.Groups = append(s.Groups, g)
		for _, v := range g.Variables {
			if !seen[v.Name] {
				seen[v.Name] = true
				union = append(union, v.Name)
			}
		}
	}
	if len(union) == 0 {
		return nil, eberrors.New(eberrors.ErrCodeInvalidRequest, "no configured power column found in dataset")
	}

	combined := sum(f, union)
	s.TotalEnergyKWh = energyKWh(f.Time, combined)
	s.MeanPowerW = stat.Mean(combined, nil)
	if hours := s.DurationSeconds / 3600; hours > 0 {
		s.EnergyRateKWhPerHour = s.TotalEnergyKWh / hours
	}
	s.splitActive(f.Time, combined, o.threshold*s.MeanPowerW)
	return s, nil
}

// splitActive classifies each sample against limit and derives the active
// and idle power levels. A sample's interval to the next sample counts as
// active time when the sample is active.
func (s *Summary) splitActive(t, power []float64, limit float64) {
	var active, idle []float64
	for i, p := range power {
		if p > limit {
			active = append(active, p)
			if i+1 < len(t) {
				s.ActiveTimeSeconds += t[i+1] - t[i]
			}
		} else {
			idle = append(idle, p)
		}
	}
	s.DutyCyclePercent = 100 * float64(len(active)) / float64(len(power))
	if len(active) > 0 {
		v := stat.Mean(active, nil)
		s.ActivePowerW = &v
	}
	if len(idle) > 0 {
		v := stat.Mean(idle, nil)
		s.IdlePowerW = &v
	}
}

func reduceGroup(f *Frame, gs groupSpec, threshold float64) (Group, bool) {
	g := Group{Name: gs.name, Variables: make([]Variable, 0, len(gs.columns))}
	var present []string
	for _, c := range gs.columns {
		values, ok := f.Column(c)
		if !ok {
			g.Missing = append(g.Missing, c)
			continue
		}
		present = append(present, c)
		g.Variables = append(g.Variables, Variable{Name: c, Stats: describe(f.Time, values)})
	}
	if len(present) == 0 {
		return g, false
	}

	total := sum(f, present)
	g.Total = describe(f.Time, total)
	g.DutyCyclePercent = dutyCycle(total, len(present), threshold*g.Total.Mean)
	return g, true
}

// dutyCycle returns the percentage of rows whose mean over n columns exceeds
// limit. total holds the row sums.
func dutyCycle(total []float64, n int, limit float64) float64 {
	if limit == 0 || len(total) == 0 {
		return 0
	}
	active := 0
	for _, v := range total {
		if v/float64(n) > limit {
			active++
		}
	}
	return 100 * float64(active) / float64(len(total))
}

func describe(t, values []float64) Stats {
	mean, std := stat.PopMeanStdDev(values, nil)
	maxV, minV := floats.Max(values), floats.Min(values)
	return Stats{
		Mean:       mean,
		Median:     median(values),
		Max:        maxV,
		Min:        minV,
		StdDev:     std,
		Range:      maxV - minV,
		EnergyKWh:  energyKWh(t, values),
		TimeOfPeak: t[floats.MaxIdx(values)],
	}
}

func energyKWh(t, watts []float64) float64 {
	return integrate.Trapezoidal(t, watts) / wattSecondsPerKWh
}

func median(values []float64) float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func sum(f *Frame, columns []string) []float64 {
	out := make([]float64, f.Len())
	for _, c := range columns {
		v, _ := f.Column(c)
		floats.Add(out, v)
	}
	return out
}

// TableHeader implements serializer.Tabular.
func (s *Summary) TableHeader() []string {
	return []string{"group", "variable", "mean_w", "median_w", "max_w", "min_w", "std_dev_w", "energy_kwh", "peak_s"}
}

// TableRows implements serializer.Tabular: one row per variable followed by
// the group total.
func (s *Summary) TableRows() [][]string {
	var rows [][]string
	for _, g := range s.Groups {
		for _, v := range g.Variables {
			rows = append(rows, statsRow(g.Name, v.Name, v.Stats))
		}
		rows = append(rows, statsRow(g.Name, "(total)", g.Total))
	}
	return rows
}

func statsRow(group, name string, st Stats) []string {
	return []string{
		group, name,
		fmtFloat(st.Mean, 2), fmtFloat(st.Median, 2), fmtFloat(st.Max, 2), fmtFloat(st.Min, 2),
		fmtFloat(st.StdDev, 2), fmtFloat(st.EnergyKWh, 4), fmtFloat(st.TimeOfPeak, 2),
	}
}

func fmtFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
