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

package cli

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/energy-benchmark/pkg/comparator"
	"github.com/NVIDIA/energy-benchmark/pkg/defaults"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
)

// comparisons is the compare command output for more than one subject.
type comparisons struct {
	Items []*comparator.Result `json:"items" yaml:"items"`
}

func (c *comparisons) TableHeader() []string {
	return []string{"SUBJECT", "BENCHMARK", "SCORE", "CONFIDENCE", "LOW CONFIDENCE"}
}

func (c *comparisons) TableRows() [][]string {
	rows := make([][]string, 0, len(c.Items))
	for _, r := range c.Items {
		if r == nil {
			continue
		}
		rows = append(rows, []string{
			r.SubjectID,
			r.BenchmarkID,
			strconv.FormatFloat(r.Score, 'f', 3, 64),
			strconv.FormatFloat(r.Confidence, 'f', 3, 64),
			strconv.FormatBool(r.LowConfidence),
		})
	}
	return rows
}

func compareCmd() *cli.Command {
	return &cli.Command{
		Name:                  "compare",
		EnableShellCompletion: true,
		Usage:                 "Compare records against the benchmark library",
		Description: `Validate each input record, compute its KPIs and compare them with the most
similar admissible benchmarks of the same process category.

Every KPI deviation is classified within, above or below tolerance. The result
carries an overall score, a confidence and the notes explaining soft failures
(no benchmark match, advisory timeouts).

# Examples

Compare one audit record against a directory store:
  ebench compare --store ./benchmarks --input audit.yaml

Compare several lines in parallel and print a summary table:
  ebench compare -s ./benchmarks -f line1.yaml -f line2.yaml -t table

Score against every retrieved benchmark, not just the best match:
  ebench compare -s ./benchmarks -f audit.yaml --alternates --k 3`,
		Flags: withOutputFlags(append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:     "input",
				Aliases:  []string{"f"},
				Required: true,
				Usage:    "record file (JSON or YAML), http(s) URL, or - for stdin; repeat for several subjects",
			},
			&cli.IntFlag{
				Name:  "k",
				Usage: "number of benchmarks to retrieve (default from engine config)",
			},
			&cli.BoolFlag{
				Name:  "alternates",
				Usage: "also score the subject against lower-ranked benchmarks",
			},
			&cli.FloatFlag{
				Name:  "confidence-threshold",
				Usage: "confidence below which a result is flagged low confidence",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Value: defaults.CompareConcurrency,
				Usage: "parallel comparisons when several inputs are given",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: defaults.CompareTimeout,
				Usage: "deadline for the whole comparison run",
			},
		}, engineFlags()...)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			opts, err := compareOptions(cmd)
			if err != nil {
				return err
			}

			inputs := cmd.StringSlice("input")
			raws := make([]map[string]any, 0, len(inputs))
			for _, in := range inputs {
				raw, err := readRecord(in)
				if err != nil {
					return err
				}
				raws = append(raws, raw)
			}

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			eng, err := openEngine(ctx, cmd)
			if err != nil {
				return err
			}

			if len(raws) == 1 {
				res, report, err := eng.Compare(ctx, raws[0], opts...)
				if err != nil {
					if report != nil && !report.Valid {
						if werr := writeOutput(ctx, cmd, report); werr != nil {
							slog.Warn("failed to write validation report", "error", werr)
						}
					}
					return err
				}
				return writeOutput(ctx, cmd, res)
			}

			results, _, err := eng.CompareAll(ctx, raws, cmd.Int("concurrency"), opts...)
			if results != nil {
				if werr := writeOutput(ctx, cmd, &comparisons{Items: results}); werr != nil {
					return werr
				}
			}
			return err
		},
	}
}

func compareOptions(cmd *cli.Command) ([]comparator.Option, error) {
	var opts []comparator.Option
	if cmd.IsSet("k") {
		k := cmd.Int("k")
		if k <= 0 {
			return nil, eberrors.New(eberrors.ErrCodeInvalidRequest, "--k must be positive")
		}
		opts = append(opts, comparator.WithK(k))
	}
	if cmd.IsSet("alternates") {
		opts = append(opts, comparator.WithAlternates(cmd.Bool("alternates")))
	}
	if cmd.IsSet("confidence-threshold") {
		v := cmd.Float("confidence-threshold")
		if v < 0 || v > 1 {
			return nil, eberrors.New(eberrors.ErrCodeInvalidRequest, "--confidence-threshold must be within [0, 1]")
		}
		opts = append(opts, comparator.WithConfidenceThreshold(v))
	}
	return opts, nil
}
