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
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/energy-benchmark/pkg/dataset"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

func datasetCmd() *cli.Command {
	return &cli.Command{
		Name:                  "dataset",
		EnableShellCompletion: true,
		Usage:                 "Reduce measured CSV power traces",
		Description: `Read a CSV power trace with an elapsed time column (seconds) and power columns
(W), and reduce it to per-variable statistics, integrated energy and duty cycle.

The record subcommand turns the reduction into a measurement-sourced candidate
record which can be validated or compared against the benchmark library.`,
		Commands: []*cli.Command{
			datasetSummarizeCmd(),
			datasetRecordCmd(),
		},
	}
}

func traceFlags() []cli.Flag {
	return []cli.Flag{
		inputFlag("CSV power trace"),
		&cli.StringFlag{
			Name:  "time-column",
			Value: dataset.DefaultTimeColumn,
			Usage: "name of the elapsed time column in seconds",
		},
		&cli.StringSliceFlag{
			Name:  "group",
			Usage: "named group of power columns, name=col1,col2; repeatable (default: all columns)",
		},
		&cli.FloatFlag{
			Name:  "active-threshold",
			Value: dataset.DefaultActiveThreshold,
			Usage: "share of the mean power above which a sample counts as active",
		},
	}
}

// summarizeTrace reads and reduces the trace named by the command flags.
func summarizeTrace(cmd *cli.Command) (*dataset.Summary, error) {
	groups, err := parseGroups(cmd.StringSlice("group"))
	if err != nil {
		return nil, err
	}
	opts := []dataset.Option{
		dataset.WithActiveThreshold(cmd.Float("active-threshold")),
		dataset.WithVersion(version),
	}
	for _, g := range groups {
		opts = append(opts, dataset.WithGroup(g.name, g.columns...))
	}

	f, err := dataset.ReadFileWithTimeColumn(cmd.String("input"), cmd.String("time-column"))
	if err != nil {
		return nil, err
	}
	return dataset.Summarize(f, opts...)
}

type columnGroup struct {
	name    string
	columns []string
}

// parseGroups reads "name=col1,col2" values in flag order. A value without
// "=" continues the previous group, so comma-split slices parse the same.
func parseGroups(values []string) ([]columnGroup, error) {
	var out []columnGroup
	for _, v := range values {
		name, cols, ok := strings.Cut(v, "=")
		if !ok {
			if len(out) == 0 {
				return nil, eberrors.New(eberrors.ErrCodeInvalidRequest,
					fmt.Sprintf("invalid --group value %q, expected name=col1,col2", v))
			}
			last := &out[len(out)-1]
			last.columns = append(last.columns, splitColumns(v)...)
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, eberrors.New(eberrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid --group value %q, group name is empty", v))
		}
		out = append(out, columnGroup{name: name, columns: splitColumns(cols)})
	}
	for _, g := range out {
		if len(g.columns) == 0 {
			return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
				"group needs at least one column", map[string]any{"group": g.name})
		}
	}
	return out, nil
}

func splitColumns(s string) []string {
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func datasetSummarizeCmd() *cli.Command {
	return &cli.Command{
		Name:  "summarize",
		Usage: "Compute statistics and energy of a power trace",
		Flags: withOutputFlags(traceFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			s, err := summarizeTrace(cmd)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, s)
		},
	}
}

func datasetRecordCmd() *cli.Command {
	flags := append(traceFlags(),
		&cli.StringFlag{
			Name:     "source-id",
			Required: true,
			Usage:    "id of the measured record",
		},
		&cli.StringFlag{
			Name:     "category",
			Required: true,
			Usage:    "process category of the measured machine",
		},
		&cli.StringFlag{Name: "machine-model", Usage: "machine model"},
		&cli.StringFlag{Name: "material", Usage: "workpiece material"},
		&cli.StringFlag{Name: "description", Usage: "free-text description of the run"},
		&cli.FloatFlag{Name: "output-quantity", Usage: "number of parts produced during the trace"},
		&cli.StringSliceFlag{
			Name:  "param",
			Usage: "process parameter with unit, name=\"8000 rpm\"; repeatable",
		},
		&cli.BoolFlag{
			Name:  "compare",
			Usage: "compare the record against the library instead of printing it",
		},
	)
	return &cli.Command{
		Name:  "record",
		Usage: "Turn a power trace into a candidate record",
		Flags: withOutputFlags(append(flags, engineFlags()...)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			cat, err := schema.ParseCategory(cmd.String("category"))
			if err != nil {
				return eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "invalid --category", err)
			}
			params, err := parsePairs("param", cmd.StringSlice("param"))
			if err != nil {
				return err
			}
			s, err := summarizeTrace(cmd)
			if err != nil {
				return err
			}

			md := dataset.Metadata{
				SourceID:     cmd.String("source-id"),
				Category:     cat,
				MachineModel: cmd.String("machine-model"),
				Material:     cmd.String("material"),
				Description:  cmd.String("description"),
			}
			if cmd.IsSet("output-quantity") {
				md.OutputQuantity = ptr.To(cmd.Float("output-quantity"))
			}
			if len(params) > 0 {
				md.Parameters = make(map[string]any, len(params))
				for k, v := range params {
					md.Parameters[k] = v
				}
			}
			raw := s.ToRaw(md)

			if !cmd.Bool("compare") {
				return writeOutput(ctx, cmd, raw)
			}
			eng, err := openEngine(ctx, cmd)
			if err != nil {
				return err
			}
			res, report, err := eng.Compare(ctx, raw)
			if err != nil {
				if report != nil && !report.Valid {
					if werr := writeOutput(ctx, cmd, report); werr != nil {
						slog.Warn("failed to write validation report", "error", werr)
					}
				}
				return err
			}
			return writeOutput(ctx, cmd, res)
		},
	}
}
