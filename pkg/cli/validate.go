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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/validator"
)

// validation is the validate command output. Record is set only for valid
// input and carries the computed KPIs.
type validation struct {
	Record *record.CanonicalRecord `json:"record,omitempty" yaml:"record,omitempty"`
	Report *validator.Report       `json:"report" yaml:"report"`
}

func (v *validation) TableHeader() []string { return v.Report.TableHeader() }
func (v *validation) TableRows() [][]string { return v.Report.TableRows() }

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "validate",
		EnableShellCompletion: true,
		Usage:                 "Validate a candidate record against the schema registry",
		Description: `Check every field of a raw record against the schema and unit registry.

Field issues are reported with their dotted path and reason (missing, wrong_type,
out_of_range, unit_unconvertible). Quantities are converted to canonical units and
valid records are returned with their normalized KPIs.

# Examples

Validate a record extracted from a paper:
  ebench validate --input li2019.yaml

Read from stdin and fail when the record is invalid (useful in pipelines):
  cat record.json | ebench validate -f - --fail-on-error -t json`,
		Flags: withOutputFlags(append([]cli.Flag{
			inputFlag("record file (JSON or YAML), http(s) URL, or - for stdin"),
			&cli.BoolFlag{
				Name:  "fail-on-error",
				Usage: "exit with non-zero status when the record is invalid",
			},
		}, registryFlags()...)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			raw, err := readRecord(cmd.String("input"))
			if err != nil {
				return err
			}
			eng, err := openEngine(ctx, cmd)
			if err != nil {
				return err
			}

			rec, report, err := eng.Validator.Validate(ctx, raw)
			if err != nil {
				return err
			}
			out := &validation{Report: report}
			if report.Valid {
				out.Record = eng.Normalizer.Normalize(rec)
			}
			slog.Debug("record validated",
				"id", report.RecordID,
				"status", report.Summary.Status,
				"issues", report.Summary.Issues)

			if err := writeOutput(ctx, cmd, out); err != nil {
				return err
			}
			if cmd.Bool("fail-on-error") {
				return report.Err()
			}
			return nil
		},
	}
}
