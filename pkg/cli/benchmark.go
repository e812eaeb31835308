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

	"github.com/NVIDIA/energy-benchmark/pkg/engine"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/library"
	"github.com/NVIDIA/energy-benchmark/pkg/oci"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/NVIDIA/energy-benchmark/pkg/validator"
)

// added is one line of the benchmark add output.
type added struct {
	ID     string            `json:"id" yaml:"id"`
	Report *validator.Report `json:"report" yaml:"report"`
}

type addedList struct {
	Items []added `json:"items" yaml:"items"`
}

func (a *addedList) TableHeader() []string { return []string{"ID", "STATUS", "ISSUES"} }

func (a *addedList) TableRows() [][]string {
	rows := make([][]string, 0, len(a.Items))
	for _, it := range a.Items {
		rows = append(rows, []string{it.ID, string(it.Report.Summary.Status), strconv.Itoa(it.Report.Summary.Issues)})
	}
	return rows
}

type removed struct {
	ID      string `json:"id" yaml:"id"`
	Removed bool   `json:"removed" yaml:"removed"`
}

func benchmarkCmd() *cli.Command {
	return &cli.Command{
		Name:                  "benchmark",
		EnableShellCompletion: true,
		Usage:                 "Manage the literature benchmark library",
		Description: `Add, inspect, deprecate and remove literature benchmarks, and exchange the
library with an OCI registry.

Records are validated and normalized before they are stored. Stored documents are
re-validated against the current registry every time the library is loaded.`,
		Commands: []*cli.Command{
			benchmarkAddCmd(),
			benchmarkListCmd(),
			benchmarkGetCmd(),
			benchmarkSearchCmd(),
			benchmarkDeprecateCmd(),
			benchmarkRemoveCmd(),
			benchmarkPublishCmd(),
			benchmarkPullCmd(),
		},
	}
}

// withEngine opens the engine from the command flags and runs fn.
func withEngine(fn func(ctx context.Context, cmd *cli.Command, eng *engine.Engine) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if _, err := parseOutputFormat(cmd); err != nil {
			return err
		}
		eng, err := openEngine(ctx, cmd)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, eng)
	}
}

func benchmarkAddCmd() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Validate records and add them to the library",
		Flags: withOutputFlags(append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:     "input",
				Aliases:  []string{"f"},
				Required: true,
				Usage:    "record file (JSON or YAML), http(s) URL, or - for stdin; repeatable",
			},
		}, engineFlags()...)...),
		Action: withEngine(func(ctx context.Context, cmd *cli.Command, eng *engine.Engine) error {
			out := &addedList{}
			for _, in := range cmd.StringSlice("input") {
				raw, err := readRecord(in)
				if err != nil {
					return err
				}
				id, report, err := eng.Library.AddBenchmark(ctx, raw)
				if err != nil {
					if report != nil {
						if werr := writeOutput(ctx, cmd, report); werr != nil {
							slog.Warn("failed to write validation report", "error", werr)
						}
					}
					return err
				}
				out.Items = append(out.Items, added{ID: id, Report: report})
			}
			return writeOutput(ctx, cmd, out)
		}),
	}
}

func benchmarkListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List benchmarks, optionally of one process category",
		Flags: withOutputFlags(append([]cli.Flag{
			&cli.StringFlag{
				Name:  "category",
				Usage: "process category (milling, turning, grinding, drilling, laser_cutting)",
			},
		}, engineFlags()...)...),
		Action: withEngine(func(ctx context.Context, cmd *cli.Command, eng *engine.Engine) error {
			var cat schema.Category
			if c := cmd.String("category"); c != "" {
				parsed, err := schema.ParseCategory(c)
				if err != nil {
					return eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "invalid --category", err)
				}
				cat = parsed
			}
			items, err := eng.Library.ListBenchmarks(ctx, cat)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, library.NewBenchmarkList(items, version))
		}),
	}
}

func benchmarkGetCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one benchmark",
		ArgsUsage: "<id>",
		Flags:     withOutputFlags(engineFlags()...),
		Action: withEngine(func(ctx context.Context, cmd *cli.Command, eng *engine.Engine) error {
			id, err := requireArg(cmd, "benchmark id")
			if err != nil {
				return err
			}
			e, err := eng.Library.Get(id)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, e)
		}),
	}
}

func benchmarkSearchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find benchmarks by title or author",
		ArgsUsage: "<query>",
		Flags:     withOutputFlags(engineFlags()...),
		Action: withEngine(func(ctx context.Context, cmd *cli.Command, eng *engine.Engine) error {
			q, err := requireArg(cmd, "search query")
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, library.NewBenchmarkList(eng.Library.Search(q), version))
		}),
	}
}

func benchmarkDeprecateCmd() *cli.Command {
	return &cli.Command{
		Name:      "deprecate",
		Usage:     "Exclude a benchmark from comparisons",
		ArgsUsage: "<id>",
		Flags: withOutputFlags(append([]cli.Flag{
			&cli.StringFlag{
				Name:  "superseded-by",
				Usage: "id of the benchmark that replaces this one",
			},
		}, engineFlags()...)...),
		Action: withEngine(func(ctx context.Context, cmd *cli.Command, eng *engine.Engine) error {
			id, err := requireArg(cmd, "benchmark id")
			if err != nil {
				return err
			}
			e, err := eng.Library.Deprecate(ctx, id, cmd.String("superseded-by"))
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, e)
		}),
	}
}

func benchmarkRemoveCmd() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Delete a benchmark from the library",
		ArgsUsage: "<id>",
		Flags:     withOutputFlags(engineFlags()...),
		Action: withEngine(func(ctx context.Context, cmd *cli.Command, eng *engine.Engine) error {
			id, err := requireArg(cmd, "benchmark id")
			if err != nil {
				return err
			}
			if err := eng.Library.RemoveBenchmark(ctx, id); err != nil {
				return err
			}
			slog.Info("benchmark removed", "id", id)
			return writeOutput(ctx, cmd, &removed{ID: id, Removed: true})
		}),
	}
}

func registryTransportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "plain-http",
			Usage: "use HTTP instead of HTTPS (local development registries)",
		},
		&cli.BoolFlag{
			Name:  "insecure-tls",
			Usage: "skip TLS certificate verification",
		},
	}
}

func benchmarkPublishCmd() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Push the library to an OCI registry",
		ArgsUsage: "oci://registry/repository[:tag]",
		Description: `Pack every stored benchmark as one layer of an OCI artifact and push it.

When no tag is given "latest" is used. Credentials come from the Docker config
(~/.docker/config.json).

# Examples

  ebench benchmark publish -s ./benchmarks oci://ghcr.io/nvidia/benchmarks:v1
  ebench benchmark publish -s ./benchmarks oci://localhost:5000/benchmarks --plain-http`,
		Flags: withOutputFlags(append(append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:  "annotation",
				Usage: "extra manifest annotation key=value; repeatable",
			},
		}, registryTransportFlags()...), engineFlags()...)...),
		Action: withEngine(func(ctx context.Context, cmd *cli.Command, eng *engine.Engine) error {
			target, err := requireArg(cmd, "OCI reference")
			if err != nil {
				return err
			}
			ref, err := oci.ParseReference(target)
			if err != nil {
				return err
			}
			ann, err := parsePairs("annotation", cmd.StringSlice("annotation"))
			if err != nil {
				return err
			}
			res, err := oci.Publish(ctx, eng.Library.Store(), ref, oci.PublishOptions{
				Version:     version,
				Annotations: ann,
				PlainHTTP:   cmd.Bool("plain-http"),
				InsecureTLS: cmd.Bool("insecure-tls"),
			})
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, res)
		}),
	}
}

func benchmarkPullCmd() *cli.Command {
	return &cli.Command{
		Name:      "pull",
		Usage:     "Fetch a published library into the store",
		ArgsUsage: "oci://registry/repository[:tag]",
		Flags:     withOutputFlags(append(registryTransportFlags(), engineFlags()...)...),
		Action: withEngine(func(ctx context.Context, cmd *cli.Command, eng *engine.Engine) error {
			target, err := requireArg(cmd, "OCI reference")
			if err != nil {
				return err
			}
			ref, err := oci.ParseReference(target)
			if err != nil {
				return err
			}
			res, err := oci.Pull(ctx, ref, eng.Library.Store(), oci.PublishOptions{
				PlainHTTP:   cmd.Bool("plain-http"),
				InsecureTLS: cmd.Bool("insecure-tls"),
			})
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, res)
		}),
	}
}
