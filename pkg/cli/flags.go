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
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/energy-benchmark/pkg/engine"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/serializer"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("output format (supported: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func inputFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"f"},
		Required: true,
		Usage:    usage,
	}
}

func storeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "store",
		Aliases: []string{"s"},
		Usage: `benchmark store: a directory, "mem://" or "cm://<namespace>".
	Defaults to an empty in-memory store.`,
		Sources: cli.EnvVars(engine.EnvStore),
	}
}

func registryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "registry",
			Usage:   "schema and unit registry YAML (default: built-in registry)",
			Sources: cli.EnvVars(engine.EnvRegistry),
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "engine config YAML with retrieval, tolerance and weight overrides",
			Sources: cli.EnvVars(engine.EnvConfig),
		},
	}
}

func engineFlags() []cli.Flag {
	return append([]cli.Flag{
		storeFlag(),
		&cli.StringFlag{
			Name:    "advisory-url",
			Usage:   "Ollama host for advisory annotations (disabled when empty)",
			Sources: cli.EnvVars(engine.EnvAdvisoryURL),
		},
		&cli.StringFlag{
			Name:    "advisory-model",
			Usage:   "model used by the advisory host",
			Sources: cli.EnvVars(engine.EnvAdvisoryModel),
		},
	}, registryFlags()...)
}

func withOutputFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, outputFlag(), formatFlag())
}

// parseOutputFormat returns the --format value as a serializer.Format.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	return serializer.ParseFormat(cmd.String("format"))
}

// writeOutput serializes v to --output in --format.
func writeOutput(ctx context.Context, cmd *cli.Command, v any) error {
	f, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	ser := serializer.NewFileWriterOrStdout(f, cmd.String("output"))
	defer func() {
		if closer, ok := ser.(serializer.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close serializer", "error", err)
			}
		}
	}()
	if err := ser.Serialize(ctx, v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// openEngine wires the engine from the command flags.
func openEngine(ctx context.Context, cmd *cli.Command) (*engine.Engine, error) {
	return engine.Open(ctx, engine.Options{
		StoreURI:      cmd.String("store"),
		ConfigPath:    cmd.String("config"),
		RegistryPath:  cmd.String("registry"),
		AdvisoryURL:   cmd.String("advisory-url"),
		AdvisoryModel: cmd.String("advisory-model"),
		Version:       version,
	})
}

// readRecord loads a raw record from a JSON or YAML file, an http(s) URL or
// stdin ("-"). Stdin is decoded as YAML, which also accepts JSON.
func readRecord(path string) (map[string]any, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "failed to read record from stdin", err)
		}
		return decodeRecord(serializer.FormatYAML, data, "stdin")
	}
	raw, err := serializer.FromFile[map[string]any](path)
	if err != nil {
		return nil, eberrors.WrapWithContext(eberrors.ErrCodeInvalidRequest, "failed to load record", err,
			map[string]any{"path": path})
	}
	if *raw == nil {
		return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest, "record is empty",
			map[string]any{"path": path})
	}
	return *raw, nil
}

func decodeRecord(format serializer.Format, data []byte, source string) (map[string]any, error) {
	raw, err := serializer.Decode[map[string]any](format, data)
	if err != nil {
		return nil, eberrors.WrapWithContext(eberrors.ErrCodeInvalidRequest, "failed to decode record", err,
			map[string]any{"source": source})
	}
	if *raw == nil {
		return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest, "record is empty",
			map[string]any{"source": source})
	}
	return *raw, nil
}

// parsePairs splits "key=value" arguments.
func parsePairs(flag string, values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		k, val, ok := strings.Cut(v, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid --%s value %q, expected key=value", flag, v), map[string]any{"flag": flag})
		}
		out[k] = strings.TrimSpace(val)
	}
	return out, nil
}

// requireArg returns the first positional argument.
func requireArg(cmd *cli.Command, what string) (string, error) {
	arg := strings.TrimSpace(cmd.Args().First())
	if arg == "" {
		return "", eberrors.New(eberrors.ErrCodeInvalidRequest, fmt.Sprintf("%s argument is required", what))
	}
	return arg, nil
}
