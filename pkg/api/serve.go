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

package api

import (
	"context"
	"log/slog"

	"github.com/NVIDIA/energy-benchmark/pkg/engine"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/logging"
	"github.com/NVIDIA/energy-benchmark/pkg/server"
)

const (
	name           = "ebenchd"
	versionDefault = "dev"
)

// readinessProbeID is looked up in the store to check it is reachable.
const readinessProbeID = "ebenchd-readiness-probe"

var (
	// overridden during build with ldflags, e.g.
	// -X "github.com/NVIDIA/energy-benchmark/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the API server and blocks until shutdown.
func Serve() error {
	return ServeContext(context.Background())
}

// ServeContext is Serve with a parent context.
func ServeContext(ctx context.Context) error {
	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	opts := engine.OptionsFromEnv()
	opts.Version = version
	eng, err := engine.Open(ctx, opts)
	if err != nil {
		slog.Error("failed to open engine", "error", err)
		return err
	}

	s := server.New(
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(NewHandler(eng, version).Routes()),
		server.WithReadinessCheck(func(ctx context.Context) error {
			_, err := eng.Library.Store().Get(ctx, readinessProbeID)
			if eberrors.IsCode(err, eberrors.ErrCodeNotFound) {
				return nil
			}
			return err
		}),
	)

	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}
