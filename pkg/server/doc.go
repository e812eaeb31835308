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

// Package server provides the HTTP server shell used by ebenchd.
//
// The server owns process concerns only: listening, graceful shutdown,
// health and readiness probes, Prometheus metrics and the middleware chain.
// API handlers are registered by the caller:
//
//	s := server.New(
//	    server.WithName("ebenchd"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "/v1/compare": h.HandleCompare,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// # Middleware
//
// Every registered handler runs behind, from outermost to innermost:
// metrics, API version negotiation, request ID, panic recovery, rate
// limiting and debug logging. System endpoints (/health, /ready, /metrics)
// bypass the chain.
//
// Request IDs are taken from the X-Request-Id header when it holds a UUID
// and generated otherwise. The ID is echoed in the response header and in
// every error body.
//
// # Errors
//
// Handlers report failures with WriteErrorFromErr, which maps the
// structured error code of pkg/errors to an HTTP status:
//
//	{
//	  "code": "VALIDATION_FAILED",
//	  "message": "record failed validation: metadata.source_id (missing)",
//	  "requestId": "4f0c...",
//	  "timestamp": "2026-01-02T15:04:05Z",
//	  "retryable": false
//	}
//
// # Environment
//
//	PORT                      listen port (default 8080)
//	SHUTDOWN_TIMEOUT_SECONDS  graceful shutdown budget (default 30)
//
// When started under systemd with Type=notify, Run reports readiness and
// stopping through the notification socket.
package server
