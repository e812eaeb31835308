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

package defaults

import "time"

// Engine timeouts.
const (
	// AdvisoryTimeout bounds a single advisory judge call.
	// A timeout becomes a note on the comparison result, never an error.
	AdvisoryTimeout = 20 * time.Second

	// AdvisoryRatePerSecond is the sustained advisory call rate.
	AdvisoryRatePerSecond = 2

	// AdvisoryBurst is the advisory rate limiter burst size.
	AdvisoryBurst = 4

	// CompareTimeout is the CLI deadline for a full comparison run.
	CompareTimeout = 60 * time.Second

	// CompareConcurrency is the default worker count for batch comparisons.
	CompareConcurrency = 4
)

// Handler timeouts for HTTP request processing.
const (
	// ValidateHandlerTimeout is the timeout for record validation requests.
	ValidateHandlerTimeout = 10 * time.Second

	// CompareHandlerTimeout is the timeout for comparison requests.
	// Longer than validation because it may wait on the advisory judge.
	CompareHandlerTimeout = 45 * time.Second

	// BenchmarkHandlerTimeout is the timeout for benchmark library requests.
	BenchmarkHandlerTimeout = 30 * time.Second

	// MaxRequestBodyBytes caps request bodies accepted by the API.
	MaxRequestBodyBytes = 1 << 20
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 60 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second

	// ServerReadinessTimeout bounds the readiness probe run by /ready.
	ServerReadinessTimeout = 3 * time.Second
)

// Kubernetes timeouts for K8s API operations.
const (
	// K8sStoreTimeout is the timeout for a single ConfigMap store call.
	K8sStoreTimeout = 15 * time.Second

	// K8sStoreListTimeout is the timeout for listing ConfigMaps.
	K8sStoreListTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second

	// HTTPExpectContinueTimeout is the timeout for Expect: 100-continue.
	HTTPExpectContinueTimeout = 1 * time.Second
)
