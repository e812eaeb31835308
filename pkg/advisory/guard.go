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

package advisory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/NVIDIA/energy-benchmark/pkg/defaults"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"golang.org/x/time/rate"
)

// Guard wraps a judge with a per-call timeout and a rate limit.
// Every failure is returned as an ADVISORY_TIMEOUT error.
type Guard struct {
	judge   Judge
	timeout time.Duration
	limiter *rate.Limiter
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithTimeout bounds each call, including time spent waiting for the limiter.
func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRateLimit sets the sustained calls per second and burst.
func WithRateLimit(perSecond float64, burst int) GuardOption {
	return func(g *Guard) {
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewGuard wraps judge with the default advisory timeout and rate limit.
func NewGuard(judge Judge, opts ...GuardOption) *Guard {
	g := &Guard{
		judge:   judge,
		timeout: defaults.AdvisoryTimeout,
		limiter: rate.NewLimiter(rate.Limit(defaults.AdvisoryRatePerSecond), defaults.AdvisoryBurst),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Annotate calls the wrapped judge within the guard's bounds.
func (g *Guard) Annotate(ctx context.Context, req Request) (*Annotation, error) {
	if g.judge == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		advisoryCalls.WithLabelValues("rate_limited").Inc()
		return nil, eberrors.Wrap(eberrors.ErrCodeAdvisoryTimeout, "advisory call rate limited", err)
	}

	type result struct {
		ann *Annotation
		err error
	}
	done := make(chan result, 1)
	go func() {
		ann, err := g.judge.Annotate(ctx, req)
		done <- result{ann, err}
	}()

	select {
	case <-ctx.Done():
		advisoryCalls.WithLabelValues("timeout").Inc()
		return nil, eberrors.WrapWithContext(eberrors.ErrCodeAdvisoryTimeout,
			"advisory call did not complete", ctx.Err(),
			map[string]any{"timeout": g.timeout.String()})
	case r := <-done:
		advisoryDuration.Observe(time.Since(start).Seconds())
		if r.err != nil {
			outcome := "error"
			if errors.Is(r.err, context.DeadlineExceeded) {
				outcome = "timeout"
			}
			advisoryCalls.WithLabelValues(outcome).Inc()
			return nil, eberrors.Wrap(eberrors.ErrCodeAdvisoryTimeout, "advisory call failed", r.err)
		}
		advisoryCalls.WithLabelValues("ok").Inc()
		slog.Debug("advisory annotation received", "duration", time.Since(start))
		return r.ann, nil
	}
}
