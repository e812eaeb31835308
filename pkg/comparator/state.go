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

package comparator

import (
	"fmt"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
)

// Phase is the state of a comparison.
type Phase string

const (
	PhaseIdle       Phase = ""
	PhaseRetrieving Phase = "retrieving"
	PhaseScoring    Phase = "scoring"
	PhaseDone       Phase = "done"
)

var transitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseRetrieving},
	PhaseRetrieving: {PhaseScoring, PhaseDone},
	PhaseScoring:    {PhaseDone},
}

// tracker enforces the phase order of a single comparison.
type tracker struct {
	phase Phase
}

func (t *tracker) advance(to Phase) error {
	for _, allowed := range transitions[t.phase] {
		if allowed == to {
			t.phase = to
			return nil
		}
	}
	return eberrors.New(eberrors.ErrCodeInternal,
		fmt.Sprintf("invalid comparison phase transition %q -> %q", t.phase, to))
}
