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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/NVIDIA/energy-benchmark/pkg/defaults"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/serializer"
)

const (
	// DefaultOllamaHost is the local Ollama endpoint.
	DefaultOllamaHost = "http://localhost:11434"
	// DefaultOllamaModel is used when no model is configured.
	DefaultOllamaModel = "mistral"

	maxResponseBytes = 1 << 20
)

// OllamaJudge asks an Ollama server for a non-streamed completion.
type OllamaJudge struct {
	host   string
	model  string
	client *http.Client
}

// OllamaOption configures an OllamaJudge.
type OllamaOption func(*OllamaJudge)

// WithHost sets the server base URL.
func WithHost(host string) OllamaOption {
	return func(j *OllamaJudge) {
		if host != "" {
			j.host = strings.TrimRight(host, "/")
		}
	}
}

// WithModel sets the model name.
func WithModel(model string) OllamaOption {
	return func(j *OllamaJudge) {
		if model != "" {
			j.model = model
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) OllamaOption {
	return func(j *OllamaJudge) {
		if c != nil {
			j.client = c
		}
	}
}

// NewOllamaJudge creates a judge for an Ollama server.
func NewOllamaJudge(opts ...OllamaOption) *OllamaJudge {
	j := &OllamaJudge{
		host:   DefaultOllamaHost,
		model:  DefaultOllamaModel,
		client: serializer.NewHTTPClient(defaults.HTTPClientTimeout),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Annotate posts the prompt to /api/generate.
func (j *OllamaJudge) Annotate(ctx context.Context, req Request) (*Annotation, error) {
	body, err := json.Marshal(generateRequest{
		Model:  j.model,
		Prompt: BuildPrompt(req),
		System: SystemInstruction,
		Stream: false,
	})
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to encode advisory request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to create advisory request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(httpReq)
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeUnavailable, "advisory request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to read advisory response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eberrors.NewWithContext(eberrors.ErrCodeUnavailable,
			fmt.Sprintf("advisory server returned %s", resp.Status),
			map[string]any{"host": j.host, "model": j.model})
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to decode advisory response", err)
	}
	if out.Error != "" {
		return nil, eberrors.New(eberrors.ErrCodeUnavailable, "advisory server error: "+out.Error)
	}

	return &Annotation{
		Source: "ollama/" + j.model,
		Text:   strings.TrimSpace(out.Response),
	}, nil
}
