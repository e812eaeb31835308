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
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/NVIDIA/energy-benchmark/pkg/comparator"
	"github.com/NVIDIA/energy-benchmark/pkg/defaults"
	"github.com/NVIDIA/energy-benchmark/pkg/engine"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/library"
	"github.com/NVIDIA/energy-benchmark/pkg/record"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/NVIDIA/energy-benchmark/pkg/serializer"
	"github.com/NVIDIA/energy-benchmark/pkg/server"
	"github.com/NVIDIA/energy-benchmark/pkg/validator"
)

// Handler serves the engine over HTTP.
type Handler struct {
	engine  *engine.Engine
	version string
}

// NewHandler creates a Handler over e.
func NewHandler(e *engine.Engine, version string) *Handler {
	return &Handler{engine: e, version: version}
}

// Routes returns the API routes keyed by method and pattern.
func (h *Handler) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"POST /v1/validate":          h.HandleValidate,
		"POST /v1/compare":           h.HandleCompare,
		"GET /v1/benchmarks":         h.HandleListBenchmarks,
		"POST /v1/benchmarks":        h.HandleAddBenchmark,
		"GET /v1/benchmarks/{id}":    h.HandleGetBenchmark,
		"DELETE /v1/benchmarks/{id}": h.HandleDeleteBenchmark,
	}
}

// ValidateResponse is the body of a validate reply.
type ValidateResponse struct {
	Record *record.CanonicalRecord `json:"record"`
	Report *validator.Report       `json:"report"`
}

// AddBenchmarkResponse is the body of an add benchmark reply.
type AddBenchmarkResponse struct {
	ID     string            `json:"id"`
	Report *validator.Report `json:"report"`
}

// HandleValidate handles POST /v1/validate. An invalid record is not an
// error: the report says what is wrong.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ValidateHandlerTimeout)
	defer cancel()

	raw, ok := readRecord(w, r)
	if !ok {
		return
	}

	rec, report, err := h.engine.Validator.Validate(ctx, raw)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to validate record", nil)
		return
	}
	if rec.Valid {
		rec = h.engine.Normalizer.Normalize(rec)
	}
	serializer.RespondJSON(w, http.StatusOK, ValidateResponse{Record: rec, Report: report})
}

// HandleCompare handles POST /v1/compare.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.CompareHandlerTimeout)
	defer cancel()

	opts, err := compareOptions(r)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid compare parameters", nil)
		return
	}

	raw, ok := readRecord(w, r)
	if !ok {
		return
	}

	res, _, err := h.engine.Compare(ctx, raw, opts...)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to compare record", nil)
		return
	}

	slog.Debug("comparison served",
		"subject", res.SubjectID,
		"benchmark", res.BenchmarkID,
		"score", res.Score,
		"confidence", res.Confidence)
	serializer.RespondJSON(w, http.StatusOK, res)
}

func compareOptions(r *http.Request) ([]comparator.Option, error) {
	var opts []comparator.Option
	q := r.URL.Query()
	if s := q.Get("k"); s != "" {
		k, err := strconv.Atoi(s)
		if err != nil || k < 1 {
			return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
				"k must be a positive integer", map[string]any{"k": s})
		}
		opts = append(opts, comparator.WithK(k))
	}
	if s := q.Get("alternates"); s != "" {
		on, err := strconv.ParseBool(s)
		if err != nil {
			return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
				"alternates must be a boolean", map[string]any{"alternates": s})
		}
		opts = append(opts, comparator.WithAlternates(on))
	}
	return opts, nil
}

// HandleListBenchmarks handles GET /v1/benchmarks.
func (h *Handler) HandleListBenchmarks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.BenchmarkHandlerTimeout)
	defer cancel()

	lib := h.engine.Library
	q := r.URL.Query()

	var items []*index.Entry
	if query := q.Get("q"); query != "" {
		items = lib.Search(query)
	} else {
		var cat schema.Category
		if s := q.Get("category"); s != "" {
			c, err := schema.ParseCategory(s)
			if err != nil {
				server.WriteErrorFromErr(w, r,
					eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "invalid category", err), "Invalid category", nil)
				return
			}
			cat = c
		}
		var err error
		if items, err = lib.ListBenchmarks(ctx, cat); err != nil {
			server.WriteErrorFromErr(w, r, err, "Failed to list benchmarks", nil)
			return
		}
	}

	serializer.RespondJSON(w, http.StatusOK, library.NewBenchmarkList(items, h.version))
}

// HandleAddBenchmark handles POST /v1/benchmarks.
func (h *Handler) HandleAddBenchmark(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.BenchmarkHandlerTimeout)
	defer cancel()

	raw, ok := readRecord(w, r)
	if !ok {
		return
	}

	id, report, err := h.engine.Library.AddBenchmark(ctx, raw)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to add benchmark", nil)
		return
	}
	w.Header().Set("Location", "/v1/benchmarks/"+id)
	serializer.RespondJSON(w, http.StatusCreated, AddBenchmarkResponse{ID: id, Report: report})
}

// HandleGetBenchmark handles GET /v1/benchmarks/{id}.
func (h *Handler) HandleGetBenchmark(w http.ResponseWriter, r *http.Request) {
	e, err := h.engine.Library.Get(r.PathValue("id"))
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to get benchmark", nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, e)
}

// HandleDeleteBenchmark handles DELETE /v1/benchmarks/{id}.
func (h *Handler) HandleDeleteBenchmark(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.BenchmarkHandlerTimeout)
	defer cancel()

	if err := h.engine.Library.RemoveBenchmark(ctx, r.PathValue("id")); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to remove benchmark", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readRecord decodes a raw record body, writing the error reply on failure.
func readRecord(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	defer r.Body.Close()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, defaults.MaxRequestBodyBytes))
	if err != nil {
		server.WriteErrorFromErr(w, r,
			eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "failed to read request body", err),
			"Invalid request body", nil)
		return nil, false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		server.WriteError(w, r, http.StatusBadRequest, eberrors.ErrCodeInvalidRequest,
			"Request body cannot be empty", false, nil)
		return nil, false
	}

	raw, err := serializer.Decode[map[string]any](bodyFormat(r.Header.Get("Content-Type")), data)
	if err != nil {
		server.WriteErrorFromErr(w, r,
			eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "failed to decode record", err),
			"Invalid request body", nil)
		return nil, false
	}
	return *raw, true
}

func bodyFormat(contentType string) serializer.Format {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "yaml") {
		return serializer.FormatYAML
	}
	return serializer.FormatJSON
}
