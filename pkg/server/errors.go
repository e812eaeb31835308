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

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/serializer"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code eberrors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID := RequestID(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	errResp := ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	}

	serializer.RespondJSON(w, statusCode, errResp)
}

// WriteErrorFromErr maps err to a status code and writes the response.
// Errors without a structured code are reported as INTERNAL.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string, extraDetails map[string]any) {
	code := eberrors.ErrCodeInternal
	message := fallbackMessage
	details := make(map[string]any, len(extraDetails))

	var se *eberrors.StructuredError
	switch {
	case errors.As(err, &se):
		code = se.Code
		message = se.Message
		for k, v := range se.Context {
			details[k] = v
		}
		if se.Cause != nil {
			details["error"] = se.Cause.Error()
		}
	case errors.Is(err, context.DeadlineExceeded):
		code = eberrors.ErrCodeTimeout
		details["error"] = err.Error()
	case errors.Is(err, context.Canceled):
		code = eberrors.ErrCodeUnavailable
		details["error"] = err.Error()
	case err != nil:
		details["error"] = err.Error()
	}
	if message == "" {
		message = http.StatusText(HTTPStatusFromCode(code))
	}
	for k, v := range extraDetails {
		details[k] = v
	}
	if len(details) == 0 {
		details = nil
	}

	WriteError(w, r, HTTPStatusFromCode(code), code, message, RetryableFromCode(code), details)
}

// HTTPStatusFromCode returns the HTTP status for an error code.
func HTTPStatusFromCode(code eberrors.ErrorCode) int {
	switch code {
	case eberrors.ErrCodeInvalidRequest, eberrors.ErrCodeUnknownUnit, eberrors.ErrCodeUnitMismatch:
		return http.StatusBadRequest
	case eberrors.ErrCodeValidation, eberrors.ErrCodeInvalidSubject:
		return http.StatusUnprocessableEntity
	case eberrors.ErrCodeNotFound, eberrors.ErrCodeNoBenchmarkMatch:
		return http.StatusNotFound
	case eberrors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case eberrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case eberrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case eberrors.ErrCodeTimeout, eberrors.ErrCodeAdvisoryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// RetryableFromCode reports whether a client may retry a request that failed
// with code.
func RetryableFromCode(code eberrors.ErrorCode) bool {
	switch code {
	case eberrors.ErrCodeTimeout, eberrors.ErrCodeAdvisoryTimeout, eberrors.ErrCodeUnavailable,
		eberrors.ErrCodeRateLimitExceeded, eberrors.ErrCodeInternal:
		return true
	default:
		return false
	}
}
