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

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
)

// DefaultTimeColumn is the name of the elapsed time column in seconds.
const DefaultTimeColumn = "elapsedTime"

// Frame is a parsed power trace.
type Frame struct {
	// TimeColumn is the name of the time column.
	TimeColumn string
	// Time holds the elapsed time of every sample in seconds.
	Time []float64

	columns map[string][]float64
	order   []string
}

// Columns returns the variable names in file order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Column returns the samples of a variable.
func (f *Frame) Column(name string) ([]float64, bool) {
	v, ok := f.columns[name]
	return v, ok
}

// Len returns the number of samples.
func (f *Frame) Len() int {
	return len(f.Time)
}

// Duration returns the elapsed time between the first and last sample.
func (f *Frame) Duration() float64 {
	if len(f.Time) == 0 {
		return 0
	}
	return f.Time[len(f.Time)-1] - f.Time[0]
}

// ReadFile parses a CSV trace from path with the default time column.
// Spreadsheet formats are rejected.
func ReadFile(path string) (*Frame, error) {
	return ReadFileWithTimeColumn(path, DefaultTimeColumn)
}

// ReadFileWithTimeColumn parses a CSV trace whose time column is timeColumn.
func ReadFileWithTimeColumn(path, timeColumn string) (*Frame, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
	case ".xlsx", ".xls":
		return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
			"spreadsheet datasets are not supported, export the sheet as CSV", map[string]any{"path": path})
	default:
		return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
			"unsupported dataset format", map[string]any{"path": path, "extension": ext})
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeNotFound, "failed to open dataset", err)
	}
	defer fh.Close()
	return Parse(fh, timeColumn)
}

// Parse reads a CSV trace. The first row names the columns; every other cell
// must be numeric. Time must not decrease between samples.
func Parse(r io.Reader, timeColumn string) (*Frame, error) {
	if timeColumn == "" {
		timeColumn = DefaultTimeColumn
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "failed to read CSV headers", err)
	}

	timeIdx := -1
	f := &Frame{TimeColumn: timeColumn, columns: make(map[string][]float64)}
	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if names[i] == timeColumn {
			timeIdx = i
			continue
		}
		if _, dup := f.columns[names[i]]; dup {
			return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
				"duplicate dataset column", map[string]any{"column": names[i]})
		}
		f.columns[names[i]] = nil
		f.order = append(f.order, names[i])
	}
	if timeIdx < 0 {
		return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("time column %q not found in data", timeColumn), map[string]any{"columns": names})
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eberrors.Wrap(eberrors.ErrCodeInvalidRequest, fmt.Sprintf("failed to read CSV line %d", line), err)
		}
		for i, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, eberrors.WrapWithContext(eberrors.ErrCodeInvalidRequest, "non-numeric dataset value", err,
					map[string]any{"line": line, "column": names[i], "value": cell})
			}
			if i == timeIdx {
				if n := len(f.Time); n > 0 && v < f.Time[n-1] {
					return nil, eberrors.NewWithContext(eberrors.ErrCodeInvalidRequest,
						"dataset time decreases", map[string]any{"line": line, "time": v})
				}
				f.Time = append(f.Time, v)
				continue
			}
			f.columns[names[i]] = append(f.columns[names[i]], v)
		}
	}

	if len(f.Time) < 2 {
		return nil, eberrors.New(eberrors.ErrCodeInvalidRequest, "dataset needs at least two samples")
	}
	return f, nil
}
