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

package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Serializer writes a value somewhere.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Closer is implemented by serializers holding resources.
type Closer interface {
	Close() error
}

// Tabular is implemented by values with their own table layout.
type Tabular interface {
	TableHeader() []string
	TableRows() [][]string
}

// Writer serializes values to an io.Writer.
type Writer struct {
	format Format
	output io.Writer
	closer io.Closer
}

// NewWriter creates a Writer. A nil output writes to stdout and an unknown
// format falls back to JSON.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", format)
		format = FormatJSON
	}
	return &Writer{format: format, output: output}
}

// NewStdoutWriter creates a Writer for stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, os.Stdout)
}

// NewFileWriterOrStdout creates a Writer for path, or for stdout when path is
// empty or "-". A file that cannot be created also falls back to stdout.
// Close releases the file.
func NewFileWriterOrStdout(format Format, path string) Serializer {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return NewStdoutWriter(format)
	}
	f, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create output file, writing to stdout", "error", err, "path", path)
		return NewStdoutWriter(format)
	}
	w := NewWriter(format, f)
	w.closer = f
	return w
}

// Close closes the underlying file, if any. It is safe to call twice.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}

// Serialize writes v in the configured format.
func (w *Writer) Serialize(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Marshal(w.format, v)
	if err != nil {
		return err
	}
	if _, err := w.output.Write(data); err != nil {
		return fmt.Errorf("failed to write %s output: %w", w.format, err)
	}
	return nil
}

// Marshal encodes v in format.
func Marshal(format Format, v any) ([]byte, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to serialize to JSON: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to serialize to YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to serialize to YAML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTable:
		return marshalTable(v)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func marshalTable(v any) ([]byte, error) {
	var header []string
	var rows [][]string

	if t, ok := v.(Tabular); ok {
		header, rows = t.TableHeader(), t.TableRows()
	} else {
		flat, err := flatten(v)
		if err != nil {
			return nil, err
		}
		header = []string{"FIELD", "VALUE"}
		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []string{k, flat[k]})
		}
	}
	if len(rows) == 0 {
		return []byte("<empty>\n"), nil
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	dashes := make([]string, len(header))
	for i, h := range header {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush table: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten renders v through its JSON form so keys follow the json tags.
func flatten(v any) (map[string]string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize table: %w", err)
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("failed to serialize table: %w", err)
	}
	out := make(map[string]string)
	flattenValue(out, generic, "")
	return out, nil
}

func flattenValue(out map[string]string, v any, prefix string) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			flattenValue(out, child, joinKey(prefix, k))
		}
	case []any:
		for i, child := range t {
			flattenValue(out, child, joinKey(prefix, fmt.Sprintf("[%d]", i)))
		}
	case nil:
		if prefix != "" {
			out[prefix] = "<nil>"
		}
	default:
		if prefix == "" {
			prefix = "value"
		}
		out[prefix] = fmt.Sprint(t)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// WriteToFile writes data to path with 0644 permissions.
func WriteToFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // documents are not secret
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
