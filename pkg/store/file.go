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

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/header"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/NVIDIA/energy-benchmark/pkg/serializer"
)

// FileStore keeps one JSON document per entry in a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore opens dir, creating it when missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInternal, fmt.Sprintf("failed to create store directory %s", dir), err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// FileName returns the document name of an entry id.
func FileName(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= 48 {
			break
		}
	}
	return b.String() + "-" + digest(id) + ".json"
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, FileName(id))
}

// Get reads one entry.
func (s *FileStore) Get(ctx context.Context, id string) (*index.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to read benchmark", err)
	}
	return decodeEntry(data, s.path(id))
}

// List reads every entry document of the directory. Documents that cannot be
// decoded are skipped with a warning.
func (s *FileStore) List(ctx context.Context, category schema.Category) ([]*index.Entry, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to list store directory", err)
	}

	out := make([]*index.Entry, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, eberrors.Wrap(eberrors.ErrCodeInternal, "failed to read benchmark", err)
		}
		e, err := decodeEntry(data, p)
		if err != nil {
			slog.Warn("skipping unreadable benchmark document", "path", p, "error", err)
			continue
		}
		if category == "" || e.Category() == category {
			out = append(out, e)
		}
	}
	sortByID(out)
	return out, nil
}

// Put writes an entry atomically.
func (s *FileStore) Put(ctx context.Context, e *index.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkEntry(e); err != nil {
		return err
	}
	data, err := serializer.Marshal(serializer.FormatJSON, e)
	if err != nil {
		return eberrors.Wrap(eberrors.ErrCodeInternal, "failed to encode benchmark", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".entry-*")
	if err != nil {
		return eberrors.Wrap(eberrors.ErrCodeInternal, "failed to write benchmark", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eberrors.Wrap(eberrors.ErrCodeInternal, "failed to write benchmark", err)
	}
	if err := tmp.Close(); err != nil {
		return eberrors.Wrap(eberrors.ErrCodeInternal, "failed to write benchmark", err)
	}
	if err := os.Rename(tmp.Name(), s.path(e.ID())); err != nil {
		return eberrors.Wrap(eberrors.ErrCodeInternal, "failed to write benchmark", err)
	}
	slog.Debug("benchmark written", "id", e.ID(), "path", s.path(e.ID()))
	return nil
}

// Delete removes an entry document.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(id)
	}
	if err != nil {
		return eberrors.Wrap(eberrors.ErrCodeInternal, "failed to delete benchmark", err)
	}
	return nil
}

func decodeEntry(data []byte, source string) (*index.Entry, error) {
	e, err := serializer.Decode[index.Entry](serializer.FormatJSON, data)
	if err != nil {
		return nil, eberrors.WrapWithContext(eberrors.ErrCodeInternal, "failed to decode benchmark", err,
			map[string]any{"source": source})
	}
	if err := e.Expect(header.KindBenchmarkEntry); err != nil {
		return nil, eberrors.WrapWithContext(eberrors.ErrCodeInternal, "not a benchmark document", err,
			map[string]any{"source": source})
	}
	if e.Record == nil {
		return nil, eberrors.NewWithContext(eberrors.ErrCodeInternal, "benchmark document has no record",
			map[string]any{"source": source})
	}
	return e, nil
}
