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
	"sync"

	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

// MemoryStore is a process-local store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*index.Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*index.Entry)}
}

// Get returns a copy of the entry.
func (s *MemoryStore) Get(ctx context.Context, id string) (*index.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, notFound(id)
	}
	return e.Copy(), nil
}

// List returns the entries of category, or all entries when it is empty.
func (s *MemoryStore) List(ctx context.Context, category schema.Category) ([]*index.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*index.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if category == "" || e.Category() == category {
			out = append(out, e.Copy())
		}
	}
	sortByID(out)
	return out, nil
}

// Put stores a copy of e.
func (s *MemoryStore) Put(ctx context.Context, e *index.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkEntry(e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID()] = e.Copy()
	return nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return notFound(id)
	}
	delete(s.entries, id)
	return nil
}
