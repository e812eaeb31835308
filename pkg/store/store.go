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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/k8s/client"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
)

const (
	// SchemeMemory selects the in-memory store.
	SchemeMemory = "mem://"
	// SchemeConfigMap selects the ConfigMap store; the host part is the namespace.
	SchemeConfigMap = "cm://"
)

// Store persists benchmark entries by id.
type Store interface {
	Get(ctx context.Context, id string) (*index.Entry, error)
	List(ctx context.Context, category schema.Category) ([]*index.Entry, error)
	Put(ctx context.Context, e *index.Entry) error
	Delete(ctx context.Context, id string) error
}

// Open returns the store addressed by uri: "mem://", "cm://<namespace>" or
// a directory path.
func Open(uri string) (Store, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "" || uri == SchemeMemory:
		return NewMemoryStore(), nil
	case strings.HasPrefix(uri, SchemeConfigMap):
		ns := strings.Trim(strings.TrimPrefix(uri, SchemeConfigMap), "/")
		if ns == "" || strings.Contains(ns, "/") {
			return nil, eberrors.New(eberrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid ConfigMap store URI %q: expected %snamespace", uri, SchemeConfigMap))
		}
		c, _, err := client.GetKubeClient()
		if err != nil {
			return nil, eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to get kubernetes client", err)
		}
		return NewConfigMapStore(c, ns), nil
	default:
		return NewFileStore(uri)
	}
}

func notFound(id string) error {
	return eberrors.NewWithContext(eberrors.ErrCodeNotFound, "benchmark not found", map[string]any{"id": id})
}

func checkEntry(e *index.Entry) error {
	if e == nil || e.ID() == "" {
		return eberrors.New(eberrors.ErrCodeInvalidRequest, "benchmark entry has no id")
	}
	return nil
}

// digest returns a short stable hash of an id for use in names.
func digest(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])[:12]
}

func sortByID(entries []*index.Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID() < entries[j].ID() })
}
