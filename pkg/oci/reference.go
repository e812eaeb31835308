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

package oci

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"

	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
)

// URIScheme is the URI scheme of registry targets (e.g., "oci://ghcr.io/org/repo:tag").
const URIScheme = "oci://"

// DefaultTag is applied when a target names no tag.
const DefaultTag = "latest"

// Reference is a parsed registry target.
type Reference struct {
	// Registry is the registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the repository path (e.g., "nvidia/benchmarks").
	Repository string
	// Tag is empty when the target names none.
	Tag string
}

// IsReference reports whether target uses the oci:// scheme.
func IsReference(target string) bool {
	return strings.HasPrefix(strings.TrimSpace(target), URIScheme)
}

// ParseReference parses "oci://registry/repository[:tag]". Digest references
// are rejected because publishing always tags the manifest.
func ParseReference(target string) (*Reference, error) {
	target = strings.TrimSpace(target)
	if !IsReference(target) {
		return nil, eberrors.New(eberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid OCI reference %q: expected %sregistry/repository[:tag]", target, URIScheme))
	}

	named, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}
	if _, ok := named.(reference.Digested); ok {
		return nil, eberrors.New(eberrors.ErrCodeInvalidRequest, "digest references cannot be published to")
	}

	ref := &Reference{
		Registry:   reference.Domain(named),
		Repository: reference.Path(named),
	}
	if tagged, ok := named.(reference.Tagged); ok {
		ref.Tag = tagged.Tag()
	}
	if ref.Registry == "" || ref.Repository == "" {
		return nil, eberrors.New(eberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid OCI reference %q: registry and repository are required", target))
	}
	return ref, nil
}

// String returns the reference with its oci:// scheme.
func (r *Reference) String() string {
	return URIScheme + r.ImageReference()
}

// ImageReference returns the Docker-style reference without the scheme.
func (r *Reference) ImageReference() string {
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of the reference with tag.
func (r *Reference) WithTag(tag string) *Reference {
	c := *r
	c.Tag = tag
	return &c
}

// TagOrDefault returns the tag, or DefaultTag when none was given.
func (r *Reference) TagOrDefault() string {
	if r.Tag == "" {
		return DefaultTag
	}
	return r.Tag
}
