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

package schema

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a manufacturing process category.
type Category string

// Supported process categories.
const (
	CategoryMilling      Category = "milling"
	CategoryTurning      Category = "turning"
	CategoryGrinding     Category = "grinding"
	CategoryDrilling     Category = "drilling"
	CategoryLaserCutting Category = "laser_cutting"
)

// Categories returns all supported categories in declaration order.
func Categories() []Category {
	return []Category{
		CategoryMilling,
		CategoryTurning,
		CategoryGrinding,
		CategoryDrilling,
		CategoryLaserCutting,
	}
}

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether c is a supported category.
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// DisplayName returns a human readable name, e.g. "Laser Cutting".
func (c Category) DisplayName() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(c), "_", " "))
}

// ParseCategory parses a category name. Case, surrounding whitespace and
// space or dash separators are tolerated ("Laser Cutting" is laser_cutting).
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	c := Category(norm)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown process category %q", s)
	}
	return c, nil
}
