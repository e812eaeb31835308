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

package library

import (
	"strconv"

	"github.com/NVIDIA/energy-benchmark/pkg/header"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
)

// BenchmarkList is a versioned listing of benchmark entries.
type BenchmarkList struct {
	header.Header `json:",inline" yaml:",inline"`

	Items []*index.Entry `json:"items" yaml:"items"`
}

// NewBenchmarkList wraps items. A nil slice becomes an empty list.
func NewBenchmarkList(items []*index.Entry, version string) *BenchmarkList {
	if items == nil {
		items = []*index.Entry{}
	}
	l := &BenchmarkList{Items: items}
	l.Init(header.KindBenchmarkList, header.APIVersion, version)
	return l
}

// TableHeader implements serializer.Tabular.
func (l *BenchmarkList) TableHeader() []string {
	return []string{"ID", "CATEGORY", "YEAR", "TITLE", "DEPRECATED"}
}

// TableRows implements serializer.Tabular.
func (l *BenchmarkList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Items))
	for _, e := range l.Items {
		year := ""
		if e.PublicationYear > 0 {
			year = strconv.Itoa(e.PublicationYear)
		}
		title := ""
		if e.Record != nil {
			title = e.Record.Metadata.Title
		}
		deprecated := "-"
		if e.Deprecated {
			deprecated = "yes"
			if e.SupersededBy != "" {
				deprecated = "by " + e.SupersededBy
			}
		}
		rows = append(rows, []string{e.ID(), string(e.Category()), year, title, deprecated})
	}
	return rows
}
