// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package treeaut

import (
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Relation is a binary relation over the numbers [0, n) of an Index, stored as one bit vector per row
type Relation struct {
	rows []*bitset.BitSet
}

// NewRelation returns the empty relation over n elements
func NewRelation(n int) *Relation {
	r := &Relation{rows: make([]*bitset.BitSet, n)}
	for i := range r.rows {
		r.rows[i] = bitset.New(uint(n))
	}
	return r
}

// FullRelation returns the relation containing every pair over n elements
func FullRelation(n int) *Relation {
	r := NewRelation(n)
	for i := range r.rows {
		for j := 0; j < n; j++ {
			r.rows[i].Set(uint(j))
		}
	}
	return r
}

// IdentityRelation returns the identity over n elements
func IdentityRelation(n int) *Relation {
	r := NewRelation(n)
	for i := range r.rows {
		r.rows[i].Set(uint(i))
	}
	return r
}

// Size returns the number of elements the relation ranges over
func (r *Relation) Size() int {
	return len(r.rows)
}

// Get returns true if (i, j) is in the relation
func (r *Relation) Get(i, j int) bool {
	return r.rows[i].Test(uint(j))
}

// Set adds or removes (i, j)
func (r *Relation) Set(i, j int, v bool) {
	r.rows[i].SetTo(uint(j), v)
}

// Clone returns a copy of the relation
func (r *Relation) Clone() *Relation {
	c := &Relation{rows: make([]*bitset.BitSet, len(r.rows))}
	for i, row := range r.rows {
		c.rows[i] = row.Clone()
	}
	return c
}

// Equal returns true if both relations contain the same pairs
func (r *Relation) Equal(o *Relation) bool {
	if len(r.rows) != len(o.rows) {
		return false
	}
	for i := range r.rows {
		if !r.rows[i].Equal(o.rows[i]) {
			return false
		}
	}
	return true
}

// IntersectWith removes from r the pairs that are not in o
func (r *Relation) IntersectWith(o *Relation) {
	for i := range r.rows {
		r.rows[i].InPlaceIntersection(o.rows[i])
	}
}

// Symmetric removes (i, j) when (j, i) is not in the relation, leaving the largest symmetric subrelation
func (r *Relation) Symmetric() {
	for i := range r.rows {
		for j := 0; j < i; j++ {
			if !r.Get(i, j) || !r.Get(j, i) {
				r.Set(i, j, false)
				r.Set(j, i, false)
			}
		}
	}
}

// Count returns the number of pairs in the relation
func (r *Relation) Count() int {
	n := 0
	for _, row := range r.rows {
		n += int(row.Count())
	}
	return n
}

func (r *Relation) String() string {
	var b strings.Builder
	for i := range r.rows {
		for j := range r.rows {
			if r.Get(i, j) {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
